package cmd

import (
	"context"
	"fmt"
	"os"

	"invoice-reconciliation-service/cmd/reconciler/config"
	"invoice-reconciliation-service/internal/reconciler"
	"invoice-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the extract command
var (
	extractFiles       []string
	extractFormat      string
	extractOutput      string
	extractEnrich      bool
	extractModel       string
	extractConcurrency int
)

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract invoice fields without reconciling",
	Long: `Extract parses the given invoice documents and exports the recovered
fields without matching them against a statement. Useful for feeding the
invoice data into accounting systems that expect an XML or JSON import.

Examples:
  # XML export to a file
  reconciler extract --invoice-files inv1.txt,inv2.txt --output-file invoices.xml

  # JSON export to stdout, with enrichment
  reconciler extract --invoice-files inv.txt --output-format json --enrich`,

	PreRunE: validateExtractFlags,
	RunE:    runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringSliceVarP(&extractFiles, "invoice-files", "i", []string{}, "comma-separated paths to invoice documents (required)")
	extractCmd.Flags().StringVarP(&extractFormat, "output-format", "f", "xml", "output format: json, xml")
	extractCmd.Flags().StringVarP(&extractOutput, "output-file", "o", "", "output file path (default: stdout)")
	extractCmd.Flags().BoolVar(&extractEnrich, "enrich", false, "fill extraction gaps with model inference")
	extractCmd.Flags().StringVar(&extractModel, "model", "", "preferred inference model (default: gateway default)")
	extractCmd.Flags().IntVar(&extractConcurrency, "max-concurrency", 0, "parallel extraction workers (0 = one per CPU)")

	extractCmd.MarkFlagRequired("invoice-files")
}

func validateExtractFlags(cmd *cobra.Command, args []string) error {
	if len(extractFiles) == 0 {
		return fmt.Errorf("at least one invoice file is required")
	}
	for i, invoiceFile := range extractFiles {
		if err := validateFileExists(invoiceFile, fmt.Sprintf("invoice file %d", i+1)); err != nil {
			return err
		}
	}

	format, err := reporter.ParseFormat(extractFormat)
	if err != nil {
		return err
	}
	if format != reporter.FormatJSON && format != reporter.FormatXML {
		return fmt.Errorf("invalid output format '%s' for extraction. Valid formats: json, xml", extractFormat)
	}

	if extractConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative")
	}

	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	gateway, err := config.CreateGateway(ctx, config.GatewayOptions{
		Enabled: extractEnrich,
		Model:   extractModel,
		APIKey:  viper.GetString("api-key"),
	})
	if err != nil {
		return err
	}

	serviceConfig := config.CreateReconcilerConfig(config.ReconcilerOptions{
		MaxConcurrency: extractConcurrency,
		Model:          extractModel,
	})

	service, err := reconciler.NewService(serviceConfig, gateway)
	if err != nil {
		return err
	}

	invoices, err := service.ExtractInvoices(ctx, extractFiles)
	if err != nil {
		return err
	}

	format, _ := reporter.ParseFormat(extractFormat)
	output, closeOutput, err := openOutput(extractOutput)
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := reporter.WriteInvoices(output, invoices, format); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Extracted %d invoice(s) from %d file(s).\n", len(invoices), len(extractFiles))
	}

	return nil
}
