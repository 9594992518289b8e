package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"invoice-reconciliation-service/cmd/reconciler/config"
	"invoice-reconciliation-service/internal/ingester"
	"invoice-reconciliation-service/internal/reconciler"
	"invoice-reconciliation-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the reconcile command
var (
	invoiceFiles    []string
	statementFile   string
	statementKind   string
	outputFormat    string
	outputFile      string
	amountTolerance float64
	dateWindow      int
	maxConcurrency  int

	enableEnrichment bool
	enrichmentModel  string
)

// reconcileCmd represents the reconcile command
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Reconcile invoice documents against a bank statement",
	Long: `Reconcile extracts structured fields from the given invoice documents,
ingests the bank statement, and pairs every invoice with the statement
transaction that most plausibly settles it.

This command requires:
- One or more invoice text documents
- A bank statement file (CSV, TSV, XLSX, or plain text)

Examples:
  # Basic reconciliation with a console summary
  reconciler reconcile --invoice-files inv1.txt,inv2.txt --statement-file statement.csv

  # Custom tolerances and a CSV report
  reconciler reconcile --invoice-files inv.txt --statement-file statement.csv \
    --amount-tolerance 0.05 --date-window 120 \
    --output-format csv --output-file matches.csv

  # Force the statement parse strategy for an oddly named export
  reconciler reconcile --invoice-files inv.txt --statement-file export.dat \
    --statement-kind delimited

  # Fill extraction gaps with model inference
  reconciler reconcile --invoice-files inv.txt --statement-file statement.csv \
    --enrich --model gemini-2.0-flash`,

	PreRunE: validateReconcileFlags,
	RunE:    runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	// Required flags
	reconcileCmd.Flags().StringSliceVarP(&invoiceFiles, "invoice-files", "i", []string{}, "comma-separated paths to invoice documents (required)")
	reconcileCmd.Flags().StringVarP(&statementFile, "statement-file", "s", "", "path to the bank statement file (required)")

	// Statement handling flags
	reconcileCmd.Flags().StringVar(&statementKind, "statement-kind", "", "statement parse strategy: delimited, spreadsheet, document (default: by extension)")

	// Output flags
	reconcileCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xml")
	reconcileCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Matching configuration flags
	reconcileCmd.Flags().Float64VarP(&amountTolerance, "amount-tolerance", "a", 0.02, "maximum absolute amount difference for a candidate")
	reconcileCmd.Flags().IntVarP(&dateWindow, "date-window", "d", 90, "forward payment window in days after the invoice date")

	// Processing flags
	reconcileCmd.Flags().IntVar(&maxConcurrency, "max-concurrency", 0, "parallel invoice extraction workers (0 = one per CPU)")

	// Enrichment flags
	reconcileCmd.Flags().BoolVar(&enableEnrichment, "enrich", false, "fill extraction gaps with model inference")
	reconcileCmd.Flags().StringVar(&enrichmentModel, "model", "", "preferred inference model (default: gateway default)")

	reconcileCmd.MarkFlagRequired("invoice-files")
	reconcileCmd.MarkFlagRequired("statement-file")

	// Bind flags to viper
	viper.BindPFlag("invoice-files", reconcileCmd.Flags().Lookup("invoice-files"))
	viper.BindPFlag("statement-file", reconcileCmd.Flags().Lookup("statement-file"))
	viper.BindPFlag("statement-kind", reconcileCmd.Flags().Lookup("statement-kind"))
	viper.BindPFlag("output-format", reconcileCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", reconcileCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("amount-tolerance", reconcileCmd.Flags().Lookup("amount-tolerance"))
	viper.BindPFlag("date-window", reconcileCmd.Flags().Lookup("date-window"))
	viper.BindPFlag("max-concurrency", reconcileCmd.Flags().Lookup("max-concurrency"))
	viper.BindPFlag("enrich", reconcileCmd.Flags().Lookup("enrich"))
	viper.BindPFlag("model", reconcileCmd.Flags().Lookup("model"))
}

func validateReconcileFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	invoiceFiles = viper.GetStringSlice("invoice-files")
	statementFile = viper.GetString("statement-file")
	statementKind = viper.GetString("statement-kind")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	amountTolerance = viper.GetFloat64("amount-tolerance")
	dateWindow = viper.GetInt("date-window")
	maxConcurrency = viper.GetInt("max-concurrency")
	enableEnrichment = viper.GetBool("enrich")
	enrichmentModel = viper.GetString("model")

	if len(invoiceFiles) == 0 {
		return fmt.Errorf("at least one invoice file is required")
	}
	if statementFile == "" {
		return fmt.Errorf("statement-file is required")
	}

	for i, invoiceFile := range invoiceFiles {
		if err := validateFileExists(invoiceFile, fmt.Sprintf("invoice file %d", i+1)); err != nil {
			return err
		}
	}
	if err := validateFileExists(statementFile, "statement file"); err != nil {
		return err
	}

	if statementKind != "" {
		if _, err := config.ParseStatementKind(statementKind); err != nil {
			return err
		}
	} else {
		if _, err := ingester.KindForPath(statementFile); err != nil {
			return err
		}
	}

	if _, err := reporter.ParseFormat(outputFormat); err != nil {
		return err
	}

	if amountTolerance < 0 {
		return fmt.Errorf("amount tolerance cannot be negative")
	}
	if dateWindow < 0 {
		return fmt.Errorf("date window cannot be negative")
	}
	if maxConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting reconciliation...\n")
		fmt.Fprintf(os.Stderr, "Invoice files: %s\n", strings.Join(invoiceFiles, ", "))
		fmt.Fprintf(os.Stderr, "Statement file: %s\n", statementFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	gateway, err := config.CreateGateway(ctx, config.GatewayOptions{
		Enabled: enableEnrichment,
		Model:   enrichmentModel,
		APIKey:  viper.GetString("api-key"),
	})
	if err != nil {
		return err
	}

	serviceConfig := config.CreateReconcilerConfig(config.ReconcilerOptions{
		AmountTolerance: &amountTolerance,
		DateWindowDays:  &dateWindow,
		MaxConcurrency:  maxConcurrency,
		Model:           enrichmentModel,
	})

	service, err := reconciler.NewService(serviceConfig, gateway)
	if err != nil {
		return err
	}

	var kind ingester.FileKind
	if statementKind != "" {
		kind, _ = config.ParseStatementKind(statementKind)
	}

	result, err := service.Reconcile(ctx, invoiceFiles, statementFile, kind)
	if err != nil {
		return err
	}

	format, _ := reporter.ParseFormat(outputFormat)
	output, closeOutput, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := reporter.WriteResult(output, result, format); err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReconciliation completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Processed %d invoices and %d transactions, matched %d.\n",
			len(result.Invoices), len(result.Transactions), result.MatchedCount())
	}

	return nil
}

// openOutput resolves the report destination, defaulting to stdout.
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
