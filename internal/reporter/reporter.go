// Package reporter renders reconciliation results for people and for
// machines.
//
// Four formats are supported: a console summary for interactive runs, JSON
// for downstream tooling, CSV mirroring the match table, and an XML invoice
// export. Reporters write to any io.Writer; file handling is the caller's
// concern.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/reconciler"
	"invoice-reconciliation-service/pkg/errors"
)

// Format identifies an output rendering.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatXML     Format = "xml"
)

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatConsole:
		return FormatConsole, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatXML:
		return FormatXML, nil
	}
	return "", errors.ConfigurationError("output-format", name, nil).
		WithSuggestion("use one of: console, json, csv, xml")
}

// WriteResult renders a full reconciliation result in the given format.
func WriteResult(w io.Writer, result *reconciler.Result, format Format) error {
	switch format {
	case FormatConsole:
		return writeConsole(w, result)
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeMatchCSV(w, result.Matches)
	case FormatXML:
		return writeInvoiceXML(w, result.Invoices)
	}
	return errors.ConfigurationError("output-format", string(format), nil)
}

// WriteInvoices renders extracted invoices only, for extraction-only runs.
// The console and CSV formats are not meaningful without matches, so only
// JSON and XML are accepted.
func WriteInvoices(w io.Writer, invoices []*models.InvoiceRecord, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, invoices)
	case FormatXML:
		return writeInvoiceXML(w, invoices)
	}
	return errors.ConfigurationError("output-format", string(format), nil).
		WithSuggestion("extraction output supports json and xml")
}

func writeJSON(w io.Writer, payload interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(payload); err != nil {
		return errors.InternalError("json encoding", err)
	}
	return nil
}

// matchCSVHeader fixes the column order of the match export.
var matchCSVHeader = []string{
	"source_file", "invoice_number", "invoice_date", "total_amount",
	"matched", "match_score", "bank_date", "bank_amount", "bank_description",
}

func writeMatchCSV(w io.Writer, matches []*models.MatchResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(matchCSVHeader); err != nil {
		return errors.InternalError("csv encoding", err)
	}

	for _, match := range matches {
		row := []string{
			match.SourceFile,
			stringOrEmpty(match.InvoiceNumber),
			dateOrEmpty(match.InvoiceDate),
			amountOrEmpty(match.TotalAmount),
			strconv.FormatBool(match.Matched),
			scoreOrEmpty(match.Score),
			dateOrEmpty(match.BankDate),
			amountOrEmpty(match.BankAmount),
			stringOrEmpty(match.BankDescription),
		}
		if err := writer.Write(row); err != nil {
			return errors.InternalError("csv encoding", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return errors.InternalError("csv encoding", err)
	}
	return nil
}

// writeConsole prints a human-readable run summary: the counts first, then
// one line per invoice with its match outcome.
func writeConsole(w io.Writer, result *reconciler.Result) error {
	matched := result.MatchedCount()

	fmt.Fprintf(w, "Reconciliation summary\n")
	fmt.Fprintf(w, "  invoices:     %d\n", len(result.Invoices))
	fmt.Fprintf(w, "  transactions: %d\n", len(result.Transactions))
	fmt.Fprintf(w, "  matched:      %d\n", matched)
	fmt.Fprintf(w, "  unmatched:    %d\n\n", len(result.Matches)-matched)

	for _, match := range result.Matches {
		number := stringOrEmpty(match.InvoiceNumber)
		if number == "" {
			number = "?"
		}
		total := amountOrEmpty(match.TotalAmount)
		if total == "" {
			total = "?"
		}

		if match.Matched {
			fmt.Fprintf(w, "  MATCHED   %-30s %-15s %8s -> %s %s (score %.1f)\n",
				match.SourceFile, number, total,
				dateOrEmpty(match.BankDate), amountOrEmpty(match.BankAmount), *match.Score)
		} else {
			fmt.Fprintf(w, "  UNMATCHED %-30s %-15s %8s\n", match.SourceFile, number, total)
		}
	}

	return nil
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
