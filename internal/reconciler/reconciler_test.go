package reconciler

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"invoice-reconciliation-service/pkg/errors"
)

const testInvoiceA = `ACME CONSULTING SARL

FACTURE N° INV-123

Date de facturation : 15/01/2023

Total TTC : 1 234,56
`

const testInvoiceB = `FACTURE N° INV-456

Date : 20/01/2023

Total : 500,00
`

const testStatement = `Date,Description,Amount
01/02/2023,VIR SEPA INV-123,-1234.56
05/02/2023,CARD PAYMENT GROCERIES,-42.00
`

func createTestService(t *testing.T) *Service {
	t.Helper()
	service, err := NewService(nil, nil)
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestReconcileEndToEnd(t *testing.T) {
	dir := t.TempDir()
	invoiceA := writeTestFile(t, dir, "invoice_a.txt", testInvoiceA)
	invoiceB := writeTestFile(t, dir, "invoice_b.txt", testInvoiceB)
	statement := writeTestFile(t, dir, "statement.csv", testStatement)

	service := createTestService(t)
	result, err := service.Reconcile(context.Background(), []string{invoiceA, invoiceB}, statement, "")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	if len(result.Invoices) != 2 {
		t.Fatalf("Expected 2 invoices, got %d", len(result.Invoices))
	}
	if len(result.Transactions) != 2 {
		t.Fatalf("Expected 2 transactions, got %d", len(result.Transactions))
	}
	if len(result.Matches) != 2 {
		t.Fatalf("Expected 2 match results, got %d", len(result.Matches))
	}

	// INV-123 settles against the SEPA transfer; INV-456 has no counterpart.
	if !result.Matches[0].Matched {
		t.Error("Expected INV-123 to match")
	}
	if result.Matches[1].Matched {
		t.Error("Expected INV-456 to stay unmatched")
	}
	if result.MatchedCount() != 1 {
		t.Errorf("Expected 1 matched invoice, got %d", result.MatchedCount())
	}
}

func TestReconcileKeepsInputOrder(t *testing.T) {
	dir := t.TempDir()

	// Enough files to make completion order diverge from input order.
	var paths []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		content := "FACTURE N° INV-" + name + "1\nTotal : 10,00\n"
		paths = append(paths, writeTestFile(t, dir, name+".txt", content))
	}

	service := createTestService(t)
	invoices, err := service.ExtractInvoices(context.Background(), paths)
	if err != nil {
		t.Fatalf("ExtractInvoices failed: %v", err)
	}

	if len(invoices) != len(paths) {
		t.Fatalf("Expected %d invoices, got %d", len(paths), len(invoices))
	}
	for i, path := range paths {
		if invoices[i].SourceFile != path {
			t.Errorf("Expected invoice %d from %s, got %s", i, path, invoices[i].SourceFile)
		}
	}
}

func TestExtractInvoicesSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	good := writeTestFile(t, dir, "good.txt", testInvoiceA)
	missing := filepath.Join(dir, "missing.txt")

	service := createTestService(t)
	invoices, err := service.ExtractInvoices(context.Background(), []string{missing, good})
	if err != nil {
		t.Fatalf("Expected the batch to survive one unreadable file, got %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("Expected 1 invoice from the readable file, got %d", len(invoices))
	}
}

func TestExtractInvoicesAllFailing(t *testing.T) {
	dir := t.TempDir()

	service := createTestService(t)
	_, err := service.ExtractInvoices(context.Background(), []string{filepath.Join(dir, "nope.txt")})
	if err == nil {
		t.Fatal("Expected an error when no file yields invoices")
	}
	if !errors.HasCode(err, errors.CodeEmptyResult) {
		t.Errorf("Expected code %s, got %v", errors.CodeEmptyResult, err)
	}
}

func TestExtractInvoicesNoPaths(t *testing.T) {
	service := createTestService(t)
	if _, err := service.ExtractInvoices(context.Background(), nil); err == nil {
		t.Fatal("Expected an error for an empty path list")
	}
}

func TestReconcileStatementKindOverride(t *testing.T) {
	dir := t.TempDir()
	invoice := writeTestFile(t, dir, "invoice.txt", testInvoiceA)

	// Delimited content behind a .txt extension.
	statement := writeTestFile(t, dir, "export.txt", testStatement)

	service := createTestService(t)
	result, err := service.Reconcile(context.Background(), []string{invoice}, statement, "delimited")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if len(result.Transactions) != 2 {
		t.Errorf("Expected 2 transactions from the overridden kind, got %d", len(result.Transactions))
	}
}

func TestConfigValidate(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("Expected default config to validate, got %v", err)
	}

	config.MaxConcurrency = -1
	if err := config.Validate(); err == nil {
		t.Error("Expected negative concurrency to fail validation")
	}
}
