package extractor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
)

const sampleInvoice = `ACME CONSULTING SARL
12 rue de la Paix, 75002 Paris

FACTURE N° INV-123

Date de facturation : 15 janvier 2023
Client : DUPONT INDUSTRIES

Prestation de conseil    1 000,00
TVA 20%                    234,56

Total TTC : 1 234,56 €
`

// stubGateway returns canned enrichment results for testing.
type stubGateway struct {
	fields *models.EnrichmentResult
	calls  int
}

func (g *stubGateway) ExtractInvoiceFields(ctx context.Context, text, modelHint string) (*models.EnrichmentResult, error) {
	g.calls++
	return g.fields, nil
}

func (g *stubGateway) InferColumns(ctx context.Context, headers []string, sampleRows []map[string]string, modelHint string) (*models.ColumnInference, error) {
	return nil, nil
}

func (g *stubGateway) ExtractTransactions(ctx context.Context, text, modelHint string) ([]models.TransactionCandidate, error) {
	return nil, nil
}

func createTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(nil, nil)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	return e
}

func TestExtractAllSingleInvoice(t *testing.T) {
	e := createTestExtractor(t)

	records := e.ExtractAll(context.Background(), "invoice.txt", sampleInvoice)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}

	record := records[0]
	if record.SourceFile != "invoice.txt" {
		t.Errorf("Expected source invoice.txt, got %s", record.SourceFile)
	}
	if record.InvoiceNumber == nil || *record.InvoiceNumber != "INV-123" {
		t.Fatalf("Expected invoice number INV-123, got %v", record.InvoiceNumber)
	}
	if record.InvoiceDate == nil || !record.InvoiceDate.Equal(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Expected invoice date 2023-01-15, got %v", record.InvoiceDate)
	}
	if record.TotalAmount == nil || !record.TotalAmount.Equal(decimal.NewFromFloat(1234.56)) {
		t.Fatalf("Expected total 1234.56, got %v", record.TotalAmount)
	}
	if record.Currency != models.HomeCurrency {
		t.Errorf("Expected currency %s, got %s", models.HomeCurrency, record.Currency)
	}
	if record.SupplierName == nil || !strings.Contains(*record.SupplierName, "ACME") {
		t.Errorf("Expected the uppercase letterhead as supplier, got %v", record.SupplierName)
	}
}

func TestExtractAllMultipleSections(t *testing.T) {
	e := createTestExtractor(t)
	text := "FACTURE N° A-1\nTotal : 100,00\n\nFACTURE N° B-2\nTotal : 200,00\n"

	records := e.ExtractAll(context.Background(), "batch.txt", text)
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if records[0].SourceFile != "batch.txt#1" || records[1].SourceFile != "batch.txt#2" {
		t.Errorf("Expected numbered section labels, got %s and %s",
			records[0].SourceFile, records[1].SourceFile)
	}
	if *records[0].InvoiceNumber != "A-1" || *records[1].InvoiceNumber != "B-2" {
		t.Errorf("Expected per-section numbers, got %s and %s",
			*records[0].InvoiceNumber, *records[1].InvoiceNumber)
	}
	if !records[1].TotalAmount.Equal(decimal.NewFromFloat(200.00)) {
		t.Errorf("Expected second section total 200.00, got %s", records[1].TotalAmount)
	}
}

func TestExtractAllLeadingHeadingKeepsOneSection(t *testing.T) {
	e := createTestExtractor(t)

	records := e.ExtractAll(context.Background(), "one.txt", "FACTURE N° C-3\nTotal : 50,00\n")
	if len(records) != 1 {
		t.Fatalf("Expected a leading heading to open a single section, got %d", len(records))
	}
	if records[0].SourceFile != "one.txt" {
		t.Errorf("Expected unnumbered label for single section, got %s", records[0].SourceFile)
	}
}

func TestExtractAllEmptyText(t *testing.T) {
	e := createTestExtractor(t)
	if records := e.ExtractAll(context.Background(), "empty.txt", "   \n  \n"); len(records) != 0 {
		t.Errorf("Expected no records for blank text, got %d", len(records))
	}
}

func TestExtractTotalFallbackToMaximum(t *testing.T) {
	e := createTestExtractor(t)
	text := "FACTURE N° D-4\nLigne 1  100,00\nLigne 2  450,00\nLigne 3  50,00\n"

	records := e.ExtractAll(context.Background(), "fallback.txt", text)
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if records[0].TotalAmount == nil || !records[0].TotalAmount.Equal(decimal.NewFromFloat(450.00)) {
		t.Errorf("Expected the maximum figure 450.00 as total, got %v", records[0].TotalAmount)
	}
}

func TestExtractEnrichmentFillsGaps(t *testing.T) {
	number := "GW-77"
	total := decimal.NewFromFloat(88.00)
	gateway := &stubGateway{fields: &models.EnrichmentResult{InvoiceNumber: &number, TotalAmount: &total}}

	e, err := NewExtractor(nil, gateway)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	records := e.ExtractAll(context.Background(), "sparse.txt", "Some document without labels\n")
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if gateway.calls != 1 {
		t.Fatalf("Expected one gateway call, got %d", gateway.calls)
	}
	if records[0].InvoiceNumber == nil || *records[0].InvoiceNumber != "GW-77" {
		t.Errorf("Expected enrichment to fill the invoice number, got %v", records[0].InvoiceNumber)
	}
}

func TestExtractEnrichmentSkippedWhenComplete(t *testing.T) {
	gateway := &stubGateway{}
	e, err := NewExtractor(nil, gateway)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}

	e.ExtractAll(context.Background(), "invoice.txt", sampleInvoice)
	if gateway.calls != 0 {
		t.Errorf("Expected no gateway call for a fully extracted invoice, got %d", gateway.calls)
	}
}

func TestFindParties(t *testing.T) {
	supplier, customer := findParties(sampleInvoice, 0.6)
	if supplier == nil || *supplier != "ACME CONSULTING SARL" {
		t.Errorf("Expected supplier ACME CONSULTING SARL, got %v", supplier)
	}
	if customer == nil || !strings.Contains(*customer, "DUPONT") {
		t.Errorf("Expected a customer line mentioning DUPONT, got %v", customer)
	}
}

func TestHeaderSnippet(t *testing.T) {
	snippet := headerSnippet(sampleInvoice, 3)
	lines := strings.Split(snippet, "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 snippet lines, got %d", len(lines))
	}
	if lines[0] != "ACME CONSULTING SARL" {
		t.Errorf("Expected the letterhead first, got %q", lines[0])
	}
}
