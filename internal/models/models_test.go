package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func createTestInvoice() *InvoiceRecord {
	number := "INV-123"
	date := time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)
	total := decimal.NewFromFloat(1234.56)

	record := NewInvoiceRecord("invoice.txt")
	record.InvoiceNumber = &number
	record.InvoiceDate = &date
	record.TotalAmount = &total
	return record
}

func createTestEnrichment() *EnrichmentResult {
	number := "ENR-999"
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	total := decimal.NewFromFloat(99.99)
	currency := "USD"

	return &EnrichmentResult{
		InvoiceNumber: &number,
		InvoiceDate:   &date,
		TotalAmount:   &total,
		Currency:      &currency,
	}
}

func TestNewInvoiceRecord(t *testing.T) {
	record := NewInvoiceRecord("invoice.txt")

	if record.SourceFile != "invoice.txt" {
		t.Errorf("Expected source file invoice.txt, got %s", record.SourceFile)
	}
	if record.Currency != HomeCurrency {
		t.Errorf("Expected home currency %s, got %s", HomeCurrency, record.Currency)
	}
	if record.InvoiceNumber != nil || record.InvoiceDate != nil || record.TotalAmount != nil {
		t.Error("Expected optional fields to start nil")
	}
}

func TestMergeEnrichmentFillsGaps(t *testing.T) {
	record := NewInvoiceRecord("invoice.txt")
	record.Currency = ""

	record.MergeEnrichment(createTestEnrichment())

	if record.InvoiceNumber == nil || *record.InvoiceNumber != "ENR-999" {
		t.Error("Expected enrichment to fill the missing invoice number")
	}
	if record.InvoiceDate == nil || record.InvoiceDate.Year() != 2024 {
		t.Error("Expected enrichment to fill the missing invoice date")
	}
	if record.TotalAmount == nil || !record.TotalAmount.Equal(decimal.NewFromFloat(99.99)) {
		t.Error("Expected enrichment to fill the missing total")
	}
	if record.Currency != "USD" {
		t.Errorf("Expected enrichment to fill the missing currency, got %s", record.Currency)
	}
}

func TestMergeEnrichmentNeverOverwrites(t *testing.T) {
	record := createTestInvoice()

	record.MergeEnrichment(createTestEnrichment())

	if *record.InvoiceNumber != "INV-123" {
		t.Errorf("Expected heuristic invoice number to survive, got %s", *record.InvoiceNumber)
	}
	if record.InvoiceDate.Year() != 2023 {
		t.Errorf("Expected heuristic invoice date to survive, got %s", record.InvoiceDate)
	}
	if !record.TotalAmount.Equal(decimal.NewFromFloat(1234.56)) {
		t.Errorf("Expected heuristic total to survive, got %s", record.TotalAmount)
	}
	if record.Currency != HomeCurrency {
		t.Errorf("Expected currency %s to survive, got %s", HomeCurrency, record.Currency)
	}
}

func TestMergeEnrichmentNil(t *testing.T) {
	record := NewInvoiceRecord("invoice.txt")
	record.MergeEnrichment(nil)

	if record.InvoiceNumber != nil {
		t.Error("Expected nil enrichment to be a no-op")
	}
}

func TestInvoiceRecordMarshalJSON(t *testing.T) {
	data, err := json.Marshal(createTestInvoice())
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	payload := string(data)
	if !strings.Contains(payload, `"invoice_date":"2023-01-15"`) {
		t.Errorf("Expected plain calendar date, got %s", payload)
	}
	if !strings.Contains(payload, `"total_amount":"1234.56"`) {
		t.Errorf("Expected fixed two-decimal amount, got %s", payload)
	}
}

func TestTransactionRecordValidate(t *testing.T) {
	record := NewTransactionRecord(
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), "VIR INV-123", decimal.NewFromFloat(-100.00))
	if err := record.Validate(); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}

	record.Description = "  "
	if err := record.Validate(); err == nil {
		t.Error("Expected blank description to fail validation")
	}

	record.Description = "ok"
	record.Date = time.Time{}
	if err := record.Validate(); err == nil {
		t.Error("Expected zero date to fail validation")
	}
}

func TestTransactionRecordSign(t *testing.T) {
	debit := NewTransactionRecord(time.Now(), "payment", decimal.NewFromFloat(-50.00))
	if !debit.IsDebit() {
		t.Error("Expected negative amount to be a debit")
	}
	if !debit.AbsAmount().Equal(decimal.NewFromFloat(50.00)) {
		t.Errorf("Expected absolute 50.00, got %s", debit.AbsAmount())
	}

	credit := NewTransactionRecord(time.Now(), "refund", decimal.NewFromFloat(50.00))
	if credit.IsDebit() {
		t.Error("Expected positive amount not to be a debit")
	}
}

func TestDetectedColumnsMissingRole(t *testing.T) {
	columns := NewDetectedColumns()
	if role := columns.MissingRole(); role != RoleDate {
		t.Errorf("Expected date to be missing first, got %s", role)
	}

	columns.Date = 0
	if role := columns.MissingRole(); role != RoleDescription {
		t.Errorf("Expected description to be missing, got %s", role)
	}

	columns.Description = 1
	if role := columns.MissingRole(); role != RoleAmount {
		t.Errorf("Expected amount group to be missing, got %s", role)
	}

	// Either a debit or a credit column satisfies the amount group.
	columns.Debit = 2
	if role := columns.MissingRole(); role != "" {
		t.Errorf("Expected complete mapping, got missing %s", role)
	}
	if err := columns.Validate(); err != nil {
		t.Errorf("Expected valid mapping, got %v", err)
	}
}

func TestMatchResultMarshalJSON(t *testing.T) {
	score := 105.0
	date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromFloat(1234.56)
	description := "VIR INV-123"

	result := &MatchResult{
		SourceFile:      "invoice.txt",
		Matched:         true,
		Score:           &score,
		BankDate:        &date,
		BankAmount:      &amount,
		BankDescription: &description,
	}

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	payload := string(data)
	if !strings.Contains(payload, `"bank_date":"2023-02-01"`) {
		t.Errorf("Expected plain bank date, got %s", payload)
	}
	if !strings.Contains(payload, `"bank_amount":"1234.56"`) {
		t.Errorf("Expected fixed two-decimal bank amount, got %s", payload)
	}
	if !strings.Contains(payload, `"matched":true`) {
		t.Errorf("Expected matched flag, got %s", payload)
	}
}

func TestEnrichmentResultIsEmpty(t *testing.T) {
	var nilResult *EnrichmentResult
	if !nilResult.IsEmpty() {
		t.Error("Expected nil result to be empty")
	}
	if !(&EnrichmentResult{}).IsEmpty() {
		t.Error("Expected zero result to be empty")
	}
	if createTestEnrichment().IsEmpty() {
		t.Error("Expected populated result not to be empty")
	}
}
