// Package models defines the core data types of the reconciliation service.
//
// The two primary record types are InvoiceRecord (fields recovered from one
// logical invoice) and TransactionRecord (one normalized bank statement
// line). Absence is a first-class state for invoice fields: any of them may
// be nil without the record being invalid. Transactions are the opposite:
// a TransactionRecord always has a usable date and amount, because rows that
// cannot be normalized are dropped during ingestion.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// HomeCurrency is the fixed currency code assigned to invoices when a
// currency marker is found or when no currency can be detected at all.
// Multi-currency disambiguation is not supported.
const HomeCurrency = "EUR"

// InvoiceRecord holds the structured fields recovered from one logical
// invoice, possibly one of several sections within a single document.
// Optional fields are nil when the heuristics (and enrichment, if enabled)
// found nothing.
type InvoiceRecord struct {
	SourceFile    string           `json:"source_file"`
	InvoiceNumber *string          `json:"invoice_number,omitempty"`
	InvoiceDate   *time.Time       `json:"invoice_date,omitempty"`
	TotalAmount   *decimal.Decimal `json:"total_amount,omitempty"`
	Currency      string           `json:"currency"`
	SupplierName  *string          `json:"supplier_name,omitempty"`
	CustomerName  *string          `json:"customer_name,omitempty"`
	HeaderSnippet string           `json:"header_snippet,omitempty"`
	RawText       string           `json:"-"`
}

// NewInvoiceRecord creates an empty invoice record for the given source label
func NewInvoiceRecord(sourceFile string) *InvoiceRecord {
	return &InvoiceRecord{
		SourceFile: sourceFile,
		Currency:   HomeCurrency,
	}
}

// MergeEnrichment fills gaps in the record from an enrichment result.
// A field is only taken from the enrichment when the heuristic value is
// absent; a confident heuristic hit is never overwritten. Supplier and
// customer names and the header snippet are never touched.
func (ir *InvoiceRecord) MergeEnrichment(er *EnrichmentResult) {
	if er == nil {
		return
	}
	if ir.InvoiceNumber == nil && er.InvoiceNumber != nil && strings.TrimSpace(*er.InvoiceNumber) != "" {
		number := strings.TrimSpace(*er.InvoiceNumber)
		ir.InvoiceNumber = &number
	}
	if ir.InvoiceDate == nil && er.InvoiceDate != nil {
		date := *er.InvoiceDate
		ir.InvoiceDate = &date
	}
	if ir.TotalAmount == nil && er.TotalAmount != nil {
		total := *er.TotalAmount
		ir.TotalAmount = &total
	}
	if ir.Currency == "" && er.Currency != nil && strings.TrimSpace(*er.Currency) != "" {
		ir.Currency = strings.ToUpper(strings.TrimSpace(*er.Currency))
	}
}

// String returns a string representation of the InvoiceRecord
func (ir *InvoiceRecord) String() string {
	number := "?"
	if ir.InvoiceNumber != nil {
		number = *ir.InvoiceNumber
	}
	total := "?"
	if ir.TotalAmount != nil {
		total = ir.TotalAmount.StringFixed(2)
	}
	date := "?"
	if ir.InvoiceDate != nil {
		date = ir.InvoiceDate.Format("2006-01-02")
	}
	return fmt.Sprintf("Invoice{Source: %s, Number: %s, Date: %s, Total: %s %s}",
		ir.SourceFile, number, date, total, ir.Currency)
}

// MarshalJSON renders the amount with a fixed two-decimal scale and the date
// as a plain calendar date, matching the export formats.
func (ir *InvoiceRecord) MarshalJSON() ([]byte, error) {
	type Alias InvoiceRecord
	aux := &struct {
		InvoiceDate *string `json:"invoice_date,omitempty"`
		TotalAmount *string `json:"total_amount,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(ir),
	}

	if ir.InvoiceDate != nil {
		date := ir.InvoiceDate.Format("2006-01-02")
		aux.InvoiceDate = &date
	}
	if ir.TotalAmount != nil {
		total := ir.TotalAmount.StringFixed(2)
		aux.TotalAmount = &total
	}

	return json.Marshal(aux)
}

// TransactionRecord represents one normalized bank statement line.
// Amount is signed: positive for credits (money in), negative for debits.
type TransactionRecord struct {
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// NewTransactionRecord creates a new TransactionRecord instance
func NewTransactionRecord(date time.Time, description string, amount decimal.Decimal) *TransactionRecord {
	return &TransactionRecord{
		Date:        date,
		Description: description,
		Amount:      amount,
	}
}

// Validate performs basic validation on the TransactionRecord
func (tr *TransactionRecord) Validate() error {
	if tr.Date.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if strings.TrimSpace(tr.Description) == "" {
		return fmt.Errorf("transaction description cannot be empty")
	}

	return nil
}

// AbsAmount returns the absolute value of the transaction amount
func (tr *TransactionRecord) AbsAmount() decimal.Decimal {
	return tr.Amount.Abs()
}

// IsDebit returns true if the transaction is an outflow
func (tr *TransactionRecord) IsDebit() bool {
	return tr.Amount.IsNegative()
}

// String returns a string representation of the TransactionRecord
func (tr *TransactionRecord) String() string {
	return fmt.Sprintf("Transaction{Date: %s, Amount: %s, Description: %s}",
		tr.Date.Format("2006-01-02"), tr.Amount.StringFixed(2), tr.Description)
}

// MarshalJSON implements custom JSON marshaling for TransactionRecord
func (tr *TransactionRecord) MarshalJSON() ([]byte, error) {
	type Alias TransactionRecord
	return json.Marshal(&struct {
		Date   string `json:"date"`
		Amount string `json:"amount"`
		*Alias
	}{
		Date:   tr.Date.Format("2006-01-02"),
		Amount: tr.Amount.StringFixed(2),
		Alias:  (*Alias)(tr),
	})
}

// Column roles assigned to statement columns during detection.
const (
	RoleDate        = "date"
	RoleDescription = "description"
	RoleAmount      = "amount"
	RoleDebit       = "debit"
	RoleCredit      = "credit"
)

// DetectedColumns maps semantic column roles to source column indices.
// Either Amount is set, or at least one of Debit/Credit is; never both a
// signed amount column and a debit/credit pair are required at once.
// An index of -1 means the role was not resolved.
type DetectedColumns struct {
	Date        int `json:"date"`
	Description int `json:"description"`
	Amount      int `json:"amount"`
	Debit       int `json:"debit"`
	Credit      int `json:"credit"`
}

// NewDetectedColumns returns a mapping with every role unresolved
func NewDetectedColumns() *DetectedColumns {
	return &DetectedColumns{
		Date:        -1,
		Description: -1,
		Amount:      -1,
		Debit:       -1,
		Credit:      -1,
	}
}

// HasAmountGroup reports whether an amount can be derived from the mapping,
// either from a single signed amount column or from a debit/credit pair.
func (dc *DetectedColumns) HasAmountGroup() bool {
	return dc.Amount >= 0 || dc.Debit >= 0 || dc.Credit >= 0
}

// MissingRole returns the name of the first unresolved required role, or an
// empty string when the mapping is complete enough for ingestion.
func (dc *DetectedColumns) MissingRole() string {
	if dc.Date < 0 {
		return RoleDate
	}
	if dc.Description < 0 {
		return RoleDescription
	}
	if !dc.HasAmountGroup() {
		return RoleAmount
	}
	return ""
}

// Validate checks that all required roles are resolved
func (dc *DetectedColumns) Validate() error {
	if role := dc.MissingRole(); role != "" {
		return fmt.Errorf("column role '%s' is not resolved", role)
	}
	return nil
}

// MatchResult pairs one invoice with the statement transaction that most
// plausibly settles it. There is exactly one result per input invoice, in
// input order; unmatched invoices carry Matched=false and no bank fields.
type MatchResult struct {
	SourceFile      string           `json:"source_file"`
	InvoiceNumber   *string          `json:"invoice_number,omitempty"`
	InvoiceDate     *time.Time       `json:"invoice_date,omitempty"`
	TotalAmount     *decimal.Decimal `json:"total_amount,omitempty"`
	Matched         bool             `json:"matched"`
	Score           *float64         `json:"match_score,omitempty"`
	BankDate        *time.Time       `json:"bank_date,omitempty"`
	BankAmount      *decimal.Decimal `json:"bank_amount,omitempty"`
	BankDescription *string          `json:"bank_description,omitempty"`
}

// MarshalJSON implements custom JSON marshaling for MatchResult
func (mr *MatchResult) MarshalJSON() ([]byte, error) {
	type Alias MatchResult
	aux := &struct {
		InvoiceDate *string `json:"invoice_date,omitempty"`
		TotalAmount *string `json:"total_amount,omitempty"`
		BankDate    *string `json:"bank_date,omitempty"`
		BankAmount  *string `json:"bank_amount,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(mr),
	}

	if mr.InvoiceDate != nil {
		date := mr.InvoiceDate.Format("2006-01-02")
		aux.InvoiceDate = &date
	}
	if mr.TotalAmount != nil {
		total := mr.TotalAmount.StringFixed(2)
		aux.TotalAmount = &total
	}
	if mr.BankDate != nil {
		date := mr.BankDate.Format("2006-01-02")
		aux.BankDate = &date
	}
	if mr.BankAmount != nil {
		amount := mr.BankAmount.StringFixed(2)
		aux.BankAmount = &amount
	}

	return json.Marshal(aux)
}

// EnrichmentResult is the invoice-field payload returned by the enrichment
// gateway. Every field is independently optional; dates and amounts have
// already been re-parsed and validated by the gateway before they get here.
type EnrichmentResult struct {
	InvoiceNumber *string
	InvoiceDate   *time.Time
	TotalAmount   *decimal.Decimal
	Currency      *string
}

// IsEmpty reports whether the enrichment produced no usable field at all
func (er *EnrichmentResult) IsEmpty() bool {
	return er == nil ||
		(er.InvoiceNumber == nil && er.InvoiceDate == nil && er.TotalAmount == nil && er.Currency == nil)
}

// ColumnInference is the column-name suggestion payload returned by the
// enrichment gateway. The names are suggestions only: the ingester re-matches
// them against the actual statement headers and never trusts them verbatim.
type ColumnInference struct {
	DateColumn        *string
	DescriptionColumn *string
	AmountColumn      *string
	DebitColumn       *string
	CreditColumn      *string
}

// TransactionCandidate is one transaction suggested by the enrichment gateway
// for an unstructured statement document. Amount may be absent; candidates
// without a parseable date or amount are dropped during normalization.
type TransactionCandidate struct {
	Date        *time.Time
	Description string
	Amount      *decimal.Decimal
}
