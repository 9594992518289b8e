package enrichment

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/values"
)

// The wire payloads decode every field as a loosely typed value because the
// upstream model does not reliably honor types: amounts arrive as numbers or
// strings, dates in arbitrary formats. Everything is re-parsed through the
// values package before it reaches the core; a field that fails to normalize
// is dropped, not passed along.

type invoiceFieldsPayload struct {
	InvoiceNumber interface{} `json:"invoice_number"`
	InvoiceDate   interface{} `json:"invoice_date"`
	TotalAmount   interface{} `json:"total_amount"`
	Currency      interface{} `json:"currency"`
}

type columnInferencePayload struct {
	DateColumn        interface{} `json:"date_column"`
	DescriptionColumn interface{} `json:"description_column"`
	AmountColumn      interface{} `json:"amount_column"`
	DebitColumn       interface{} `json:"debit_column"`
	CreditColumn      interface{} `json:"credit_column"`
}

type transactionCandidatePayload struct {
	Date        interface{} `json:"date"`
	Description interface{} `json:"description"`
	Amount      interface{} `json:"amount"`
}

// decodeInvoiceFields normalizes an invoice-field response. Returns nil when
// the payload is malformed or carries no usable field.
func decodeInvoiceFields(raw string) *models.EnrichmentResult {
	var payload invoiceFieldsPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	result := &models.EnrichmentResult{}

	if number := stringify(payload.InvoiceNumber); number != "" {
		result.InvoiceNumber = &number
	}
	if dateText := stringify(payload.InvoiceDate); dateText != "" {
		result.InvoiceDate = values.ParseDate(dateText)
	}
	if amountText := stringify(payload.TotalAmount); amountText != "" {
		result.TotalAmount = values.ParseAmount(amountText)
	}
	if currency := normalizeCurrency(stringify(payload.Currency)); currency != "" {
		result.Currency = &currency
	}

	if result.IsEmpty() {
		return nil
	}
	return result
}

// decodeColumnInference normalizes a column-suggestion response. The names
// are kept as-is; the ingester re-matches them against the real headers.
func decodeColumnInference(raw string) *models.ColumnInference {
	var payload columnInferencePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	inference := &models.ColumnInference{}
	empty := true

	assign := func(target **string, value interface{}) {
		if name := stringify(value); name != "" {
			*target = &name
			empty = false
		}
	}

	assign(&inference.DateColumn, payload.DateColumn)
	assign(&inference.DescriptionColumn, payload.DescriptionColumn)
	assign(&inference.AmountColumn, payload.AmountColumn)
	assign(&inference.DebitColumn, payload.DebitColumn)
	assign(&inference.CreditColumn, payload.CreditColumn)

	if empty {
		return nil
	}
	return inference
}

// decodeTransactionCandidates normalizes a transaction-list response.
// Candidates without a parseable date or a description are dropped.
func decodeTransactionCandidates(raw string) []models.TransactionCandidate {
	var payload []transactionCandidatePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}

	var candidates []models.TransactionCandidate
	for _, entry := range payload {
		description := strings.TrimSpace(stringify(entry.Description))
		date := values.ParseDate(stringify(entry.Date))
		if date == nil || description == "" {
			continue
		}

		candidate := models.TransactionCandidate{
			Date:        date,
			Description: description,
		}
		if amountText := stringify(entry.Amount); amountText != "" {
			candidate.Amount = values.ParseAmount(amountText)
		}

		candidates = append(candidates, candidate)
	}

	return candidates
}

// stringify renders a loosely typed JSON value as a trimmed string, with
// null and non-scalar values becoming empty.
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return fmt.Sprintf("%.2f", v)
	case bool:
		return ""
	default:
		return ""
	}
}

// normalizeCurrency accepts three-letter ISO-looking codes only.
func normalizeCurrency(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return ""
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return ""
		}
	}
	return code
}
