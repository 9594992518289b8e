// Package matcher pairs extracted invoices with the bank transactions that
// most plausibly settle them.
//
// Matching is per invoice and independent: each invoice is scored against
// every candidate transaction and the best-scoring candidate wins, first one
// on ties. Candidacy is gated on amount (absolute values within the
// tolerance) and, when the invoice carries a date, on the payment falling
// inside a forward window after it. The score itself is textual: how well
// the invoice number reads out of the transaction description, with a flat
// bonus when the amounts agree to the cent. An invoice whose total is
// unknown is reported unmatched, because the amount gate is the only defense
// against pairing arbitrary text.
package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/textutil"
	"invoice-reconciliation-service/pkg/logger"
)

// exactBonus is added to the score when the amounts agree to the cent.
const exactBonus = 5.0

// Config holds configuration for invoice/transaction matching.
type Config struct {
	// AmountTolerance is the maximum absolute difference between the invoice
	// total and a transaction amount for the transaction to be a candidate.
	AmountTolerance decimal.Decimal `json:"amount_tolerance"`

	// MaxDaysDelta bounds the forward payment window: a candidate must be
	// dated between the invoice date and this many days after it. Invoices
	// without a date skip the window check.
	MaxDaysDelta int `json:"max_days_delta"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AmountTolerance: decimal.NewFromFloat(0.02),
		MaxDaysDelta:    90,
	}
}

// Validate checks if the matcher configuration is valid
func (c *Config) Validate() error {
	if c.AmountTolerance.IsNegative() {
		return fmt.Errorf("amount tolerance cannot be negative, got %s", c.AmountTolerance)
	}
	if c.MaxDaysDelta < 0 {
		return fmt.Errorf("max days delta cannot be negative, got %d", c.MaxDaysDelta)
	}
	return nil
}

// Matcher scores invoices against statement transactions.
type Matcher struct {
	config *Config
	logger logger.Logger
}

// NewMatcher creates a matcher with the given configuration.
func NewMatcher(config *Config) (*Matcher, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matcher config: %w", err)
	}

	return &Matcher{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("matcher"),
	}, nil
}

// Match pairs each invoice with its best candidate transaction. The result
// has exactly one entry per invoice, in input order; a transaction may settle
// several invoices.
func (m *Matcher) Match(invoices []*models.InvoiceRecord, transactions []*models.TransactionRecord) []*models.MatchResult {
	results := make([]*models.MatchResult, 0, len(invoices))
	matched := 0

	for _, invoice := range invoices {
		result := m.matchOne(invoice, transactions)
		if result.Matched {
			matched++
		}
		results = append(results, result)
	}

	m.logger.WithFields(logger.Fields{
		"invoices":     len(invoices),
		"transactions": len(transactions),
		"matched":      matched,
	}).Info("Matching complete")

	return results
}

// matchOne scores every candidate for one invoice and keeps the best. The
// best score starts below zero so a zero-scoring candidate, one that passed
// the amount and window gates but shares no text with the invoice number,
// still matches.
func (m *Matcher) matchOne(invoice *models.InvoiceRecord, transactions []*models.TransactionRecord) *models.MatchResult {
	result := &models.MatchResult{
		SourceFile:    invoice.SourceFile,
		InvoiceNumber: invoice.InvoiceNumber,
		InvoiceDate:   invoice.InvoiceDate,
		TotalAmount:   invoice.TotalAmount,
	}

	if invoice.TotalAmount == nil {
		m.logger.WithField("source_file", invoice.SourceFile).
			Debug("Invoice has no total, reporting unmatched")
		return result
	}

	bestScore := -1.0
	var best *models.TransactionRecord

	for _, transaction := range transactions {
		if !m.isCandidate(invoice, transaction) {
			continue
		}
		if score := m.score(invoice, transaction); score > bestScore {
			bestScore = score
			best = transaction
		}
	}

	if best == nil {
		return result
	}

	result.Matched = true
	result.Score = &bestScore
	date := best.Date
	result.BankDate = &date
	amount := best.Amount
	result.BankAmount = &amount
	description := best.Description
	result.BankDescription = &description

	return result
}

// isCandidate applies the amount and date-window gates.
func (m *Matcher) isCandidate(invoice *models.InvoiceRecord, transaction *models.TransactionRecord) bool {
	diff := invoice.TotalAmount.Abs().Sub(transaction.AbsAmount()).Abs()
	if diff.GreaterThan(m.config.AmountTolerance) {
		return false
	}

	if invoice.InvoiceDate == nil {
		return true
	}

	invoiceDate := *invoice.InvoiceDate
	deadline := invoiceDate.AddDate(0, 0, m.config.MaxDaysDelta)
	return !transaction.Date.Before(invoiceDate) && !transaction.Date.After(deadline)
}

// score rates one candidate: the partial similarity between the invoice
// number and the transaction description on a 0..100 scale, plus a flat
// bonus when the amounts agree to the cent. Without an invoice number the
// textual part is zero and only the bonus differentiates candidates.
func (m *Matcher) score(invoice *models.InvoiceRecord, transaction *models.TransactionRecord) float64 {
	score := 0.0
	if invoice.InvoiceNumber != nil {
		score = textutil.PartialRatio(*invoice.InvoiceNumber, transaction.Description)
	}

	if exactAmount(*invoice.TotalAmount, transaction.Amount) {
		score += exactBonus
	}
	return score
}

// exactAmount reports whether the two amounts agree to the cent, ignoring
// sign. Amounts are already normalized to two decimal places, so cent
// equality is plain equality of the absolute values.
func exactAmount(total, amount decimal.Decimal) bool {
	return total.Abs().Equal(amount.Abs())
}

// Window reports the candidate payment window for an invoice date, mostly
// for diagnostics and tests.
func (m *Matcher) Window(invoiceDate time.Time) (from, to time.Time) {
	return invoiceDate, invoiceDate.AddDate(0, 0, m.config.MaxDaysDelta)
}
