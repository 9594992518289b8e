package ingester

import (
	"context"
	"regexp"
	"strings"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/values"
)

// documentLinePattern matches one statement line in free text: a leading
// date token, a description, and a trailing amount. Lines that do not fit
// this shape are ignored.
var documentLinePattern = regexp.MustCompile(`^\s*(\d{4}[/.\-]\d{1,2}[/.\-]\d{1,2}|\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\s+(.+?)\s+([+-]?\s*\d[\d., ]*)\s*$`)

// parseDocument extracts transactions from an unstructured text statement.
// The line heuristic runs first; when it finds nothing the whole text goes to
// the enrichment gateway, whose candidates are normalized with the same
// drop-on-failure rules as structured rows.
func (i *Ingester) parseDocument(ctx context.Context, text string) ([]*models.TransactionRecord, error) {
	var transactions []*models.TransactionRecord

	for _, line := range strings.Split(text, "\n") {
		m := documentLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		date := values.ParseDate(m[1])
		amount := values.ParseAmount(m[3])
		description := strings.TrimSpace(m[2])
		if date == nil || amount == nil || description == "" {
			continue
		}

		transactions = append(transactions, models.NewTransactionRecord(*date, description, *amount))
	}

	if len(transactions) > 0 {
		i.logger.WithField("transactions", len(transactions)).Debug("Parsed document statement heuristically")
		return transactions, nil
	}

	candidates, err := i.gateway.ExtractTransactions(ctx, text, i.config.ModelHint)
	if err != nil {
		i.logger.WithError(err).Warn("Transaction inference failed")
		return nil, nil
	}

	for _, candidate := range candidates {
		if candidate.Date == nil || candidate.Amount == nil {
			continue
		}
		description := strings.TrimSpace(candidate.Description)
		if description == "" {
			continue
		}
		transactions = append(transactions, models.NewTransactionRecord(*candidate.Date, description, *candidate.Amount))
	}

	if len(transactions) > 0 {
		i.logger.WithField("transactions", len(transactions)).Debug("Parsed document statement via inference")
	}
	return transactions, nil
}
