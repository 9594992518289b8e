package ingester

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/values"
	"invoice-reconciliation-service/pkg/logger"
)

// tabulated converts a header row plus data rows into transaction records:
// detect the column roles, then normalize each row. Shared by the delimited
// and spreadsheet parsers, which differ only in how they produce cells.
func (i *Ingester) tabulated(ctx context.Context, headers []string, rows [][]string) ([]*models.TransactionRecord, error) {
	columns, err := i.detectColumns(ctx, headers, sampleRows(headers, rows, i.config.SampleRowLimit))
	if err != nil {
		return nil, err
	}

	transactions := make([]*models.TransactionRecord, 0, len(rows))
	dropped := 0
	for _, row := range rows {
		if record := normalizeRow(row, columns); record != nil {
			transactions = append(transactions, record)
		} else {
			dropped++
		}
	}

	if dropped > 0 {
		i.logger.WithFields(logger.Fields{
			"dropped": dropped,
			"kept":    len(transactions),
		}).Debug("Dropped rows that could not be normalized")
	}

	return transactions, nil
}

// normalizeRow builds one transaction from a raw row. Rows missing a
// parseable date, a description, or any amount are dropped.
func normalizeRow(row []string, columns *models.DetectedColumns) *models.TransactionRecord {
	date := values.ParseDate(cell(row, columns.Date))
	if date == nil {
		return nil
	}

	description := strings.TrimSpace(cell(row, columns.Description))
	if description == "" {
		return nil
	}

	amount := rowAmount(row, columns)
	if amount == nil {
		return nil
	}

	return models.NewTransactionRecord(*date, description, *amount)
}

// rowAmount derives the signed amount for a row. A single amount column is
// taken as-is; with a debit/credit pair, a nonzero debit becomes a negative
// outflow, else a nonzero credit a positive inflow. Exports that fill the
// unused side with "0,00" placeholders must not shadow the real movement, so
// a zero in either column counts as absent; a row with no movement at all is
// dropped.
func rowAmount(row []string, columns *models.DetectedColumns) *decimal.Decimal {
	if columns.Amount >= 0 {
		return values.ParseAmount(cell(row, columns.Amount))
	}

	if columns.Debit >= 0 {
		if debit := values.ParseAmount(cell(row, columns.Debit)); debit != nil && !debit.IsZero() {
			negated := debit.Abs().Neg()
			return &negated
		}
	}
	if columns.Credit >= 0 {
		if credit := values.ParseAmount(cell(row, columns.Credit)); credit != nil && !credit.IsZero() {
			absolute := credit.Abs()
			return &absolute
		}
	}

	return nil
}

// cell returns the trimmed cell at idx, tolerating short rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// sampleRows renders the first rows as header-to-cell maps for column
// inference prompts.
func sampleRows(headers []string, rows [][]string, limit int) []map[string]string {
	if len(rows) < limit {
		limit = len(rows)
	}

	samples := make([]map[string]string, 0, limit)
	for _, row := range rows[:limit] {
		sample := make(map[string]string, len(headers))
		for idx, header := range headers {
			sample[header] = cell(row, idx)
		}
		samples = append(samples, sample)
	}
	return samples
}
