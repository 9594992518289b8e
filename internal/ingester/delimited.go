package ingester

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// parseDelimited loads a CSV/TSV statement, probing the configured delimiter
// candidates in order. A candidate only wins when its header row has at least
// two columns AND at least one data row maps to a transaction: a header that
// happens to contain a later candidate's delimiter would otherwise claim the
// file and then fail column detection. Candidates are never combined.
func (i *Ingester) parseDelimited(ctx context.Context, path string, data []byte) ([]*models.TransactionRecord, error) {
	var lastErr error

	for _, candidate := range i.config.DelimiterCandidates {
		headers, rows, ok, err := splitDelimited(data, candidate)
		if err != nil {
			lastErr = errors.Wrap(err, errors.CategoryParse, errors.CodeInvalidFormat,
				"failed to parse delimited statement "+path)
			continue
		}
		if !ok {
			continue
		}

		transactions, err := i.tabulated(ctx, headers, rows)
		if err != nil {
			lastErr = err
			continue
		}
		if len(transactions) == 0 {
			continue
		}

		i.logger.WithFields(logger.Fields{
			"path":      path,
			"delimiter": string(candidate),
			"columns":   len(headers),
			"rows":      len(rows),
		}).Debug("Parsed delimited statement")

		return transactions, nil
	}

	return nil, lastErr
}

// splitDelimited reads the data with one candidate delimiter. ok is false
// when the candidate does not produce a multi-column header row.
func splitDelimited(data []byte, delimiter rune) (headers []string, rows [][]string, ok bool, err error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := readAll(reader)
	if err != nil {
		return nil, nil, false, err
	}
	if len(records) == 0 || len(records[0]) < 2 {
		return nil, nil, false, nil
	}

	return trimFields(records[0]), records[1:], true, nil
}

func readAll(reader *csv.Reader) ([][]string, error) {
	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func trimFields(fields []string) []string {
	trimmed := make([]string, len(fields))
	for idx, field := range fields {
		trimmed[idx] = strings.TrimSpace(strings.TrimPrefix(field, "\uFEFF"))
	}
	return trimmed
}
