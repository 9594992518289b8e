package ingester

import (
	"context"

	"github.com/tealeg/xlsx/v2"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// parseSpreadsheet loads the first sheet of an Excel workbook. The header is
// the first row with at least two non-blank cells, which skips title rows
// banks like to put above the real table.
func (i *Ingester) parseSpreadsheet(ctx context.Context, path string, data []byte) ([]*models.TransactionRecord, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryParse, errors.CodeInvalidFormat,
			"failed to open workbook "+path)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.EmptyResultError("sheets", path)
	}

	sheet := file.Sheets[0]
	headers, rows := sheetTable(sheet)
	if headers == nil {
		return nil, errors.EmptyResultError("transactions", path)
	}

	i.logger.WithFields(logger.Fields{
		"path":    path,
		"sheet":   sheet.Name,
		"columns": len(headers),
		"rows":    len(rows),
	}).Debug("Parsed workbook statement")

	return i.tabulated(ctx, headers, rows)
}

// sheetTable splits a sheet into its header row and data rows. Returns a nil
// header when no row qualifies.
func sheetTable(sheet *xlsx.Sheet) (headers []string, rows [][]string) {
	headerIdx := -1
	for idx, row := range sheet.Rows {
		cells := rowStrings(row)
		if countNonBlank(cells) >= 2 {
			headers = trimFields(cells)
			headerIdx = idx
			break
		}
	}
	if headerIdx < 0 {
		return nil, nil
	}

	for _, row := range sheet.Rows[headerIdx+1:] {
		rows = append(rows, rowStrings(row))
	}
	return headers, rows
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for idx, c := range row.Cells {
		cells[idx] = c.String()
	}
	return cells
}

func countNonBlank(cells []string) int {
	n := 0
	for _, c := range trimFields(cells) {
		if c != "" {
			n++
		}
	}
	return n
}
