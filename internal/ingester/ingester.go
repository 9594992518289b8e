// Package ingester loads bank statements from delimited files, spreadsheets,
// and unstructured text documents into normalized transaction records.
//
// Ingestion is strict about its output and tolerant about its input: header
// variants, delimiter choice, and column order are all detected rather than
// configured, but every emitted TransactionRecord has a usable date, a
// description, and a signed amount. Rows that cannot be normalized are
// dropped with a debug log, never guessed at.
package ingester

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"invoice-reconciliation-service/internal/enrichment"
	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// FileKind identifies how a statement file is parsed.
type FileKind string

const (
	// KindDelimited is character-separated text (CSV, TSV).
	KindDelimited FileKind = "delimited"
	// KindSpreadsheet is an Excel workbook.
	KindSpreadsheet FileKind = "spreadsheet"
	// KindDocument is unstructured plain text.
	KindDocument FileKind = "document"
)

// supportedExtensions maps file extensions to their kind, and doubles as the
// supported-format list quoted in errors.
var supportedExtensions = map[string]FileKind{
	".csv":  KindDelimited,
	".tsv":  KindDelimited,
	".xlsx": KindSpreadsheet,
	".xls":  KindSpreadsheet,
	".txt":  KindDocument,
}

// KindForPath resolves the parse strategy from the file extension.
func KindForPath(path string) (FileKind, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if kind, ok := supportedExtensions[ext]; ok {
		return kind, nil
	}

	supported := make([]string, 0, len(supportedExtensions))
	for e := range supportedExtensions {
		supported = append(supported, e)
	}
	sort.Strings(supported)

	return "", errors.UnsupportedFormatError(path, supported)
}

// Config holds configuration for statement ingestion.
type Config struct {
	// DelimiterCandidates are tried in order against delimited files; the
	// first one producing a multi-column header wins. Candidates are never
	// combined.
	DelimiterCandidates []rune `json:"-"`

	// SimilarityThreshold is the minimum header similarity for a fuzzy
	// column-name match, on a 0..1 scale.
	SimilarityThreshold float64 `json:"similarity_threshold"`

	// SampleRowLimit caps the number of data rows shown to the enrichment
	// gateway during column inference.
	SampleRowLimit int `json:"sample_row_limit"`

	// ModelHint names the preferred enrichment model; empty uses the
	// gateway's default.
	ModelHint string `json:"model_hint"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		DelimiterCandidates: []rune{',', ';', '\t', '|'},
		SimilarityThreshold: 0.85,
		SampleRowLimit:      15,
	}
}

// Validate checks if the ingester configuration is valid
func (c *Config) Validate() error {
	if len(c.DelimiterCandidates) == 0 {
		return fmt.Errorf("at least one delimiter candidate is required")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("similarity threshold must be in (0, 1], got %f", c.SimilarityThreshold)
	}
	if c.SampleRowLimit <= 0 {
		return fmt.Errorf("sample row limit must be positive, got %d", c.SampleRowLimit)
	}
	return nil
}

// Ingester loads statement files into transaction records.
type Ingester struct {
	config  *Config
	gateway enrichment.Gateway
	logger  logger.Logger
}

// NewIngester creates an ingester. A nil gateway disables enrichment.
func NewIngester(config *Config, gateway enrichment.Gateway) (*Ingester, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ingester config: %w", err)
	}
	if gateway == nil {
		gateway = enrichment.Disabled()
	}

	return &Ingester{
		config:  config,
		gateway: gateway,
		logger:  logger.GetGlobalLogger().WithComponent("ingester"),
	}, nil
}

// Ingest loads a statement file, resolving the parse strategy from the file
// extension.
func (i *Ingester) Ingest(ctx context.Context, path string) ([]*models.TransactionRecord, error) {
	kind, err := KindForPath(path)
	if err != nil {
		return nil, err
	}
	return i.IngestKind(ctx, path, kind)
}

// IngestKind loads a statement file with an explicit parse strategy,
// overriding extension-based detection. The result is sorted by date
// ascending; an ingestion that yields no transactions is an error, because a
// statement with nothing to match against makes every downstream step
// meaningless.
func (i *Ingester) IngestKind(ctx context.Context, path string, kind FileKind) ([]*models.TransactionRecord, error) {
	log := i.logger.WithFields(logger.Fields{"path": path, "kind": string(kind)})
	log.Info("Ingesting statement file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(path, err)
	}

	var transactions []*models.TransactionRecord
	switch kind {
	case KindDelimited:
		transactions, err = i.parseDelimited(ctx, path, data)
	case KindSpreadsheet:
		transactions, err = i.parseSpreadsheet(ctx, path, data)
	case KindDocument:
		transactions, err = i.parseDocument(ctx, string(data))
	default:
		return nil, errors.ConfigurationError("statement-kind", string(kind), nil)
	}
	if err != nil {
		return nil, err
	}

	if len(transactions) == 0 {
		return nil, errors.EmptyResultError("transactions", path)
	}

	sort.SliceStable(transactions, func(a, b int) bool {
		return transactions[a].Date.Before(transactions[b].Date)
	})

	log.WithField("transactions", len(transactions)).Info("Statement ingested")
	return transactions, nil
}

// readError maps an os read failure to the file error taxonomy.
func readError(path string, err error) error {
	code := errors.CodeFileNotFound
	if os.IsPermission(err) {
		code = errors.CodeFilePermission
	}
	return errors.FileError(code, path, err)
}
