// Package reconciler orchestrates the full pipeline: extract invoices from
// documents, ingest the bank statement, and match the two sides.
//
// Invoice documents are independent of each other, so extraction runs them in
// parallel with a bounded worker group; the statement is ingested once. A
// document that cannot be read is logged and skipped rather than aborting the
// batch, but a batch that yields no invoices at all is an error. Results are
// always reported in the input file order regardless of completion order.
package reconciler

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"invoice-reconciliation-service/internal/enrichment"
	"invoice-reconciliation-service/internal/extractor"
	"invoice-reconciliation-service/internal/ingester"
	"invoice-reconciliation-service/internal/matcher"
	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// Config holds configuration for the reconciliation pipeline.
type Config struct {
	Extractor *extractor.Config `json:"extractor"`
	Ingester  *ingester.Config  `json:"ingester"`
	Matcher   *matcher.Config   `json:"matcher"`

	// MaxConcurrency bounds parallel invoice extraction. Zero means one
	// worker per CPU.
	MaxConcurrency int `json:"max_concurrency"`

	// ProgressInterval is the minimum delay between extraction progress
	// log lines.
	ProgressInterval time.Duration `json:"progress_interval"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Extractor:        extractor.DefaultConfig(),
		Ingester:         ingester.DefaultConfig(),
		Matcher:          matcher.DefaultConfig(),
		MaxConcurrency:   runtime.NumCPU(),
		ProgressInterval: 2 * time.Second,
	}
}

// Validate checks if the pipeline configuration is valid
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("progress interval must be positive, got %s", c.ProgressInterval)
	}
	return nil
}

// Result is the complete outcome of one reconciliation run.
type Result struct {
	Invoices     []*models.InvoiceRecord     `json:"invoices"`
	Transactions []*models.TransactionRecord `json:"transactions"`
	Matches      []*models.MatchResult       `json:"matches"`
}

// MatchedCount returns the number of matched invoices in the result.
func (r *Result) MatchedCount() int {
	n := 0
	for _, match := range r.Matches {
		if match.Matched {
			n++
		}
	}
	return n
}

// Service wires the extractor, ingester, and matcher into one pipeline.
type Service struct {
	config    *Config
	extractor *extractor.Extractor
	ingester  *ingester.Ingester
	matcher   *matcher.Matcher
	logger    logger.Logger
}

// NewService builds the pipeline. A nil gateway disables enrichment for both
// extraction and ingestion.
func NewService(config *Config, gateway enrichment.Gateway) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("reconciler", config, err)
	}

	ext, err := extractor.NewExtractor(config.Extractor, gateway)
	if err != nil {
		return nil, errors.ConfigurationError("extractor", config.Extractor, err)
	}
	ing, err := ingester.NewIngester(config.Ingester, gateway)
	if err != nil {
		return nil, errors.ConfigurationError("ingester", config.Ingester, err)
	}
	mat, err := matcher.NewMatcher(config.Matcher)
	if err != nil {
		return nil, errors.ConfigurationError("matcher", config.Matcher, err)
	}

	return &Service{
		config:    config,
		extractor: ext,
		ingester:  ing,
		matcher:   mat,
		logger:    logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Reconcile runs the full pipeline: extract invoices from the given document
// files, ingest the statement, and match. statementKind may be empty to
// resolve the parse strategy from the statement file extension.
func (s *Service) Reconcile(ctx context.Context, invoicePaths []string, statementPath string, statementKind ingester.FileKind) (*Result, error) {
	invoices, err := s.ExtractInvoices(ctx, invoicePaths)
	if err != nil {
		return nil, err
	}

	var transactions []*models.TransactionRecord
	if statementKind != "" {
		transactions, err = s.ingester.IngestKind(ctx, statementPath, statementKind)
	} else {
		transactions, err = s.ingester.Ingest(ctx, statementPath)
	}
	if err != nil {
		return nil, err
	}

	matches := s.matcher.Match(invoices, transactions)

	result := &Result{
		Invoices:     invoices,
		Transactions: transactions,
		Matches:      matches,
	}

	s.logger.WithFields(logger.Fields{
		"invoices":     len(result.Invoices),
		"transactions": len(result.Transactions),
		"matched":      result.MatchedCount(),
	}).Info("Reconciliation complete")

	return result, nil
}

// ExtractInvoices extracts invoice records from the given document files in
// parallel. Per-file failures are logged and skipped; the batch fails only
// when every file fails or yields nothing. Records keep the input file order.
func (s *Service) ExtractInvoices(ctx context.Context, paths []string) ([]*models.InvoiceRecord, error) {
	if len(paths) == 0 {
		return nil, errors.ValidationError(errors.CodeMissingField, "invoice-files", nil, nil)
	}

	progress := logger.NewProgressTracker(s.logger, "extract invoices", int64(len(paths)), s.config.ProgressInterval)
	perFile := make([][]*models.InvoiceRecord, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workerLimit())

	for idx, path := range paths {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			data, err := os.ReadFile(path)
			if err != nil {
				s.logger.WithError(err).WithField("path", path).Error("Skipping unreadable invoice file")
				progress.Increment()
				return nil
			}

			perFile[idx] = s.extractor.ExtractAll(groupCtx, path, string(data))
			progress.Increment()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, errors.InternalError("invoice extraction", err)
	}
	progress.Complete()

	var invoices []*models.InvoiceRecord
	for _, records := range perFile {
		invoices = append(invoices, records...)
	}

	if len(invoices) == 0 {
		return nil, errors.EmptyResultError("invoices", fmt.Sprintf("%d file(s)", len(paths)))
	}

	return invoices, nil
}

func (s *Service) workerLimit() int {
	if s.config.MaxConcurrency > 0 {
		return s.config.MaxConcurrency
	}
	return runtime.NumCPU()
}
