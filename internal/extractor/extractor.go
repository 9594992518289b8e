// Package extractor recovers structured invoice fields from free-form
// document text.
//
// A single document may carry several logical invoices, so the text is first
// split into sections at invoice-style headings and each section is parsed
// independently. Field recovery is heuristic and label-driven; when a section
// comes out inconclusive (missing number, date, or total) and an enrichment
// gateway is configured, the gateway result fills the remaining gaps without
// ever overwriting a confident heuristic hit.
//
// Extraction never fails: a section that yields nothing still produces a
// record carrying its source label and raw text, so downstream reporting can
// show the document was seen.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"invoice-reconciliation-service/internal/enrichment"
	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/logger"
)

// Config holds configuration for invoice field extraction.
type Config struct {
	// SnippetLines is the number of leading non-blank lines kept as the
	// header snippet of each section.
	SnippetLines int `json:"snippet_lines"`

	// UppercaseRatio is the minimum share of uppercase letters for a line to
	// qualify as a party name candidate.
	UppercaseRatio float64 `json:"uppercase_ratio"`

	// ModelHint names the preferred enrichment model; empty uses the
	// gateway's default.
	ModelHint string `json:"model_hint"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		SnippetLines:   6,
		UppercaseRatio: 0.6,
	}
}

// Validate checks if the extractor configuration is valid
func (c *Config) Validate() error {
	if c.SnippetLines <= 0 {
		return fmt.Errorf("snippet lines must be positive, got %d", c.SnippetLines)
	}
	if c.UppercaseRatio <= 0 || c.UppercaseRatio > 1 {
		return fmt.Errorf("uppercase ratio must be in (0, 1], got %f", c.UppercaseRatio)
	}
	return nil
}

// Extractor parses invoice documents into InvoiceRecord values.
type Extractor struct {
	config  *Config
	gateway enrichment.Gateway
	logger  logger.Logger
}

// NewExtractor creates an extractor. A nil gateway disables enrichment.
func NewExtractor(config *Config, gateway enrichment.Gateway) (*Extractor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid extractor config: %w", err)
	}
	if gateway == nil {
		gateway = enrichment.Disabled()
	}

	return &Extractor{
		config:  config,
		gateway: gateway,
		logger:  logger.GetGlobalLogger().WithComponent("extractor"),
	}, nil
}

// ExtractAll parses every invoice section found in text. The returned records
// appear in document order, one per section; a document with no recognizable
// heading yields exactly one record for the whole text.
func (e *Extractor) ExtractAll(ctx context.Context, sourceFile, text string) []*models.InvoiceRecord {
	sections := splitSections(text)
	if len(sections) == 0 {
		e.logger.WithField("source_file", sourceFile).Warn("Document contains no text, skipping")
		return nil
	}

	records := make([]*models.InvoiceRecord, 0, len(sections))
	for i, section := range sections {
		label := sourceFile
		if len(sections) > 1 {
			label = fmt.Sprintf("%s#%d", sourceFile, i+1)
		}

		record := e.extractSection(ctx, label, section)
		records = append(records, record)
	}

	e.logger.WithFields(logger.Fields{
		"source_file": sourceFile,
		"sections":    len(sections),
	}).Debug("Extracted invoice sections")

	return records
}

// extractSection runs the field heuristics over one section and overlays the
// enrichment result when the heuristics come out inconclusive.
func (e *Extractor) extractSection(ctx context.Context, label, section string) *models.InvoiceRecord {
	record := models.NewInvoiceRecord(label)
	record.RawText = section

	record.InvoiceNumber = findInvoiceNumber(section)
	record.InvoiceDate = findInvoiceDate(section)
	record.TotalAmount = findTotalAmount(section)
	record.SupplierName, record.CustomerName = findParties(section, e.config.UppercaseRatio)
	record.HeaderSnippet = headerSnippet(section, e.config.SnippetLines)

	if hasCurrencyMarker(section) {
		e.logger.WithField("source_file", label).Debug("Currency marker found, assuming home currency")
	}

	if record.InvoiceNumber != nil && record.InvoiceDate != nil && record.TotalAmount != nil {
		return record
	}

	result, err := e.gateway.ExtractInvoiceFields(ctx, section, e.config.ModelHint)
	if err != nil {
		e.logger.WithError(err).WithField("source_file", label).Warn("Enrichment failed, keeping heuristic fields")
		return record
	}
	if result != nil {
		record.MergeEnrichment(result)
		e.logger.WithField("source_file", label).Debug("Merged enrichment result")
	}

	return record
}

// splitSections breaks the document into per-invoice chunks at heading lines.
// A heading only starts a new section once the current one has content, so a
// document that opens with a heading still yields a single section.
func splitSections(text string) []string {
	lines := strings.Split(text, "\n")

	var sections []string
	var current []string
	currentHasContent := false

	flush := func() {
		if currentHasContent {
			sections = append(sections, strings.Join(current, "\n"))
		}
		current = current[:0]
		currentHasContent = false
	}

	for _, line := range lines {
		if headingPattern.MatchString(line) && currentHasContent {
			flush()
		}
		current = append(current, line)
		if strings.TrimSpace(line) != "" {
			currentHasContent = true
		}
	}
	flush()

	return sections
}

// headerSnippet joins the first non-blank lines of a section, which usually
// carry the letterhead and the parties.
func headerSnippet(section string, maxLines int) string {
	var kept []string
	for _, line := range strings.Split(section, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		kept = append(kept, trimmed)
		if len(kept) == maxLines {
			break
		}
	}
	return strings.Join(kept, "\n")
}
