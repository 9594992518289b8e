// Package enrichment provides the optional text-inference gateway used to
// refine heuristic extraction results when they are inconclusive.
//
// The core depends on the Gateway interface only. Two implementations exist:
// a disabled no-op variant, so extraction and ingestion are fully testable
// and usable without network access, and a Gemini-backed client. The gateway
// is strictly a fallback/augmentation source: transport failures, timeouts,
// and unusable model output all degrade to "no result" and are never raised
// into the caller.
package enrichment

import (
	"context"

	"invoice-reconciliation-service/internal/models"
)

// Gateway is the narrow contract the core uses for text inference.
//
// All methods treat absent or malformed upstream output as "no result": they
// return a nil (or empty) payload and a nil error rather than propagating
// transport problems. modelHint names the model the caller would prefer; an
// unavailable hint falls back to the implementation's default model.
type Gateway interface {
	// ExtractInvoiceFields asks for structured invoice fields from raw
	// document text. Every field of the result is independently optional.
	ExtractInvoiceFields(ctx context.Context, text, modelHint string) (*models.EnrichmentResult, error)

	// InferColumns asks which statement columns hold which roles, given the
	// header names and a sample of rows as header-to-cell mappings. The
	// returned names are suggestions; callers must re-match them against the
	// real headers and never trust them verbatim.
	InferColumns(ctx context.Context, headers []string, sampleRows []map[string]string, modelHint string) (*models.ColumnInference, error)

	// ExtractTransactions asks for transaction lines from an unstructured
	// statement document. The returned list may be empty.
	ExtractTransactions(ctx context.Context, text, modelHint string) ([]models.TransactionCandidate, error)
}

// disabled is the no-op Gateway used when enrichment is turned off.
type disabled struct{}

// Disabled returns a Gateway that always reports no result. It is the
// default collaborator so the core never needs a nil check to behave as if
// enrichment were absent.
func Disabled() Gateway {
	return disabled{}
}

func (disabled) ExtractInvoiceFields(context.Context, string, string) (*models.EnrichmentResult, error) {
	return nil, nil
}

func (disabled) InferColumns(context.Context, []string, []map[string]string, string) (*models.ColumnInference, error) {
	return nil, nil
}

func (disabled) ExtractTransactions(context.Context, string, string) ([]models.TransactionCandidate, error) {
	return nil, nil
}
