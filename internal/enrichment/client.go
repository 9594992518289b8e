package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"

	"google.golang.org/genai"
)

// ClientConfig holds configuration for the Gemini-backed gateway.
type ClientConfig struct {
	// APIKey authenticates against the inference service. When empty the
	// genai client falls back to its environment-based credentials.
	APIKey string `json:"-"`

	// DefaultModel is used when no model hint is given, and as the single
	// deterministic fallback when a hinted model is unavailable.
	DefaultModel string `json:"default_model"`

	// Timeout bounds each inference call.
	Timeout time.Duration `json:"timeout"`
}

// DefaultClientConfig returns a configuration with sensible defaults
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		DefaultModel: "gemini-2.0-flash",
		Timeout:      60 * time.Second,
	}
}

// Validate checks if the client configuration is valid
func (c *ClientConfig) Validate() error {
	if strings.TrimSpace(c.DefaultModel) == "" {
		return fmt.Errorf("default model cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	return nil
}

// Client is the Gemini-backed Gateway implementation.
type Client struct {
	config *ClientConfig
	genai  *genai.Client
	logger logger.Logger
}

// NewClient creates a Gemini-backed enrichment gateway.
func NewClient(ctx context.Context, config *ClientConfig) (*Client, error) {
	if config == nil {
		config = DefaultClientConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError("enrichment", config, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      config.APIKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryEnrichment, errors.CodeConnectionFailed,
			"failed to create inference client")
	}

	return &Client{
		config: config,
		genai:  client,
		logger: logger.GetGlobalLogger().WithComponent("enrichment"),
	}, nil
}

// ExtractInvoiceFields implements Gateway. Failures degrade to (nil, nil).
func (c *Client) ExtractInvoiceFields(ctx context.Context, text, modelHint string) (*models.EnrichmentResult, error) {
	prompt := "You are an invoice field extractor.\n" +
		"Return a compact JSON object with the keys: invoice_number, " +
		"invoice_date (YYYY-MM-DD), total_amount (number), currency (ISO code).\n" +
		"Use null for any field you cannot determine.\n" +
		"Respond with JSON only, no explanations, no code fences.\n\n" +
		"Invoice text:\n" + text

	raw := c.generate(ctx, prompt, modelHint)
	if raw == "" {
		return nil, nil
	}

	return decodeInvoiceFields(raw), nil
}

// InferColumns implements Gateway. Failures degrade to (nil, nil).
func (c *Client) InferColumns(ctx context.Context, headers []string, sampleRows []map[string]string, modelHint string) (*models.ColumnInference, error) {
	sample, err := json.Marshal(struct {
		Headers []string            `json:"headers"`
		Rows    []map[string]string `json:"rows"`
	}{Headers: headers, Rows: sampleRows})
	if err != nil {
		return nil, nil
	}

	prompt := "You are a bank statement column classifier.\n" +
		"Given the headers and sample rows below, return a compact JSON object " +
		"with the keys: date_column, description_column, amount_column, " +
		"debit_column, credit_column.\n" +
		"Each value must be one of the given header names, or null.\n" +
		"Use amount_column for a single signed amount, or debit_column and " +
		"credit_column for a split pair; never invent header names.\n" +
		"Respond with JSON only, no explanations, no code fences.\n\n" +
		string(sample)

	raw := c.generate(ctx, prompt, modelHint)
	if raw == "" {
		return nil, nil
	}

	return decodeColumnInference(raw), nil
}

// ExtractTransactions implements Gateway. Failures degrade to (nil, nil).
func (c *Client) ExtractTransactions(ctx context.Context, text, modelHint string) ([]models.TransactionCandidate, error) {
	prompt := "You are a bank statement parser.\n" +
		"Parse ALL transactions in the statement text below.\n" +
		"Return a JSON array of objects with the keys: date (YYYY-MM-DD), " +
		"description (string), amount (number, positive for money in, " +
		"negative for money out).\n" +
		"Respond with JSON only, no explanations, no code fences. " +
		"Output must begin with \"[\" and end with \"]\".\n\n" +
		"Statement text:\n" + text

	raw := c.generate(ctx, prompt, modelHint)
	if raw == "" {
		return nil, nil
	}

	return decodeTransactionCandidates(raw), nil
}

// generate runs one inference call, trying the hinted model first and the
// configured default second. The first success short-circuits; when every
// candidate fails the empty string is returned and the caller treats it as
// no result.
func (c *Client) generate(ctx context.Context, prompt, modelHint string) string {
	for _, model := range c.modelCandidates(modelHint) {
		text, err := c.generateWithModel(ctx, prompt, model)
		if err != nil {
			c.logger.WithError(errors.EnrichmentError(errors.CodeModelUnavailable, model, err)).
				Debug("Inference call failed, trying next model")
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// modelCandidates returns the ordered, de-duplicated list of models to try.
func (c *Client) modelCandidates(modelHint string) []string {
	hint := strings.TrimSpace(modelHint)
	if hint == "" || hint == c.config.DefaultModel {
		return []string{c.config.DefaultModel}
	}
	return []string{hint, c.config.DefaultModel}
}

func (c *Client) generateWithModel(ctx context.Context, prompt, model string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := c.genai.Models.GenerateContent(callCtx, model, contents, nil)
	if err != nil {
		return "", err
	}

	return cleanModelJSON(resp.Text()), nil
}

// cleanModelJSON strips markdown fences and surrounding prose the model may
// emit despite the instructions, keeping only the outermost JSON value.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	objStart := strings.IndexAny(s, "[{")
	if objStart == -1 {
		return ""
	}
	closer := "}"
	if s[objStart] == '[' {
		closer = "]"
	}
	objEnd := strings.LastIndex(s, closer)
	if objEnd <= objStart {
		return ""
	}

	return strings.TrimSpace(s[objStart : objEnd+1])
}
