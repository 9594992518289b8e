// Package config translates CLI flags into component configurations.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-service/internal/enrichment"
	"invoice-reconciliation-service/internal/ingester"
	"invoice-reconciliation-service/internal/reconciler"
)

// ReconcilerOptions carries the CLI overrides for the pipeline configuration.
// Nil pointer fields keep the component defaults.
type ReconcilerOptions struct {
	AmountTolerance *float64
	DateWindowDays  *int
	MaxConcurrency  int
	Model           string
}

// CreateReconcilerConfig builds the pipeline configuration from CLI options.
func CreateReconcilerConfig(opts ReconcilerOptions) *reconciler.Config {
	config := reconciler.DefaultConfig()

	if opts.AmountTolerance != nil {
		config.Matcher.AmountTolerance = decimal.NewFromFloat(*opts.AmountTolerance)
	}
	if opts.DateWindowDays != nil {
		config.Matcher.MaxDaysDelta = *opts.DateWindowDays
	}
	if opts.MaxConcurrency > 0 {
		config.MaxConcurrency = opts.MaxConcurrency
	}
	if opts.Model != "" {
		config.Extractor.ModelHint = opts.Model
		config.Ingester.ModelHint = opts.Model
	}

	return config
}

// GatewayOptions carries the CLI flags controlling the enrichment gateway.
type GatewayOptions struct {
	Enabled bool
	Model   string
	APIKey  string
}

// CreateGateway builds the enrichment gateway. When enrichment is off the
// disabled no-op gateway is returned, so callers never need a nil check.
func CreateGateway(ctx context.Context, opts GatewayOptions) (enrichment.Gateway, error) {
	if !opts.Enabled {
		return enrichment.Disabled(), nil
	}

	clientConfig := enrichment.DefaultClientConfig()
	clientConfig.APIKey = opts.APIKey
	if opts.Model != "" {
		clientConfig.DefaultModel = opts.Model
	}

	client, err := enrichment.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment gateway: %w", err)
	}
	return client, nil
}

// ParseStatementKind resolves the --statement-kind flag value.
func ParseStatementKind(name string) (ingester.FileKind, error) {
	switch ingester.FileKind(strings.ToLower(strings.TrimSpace(name))) {
	case ingester.KindDelimited:
		return ingester.KindDelimited, nil
	case ingester.KindSpreadsheet:
		return ingester.KindSpreadsheet, nil
	case ingester.KindDocument:
		return ingester.KindDocument, nil
	}
	return "", fmt.Errorf("invalid statement kind '%s'. Valid kinds: delimited, spreadsheet, document", name)
}
