package ingester

import (
	"context"

	"invoice-reconciliation-service/internal/models"
	"invoice-reconciliation-service/internal/textutil"
	"invoice-reconciliation-service/pkg/errors"
	"invoice-reconciliation-service/pkg/logger"
)

// columnSynonyms lists the known header spellings per role, after
// standardization (accents stripped, lowercased, punctuation collapsed).
// French and English bank exports are both covered.
var columnSynonyms = map[string][]string{
	models.RoleDate: {
		"date", "date operation", "date de valeur", "date valeur",
		"transaction date", "posting date", "value date", "booking date",
	},
	models.RoleDescription: {
		"description", "libelle", "libelle operation", "label", "details",
		"narrative", "memo", "reference", "transaction details", "intitule",
	},
	models.RoleAmount: {
		"amount", "montant", "montant eur", "valeur", "value", "transaction amount",
	},
	models.RoleDebit: {
		"debit", "withdrawal", "money out", "paid out", "sortie",
	},
	models.RoleCredit: {
		"credit", "deposit", "money in", "paid in", "entree",
	},
}

// roleOrder fixes the resolution order so a header claimed by an earlier
// role is not reconsidered for a later one.
var roleOrder = []string{
	models.RoleDate,
	models.RoleDescription,
	models.RoleAmount,
	models.RoleDebit,
	models.RoleCredit,
}

// detectColumns resolves statement headers to column roles. Exact synonym
// matches are taken first, then fuzzy matches above the similarity threshold,
// then suggestions from the enrichment gateway. Gateway suggestions are only
// trusted after re-matching against the real headers, and only fill roles the
// local rules left unresolved.
func (i *Ingester) detectColumns(ctx context.Context, headers []string, sampleRows []map[string]string) (*models.DetectedColumns, error) {
	standardized := make([]string, len(headers))
	for idx, header := range headers {
		standardized[idx] = textutil.StandardizeHeader(header)
	}

	detected := models.NewDetectedColumns()
	claimed := make(map[int]bool)

	for _, role := range roleOrder {
		if idx := matchExact(standardized, columnSynonyms[role], claimed); idx >= 0 {
			setRole(detected, role, idx)
			claimed[idx] = true
		}
	}

	for _, role := range roleOrder {
		if roleIndex(detected, role) >= 0 {
			continue
		}
		if idx := matchFuzzy(standardized, columnSynonyms[role], claimed, i.config.SimilarityThreshold); idx >= 0 {
			setRole(detected, role, idx)
			claimed[idx] = true
		}
	}

	if detected.MissingRole() != "" {
		i.applyInference(ctx, detected, headers, standardized, sampleRows, claimed)
	}

	if role := detected.MissingRole(); role != "" {
		return nil, errors.ColumnDetectionError(role, headers)
	}

	i.logger.WithFields(logger.Fields{
		"date":        detected.Date,
		"description": detected.Description,
		"amount":      detected.Amount,
		"debit":       detected.Debit,
		"credit":      detected.Credit,
	}).Debug("Detected statement columns")

	return detected, nil
}

// applyInference asks the gateway to classify the headers and merges any
// re-matched suggestions into the unresolved roles. Suggestions go through
// the same exact-then-fuzzy rule as local detection, so a slightly misspelled
// suggestion still resolves while an invented header name is discarded.
func (i *Ingester) applyInference(ctx context.Context, detected *models.DetectedColumns, headers, standardized []string, sampleRows []map[string]string, claimed map[int]bool) {
	inference, err := i.gateway.InferColumns(ctx, headers, sampleRows, i.config.ModelHint)
	if err != nil || inference == nil {
		if err != nil {
			i.logger.WithError(err).Warn("Column inference failed, keeping local detection")
		}
		return
	}

	suggestions := map[string]*string{
		models.RoleDate:        inference.DateColumn,
		models.RoleDescription: inference.DescriptionColumn,
		models.RoleAmount:      inference.AmountColumn,
		models.RoleDebit:       inference.DebitColumn,
		models.RoleCredit:      inference.CreditColumn,
	}

	for _, role := range roleOrder {
		if roleIndex(detected, role) >= 0 {
			continue
		}
		suggestion := suggestions[role]
		if suggestion == nil {
			continue
		}

		name := textutil.StandardizeHeader(*suggestion)
		idx := matchExact(standardized, []string{name}, claimed)
		if idx < 0 {
			idx = matchFuzzy(standardized, []string{name}, claimed, i.config.SimilarityThreshold)
		}
		if idx >= 0 {
			setRole(detected, role, idx)
			claimed[idx] = true
			i.logger.WithFields(logger.Fields{"role": role, "header": headers[idx]}).
				Debug("Column resolved by inference")
		}
	}
}

// matchExact returns the index of the first unclaimed header equal to one of
// the candidates, or -1.
func matchExact(standardized, candidates []string, claimed map[int]bool) int {
	for _, candidate := range candidates {
		for idx, header := range standardized {
			if claimed[idx] || header == "" {
				continue
			}
			if header == candidate {
				return idx
			}
		}
	}
	return -1
}

// matchFuzzy returns the index of the unclaimed header most similar to any
// candidate, provided the similarity clears the threshold, or -1.
func matchFuzzy(standardized, candidates []string, claimed map[int]bool, threshold float64) int {
	bestIdx := -1
	bestScore := threshold

	for idx, header := range standardized {
		if claimed[idx] || header == "" {
			continue
		}
		for _, candidate := range candidates {
			if score := textutil.Ratio(header, candidate); score >= bestScore {
				bestScore = score
				bestIdx = idx
			}
		}
	}

	return bestIdx
}

func roleIndex(dc *models.DetectedColumns, role string) int {
	switch role {
	case models.RoleDate:
		return dc.Date
	case models.RoleDescription:
		return dc.Description
	case models.RoleAmount:
		return dc.Amount
	case models.RoleDebit:
		return dc.Debit
	case models.RoleCredit:
		return dc.Credit
	}
	return -1
}

func setRole(dc *models.DetectedColumns, role string, idx int) {
	switch role {
	case models.RoleDate:
		dc.Date = idx
	case models.RoleDescription:
		dc.Description = idx
	case models.RoleAmount:
		dc.Amount = idx
	case models.RoleDebit:
		dc.Debit = idx
	case models.RoleCredit:
		dc.Credit = idx
	}
}
