// internal/analysis/explainability/builder.go
package explainability

import (
	"context"
	"sort"

	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/models"
)

const topDrivers = 5

// Builder assembles the explainability block for an analysis. Sources are
// tried in priority order: importance carried on the input itself, then the
// external explainability service, then the heuristic ranking. Building
// never fails; the worst case is a heuristic block with no drivers.
type Builder struct {
	client *Client
	logger logger.Logger
}

func NewBuilder(client *Client, log logger.Logger) *Builder {
	return &Builder{client: client, logger: log}
}

func (b *Builder) Build(ctx context.Context, qse *models.QSEReport) *models.ExplainabilityExtended {
	expl := fromInput(qse)

	if expl == nil && b.client != nil {
		fetched, err := b.client.Fetch(ctx, qse)
		if err != nil {
			b.logger.Warn("explainability fetch failed", map[string]interface{}{
				"request_id": qse.RequestID,
				"error":      err.Error(),
			})
		} else if fetched != nil {
			expl = fetched
		}
	}

	if expl == nil {
		expl = heuristic(qse)
	}
	return expl
}

// fromInput assembles explainability from SHAP factors and global importance
// already present on the QSE report. Returns nil when the input carries
// neither.
func fromInput(qse *models.QSEReport) *models.ExplainabilityExtended {
	var expl *models.ExplainabilityExtended

	if qse.Explainability != nil {
		expl = &models.ExplainabilityExtended{
			ShapAnalysis: &models.ShapAnalysisExtended{
				ConfidenceFactors: orEmpty(qse.Explainability.ConfidenceFactors),
				RiskFactors:       orEmpty(qse.Explainability.RiskFactors),
			},
			FeatureImportance: []models.FeatureImportance{},
		}
	}

	gi, ok := qse.FeatureAnalysis["global_importance"].([]interface{})
	if !ok {
		return expl
	}

	weights := make([]models.FeatureWeight, 0, len(gi))
	for _, item := range gi {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		feature, _ := entry["feature"].(string)
		importance, _ := toFloat(entry["importance"])
		weights = append(weights, models.FeatureWeight{Feature: feature, Importance: importance})
	}
	if len(weights) == 0 {
		return expl
	}

	if expl == nil {
		expl = &models.ExplainabilityExtended{FeatureImportance: []models.FeatureImportance{}}
	}
	if expl.ShapAnalysis == nil {
		expl.ShapAnalysis = &models.ShapAnalysisExtended{
			ConfidenceFactors: []models.ShapFactor{},
			RiskFactors:       []models.ShapFactor{},
		}
	}
	expl.ShapAnalysis.GlobalImportance = weights

	ranked := make([]models.FeatureWeight, len(weights))
	copy(ranked, weights)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Importance > ranked[j].Importance })
	if len(ranked) > topDrivers {
		ranked = ranked[:topDrivers]
	}
	drivers := make([]models.FeatureImportance, 0, len(ranked))
	for _, w := range ranked {
		impact := "positive"
		if w.Importance < 0 {
			impact = "negative"
		}
		drivers = append(drivers, models.FeatureImportance{
			Feature:    w.Feature,
			Importance: w.Importance,
			Impact:     impact,
		})
	}
	expl.FeatureImportance = drivers
	return expl
}

// heuristic ranks drivers from affordability, credit performance, and
// behavioral signals when no richer source is available.
func heuristic(qse *models.QSEReport) *models.ExplainabilityExtended {
	available := true
	interpretation := "Heuristic drivers computed from affordability, credit performance, and behavioral signals."

	entries := []models.FeatureImportance{}
	aff := qse.AffordabilityAndObligations
	core := qse.CoreCreditPerformance
	beh := qse.BehavioralIntelligence
	digital := qse.DigitalBehavioralIntelligence

	if dti, ok := aff.Float("debt_to_income_ratio"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "debt_to_income_ratio", Importance: dti, Impact: "negative"})
	}
	if resRatio, ok := aff.Float("residual_income_ratio"); ok {
		impact := "negative"
		if resRatio < 0.5 {
			impact = "positive"
		}
		entries = append(entries, models.FeatureImportance{Feature: "residual_income_ratio", Importance: resRatio, Impact: impact})
	}
	if cashDays, ok := aff.Float("cash_buffer_days"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "cash_buffer_days", Importance: cashDays / 90.0, Impact: "positive"})
	}
	if del30, ok := core.Float("delinquency_30d_count_12m"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "delinquency_30d_count_12m", Importance: del30 / 10.0, Impact: "negative"})
	}
	if consistency, ok := beh.Float("behavioral_consistency_score"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "behavioral_consistency_score", Importance: consistency / 100.0, Impact: "positive"})
	}
	if conscientiousness, ok := beh.Float("conscientiousness_score"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "conscientiousness_score", Importance: conscientiousness / 100.0, Impact: "positive"})
	}
	if savings, ok := digital.Float("savings_behavior_score"); ok {
		entries = append(entries, models.FeatureImportance{Feature: "savings_behavior_score", Importance: savings / 100.0, Impact: "positive"})
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Importance > entries[j].Importance })
	if len(entries) > topDrivers {
		entries = entries[:topDrivers]
	}

	global := make([]models.FeatureWeight, 0, len(entries))
	for _, e := range entries {
		global = append(global, models.FeatureWeight{Feature: e.Feature, Importance: e.Importance})
	}

	return &models.ExplainabilityExtended{
		ShapAnalysis: &models.ShapAnalysisExtended{
			ConfidenceFactors: []models.ShapFactor{},
			RiskFactors:       []models.ShapFactor{},
			GlobalImportance:  global,
		},
		FeatureImportance:    entries,
		ExplanationAvailable: &available,
		Interpretation:       &interpretation,
	}
}

func orEmpty(factors []models.ShapFactor) []models.ShapFactor {
	if factors == nil {
		return []models.ShapFactor{}
	}
	return factors
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
