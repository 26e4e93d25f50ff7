// internal/analysis/scoring/riskdims.go
package scoring

import (
	"math"

	"credisynth-qaa/internal/models"
)

// behavioral signal weights used when character risk has to be reconstructed
// from explainability drivers instead of direct scores.
var characterSignalWeights = map[string]float64{
	"conscientiousness_score":       1.0,
	"behavioral_consistency_score":  1.0,
	"digital_behavior_intelligence": 0.8,
	"savings_behavior_score":        0.7,
	"payment_discipline_score":      1.0,
}

const neutralCharacterBaseline = 55.0

// ComputeRiskDimensions derives the four bounded risk sub-scores from the
// QSE sections. Each dimension is nil when its required inputs are absent.
func ComputeRiskDimensions(qse *models.QSEReport, expl *models.ExplainabilityExtended) models.RiskDimensions {
	return models.RiskDimensions{
		CapacityRisk:  capacityRisk(qse),
		LiquidityRisk: liquidityRisk(qse),
		CreditRisk:    creditRisk(qse),
		CharacterRisk: characterRisk(qse, expl),
	}
}

// capacityRisk blends the affordability buffer and residual income ratios.
// Both inputs are required.
func capacityRisk(qse *models.QSEReport) *float64 {
	aff := qse.AffordabilityAndObligations
	buf, okBuf := aff.Float("affordability_buffer_ratio")
	resRatio, okRes := aff.Float("residual_income_ratio")
	if !okBuf || !okRes {
		return nil
	}
	v := clamp01((1.0-buf)*0.6 + (1.0-resRatio)*0.4)
	return &v
}

// liquidityRisk scores cash buffer depth against a 90-day horizon and blends
// in overdraft usage when present. Either input alone is sufficient.
func liquidityRisk(qse *models.QSEReport) *float64 {
	days, okDays := qse.AffordabilityAndObligations.Float("cash_buffer_days")
	overdraft, okOver := qse.BankAndMobileMoneyDynamics.Float("overdraft_usage_days_90d")
	if !okDays && !okOver {
		return nil
	}

	var liquidity float64
	if okDays {
		liquidity = clamp01(1.0 - math.Min(days/90.0, 1.0))
	}
	if okOver {
		overd := clamp01(overdraft / 90.0)
		liquidity = liquidity*0.5 + overd*0.5
	}
	return &liquidity
}

// creditRisk weights normalized DTI against a severity-weighted delinquency
// count. DTI is required; absent delinquency counts default to zero.
func creditRisk(qse *models.QSEReport) *float64 {
	dti, ok := qse.AffordabilityAndObligations.Float("debt_to_income_ratio")
	if !ok {
		return nil
	}
	core := qse.CoreCreditPerformance
	del30, _ := core.Float("delinquency_30d_count_12m")
	del60, _ := core.Float("delinquency_60d_count_12m")
	del90, _ := core.Float("delinquency_90d_count_12m")

	dtiNorm := clamp01(dti / 0.6)
	delinquencyNorm := clamp01((del30 + 2*del60 + 3*del90) / 10.0)
	v := round4(math.Min(1.0, dtiNorm*0.7+delinquencyNorm*0.3))
	return &v
}

// characterRisk averages the available behavioral signals onto a 0..100
// baseline, reconstructs one from explainability drivers when no direct
// signal exists, and falls back to a neutral baseline otherwise.
func characterRisk(qse *models.QSEReport, expl *models.ExplainabilityExtended) *float64 {
	beh := qse.BehavioralIntelligence
	digital := qse.DigitalBehavioralIntelligence

	var signals []float64
	for _, probe := range []struct {
		section models.Section
		key     string
	}{
		{beh, "behavioral_consistency_score"},
		{beh, "conscientiousness_score"},
		{digital, "digital_behavior_intelligence"},
		{digital, "savings_behavior_score"},
		{beh, "payment_discipline_score"},
	} {
		if v, ok := probe.section.Float(probe.key); ok {
			signals = append(signals, math.Max(0.0, math.Min(100.0, v)))
		}
	}

	var charBase float64
	switch {
	case len(signals) > 0:
		var sum float64
		for _, s := range signals {
			sum += s
		}
		charBase = sum / float64(len(signals))
	default:
		if reconstructed, ok := characterFromDrivers(expl); ok {
			charBase = reconstructed
		} else {
			charBase = neutralCharacterBaseline
		}
	}

	v := round4(clamp01(1.0 - charBase/100.0))
	return &v
}

// characterFromDrivers maps signed driver importances [-1..1] onto an
// approximate 0..100 score around 50 and averages the weighted results.
func characterFromDrivers(expl *models.ExplainabilityExtended) (float64, bool) {
	if expl == nil {
		return 0, false
	}
	var acc []float64
	for _, fi := range expl.FeatureImportance {
		weight, ok := characterSignalWeights[fi.Feature]
		if !ok {
			continue
		}
		approx := math.Max(0.0, math.Min(100.0, 50.0+50.0*fi.Importance))
		acc = append(acc, approx*weight)
	}
	if len(acc) == 0 {
		return 0, false
	}
	var sum float64
	for _, a := range acc {
		sum += a
	}
	return sum / float64(len(acc)), true
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
