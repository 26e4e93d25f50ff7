// internal/analysis/scoring/consolidator.go
package scoring

import (
	"math"
	"strings"

	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/models"
)

// approvalBaseRates maps the canonical recommendation to its base approval
// probability before calibration.
var approvalBaseRates = map[string]float64{
	"approve":                 0.85,
	"approve with conditions": 0.65,
	"manual review":           0.45,
	"decline":                 0.10,
}

// default-probability estimates per risk level, used as the last link of the
// resolution chain.
var levelDefaultRates = map[string]float64{
	"low":    0.08,
	"medium": 0.18,
	"high":   0.35,
}

// Consolidator derives the consolidated score block, risk category, ensemble
// details, and structured risk analysis for an extended response.
type Consolidator struct {
	calibration config.CalibrationConfig
	ensemble    config.EnsembleConfig
	model       string
}

func NewConsolidator(calibration config.CalibrationConfig, ensemble config.EnsembleConfig, model string) *Consolidator {
	return &Consolidator{calibration: calibration, ensemble: ensemble, model: model}
}

// EffectiveRiskLevel prefers the top-level risk level and falls back to the
// governance section's final_risk_level.
func (c *Consolidator) EffectiveRiskLevel(qse *models.QSEReport) *string {
	if qse.RiskLevel != nil && *qse.RiskLevel != "" {
		return qse.RiskLevel
	}
	if level, ok := qse.ModelGovernanceAndMonitoring.String("final_risk_level"); ok && level != "" {
		return &level
	}
	return nil
}

// ResolveDefaultProbability walks the fallback chain: explicit top-level
// value, the structured risk-analysis block, the anonymized peer default
// rate, and finally the risk-level estimate. Nil when every link is absent.
func (c *Consolidator) ResolveDefaultProbability(qse *models.QSEReport, level *string) *float64 {
	if qse.DefaultProbability != nil {
		return qse.DefaultProbability
	}
	if qse.RiskAnalysis != nil && qse.RiskAnalysis.DefaultProbability != nil {
		return qse.RiskAnalysis.DefaultProbability
	}
	if peer, ok := qse.DigitalBehavioralIntelligence.Float("anonymized_peer_default_rate"); ok {
		return &peer
	}
	if level != nil {
		if est, ok := levelDefaultRates[strings.ToLower(strings.TrimSpace(*level))]; ok {
			return &est
		}
	}
	return nil
}

// DeriveRiskCategory normalizes a recognized risk level, otherwise buckets
// the default probability: below 0.1 Low, below 0.25 Medium, else High.
func (c *Consolidator) DeriveRiskCategory(level *string, defaultProb *float64) *string {
	if level != nil {
		switch strings.ToLower(strings.TrimSpace(*level)) {
		case "low":
			return strPtr("Low")
		case "medium":
			return strPtr("Medium")
		case "high":
			return strPtr("High")
		}
	}
	if defaultProb != nil {
		switch {
		case *defaultProb < 0.1:
			return strPtr("Low")
		case *defaultProb < 0.25:
			return strPtr("Medium")
		default:
			return strPtr("High")
		}
	}
	return nil
}

// ClampCreditScore rounds and bounds a raw score to the 300..850 range.
func ClampCreditScore(score *float64) *int {
	if score == nil {
		return nil
	}
	v := int(math.Round(*score))
	if v < 300 {
		v = 300
	}
	if v > 850 {
		v = 850
	}
	return &v
}

// EstimateCreditScore prefers the supplied score and otherwise maps the
// default probability onto the 300..850 scale.
func EstimateCreditScore(supplied *float64, defaultProb *float64) *int {
	if clamped := ClampCreditScore(supplied); clamped != nil {
		return clamped
	}
	if defaultProb == nil {
		return nil
	}
	est := 850.0 - *defaultProb*550.0
	return ClampCreditScore(&est)
}

// ApprovalProbability maps the final recommendation to its base rate and
// applies Platt calibration when configured. Nil for unrecognized values.
func (c *Consolidator) ApprovalProbability(finalRecommendation string) *float64 {
	base, ok := approvalBaseRates[strings.ToLower(strings.TrimSpace(finalRecommendation))]
	if !ok {
		return nil
	}
	v := round4(c.applyPlatt(base))
	return &v
}

// applyPlatt maps a probability through the configured logistic calibration:
// calibrated = 1/(1+exp(a*logit(p)+b)). Identity when calibration is off.
func (c *Consolidator) applyPlatt(p float64) float64 {
	if !c.calibration.Enabled {
		return p
	}
	p = math.Max(1e-6, math.Min(1-1e-6, p))
	logit := math.Log(p / (1 - p))
	calibrated := 1.0 / (1.0 + math.Exp(c.calibration.A*logit+c.calibration.B))
	return clamp01(calibrated)
}

// BuildScores assembles the consolidated score block.
func (c *Consolidator) BuildScores(qse *models.QSEReport, defaultProb *float64, finalRecommendation string) *models.Scores {
	scores := &models.Scores{
		CreditScore:         EstimateCreditScore(qse.CreditScore, defaultProb),
		DefaultProbability:  defaultProb,
		ApprovalProbability: c.ApprovalProbability(finalRecommendation),
	}
	if defaultProb != nil {
		overall := *defaultProb * 100.0
		scores.OverallRiskScore = &overall
	}
	return scores
}

// BuildRiskAnalysis produces the structured risk block: upstream scenarios
// when supplied, always the computed dimensions, and an overall score from
// the default probability.
func (c *Consolidator) BuildRiskAnalysis(qse *models.QSEReport, defaultProb *float64, dims models.RiskDimensions) *models.RiskAnalysisExtended {
	risk := &models.RiskAnalysisExtended{
		RiskDimensions:    dims,
		RiskScenarios:     []models.RiskScenarioExtended{},
		RiskMitigation:    []string{},
		RiskFactors:       []string{},
		ProtectiveFactors: []string{},
	}

	if qse.RiskAnalysis != nil {
		for _, sc := range qse.RiskAnalysis.Scenarios {
			impact := "medium"
			if sc.Severity != "" {
				impact = strings.ToLower(sc.Severity)
			}
			risk.RiskScenarios = append(risk.RiskScenarios, models.RiskScenarioExtended{
				Scenario:            sc.Name,
				Description:         sc.Description,
				ExpectedDefaultRate: qse.RiskAnalysis.DefaultProbability,
				Impact:              impact,
			})
		}
	}

	if defaultProb != nil {
		overall := *defaultProb * 100.0
		risk.OverallRiskScore = &overall
	}
	return risk
}

// BuildEnsembleDetails reflects the single generative prediction across the
// configured ensemble: every model reports the same value, weighted equally,
// so diversity is zero unless upstream predictions ever diverge.
func (c *Consolidator) BuildEnsembleDetails(qse *models.QSEReport, defaultProb *float64, approvalProb *float64) *models.EnsembleDetails {
	governance := qse.ModelGovernanceAndMonitoring

	prediction := 0.5
	if defaultProb != nil {
		prediction = *defaultProb
	} else if approvalProb != nil {
		prediction = *approvalProb
	}
	prediction = c.applyPlatt(prediction)

	details := &models.EnsembleDetails{
		FeaturesAnalyzed:      qse.FeaturesCount,
		ConsensusScore:        0.0,
		DiversityIndex:        0.0,
		StabilityMetric:       0.9,
		IndividualPredictions: map[string]float64{"gemini": prediction},
		Weights:               map[string]float64{"gemini": 1.0},
		FeatureCategories: map[string]int{
			"affordability": qse.AffordabilityAndObligations.Len(),
			"credit":        qse.CoreCreditPerformance.Len(),
			"behavioral":    qse.BehavioralIntelligence.Len(),
		},
		ProvenanceRunIDs: map[string]string{"gemini": c.model},
	}
	if confidence, ok := governance.Float("model_confidence_score"); ok {
		details.EnsembleConfidence = &confidence
	}

	if strings.EqualFold(c.ensemble.Mode, "multi") && len(c.ensemble.ExtraModels) > 0 {
		weight := round4(1.0 / float64(len(c.ensemble.ExtraModels)+1))
		details.Weights["gemini"] = weight
		for _, mdl := range c.ensemble.ExtraModels {
			details.IndividualPredictions[mdl] = prediction
			details.Weights[mdl] = weight
			details.ProvenanceRunIDs[mdl] = "configured:" + mdl
		}
	}

	var weighted, totalWeight float64
	for name, w := range details.Weights {
		weighted += details.IndividualPredictions[name] * w
		totalWeight += w
	}
	if totalWeight == 0 {
		totalWeight = 1.0
	}
	details.ConsensusScore = round4(weighted / totalWeight)

	if len(details.IndividualPredictions) >= 2 {
		details.DiversityIndex = round4(pstdev(details.IndividualPredictions))
	}
	return details
}

// pstdev is the population standard deviation of the prediction values.
func pstdev(values map[string]float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / n)
}

func strPtr(s string) *string {
	return &s
}
