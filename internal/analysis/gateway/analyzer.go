// internal/analysis/gateway/analyzer.go
package gateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"credisynth-qaa/internal/models"
)

// Analyze consolidates an already-scored gateway assessment into scores, a
// structured analysis breakdown, decisions, and deduplicated recommendations.
// The transformation is pure and deterministic aside from the timestamp.
func Analyze(input *models.GatewayAssessmentInput, analysisID string) *models.EnhancedAnalysisResponse {
	correlationID := input.CorrelationID
	if correlationID == nil || *correlationID == "" {
		correlationID = &analysisID
	}
	assessmentID := input.AssessmentID
	if assessmentID == nil || *assessmentID == "" {
		assessmentID = &analysisID
	}
	ts := time.Now().UTC().Format(time.RFC3339Nano)

	return &models.EnhancedAnalysisResponse{
		RequestID:       input.RequestID,
		CustomerID:      input.CustomerID,
		CorrelationID:   correlationID,
		AssessmentID:    assessmentID,
		Scores:          extractScores(input),
		Analysis:        buildAnalysis(input),
		Decisions:       determineDecisions(input),
		Recommendations: buildRecommendations(input),
		Timestamp:       &ts,
	}
}

func extractScores(input *models.GatewayAssessmentInput) map[string]interface{} {
	scores := map[string]interface{}{
		"credit_score":             input.CreditScore,
		"credit_score_components":  map[string]interface{}{},
		"fraud_score":              orZero(input.FraudScore),
		"default_probability":      orZero(input.DefaultProbability),
		"risk_scores":              map[string]interface{}{},
		"ability_to_pay_score":     input.AbilityToPayScore,
		"willingness_to_pay_score": input.WillingnessToPayScore,
		"combined_atp_wtp_score":   input.CombinedATPWTPScore,
	}

	if c := input.CreditScoreComponents; c != nil {
		scores["credit_score_components"] = map[string]interface{}{
			"traditional_score": c.TraditionalScore,
			"alternative_score": c.AlternativeScore,
			"realtime_score":    c.RealtimeScore,
			"ensemble_score":    c.EnsembleScore,
		}
	}

	if rb := input.RiskBreakdown; rb != nil {
		scores["risk_scores"] = map[string]interface{}{
			"credit_risk":    rb.CreditRisk,
			"capacity_risk":  rb.CapacityRisk,
			"liquidity_risk": rb.LiquidityRisk,
			"character_risk": rb.CharacterRisk,
		}
	}

	if input.OverallRiskScore != nil {
		scores["overall_risk_score"] = *input.OverallRiskScore
	}
	if dp := input.DefaultPrediction; dp != nil {
		scores["default_prediction_confidence"] = dp.ConfidenceScore
	}
	if atp := input.ATPWTPAnalysis; atp != nil {
		scores["atp_wtp_analysis"] = map[string]interface{}{
			"score":      atp.Score,
			"confidence": atp.Confidence,
			"assessment": atp.Assessment,
		}
	}
	return scores
}

func buildAnalysis(input *models.GatewayAssessmentInput) map[string]interface{} {
	analysis := map[string]interface{}{
		"risk_analysis":       map[string]interface{}{},
		"fraud_analysis":      map[string]interface{}{},
		"credit_analysis":     map[string]interface{}{},
		"compliance_analysis": map[string]interface{}{},
		"product_analysis":    map[string]interface{}{},
		"feature_analysis":    map[string]interface{}{},
	}

	if ra := input.RiskAnalysis; ra != nil {
		breakdown := interface{}(map[string]interface{}{})
		if ra.RiskBreakdown != nil {
			breakdown = ra.RiskBreakdown
		}
		analysis["risk_analysis"] = map[string]interface{}{
			"overall_risk_score":    ra.OverallRiskScore,
			"risk_level":            ra.RiskLevel,
			"risk_breakdown":        breakdown,
			"critical_risk_factors": ra.CriticalRiskFactors,
			"confidence_score":      ra.ConfidenceScore,
		}
	}

	if fd := input.FraudDetectionResult; fd != nil {
		analysis["fraud_analysis"] = map[string]interface{}{
			"fraud_score":           fd.FraudScore,
			"fraud_risk_level":      fd.FraudRiskLevel,
			"fraud_signals":         fd.FraudSignals,
			"fraud_signals_count":   fd.FraudSignalsCount,
			"block_transaction":     fd.BlockTransaction,
			"require_manual_review": fd.RequireManualReview,
		}
	}

	analysis["credit_analysis"] = map[string]interface{}{
		"credit_score":    input.CreditScore,
		"risk_level":      input.RiskLevel,
		"risk_category":   input.RiskCategory,
		"model_version":   input.ModelVersion,
		"model_type_used": input.ModelTypeUsed,
	}

	if dp := input.DefaultPrediction; dp != nil {
		analysis["default_prediction"] = map[string]interface{}{
			"default_probability":    dp.DefaultProbability,
			"risk_level":             dp.RiskLevel,
			"time_to_default_months": dp.TimeToDefaultMonths,
			"confidence_score":       dp.ConfidenceScore,
		}
	}

	if nbe := input.NBEComplianceStatus; nbe != nil {
		analysis["compliance_analysis"] = map[string]interface{}{
			"overall_compliance":     nbe.OverallCompliance,
			"one_third_rule":         nbe.OneThirdRule,
			"one_third_rule_details": nbe.OneThirdRuleDetails,
			"interest_rate_range":    nbe.InterestRateRange,
			"loan_amount_limits":     nbe.LoanAmountLimits,
		}
	}

	if len(input.ProductRecommendations) > 0 {
		analysis["product_analysis"] = map[string]interface{}{
			"recommendations": input.ProductRecommendations,
			"limits":          input.ProductLimits,
			"pricing":         input.ProductPricing,
		}
	}

	if fc := input.FeatureCompleteness; fc != nil {
		analysis["feature_analysis"] = map[string]interface{}{
			"completeness":     fc.Completeness,
			"meets_threshold":  fc.MeetsThreshold,
			"missing_features": fc.MissingFeatures,
			"default_features": fc.DefaultFeatures,
		}
	}

	if len(input.Explainability) > 0 {
		analysis["explainability"] = input.Explainability
	}
	if len(input.ReasonCodes) > 0 {
		analysis["reason_codes"] = input.ReasonCodes
	}
	return analysis
}

func determineDecisions(input *models.GatewayAssessmentInput) map[string]interface{} {
	decisions := map[string]interface{}{
		"final_decision":      orDefault(input.FinalDecision, "requires_review"),
		"approval_status":     orDefault(input.ApprovalStatus, "requires_review"),
		"decision_reason":     orDefault(input.DecisionReason, "Assessment completed"),
		"fraud_decision":      map[string]interface{}{},
		"risk_decision":       map[string]interface{}{},
		"compliance_decision": map[string]interface{}{},
	}

	if fd := input.FraudDetectionResult; fd != nil {
		decisions["fraud_decision"] = map[string]interface{}{
			"block_transaction":     fd.BlockTransaction,
			"require_manual_review": fd.RequireManualReview,
			"recommendation":        fd.Recommendation,
		}
	}

	if ra := input.RiskAnalysis; ra != nil {
		var riskDecision string
		switch strings.ToUpper(ra.RiskLevel) {
		case "LOW", "LOW RISK":
			riskDecision = "approve"
		case "MEDIUM", "MEDIUM RISK":
			riskDecision = "approve_with_conditions"
		default:
			riskDecision = "requires_review"
		}
		decisions["risk_decision"] = map[string]interface{}{
			"risk_level":         ra.RiskLevel,
			"overall_risk_score": ra.OverallRiskScore,
			"decision":           riskDecision,
		}
	}

	if nbe := input.NBEComplianceStatus; nbe != nil {
		decisions["compliance_decision"] = map[string]interface{}{
			"compliant":          strings.EqualFold(nbe.OverallCompliance, "pass"),
			"overall_compliance": nbe.OverallCompliance,
			"one_third_rule":     nbe.OneThirdRule,
		}
	}

	// Priority: fraud block, fraud manual review, compliance failure, then the
	// gateway's own verdict. The defaults above stand when none apply.
	fd := input.FraudDetectionResult
	switch {
	case fd != nil && fd.BlockTransaction:
		decisions["final_decision"] = "decline"
		decisions["approval_status"] = "declined"
		decisions["decision_reason"] = "Transaction blocked due to fraud indicators"
	case fd != nil && fd.RequireManualReview:
		decisions["final_decision"] = "requires_review"
		decisions["approval_status"] = "pending_manual_review"
	case input.NBEComplianceStatus != nil && !strings.EqualFold(input.NBEComplianceStatus.OverallCompliance, "pass"):
		decisions["final_decision"] = "decline"
		decisions["approval_status"] = "declined"
		decisions["decision_reason"] = "NBE compliance requirements not met"
	case input.FinalDecision != nil:
		decisions["final_decision"] = *input.FinalDecision
		decisions["approval_status"] = orDefault(input.ApprovalStatus, *input.FinalDecision)
	}
	return decisions
}

func buildRecommendations(input *models.GatewayAssessmentInput) []string {
	var recommendations []string

	recommendations = append(recommendations, input.RiskRecommendations...)
	if input.RiskAnalysis != nil {
		recommendations = append(recommendations, input.RiskAnalysis.Recommendations...)
	}

	if fd := input.FraudDetectionResult; fd != nil {
		if fd.RequireManualReview {
			recommendations = append(recommendations, "Manual review required due to fraud risk indicators")
		} else if fd.FraudSignalsCount > 0 {
			recommendations = append(recommendations, fmt.Sprintf("Monitor %d fraud signal(s)", fd.FraudSignalsCount))
		}
	}

	if fc := input.FeatureCompleteness; fc != nil {
		recommendations = append(recommendations, fc.Recommendations...)
	}
	recommendations = append(recommendations, input.TierImprovementRecommendations...)

	if best := bestEligibleProduct(input.ProductRecommendations); best != nil {
		recommendations = append(recommendations, fmt.Sprintf(
			"Recommended product: %s (Amount: %s ETB, Suitability: %v%%)",
			best.ProductType, groupThousands(best.RecommendedAmount), best.SuitabilityScore))
	}

	if input.AbilityToPayScore != nil && *input.AbilityToPayScore < 50 {
		recommendations = append(recommendations, fmt.Sprintf(
			"Ability to pay score is low (%v) - consider lower loan amount or longer term", *input.AbilityToPayScore))
	}
	if input.WillingnessToPayScore != nil && *input.WillingnessToPayScore < 50 {
		recommendations = append(recommendations, fmt.Sprintf(
			"Willingness to pay score is low (%v) - additional verification recommended", *input.WillingnessToPayScore))
	}

	if input.DefaultProbability != nil {
		switch {
		case *input.DefaultProbability > 0.25:
			recommendations = append(recommendations, "High default probability - consider risk mitigation measures")
		case *input.DefaultProbability > 0.15:
			recommendations = append(recommendations, "Moderate default probability - enhanced monitoring recommended")
		}
	}

	if nbe := input.NBEComplianceStatus; nbe != nil && !strings.EqualFold(nbe.OneThirdRule, "pass") {
		recommendations = append(recommendations, "One-third rule compliance issue - adjust loan amount or terms")
	}

	return dedupe(recommendations)
}

// bestEligibleProduct picks the eligible product with the highest
// suitability score. Ties keep the earliest entry.
func bestEligibleProduct(products []models.ProductRecommendation) *models.ProductRecommendation {
	var best *models.ProductRecommendation
	for i := range products {
		if !products[i].Eligible {
			continue
		}
		if best == nil || products[i].SuitabilityScore > best.SuitabilityScore {
			best = &products[i]
		}
	}
	return best
}

// dedupe removes duplicate entries preserving first-seen order.
func dedupe(entries []string) []string {
	seen := make(map[string]struct{}, len(entries))
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// groupThousands renders an amount with comma grouping and no decimals,
// e.g. 150000 -> "150,000".
func groupThousands(v float64) string {
	s := strconv.FormatFloat(v, 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0.0
	}
	return *v
}

func orDefault(v *string, def string) string {
	if v == nil || *v == "" {
		return def
	}
	return *v
}
