// internal/analysis/synthesizer/synthesizer.go
package synthesizer

import (
	"fmt"

	"credisynth-qaa/internal/models"
)

// Synthesize builds a deterministic qualitative report from the structured
// QSE sections alone. It is the mock-mode path and the last-resort fallback
// when no generative model is reachable; it never fails.
func Synthesize(qse *models.QSEReport, analysisID string) *models.QualitativeReport {
	aff := qse.AffordabilityAndObligations
	bank := qse.BankAndMobileMoneyDynamics
	core := qse.CoreCreditPerformance
	beh := qse.BehavioralIntelligence
	fraud := qse.IdentityAndFraudIntelligence
	ctx := qse.ContextualAndMacroFactors
	digital := qse.DigitalBehavioralIntelligence

	dti, hasDTI := aff.Float("debt_to_income_ratio")
	residualIncome, hasResidual := aff.Float("residual_income_etb")
	salaryConsistency, _ := bank.Float("salary_inflow_consistency_score")
	kyc, _ := fraud.String("kyc_level")
	fayda, _ := fraud.String("fayda_verification_status")
	savingsScore, _ := digital.Float("savings_behavior_score")

	pepHit, hasPEP := fraud.Bool("pep_or_sanctions_hit_flag")
	dsti, hasDSTI := aff.Float("debt_service_to_income_ratio_dsti")
	if !hasDSTI {
		dsti = 1
	}

	compliant := hasPEP && !pepHit &&
		(kyc == "Enhanced" || kyc == "Standard") &&
		fayda == "Verified" &&
		dsti <= 0.35
	nbeSummary := "COMPLIANT"
	if !compliant {
		nbeSummary = "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues"
	}

	final := models.RecommendationManualReview
	if hasDTI && dti < 0.35 && hasResidual && residualIncome > 5000 && fayda == "Verified" {
		final = models.RecommendationApproveWithConditions
	}

	execSummary := "Applicant shows solid repayment capacity with verified identity. " +
		"DTI and residual income indicate adequate buffer; salary inflows are consistent. " +
		"External macro risks exist but are moderate."

	ability := fmt.Sprintf(
		"Residual income %s ETB and DTI %s suggest capacity. "+
			"Salary consistency %s and limited overdraft/NSF support stable cash flow.",
		num(residualIncome, hasResidual), num(dti, hasDTI), numRaw(bank, "salary_inflow_consistency_score", salaryConsistency))

	behConsistency, hasBehCons := beh.Float("behavioral_consistency_score")
	conscientiousness, hasConsc := beh.Float("conscientiousness_score")
	del30, hasDel30 := core.Float("delinquency_30d_count_12m")
	willingness := fmt.Sprintf(
		"Recent delinquency counts are low (%s). "+
			"Behavioral consistency %s and conscientiousness %s indicate intent to repay.",
		num(del30, hasDel30), num(behConsistency, hasBehCons), num(conscientiousness, hasConsc))

	inflation, hasInflation := ctx.Float("inflation_rate_recent")
	cyclicality, hasCycl := ctx.Float("sector_cyclicality_index")
	risks := fmt.Sprintf(
		"Inflation %s%% and sector cyclicality %s pose moderate risk; "+
			"monitor overdraft usage and social spending volatility.",
		num(inflation, hasInflation), num(cyclicality, hasCycl))

	strengths := fmt.Sprintf(
		"Verified identity (%s), KYC %s, consistent deposits, savings behavior %s, on-time utilities/telecom.",
		str(fayda), str(kyc), numRaw(digital, "savings_behavior_score", savingsScore))

	justification := "Manual review advised due to capacity/compliance uncertainties."
	if final == models.RecommendationApproveWithConditions {
		justification = "Approve with conditions given strong capacity and verified identity; " +
			"monitor liquidity and spending volatility; reassess if inflation worsens."
	}

	return &models.QualitativeReport{
		AnalysisID:                  analysisID,
		QSERequestID:                qse.RequestID,
		CustomerID:                  qse.CustomerID,
		ExecutiveSummary:            execSummary,
		AbilityToRepay:              ability,
		WillingnessToRepay:          willingness,
		KeyRiskSynthesis:            risks,
		KeyStrengthsSynthesis:       strengths,
		NBEComplianceSummary:        nbeSummary,
		FinalRecommendation:         final,
		RecommendationJustification: justification,
	}
}

// num formats an optional numeric for narrative text.
func num(v float64, ok bool) string {
	if !ok {
		return "n/a"
	}
	return fmt.Sprintf("%v", v)
}

// numRaw keeps the section's raw value when present so ints stay ints in
// the narrative, falling back to the already-coerced float.
func numRaw(section models.Section, key string, coerced float64) string {
	if v := section.Value(key); v != nil {
		return fmt.Sprintf("%v", v)
	}
	if _, ok := section.Float(key); ok {
		return fmt.Sprintf("%v", coerced)
	}
	return "n/a"
}

func str(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
