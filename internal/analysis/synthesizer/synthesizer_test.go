// internal/analysis/synthesizer/synthesizer_test.go
package synthesizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credisynth-qaa/internal/models"
)

func strongApplicant() *models.QSEReport {
	return &models.QSEReport{
		RequestID:  "qse-req-001",
		CustomerID: "cust-001",
		AffordabilityAndObligations: models.Section{
			"debt_to_income_ratio":              0.28,
			"residual_income_etb":               8500.0,
			"debt_service_to_income_ratio_dsti": 0.30,
		},
		BankAndMobileMoneyDynamics: models.Section{
			"salary_inflow_consistency_score": 0.92,
		},
		CoreCreditPerformance: models.Section{
			"delinquency_30d_count_12m": 0,
		},
		BehavioralIntelligence: models.Section{
			"behavioral_consistency_score": 81.0,
			"conscientiousness_score":      77.0,
		},
		IdentityAndFraudIntelligence: models.Section{
			"kyc_level":                 "Enhanced",
			"fayda_verification_status": "Verified",
			"pep_or_sanctions_hit_flag": false,
		},
		ContextualAndMacroFactors: models.Section{
			"inflation_rate_recent":     13.2,
			"sector_cyclicality_index":  0.4,
		},
		DigitalBehavioralIntelligence: models.Section{
			"savings_behavior_score": 68.0,
		},
	}
}

func TestSynthesize_ApproveWithConditions(t *testing.T) {
	report := Synthesize(strongApplicant(), "analysis-123")
	require.NotNil(t, report)

	assert.Equal(t, "analysis-123", report.AnalysisID)
	assert.Equal(t, "qse-req-001", report.QSERequestID)
	assert.Equal(t, "cust-001", report.CustomerID)
	assert.Equal(t, models.RecommendationApproveWithConditions, report.FinalRecommendation)
	assert.Equal(t, "COMPLIANT", report.NBEComplianceSummary)
	assert.Contains(t, report.RecommendationJustification, "Approve with conditions")
	assert.Contains(t, report.AbilityToRepay, "8500")
	assert.Contains(t, report.KeyStrengthsSynthesis, "Verified")
}

func TestSynthesize_Compliance(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.QSEReport)
		summary string
	}{
		{
			name:    "all checks pass",
			mutate:  func(q *models.QSEReport) {},
			summary: "COMPLIANT",
		},
		{
			name: "pep hit",
			mutate: func(q *models.QSEReport) {
				q.IdentityAndFraudIntelligence["pep_or_sanctions_hit_flag"] = true
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
		{
			name: "pep flag absent",
			mutate: func(q *models.QSEReport) {
				delete(q.IdentityAndFraudIntelligence, "pep_or_sanctions_hit_flag")
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
		{
			name: "basic kyc",
			mutate: func(q *models.QSEReport) {
				q.IdentityAndFraudIntelligence["kyc_level"] = "Basic"
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
		{
			name: "fayda pending",
			mutate: func(q *models.QSEReport) {
				q.IdentityAndFraudIntelligence["fayda_verification_status"] = "Pending"
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
		{
			name: "dsti over threshold",
			mutate: func(q *models.QSEReport) {
				q.AffordabilityAndObligations["debt_service_to_income_ratio_dsti"] = 0.36
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
		{
			name: "dsti missing defaults to non-compliant",
			mutate: func(q *models.QSEReport) {
				delete(q.AffordabilityAndObligations, "debt_service_to_income_ratio_dsti")
			},
			summary: "NON-COMPLIANT: Policy thresholds not met or KYC/Fayda issues",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qse := strongApplicant()
			tt.mutate(qse)
			report := Synthesize(qse, "analysis-x")
			assert.Equal(t, tt.summary, report.NBEComplianceSummary)
		})
	}
}

func TestSynthesize_Recommendation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.QSEReport)
		want   string
	}{
		{
			name:   "capacity and identity verified",
			mutate: func(q *models.QSEReport) {},
			want:   models.RecommendationApproveWithConditions,
		},
		{
			name: "dti at threshold falls back to review",
			mutate: func(q *models.QSEReport) {
				q.AffordabilityAndObligations["debt_to_income_ratio"] = 0.35
			},
			want: models.RecommendationManualReview,
		},
		{
			name: "residual income too low",
			mutate: func(q *models.QSEReport) {
				q.AffordabilityAndObligations["residual_income_etb"] = 5000.0
			},
			want: models.RecommendationManualReview,
		},
		{
			name: "fayda not verified",
			mutate: func(q *models.QSEReport) {
				q.IdentityAndFraudIntelligence["fayda_verification_status"] = "Failed"
			},
			want: models.RecommendationManualReview,
		},
		{
			name: "missing dti",
			mutate: func(q *models.QSEReport) {
				delete(q.AffordabilityAndObligations, "debt_to_income_ratio")
			},
			want: models.RecommendationManualReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qse := strongApplicant()
			tt.mutate(qse)
			report := Synthesize(qse, "analysis-y")
			assert.Equal(t, tt.want, report.FinalRecommendation)
			assert.NotEmpty(t, report.RecommendationJustification)
		})
	}
}

func TestSynthesize_EmptyReport(t *testing.T) {
	qse := &models.QSEReport{RequestID: "qse-empty", CustomerID: "cust-empty"}
	report := Synthesize(qse, "analysis-empty")
	require.NotNil(t, report)

	assert.Equal(t, models.RecommendationManualReview, report.FinalRecommendation)
	assert.Contains(t, report.NBEComplianceSummary, "NON-COMPLIANT")
	assert.Contains(t, report.AbilityToRepay, "n/a")
	assert.NotEmpty(t, report.ExecutiveSummary)
}

func TestSynthesize_Deterministic(t *testing.T) {
	first := Synthesize(strongApplicant(), "analysis-d")
	second := Synthesize(strongApplicant(), "analysis-d")
	assert.Equal(t, first, second)
}
