// internal/analysis/scoring/riskdims_test.go
package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credisynth-qaa/internal/models"
)

func TestCapacityRisk(t *testing.T) {
	tests := []struct {
		name string
		aff  models.Section
		want *float64
	}{
		{
			name: "both inputs present",
			aff:  models.Section{"affordability_buffer_ratio": 0.4, "residual_income_ratio": 0.3},
			// (1-0.4)*0.6 + (1-0.3)*0.4 = 0.36 + 0.28
			want: f(0.64),
		},
		{
			name: "clamped at one",
			aff:  models.Section{"affordability_buffer_ratio": -2.0, "residual_income_ratio": -2.0},
			want: f(1.0),
		},
		{
			name: "clamped at zero",
			aff:  models.Section{"affordability_buffer_ratio": 3.0, "residual_income_ratio": 3.0},
			want: f(0.0),
		},
		{
			name: "missing buffer ratio",
			aff:  models.Section{"residual_income_ratio": 0.3},
			want: nil,
		},
		{
			name: "empty section",
			aff:  nil,
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qse := &models.QSEReport{AffordabilityAndObligations: tt.aff}
			got := capacityRisk(qse)
			assertFloatPtr(t, tt.want, got)
		})
	}
}

func TestLiquidityRisk(t *testing.T) {
	tests := []struct {
		name string
		aff  models.Section
		bank models.Section
		want *float64
	}{
		{
			name: "cash buffer only",
			aff:  models.Section{"cash_buffer_days": 45.0},
			want: f(0.5),
		},
		{
			name: "deep buffer floors at zero",
			aff:  models.Section{"cash_buffer_days": 180.0},
			want: f(0.0),
		},
		{
			name: "overdraft only",
			bank: models.Section{"overdraft_usage_days_90d": 45.0},
			// missing buffer contributes zero to the blend
			want: f(0.25),
		},
		{
			name: "blended",
			aff:  models.Section{"cash_buffer_days": 45.0},
			bank: models.Section{"overdraft_usage_days_90d": 18.0},
			// 0.5*0.5 + 0.2*0.5
			want: f(0.35),
		},
		{
			name: "neither input",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qse := &models.QSEReport{
				AffordabilityAndObligations: tt.aff,
				BankAndMobileMoneyDynamics:  tt.bank,
			}
			got := liquidityRisk(qse)
			assertFloatPtr(t, tt.want, got)
		})
	}
}

func TestCreditRisk(t *testing.T) {
	tests := []struct {
		name string
		aff  models.Section
		core models.Section
		want *float64
	}{
		{
			name: "dti with delinquencies",
			aff:  models.Section{"debt_to_income_ratio": 0.3},
			core: models.Section{
				"delinquency_30d_count_12m": 1,
				"delinquency_60d_count_12m": 1,
				"delinquency_90d_count_12m": 1,
			},
			// dti_norm 0.5, delinquency_norm (1+2+3)/10 = 0.6
			// 0.5*0.7 + 0.6*0.3 = 0.53
			want: f(0.53),
		},
		{
			name: "missing counts default to zero",
			aff:  models.Section{"debt_to_income_ratio": 0.3},
			want: f(0.35),
		},
		{
			name: "dti normalization saturates",
			aff:  models.Section{"debt_to_income_ratio": 1.2},
			core: models.Section{"delinquency_90d_count_12m": 10},
			want: f(1.0),
		},
		{
			name: "no dti",
			core: models.Section{"delinquency_30d_count_12m": 5},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qse := &models.QSEReport{
				AffordabilityAndObligations: tt.aff,
				CoreCreditPerformance:       tt.core,
			}
			got := creditRisk(qse)
			assertFloatPtr(t, tt.want, got)
		})
	}
}

func TestCharacterRisk(t *testing.T) {
	t.Run("averages direct signals", func(t *testing.T) {
		qse := &models.QSEReport{
			BehavioralIntelligence: models.Section{
				"behavioral_consistency_score": 80.0,
				"conscientiousness_score":      60.0,
			},
		}
		got := characterRisk(qse, nil)
		// baseline 70 -> risk 0.3
		assertFloatPtr(t, f(0.3), got)
	})

	t.Run("signals bounded to 0..100 before averaging", func(t *testing.T) {
		qse := &models.QSEReport{
			BehavioralIntelligence: models.Section{
				"behavioral_consistency_score": 150.0,
				"conscientiousness_score":      -20.0,
			},
		}
		got := characterRisk(qse, nil)
		// bounded to 100 and 0, baseline 50 -> risk 0.5
		assertFloatPtr(t, f(0.5), got)
	})

	t.Run("reconstructs from explainability drivers", func(t *testing.T) {
		expl := &models.ExplainabilityExtended{
			FeatureImportance: []models.FeatureImportance{
				{Feature: "conscientiousness_score", Importance: 0.4, Impact: "positive"},
				{Feature: "savings_behavior_score", Importance: 0.2, Impact: "positive"},
				{Feature: "debt_to_income_ratio", Importance: 0.9, Impact: "negative"},
			},
		}
		got := characterRisk(&models.QSEReport{}, expl)
		require.NotNil(t, got)
		// conscientiousness: (50+20)*1.0 = 70; savings: (50+10)*0.7 = 42
		// base = 56, risk = 0.44; the non-behavioral driver is ignored
		assert.InDelta(t, 0.44, *got, 1e-9)
	})

	t.Run("neutral baseline when nothing available", func(t *testing.T) {
		got := characterRisk(&models.QSEReport{}, nil)
		assertFloatPtr(t, f(0.45), got)
	})
}

func TestComputeRiskDimensions_AllNilOnEmptyInput(t *testing.T) {
	dims := ComputeRiskDimensions(&models.QSEReport{}, nil)
	assert.Nil(t, dims.CapacityRisk)
	assert.Nil(t, dims.LiquidityRisk)
	assert.Nil(t, dims.CreditRisk)
	// character risk always resolves via the neutral baseline
	require.NotNil(t, dims.CharacterRisk)
	assert.InDelta(t, 0.45, *dims.CharacterRisk, 1e-9)
}

func f(v float64) *float64 { return &v }

func assertFloatPtr(t *testing.T, want, got *float64) {
	t.Helper()
	if want == nil {
		assert.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	assert.InDelta(t, *want, *got, 1e-9)
}
