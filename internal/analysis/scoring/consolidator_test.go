// internal/analysis/scoring/consolidator_test.go
package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/models"
)

func newConsolidator() *Consolidator {
	return NewConsolidator(config.CalibrationConfig{}, config.EnsembleConfig{Mode: "single"}, "models/gemini-1.5-pro")
}

func TestResolveDefaultProbability_Chain(t *testing.T) {
	c := newConsolidator()

	t.Run("explicit top-level wins", func(t *testing.T) {
		qse := &models.QSEReport{
			DefaultProbability: f(0.12),
			RiskAnalysis:       &models.RiskAnalysisInput{DefaultProbability: f(0.2)},
		}
		assertFloatPtr(t, f(0.12), c.ResolveDefaultProbability(qse, nil))
	})

	t.Run("risk analysis next", func(t *testing.T) {
		qse := &models.QSEReport{
			RiskAnalysis: &models.RiskAnalysisInput{DefaultProbability: f(0.2)},
			DigitalBehavioralIntelligence: models.Section{
				"anonymized_peer_default_rate": 0.3,
			},
		}
		assertFloatPtr(t, f(0.2), c.ResolveDefaultProbability(qse, nil))
	})

	t.Run("peer rate next", func(t *testing.T) {
		qse := &models.QSEReport{
			DigitalBehavioralIntelligence: models.Section{
				"anonymized_peer_default_rate": 0.3,
			},
		}
		assertFloatPtr(t, f(0.3), c.ResolveDefaultProbability(qse, strPtr("Low")))
	})

	t.Run("risk level estimate last", func(t *testing.T) {
		qse := &models.QSEReport{}
		assertFloatPtr(t, f(0.08), c.ResolveDefaultProbability(qse, strPtr("Low")))
		assertFloatPtr(t, f(0.18), c.ResolveDefaultProbability(qse, strPtr("medium")))
		assertFloatPtr(t, f(0.35), c.ResolveDefaultProbability(qse, strPtr(" HIGH ")))
	})

	t.Run("nothing resolvable", func(t *testing.T) {
		assert.Nil(t, newConsolidator().ResolveDefaultProbability(&models.QSEReport{}, nil))
		assert.Nil(t, newConsolidator().ResolveDefaultProbability(&models.QSEReport{}, strPtr("Unknown")))
	})
}

func TestEffectiveRiskLevel(t *testing.T) {
	c := newConsolidator()

	qse := &models.QSEReport{RiskLevel: strPtr("Medium")}
	assert.Equal(t, "Medium", *c.EffectiveRiskLevel(qse))

	qse = &models.QSEReport{
		ModelGovernanceAndMonitoring: models.Section{"final_risk_level": "High"},
	}
	assert.Equal(t, "High", *c.EffectiveRiskLevel(qse))

	assert.Nil(t, c.EffectiveRiskLevel(&models.QSEReport{}))
}

func TestDeriveRiskCategory(t *testing.T) {
	c := newConsolidator()

	tests := []struct {
		name  string
		level *string
		prob  *float64
		want  *string
	}{
		{"recognized level normalized", strPtr(" low "), f(0.9), strPtr("Low")},
		{"unrecognized level falls to probability", strPtr("Elevated"), f(0.05), strPtr("Low")},
		{"below 0.1 is Low", nil, f(0.0999), strPtr("Low")},
		{"boundary 0.1 is Medium", nil, f(0.1), strPtr("Medium")},
		{"below 0.25 is Medium", nil, f(0.2499), strPtr("Medium")},
		{"boundary 0.25 is High", nil, f(0.25), strPtr("High")},
		{"nothing available", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.DeriveRiskCategory(tt.level, tt.prob)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestClampCreditScore(t *testing.T) {
	tests := []struct {
		name  string
		score *float64
		want  *int
	}{
		{"within range rounds", f(712.6), i(713)},
		{"below floor", f(120.0), i(300)},
		{"negative clamps to floor", f(-50.0), i(300)},
		{"above ceiling", f(990.0), i(850)},
		{"far above ceiling", f(1400.0), i(850)},
		{"nil stays nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampCreditScore(tt.score)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestEstimateCreditScore(t *testing.T) {
	// supplied score is preferred
	got := EstimateCreditScore(f(640.0), f(0.5))
	require.NotNil(t, got)
	assert.Equal(t, 640, *got)

	// estimated from default probability: 850 - 0.2*550 = 740
	got = EstimateCreditScore(nil, f(0.2))
	require.NotNil(t, got)
	assert.Equal(t, 740, *got)

	// extreme probability still lands in range
	got = EstimateCreditScore(nil, f(1.5))
	require.NotNil(t, got)
	assert.Equal(t, 300, *got)

	assert.Nil(t, EstimateCreditScore(nil, nil))
}

func TestApprovalProbability(t *testing.T) {
	c := newConsolidator()

	tests := []struct {
		rec  string
		want *float64
	}{
		{"Approve", f(0.85)},
		{"Approve with Conditions", f(0.65)},
		{"Manual Review", f(0.45)},
		{"Decline", f(0.10)},
		{" decline ", f(0.10)},
		{"Something Else", nil},
	}

	for _, tt := range tests {
		t.Run(tt.rec, func(t *testing.T) {
			got := c.ApprovalProbability(tt.rec)
			assertFloatPtr(t, tt.want, got)
		})
	}
}

func TestApprovalProbability_PlattCalibration(t *testing.T) {
	c := NewConsolidator(
		config.CalibrationConfig{Enabled: true, A: -1.0, B: 0.0},
		config.EnsembleConfig{Mode: "single"},
		"models/gemini-1.5-pro",
	)

	// a=-1, b=0 makes the transform the identity on the base rate.
	got := c.ApprovalProbability("Approve")
	require.NotNil(t, got)
	assert.InDelta(t, 0.85, *got, 1e-9)

	// a=1 mirrors around 0.5: 1/(1+exp(logit(0.85))) = 0.15.
	c = NewConsolidator(
		config.CalibrationConfig{Enabled: true, A: 1.0, B: 0.0},
		config.EnsembleConfig{Mode: "single"},
		"models/gemini-1.5-pro",
	)
	got = c.ApprovalProbability("Approve")
	require.NotNil(t, got)
	assert.InDelta(t, 0.15, *got, 1e-9)

	// result always stays in [0,1] and rounds to 4 decimals
	c = NewConsolidator(
		config.CalibrationConfig{Enabled: true, A: -3.0, B: 1.7},
		config.EnsembleConfig{Mode: "single"},
		"models/gemini-1.5-pro",
	)
	got = c.ApprovalProbability("Decline")
	require.NotNil(t, got)
	assert.GreaterOrEqual(t, *got, 0.0)
	assert.LessOrEqual(t, *got, 1.0)
	assert.InDelta(t, *got, math.Round(*got*10000)/10000, 1e-12)
}

func TestBuildScores(t *testing.T) {
	c := newConsolidator()
	qse := &models.QSEReport{CreditScore: f(705.0)}

	scores := c.BuildScores(qse, f(0.18), models.RecommendationApproveWithConditions)
	require.NotNil(t, scores)

	require.NotNil(t, scores.CreditScore)
	assert.Equal(t, 705, *scores.CreditScore)
	assertFloatPtr(t, f(0.18), scores.DefaultProbability)
	assertFloatPtr(t, f(18.0), scores.OverallRiskScore)
	assertFloatPtr(t, f(0.65), scores.ApprovalProbability)
	assert.Nil(t, scores.EnsembleConfidence)
}

func TestBuildRiskAnalysis_Scenarios(t *testing.T) {
	c := newConsolidator()
	qse := &models.QSEReport{
		RiskAnalysis: &models.RiskAnalysisInput{
			DefaultProbability: f(0.2),
			Scenarios: []models.RiskScenarioInput{
				{Name: "Inflation shock", Description: "CPI spike", Severity: "High"},
				{Name: "Job loss", Description: "Sector layoffs", Severity: ""},
			},
		},
	}
	dims := models.RiskDimensions{CreditRisk: f(0.53)}

	risk := c.BuildRiskAnalysis(qse, f(0.2), dims)
	require.NotNil(t, risk)

	assertFloatPtr(t, f(20.0), risk.OverallRiskScore)
	require.Len(t, risk.RiskScenarios, 2)
	assert.Equal(t, "Inflation shock", risk.RiskScenarios[0].Scenario)
	assert.Equal(t, "high", risk.RiskScenarios[0].Impact)
	assert.Equal(t, "medium", risk.RiskScenarios[1].Impact)
	assertFloatPtr(t, f(0.2), risk.RiskScenarios[0].ExpectedDefaultRate)
	assertFloatPtr(t, f(0.53), risk.RiskDimensions.CreditRisk)
	assert.NotNil(t, risk.RiskMitigation)
	assert.NotNil(t, risk.RiskFactors)
}

func TestBuildEnsembleDetails_Single(t *testing.T) {
	c := newConsolidator()
	featuresCount := 42
	qse := &models.QSEReport{
		FeaturesCount: &featuresCount,
		ModelGovernanceAndMonitoring: models.Section{
			"model_confidence_score": 0.88,
		},
		AffordabilityAndObligations: models.Section{"a": 1, "b": 2},
		CoreCreditPerformance:       models.Section{"c": 3},
	}

	details := c.BuildEnsembleDetails(qse, f(0.18), f(0.65))
	require.NotNil(t, details)

	assert.Equal(t, map[string]float64{"gemini": 0.18}, details.IndividualPredictions)
	assert.Equal(t, map[string]float64{"gemini": 1.0}, details.Weights)
	assert.InDelta(t, 0.18, details.ConsensusScore, 1e-9)
	assert.Zero(t, details.DiversityIndex)
	assert.InDelta(t, 0.9, details.StabilityMetric, 1e-9)
	assertFloatPtr(t, f(0.88), details.EnsembleConfidence)
	require.NotNil(t, details.FeaturesAnalyzed)
	assert.Equal(t, 42, *details.FeaturesAnalyzed)
	assert.Equal(t, 2, details.FeatureCategories["affordability"])
	assert.Equal(t, 1, details.FeatureCategories["credit"])
	assert.Equal(t, 0, details.FeatureCategories["behavioral"])
	assert.Equal(t, "models/gemini-1.5-pro", details.ProvenanceRunIDs["gemini"])
}

func TestBuildEnsembleDetails_Multi(t *testing.T) {
	c := NewConsolidator(
		config.CalibrationConfig{},
		config.EnsembleConfig{Mode: "multi", ExtraModels: []string{"modelX"}},
		"models/gemini-1.5-pro",
	)

	details := c.BuildEnsembleDetails(&models.QSEReport{}, f(0.4), nil)
	require.NotNil(t, details)

	assert.Equal(t, map[string]float64{"gemini": 0.5, "modelX": 0.5}, details.Weights)
	assert.Equal(t, map[string]float64{"gemini": 0.4, "modelX": 0.4}, details.IndividualPredictions)
	assert.InDelta(t, 0.4, details.ConsensusScore, 1e-9)
	assert.Zero(t, details.DiversityIndex)
	assert.Equal(t, "configured:modelX", details.ProvenanceRunIDs["modelX"])
}

func TestBuildEnsembleDetails_FallbackPrediction(t *testing.T) {
	c := newConsolidator()

	// approval probability stands in when default probability is absent
	details := c.BuildEnsembleDetails(&models.QSEReport{}, nil, f(0.65))
	assert.InDelta(t, 0.65, details.IndividualPredictions["gemini"], 1e-9)

	// neutral 0.5 when neither is known
	details = c.BuildEnsembleDetails(&models.QSEReport{}, nil, nil)
	assert.InDelta(t, 0.5, details.IndividualPredictions["gemini"], 1e-9)
}

func i(v int) *int { return &v }
