// internal/models/extended.go
package models

// FeatureWeight is a single global-importance entry.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// FeatureImportance is a signed top-N driver entry.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
	Impact     string  `json:"impact"` // positive | neutral | negative
}

// ShapAnalysisExtended carries SHAP-style explanation detail.
type ShapAnalysisExtended struct {
	LocalExplanation  *string         `json:"local_explanation,omitempty"`
	Description       *string         `json:"description,omitempty"`
	ConfidenceFactors []ShapFactor    `json:"confidence_factors"`
	RiskFactors       []ShapFactor    `json:"risk_factors"`
	GlobalImportance  []FeatureWeight `json:"global_importance,omitempty"`
}

// ExplainabilityExtended is built once per request from the best available
// source: input-provided importance, the external explainability service, or
// the heuristic ranking.
type ExplainabilityExtended struct {
	ShapAnalysis         *ShapAnalysisExtended `json:"shap_analysis,omitempty"`
	FeatureImportance    []FeatureImportance   `json:"feature_importance"`
	ExplanationAvailable *bool                 `json:"explanation_available,omitempty"`
	Interpretation       *string               `json:"interpretation,omitempty"`
}

// RiskDimensions holds the four bounded risk sub-scores. A nil score means
// the required inputs were absent; it is never silently defaulted to zero.
type RiskDimensions struct {
	CapacityRisk  *float64 `json:"capacity_risk"`
	LiquidityRisk *float64 `json:"liquidity_risk"`
	CreditRisk    *float64 `json:"credit_risk"`
	CharacterRisk *float64 `json:"character_risk"`
}

// RiskScenarioExtended is a scenario entry in the structured risk analysis.
type RiskScenarioExtended struct {
	Scenario            string   `json:"scenario"`
	Probability         *float64 `json:"probability,omitempty"`
	Description         string   `json:"description"`
	ExpectedDefaultRate *float64 `json:"expected_default_rate,omitempty"`
	Impact              string   `json:"impact"`
}

// RiskAnalysisExtended is the structured risk block on the extended response.
type RiskAnalysisExtended struct {
	OverallRiskScore  *float64               `json:"overall_risk_score,omitempty"`
	RiskDimensions    RiskDimensions         `json:"risk_dimensions"`
	RiskScenarios     []RiskScenarioExtended `json:"risk_scenarios"`
	RiskMitigation    []string               `json:"risk_mitigation"`
	RiskFactors       []string               `json:"risk_factors"`
	ProtectiveFactors []string               `json:"protective_factors"`
}

// Scores is the consolidated score block.
type Scores struct {
	CreditScore         *int     `json:"credit_score,omitempty"`
	DefaultProbability  *float64 `json:"default_probability,omitempty"`
	OverallRiskScore    *float64 `json:"overall_risk_score,omitempty"`
	EnsembleConfidence  *float64 `json:"ensemble_confidence,omitempty"`
	ApprovalProbability *float64 `json:"approval_probability,omitempty"`
}

// EnsembleDetails is a display-only ensemble: every configured model reports
// the same underlying prediction, weighted equally.
type EnsembleDetails struct {
	FeaturesAnalyzed      *int               `json:"features_analyzed,omitempty"`
	EnsembleConfidence    *float64           `json:"ensemble_confidence,omitempty"`
	ConsensusScore        float64            `json:"consensus_score"`
	DiversityIndex        float64            `json:"diversity_index"`
	StabilityMetric       float64            `json:"stability_metric"`
	IndividualPredictions map[string]float64 `json:"individual_predictions"`
	Weights               map[string]float64 `json:"weights"`
	FeatureCategories     map[string]int     `json:"feature_categories"`
	ProvenanceRunIDs      map[string]string  `json:"provenance_run_ids"`
}

// ProcessingMetadata captures timing and data-quality detail.
type ProcessingMetadata struct {
	Timestamp          *string  `json:"timestamp,omitempty"`
	ProcessingTimeMs   *int64   `json:"processing_time_ms,omitempty"`
	DataQualityScore   *float64 `json:"data_quality_score,omitempty"`
	FeatureCompletenes *float64 `json:"feature_completeness,omitempty"`
}

// Link is a UI deeplink entry.
type Link struct {
	Rel   string `json:"rel"`
	Href  string `json:"href"`
	Title string `json:"title"`
}

// ExtendedResponse is the full QSE analysis response.
type ExtendedResponse struct {
	RequestID     string  `json:"request_id"`
	CustomerID    string  `json:"customer_id"`
	CorrelationID *string `json:"correlation_id,omitempty"`

	CreditScore        *int     `json:"credit_score,omitempty"`
	RiskLevel          *string  `json:"risk_level,omitempty"`
	RiskCategory       *string  `json:"risk_category,omitempty"`
	DefaultProbability *float64 `json:"default_probability,omitempty"`
	ConfidenceScore    *float64 `json:"confidence_score,omitempty"`
	ModelTypeUsed      *string  `json:"model_type_used,omitempty"`
	ModelVersion       *string  `json:"model_version,omitempty"`
	FeaturesCount      *int     `json:"features_count,omitempty"`

	EthiopianMarketOptimized bool `json:"ethiopian_market_optimized"`

	FeatureAnalysis map[string]interface{}  `json:"feature_analysis,omitempty"`
	Explainability  *ExplainabilityExtended `json:"explainability,omitempty"`
	RiskAnalysis    *RiskAnalysisExtended   `json:"risk_analysis,omitempty"`
	EnsembleDetails *EnsembleDetails        `json:"ensemble_details,omitempty"`

	NBEComplianceStatus *NBECompliance      `json:"nbe_compliance_status,omitempty"`
	ProcessingMetadata  *ProcessingMetadata `json:"processing_metadata,omitempty"`
	ProcessingTimeMs    *int64              `json:"processing_time_ms,omitempty"`
	Timestamp           *string             `json:"timestamp,omitempty"`
	AdditionalInsights  *AdditionalInsights `json:"additional_insights,omitempty"`

	QAAReport *QualitativeReport `json:"qaa_report"`
	Scores    *Scores            `json:"scores"`
	Links     []Link             `json:"links"`
}
