// internal/models/gateway.go
package models

// CreditScoreComponents breaks the gateway credit score into its sources.
type CreditScoreComponents struct {
	TraditionalScore *float64 `json:"traditional_score,omitempty"`
	AlternativeScore *float64 `json:"alternative_score,omitempty"`
	RealtimeScore    *float64 `json:"realtime_score,omitempty"`
	EnsembleScore    *float64 `json:"ensemble_score,omitempty"`
}

// FraudDetectionResult is the gateway fraud verdict.
type FraudDetectionResult struct {
	FraudScore          float64  `json:"fraud_score"`
	FraudRiskLevel      string   `json:"fraud_risk_level"`
	FraudSignals        []string `json:"fraud_signals"`
	FraudSignalsCount   int      `json:"fraud_signals_count"`
	Recommendation      string   `json:"recommendation"`
	BlockTransaction    bool     `json:"block_transaction"`
	RequireManualReview bool     `json:"require_manual_review"`
}

// DefaultPrediction is the gateway survival-model output.
type DefaultPrediction struct {
	DefaultProbability    float64   `json:"default_probability"`
	RiskLevel             string    `json:"risk_level"`
	SurvivalProbabilities []float64 `json:"survival_probabilities"`
	HazardRatios          []float64 `json:"hazard_ratios"`
	TimeToDefaultMonths   *float64  `json:"time_to_default_months,omitempty"`
	ConfidenceScore       float64   `json:"confidence_score"`
}

// RiskBreakdown mirrors the four risk dimensions in gateway form.
type RiskBreakdown struct {
	CreditRisk    float64 `json:"credit_risk"`
	CapacityRisk  float64 `json:"capacity_risk"`
	LiquidityRisk float64 `json:"liquidity_risk"`
	CharacterRisk float64 `json:"character_risk"`
}

// GatewayRiskAnalysis is the gateway's pre-computed risk block.
type GatewayRiskAnalysis struct {
	OverallRiskScore    float64        `json:"overall_risk_score"`
	RiskLevel           string         `json:"risk_level"`
	RiskBreakdown       *RiskBreakdown `json:"risk_breakdown,omitempty"`
	CriticalRiskFactors []string       `json:"critical_risk_factors"`
	ConfidenceScore     float64        `json:"confidence_score"`
	Recommendations     []string       `json:"recommendations"`
}

// ATPWTPAnalysis is the combined ability/willingness-to-pay block.
type ATPWTPAnalysis struct {
	Score      float64  `json:"score"`
	Factors    []string `json:"factors"`
	Confidence float64  `json:"confidence"`
	Assessment string   `json:"assessment"`
}

// FeatureCompleteness reports input coverage for the upstream models.
type FeatureCompleteness struct {
	IsValid                 bool                   `json:"is_valid"`
	Completeness            map[string]interface{} `json:"completeness"`
	MinCompletenessRequired float64                `json:"min_completeness_required"`
	MeetsThreshold          bool                   `json:"meets_threshold"`
	MissingFeatures         []string               `json:"missing_features"`
	DefaultFeatures         []string               `json:"default_features"`
	Recommendations         []string               `json:"recommendations"`
}

// NBEComplianceDetails is the gateway regulatory verdict.
type NBEComplianceDetails struct {
	OneThirdRule        string                 `json:"one_third_rule"`
	OneThirdRuleDetails map[string]interface{} `json:"one_third_rule_details"`
	InterestRateRange   map[string]float64     `json:"interest_rate_range"`
	LoanAmountLimits    map[string]float64     `json:"loan_amount_limits"`
	OverallCompliance   string                 `json:"overall_compliance"`
}

// ProductRecommendation is a gateway product eligibility entry.
type ProductRecommendation struct {
	ProductType         string                 `json:"product_type"`
	ProductKey          string                 `json:"product_key"`
	Eligible            bool                   `json:"eligible"`
	CreditScore         float64                `json:"credit_score"`
	RiskLevel           string                 `json:"risk_level"`
	MaxAmount           float64                `json:"max_amount"`
	RecommendedAmount   float64                `json:"recommended_amount"`
	SuitabilityScore    float64                `json:"suitability_score"`
	KeyBenefits         []string               `json:"key_benefits"`
	ProductSpecificData map[string]interface{} `json:"product_specific_data"`
}

// ProductLimit is a per-product amount calculation.
type ProductLimit struct {
	ProductType          string                 `json:"product_type"`
	CustomerID           string                 `json:"customer_id"`
	MaxAmount            float64                `json:"max_amount"`
	RecommendedAmount    float64                `json:"recommended_amount"`
	MinAmount            float64                `json:"min_amount"`
	CalculationBreakdown map[string]interface{} `json:"calculation_breakdown"`
	ATPScoreUsed         *float64               `json:"atp_score_used,omitempty"`
	WTPScoreUsed         *float64               `json:"wtp_score_used,omitempty"`
	Timestamp            string                 `json:"timestamp"`
}

// ProductPricing is a per-product pricing quote.
type ProductPricing struct {
	InterestRate   float64                `json:"interest_rate"`
	APR            float64                `json:"apr"`
	MonthlyPayment float64                `json:"monthly_payment"`
	TotalRepayment float64                `json:"total_repayment"`
	PricingTier    string                 `json:"pricing_tier"`
	NBECompliant   bool                   `json:"nbe_compliant"`
	PricingDetails map[string]interface{} `json:"pricing_details"`
	ValidUntil     *string                `json:"valid_until,omitempty"`
}

// GatewayAssessmentInput is the already-scored assessment format assembled by
// the API gateway / orchestration service.
type GatewayAssessmentInput struct {
	Success             bool    `json:"success"`
	CustomerID          string  `json:"customer_id"`
	RequestID           string  `json:"request_id"`
	CorrelationID       *string `json:"correlation_id,omitempty"`
	AssessmentTimestamp *string `json:"assessment_timestamp,omitempty"`

	CreditScore           *float64               `json:"credit_score,omitempty"`
	CreditScoreComponents *CreditScoreComponents `json:"credit_score_components,omitempty"`
	RiskLevel             *string                `json:"risk_level,omitempty"`
	RiskCategory          *string                `json:"risk_category,omitempty"`
	ModelVersion          *string                `json:"model_version,omitempty"`
	ModelTypeUsed         *string                `json:"model_type_used,omitempty"`

	FraudScore            *float64              `json:"fraud_score,omitempty"`
	FraudDetectionResult  *FraudDetectionResult `json:"fraud_detection_result,omitempty"`
	FraudRiskLevel        *string               `json:"fraud_risk_level,omitempty"`
	FraudSignals          []string              `json:"fraud_signals"`
	FraudBlockTransaction bool                  `json:"fraud_block_transaction"`

	DefaultProbability    *float64           `json:"default_probability,omitempty"`
	DefaultPrediction     *DefaultPrediction `json:"default_prediction,omitempty"`
	SurvivalProbabilities []float64          `json:"survival_probabilities"`
	HazardRatios          []float64          `json:"hazard_ratios"`
	TimeToDefaultMonths   *float64           `json:"time_to_default_months,omitempty"`

	RiskAnalysis        *GatewayRiskAnalysis `json:"risk_analysis,omitempty"`
	OverallRiskScore    *float64             `json:"overall_risk_score,omitempty"`
	RiskBreakdown       *RiskBreakdown       `json:"risk_breakdown,omitempty"`
	CriticalRiskFactors []string             `json:"critical_risk_factors"`
	RiskRecommendations []string             `json:"risk_recommendations"`

	AbilityToPayScore     *float64        `json:"ability_to_pay_score,omitempty"`
	WillingnessToPayScore *float64        `json:"willingness_to_pay_score,omitempty"`
	CombinedATPWTPScore   *float64        `json:"combined_atp_wtp_score,omitempty"`
	ATPWTPAnalysis        *ATPWTPAnalysis `json:"atp_wtp_analysis,omitempty"`

	Explainability      map[string]interface{} `json:"explainability"`
	ReasonCodes         []string               `json:"reason_codes"`
	FeatureImportance   map[string]interface{} `json:"feature_importance"`
	FeatureCompleteness *FeatureCompleteness   `json:"feature_completeness,omitempty"`
	NBEComplianceStatus *NBEComplianceDetails  `json:"nbe_compliance_status,omitempty"`
	MarketContext       map[string]interface{} `json:"market_context"`

	ProductRecommendations []ProductRecommendation   `json:"product_recommendations"`
	ProductLimits          map[string]ProductLimit   `json:"product_limits"`
	ProductPricing         map[string]ProductPricing `json:"product_pricing"`

	FinalDecision  *string `json:"final_decision,omitempty"`
	DecisionReason *string `json:"decision_reason,omitempty"`
	ApprovalStatus *string `json:"approval_status,omitempty"`

	ProcessingTimeMs *int64   `json:"processing_time_ms,omitempty"`
	ServicesCalled   []string `json:"services_called"`
	AssessmentID     *string  `json:"assessment_id,omitempty"`

	ErrorDetails                   map[string]interface{} `json:"error_details"`
	TierAvailability               map[string]bool        `json:"tier_availability"`
	TierImprovementRecommendations []string               `json:"tier_improvement_recommendations"`
}

// EnhancedAnalysisResponse is the gateway pipeline's response: consolidated
// scores, a structured analysis breakdown, decisions, and recommendations.
type EnhancedAnalysisResponse struct {
	RequestID     string  `json:"request_id"`
	CustomerID    string  `json:"customer_id"`
	CorrelationID *string `json:"correlation_id,omitempty"`
	AssessmentID  *string `json:"assessment_id,omitempty"`

	Scores          map[string]interface{} `json:"scores"`
	Analysis        map[string]interface{} `json:"analysis"`
	Decisions       map[string]interface{} `json:"decisions"`
	Recommendations []string               `json:"recommendations"`

	QualitativeReport *QualitativeReport `json:"qualitative_report,omitempty"`

	ProcessingTimeMs *int64  `json:"processing_time_ms,omitempty"`
	Timestamp        *string `json:"timestamp,omitempty"`
}

// IsGatewayPayload sniffs the raw analyze body shape: the gateway format is
// selected when `success` is present, or when the fraud result, product
// recommendations, and an overall-compliance verdict all appear together.
// QSE and gateway payloads never overlap on these fields.
func IsGatewayPayload(raw map[string]interface{}) bool {
	if _, ok := raw["success"]; ok {
		return true
	}

	_, hasFraud := raw["fraud_detection_result"]
	_, hasProducts := raw["product_recommendations"]
	compliance, hasCompliance := raw["nbe_compliance_status"].(map[string]interface{})
	if hasFraud && hasProducts && hasCompliance {
		if _, ok := compliance["overall_compliance"]; ok {
			return true
		}
	}
	return false
}
