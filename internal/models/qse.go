// internal/models/qse.go
package models

// Section is an open-ended QSE report section. Upstream adds fields without
// coordination, so sections stay schemaless and lookups default to absent.
type Section map[string]interface{}

// Float returns the named field as a float64 when present and numeric.
func (s Section) Float(key string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	switch v := s[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// String returns the named field as a string when present.
func (s Section) String(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s[key].(string)
	return v, ok
}

// Bool returns the named field as a bool when present.
func (s Section) Bool(key string) (bool, bool) {
	if s == nil {
		return false, false
	}
	v, ok := s[key].(bool)
	return v, ok
}

// Value returns the raw field value for narrative interpolation. Missing
// fields render as nil, matching the permissive input contract.
func (s Section) Value(key string) interface{} {
	if s == nil {
		return nil
	}
	return s[key]
}

// Len returns the number of populated fields in the section.
func (s Section) Len() int {
	return len(s)
}

// ShapFactor is a single signed explainability factor supplied upstream.
type ShapFactor struct {
	Name      string  `json:"name"`
	Impact    float64 `json:"impact"`
	Direction string  `json:"direction"` // positive | negative
}

// ShapAnalysisInput is the optional explainability block a QSE report may
// already carry.
type ShapAnalysisInput struct {
	RiskFactors           []ShapFactor `json:"risk_factors"`
	ConfidenceFactors     []ShapFactor `json:"confidence_factors"`
	GlobalImportanceOrder []string     `json:"global_importance_order,omitempty"`
}

// RiskScenarioInput is an upstream-declared risk scenario.
type RiskScenarioInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Severity    string `json:"severity"` // Low | Medium | High
}

// RiskAnalysisInput is the optional pre-computed risk block on a QSE report.
type RiskAnalysisInput struct {
	Scenarios          []RiskScenarioInput `json:"scenarios"`
	DefaultProbability *float64            `json:"default_probability,omitempty"`
}

// NBECompliance is the optional upstream compliance verdict.
type NBECompliance struct {
	Status  string   `json:"status"` // COMPLIANT | NON_COMPLIANT
	Reasons []string `json:"reasons"`
}

// AdditionalInsights carries free-form upstream notes.
type AdditionalInsights struct {
	Notes *string  `json:"notes,omitempty"`
	Tags  []string `json:"tags"`
}

// QSEReport is the quantitative credit-evaluation input document. Section
// mappings may be partially or fully absent; every downstream computation
// treats a missing section as an empty mapping.
type QSEReport struct {
	RequestID     string  `json:"request_id"`
	CustomerID    string  `json:"customer_id"`
	CorrelationID *string `json:"correlation_id,omitempty"`

	CreditScore        *float64 `json:"credit_score,omitempty"`
	RiskLevel          *string  `json:"risk_level,omitempty"`
	DefaultProbability *float64 `json:"default_probability,omitempty"`
	ModelVersion       *string  `json:"model_version,omitempty"`
	FeaturesCount      *int     `json:"features_count,omitempty"`

	CoreCreditPerformance            Section `json:"core_credit_performance,omitempty"`
	AffordabilityAndObligations      Section `json:"affordability_and_obligations,omitempty"`
	BankAndMobileMoneyDynamics       Section `json:"bank_and_mobile_money_dynamics,omitempty"`
	IdentityAndFraudIntelligence     Section `json:"identity_and_fraud_intelligence,omitempty"`
	PersonalAndProfessionalStability Section `json:"personal_and_professional_stability,omitempty"`
	ContextualAndMacroFactors        Section `json:"contextual_and_macroeconomic_factors,omitempty"`
	ProductSpecificIntelligence      Section `json:"product_specific_intelligence,omitempty"`
	BusinessAndReceivablesFinance    Section `json:"business_and_receivables_finance,omitempty"`
	BehavioralIntelligence           Section `json:"behavioral_intelligence,omitempty"`
	ModelGovernanceAndMonitoring     Section `json:"model_governance_and_monitoring,omitempty"`
	LoanDetails                      Section `json:"loan_details,omitempty"`
	AdditionalContext                Section `json:"additional_context,omitempty"`
	DigitalBehavioralIntelligence    Section `json:"digital_behavioral_intelligence,omitempty"`

	FeatureAnalysis      map[string]interface{} `json:"feature_analysis,omitempty"`
	Explainability       *ShapAnalysisInput     `json:"explainability,omitempty"`
	RiskAnalysis         *RiskAnalysisInput     `json:"risk_analysis,omitempty"`
	NBEComplianceStatus  *NBECompliance         `json:"nbe_compliance_status,omitempty"`
	AdditionalInsightsIn *AdditionalInsights    `json:"additional_insights,omitempty"`
}
