// internal/models/qualitative.go
package models

import "strings"

// Canonical final recommendation values. The qualitative report never carries
// anything outside this set, regardless of which path produced it.
const (
	RecommendationApprove               = "Approve"
	RecommendationApproveWithConditions = "Approve with Conditions"
	RecommendationManualReview          = "Manual Review"
	RecommendationDecline               = "Decline"
)

// recommendationSynonyms maps lowercased model phrasings to canonical values.
var recommendationSynonyms = map[string]string{
	"approve":                  RecommendationApprove,
	"approved":                 RecommendationApprove,
	"approval":                 RecommendationApprove,
	"accept":                   RecommendationApprove,
	"accepted":                 RecommendationApprove,
	"approve with conditions":  RecommendationApproveWithConditions,
	"approved with conditions": RecommendationApproveWithConditions,
	"conditional approval":     RecommendationApproveWithConditions,
	"conditional approve":      RecommendationApproveWithConditions,
	"manual review":            RecommendationManualReview,
	"review":                   RecommendationManualReview,
	"refer":                    RecommendationManualReview,
	"referred":                 RecommendationManualReview,
	"needs review":             RecommendationManualReview,
	"decline":                  RecommendationDecline,
	"declined":                 RecommendationDecline,
	"reject":                   RecommendationDecline,
	"rejected":                 RecommendationDecline,
	"deny":                     RecommendationDecline,
	"denied":                   RecommendationDecline,
}

// NormalizeRecommendation maps a model-produced recommendation onto the
// canonical set, case-insensitively. The second return is false when no
// synonym matches; callers must treat that as a failed response, never coerce.
func NormalizeRecommendation(raw string) (string, bool) {
	canonical, ok := recommendationSynonyms[strings.ToLower(strings.TrimSpace(raw))]
	return canonical, ok
}

// IsCanonicalRecommendation reports whether value is one of the four literals.
func IsCanonicalRecommendation(value string) bool {
	switch value {
	case RecommendationApprove, RecommendationApproveWithConditions,
		RecommendationManualReview, RecommendationDecline:
		return true
	}
	return false
}

// QualitativeReport is the QAA narrative output, produced either by the
// generative model or by the deterministic fallback synthesizer.
type QualitativeReport struct {
	AnalysisID   string `json:"analysis_id"`
	QSERequestID string `json:"qse_request_id"`
	CustomerID   string `json:"customer_id"`

	ExecutiveSummary      string `json:"executive_summary"`
	AbilityToRepay        string `json:"ability_to_repay"`
	WillingnessToRepay    string `json:"willingness_to_repay"`
	KeyRiskSynthesis      string `json:"key_risk_synthesis"`
	KeyStrengthsSynthesis string `json:"key_strengths_synthesis"`
	NBEComplianceSummary  string `json:"nbe_compliance_summary"`

	FinalRecommendation         string `json:"final_recommendation"`
	RecommendationJustification string `json:"recommendation_justification"`
}
