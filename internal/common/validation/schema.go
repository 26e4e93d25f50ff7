// Package validation holds the JSON schemas the API and the narrative client
// validate payloads against before unmarshalling into typed records.
package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// qseInputSchema keeps the input permissive on purpose: sections are open
// objects so unspecified upstream fields pass through without schema churn.
const qseInputSchema = `{
	"type": "object",
	"required": ["request_id", "customer_id"],
	"properties": {
		"request_id": {"type": "string", "minLength": 1},
		"customer_id": {"type": "string", "minLength": 1},
		"correlation_id": {"type": ["string", "null"]},
		"credit_score": {"type": ["number", "null"]},
		"risk_level": {"type": ["string", "null"]},
		"default_probability": {"type": ["number", "null"]},
		"model_version": {"type": ["string", "null"]},
		"features_count": {"type": ["integer", "null"]},
		"core_credit_performance": {"type": ["object", "null"]},
		"affordability_and_obligations": {"type": ["object", "null"]},
		"bank_and_mobile_money_dynamics": {"type": ["object", "null"]},
		"identity_and_fraud_intelligence": {"type": ["object", "null"]},
		"personal_and_professional_stability": {"type": ["object", "null"]},
		"contextual_and_macroeconomic_factors": {"type": ["object", "null"]},
		"product_specific_intelligence": {"type": ["object", "null"]},
		"business_and_receivables_finance": {"type": ["object", "null"]},
		"behavioral_intelligence": {"type": ["object", "null"]},
		"model_governance_and_monitoring": {"type": ["object", "null"]},
		"loan_details": {"type": ["object", "null"]},
		"additional_context": {"type": ["object", "null"]},
		"digital_behavioral_intelligence": {"type": ["object", "null"]},
		"feature_analysis": {"type": ["object", "null"]}
	}
}`

const gatewayInputSchema = `{
	"type": "object",
	"required": ["customer_id", "request_id"],
	"properties": {
		"success": {"type": "boolean"},
		"customer_id": {"type": "string", "minLength": 1},
		"request_id": {"type": "string", "minLength": 1},
		"correlation_id": {"type": ["string", "null"]},
		"credit_score": {"type": ["number", "null"]},
		"fraud_score": {"type": ["number", "null"]},
		"default_probability": {"type": ["number", "null"]},
		"product_recommendations": {"type": "array"}
	}
}`

// qualitativeReportSchema is enforced on generative model output. A response
// missing any narrative field, or carrying a non-canonical recommendation, is
// a downstream failure rather than something to silently coerce.
const qualitativeReportSchema = `{
	"type": "object",
	"required": [
		"executive_summary",
		"ability_to_repay",
		"willingness_to_repay",
		"key_risk_synthesis",
		"key_strengths_synthesis",
		"nbe_compliance_summary",
		"final_recommendation",
		"recommendation_justification"
	],
	"properties": {
		"analysis_id": {"type": "string"},
		"qse_request_id": {"type": "string"},
		"customer_id": {"type": "string"},
		"executive_summary": {"type": "string", "minLength": 1},
		"ability_to_repay": {"type": "string", "minLength": 1},
		"willingness_to_repay": {"type": "string", "minLength": 1},
		"key_risk_synthesis": {"type": "string", "minLength": 1},
		"key_strengths_synthesis": {"type": "string", "minLength": 1},
		"nbe_compliance_summary": {"type": "string", "minLength": 1},
		"final_recommendation": {
			"type": "string",
			"enum": ["Approve", "Approve with Conditions", "Manual Review", "Decline"]
		},
		"recommendation_justification": {"type": "string", "minLength": 1}
	}
}`

var (
	qseLoader         = gojsonschema.NewStringLoader(qseInputSchema)
	gatewayLoader     = gojsonschema.NewStringLoader(gatewayInputSchema)
	qualitativeLoader = gojsonschema.NewStringLoader(qualitativeReportSchema)
)

func validate(schemaLoader gojsonschema.JSONLoader, payload []byte) error {
	documentLoader := gojsonschema.NewBytesLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("data validation failed: %v", errs)
	}

	return nil
}

// ValidateQSEInput checks a raw analyze payload against the QSE input schema.
func ValidateQSEInput(payload []byte) error {
	return validate(qseLoader, payload)
}

// ValidateGatewayInput checks a raw analyze payload against the gateway
// assessment schema.
func ValidateGatewayInput(payload []byte) error {
	return validate(gatewayLoader, payload)
}

// ValidateQualitativeReport checks generative model output against the
// qualitative report schema. Callers normalize the recommendation synonym
// before running this.
func ValidateQualitativeReport(payload []byte) error {
	return validate(qualitativeLoader, payload)
}
