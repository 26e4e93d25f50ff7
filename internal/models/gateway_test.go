// internal/models/gateway_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsGatewayPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]interface{}
		want    bool
	}{
		{
			name:    "success key marks gateway shape",
			payload: map[string]interface{}{"success": true},
			want:    true,
		},
		{
			name:    "success key even when false",
			payload: map[string]interface{}{"success": false},
			want:    true,
		},
		{
			name: "fraud, products and compliance trio",
			payload: map[string]interface{}{
				"fraud_detection_result":  map[string]interface{}{},
				"product_recommendations": []interface{}{},
				"nbe_compliance_status": map[string]interface{}{
					"overall_compliance": "pass",
				},
			},
			want: true,
		},
		{
			name: "compliance without overall flag is not enough",
			payload: map[string]interface{}{
				"fraud_detection_result":  map[string]interface{}{},
				"product_recommendations": []interface{}{},
				"nbe_compliance_status":   map[string]interface{}{},
			},
			want: false,
		},
		{
			name: "partial trio stays QSE",
			payload: map[string]interface{}{
				"fraud_detection_result":  map[string]interface{}{},
				"product_recommendations": []interface{}{},
			},
			want: false,
		},
		{
			name: "plain QSE report",
			payload: map[string]interface{}{
				"request_id":  "req-1",
				"customer_id": "cust-1",
				"risk_level":  "Low",
			},
			want: false,
		},
		{
			name:    "empty object",
			payload: map[string]interface{}{},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsGatewayPayload(tt.payload))
		})
	}
}
