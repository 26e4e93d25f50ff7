// internal/genai/client_test.go
package genai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/common/errors"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/models"
)

func validReportDoc() map[string]interface{} {
	return map[string]interface{}{
		"analysis_id":                  "",
		"qse_request_id":               "qse-req-1",
		"customer_id":                  "cust-1",
		"executive_summary":            "Solid applicant.",
		"ability_to_repay":             "Adequate residual income.",
		"willingness_to_repay":         "Clean repayment history.",
		"key_risk_synthesis":           "Moderate macro exposure.",
		"key_strengths_synthesis":      "Verified identity and steady inflows.",
		"nbe_compliance_summary":       "COMPLIANT",
		"final_recommendation":         "Approve",
		"recommendation_justification": "Strong capacity.",
	}
}

func modelText(t *testing.T, doc map[string]interface{}) string {
	t.Helper()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	return string(raw)
}

func writeCandidate(t *testing.T, w http.ResponseWriter, text string) {
	t.Helper()
	resp := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{"parts": []map[string]interface{}{{"text": text}}}},
		},
	}
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func testClient(baseURL string, model string, fallbacks []string, maxRetries int) *Client {
	c := NewClient(config.GenAIConfig{
		BaseURL:         baseURL,
		APIKey:          "test-key",
		Model:           model,
		FallbackModels:  fallbacks,
		Timeout:         2000,
		MaxRetries:      maxRetries,
		Temperature:     0.2,
		MaxOutputTokens: 1024,
	}, logger.Nop())
	c.backoffBase = time.Millisecond
	return c
}

func TestGenerate_Success(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "qse_request_id: qse-req-1")
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)

		writeCandidate(t, w, modelText(t, validReportDoc()))
	}))
	defer srv.Close()

	client := testClient(srv.URL, "models/gemini-1.5-pro", nil, 3)
	qse := &models.QSEReport{RequestID: "qse-req-1", CustomerID: "cust-1"}

	report, err := client.Generate(context.Background(), qse, "analysis-1")
	require.NoError(t, err)
	assert.Equal(t, "/v1beta/models/gemini-1.5-pro:generateContent", gotPath)
	assert.Equal(t, models.RecommendationApprove, report.FinalRecommendation)
	// blank analysis id filled in from the request
	assert.Equal(t, "analysis-1", report.AnalysisID)
}

func TestGenerate_SynonymNormalization(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"Rejected", models.RecommendationDecline},
		{"approved", models.RecommendationApprove},
		{"Conditional Approval", models.RecommendationApproveWithConditions},
		{"REFER", models.RecommendationManualReview},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				doc := validReportDoc()
				doc["final_recommendation"] = tt.raw
				writeCandidate(t, w, modelText(t, doc))
			}))
			defer srv.Close()

			client := testClient(srv.URL, "gemini-1.5-pro", nil, 1)
			report, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
			require.NoError(t, err)
			assert.Equal(t, tt.want, report.FinalRecommendation)
		})
	}
}

func TestGenerate_CandidateFallbackWithoutBackoff(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.URL.Path)
		if strings.Contains(r.URL.Path, "gemini-1.5-pro") {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error": map[string]interface{}{"code": 404, "status": "NOT_FOUND", "message": "model not found"},
			})
			return
		}
		writeCandidate(t, w, modelText(t, validReportDoc()))
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", []string{"gemini-1.5-flash"}, 1)
	client.backoffBase = time.Hour // would hang the test if the skip consumed backoff

	report, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "gemini-1.5-pro")
	assert.Contains(t, calls[1], "gemini-1.5-flash")
	assert.Equal(t, models.RecommendationApprove, report.FinalRecommendation)
}

func TestGenerate_ExhaustsRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", nil, 3)
	_, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
	require.Error(t, err)

	assert.Equal(t, 3, calls)
	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeModelUnavailable, stdErr.Code)
	assert.True(t, errors.IsDownstream(err))
}

func TestGenerate_MalformedJSONIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCandidate(t, w, "this is not json")
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", nil, 1)
	_, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
	require.Error(t, err)
	assert.True(t, errors.IsDownstream(err))
}

func TestGenerate_SchemaViolationIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := validReportDoc()
		delete(doc, "executive_summary")
		writeCandidate(t, w, modelText(t, doc))
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", nil, 1)
	_, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
	require.Error(t, err)
	assert.True(t, errors.IsDownstream(err))
}

func TestGenerate_UnrecognizedRecommendationIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc := validReportDoc()
		doc["final_recommendation"] = "Maybe"
		writeCandidate(t, w, modelText(t, doc))
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", nil, 1)
	_, err := client.Generate(context.Background(), &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
	require.Error(t, err)
	assert.True(t, errors.IsDownstream(err))
}

func TestGenerate_ContextCancelledDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(srv.URL, "gemini-1.5-pro", nil, 3)
	client.backoffBase = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := client.Generate(ctx, &models.QSEReport{RequestID: "r", CustomerID: "c"}, "a")
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("generate did not return after cancellation")
	}
}
