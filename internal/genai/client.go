// internal/genai/client.go
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/common/errors"
	commonhttp "credisynth-qaa/internal/common/http"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/common/metrics"
	"credisynth-qaa/internal/common/validation"
	"credisynth-qaa/internal/models"
)

// Client calls the Gemini generateContent API to produce a qualitative
// report. Retries run as an explicit attempt counter crossed with a
// candidate-model cursor: transport and validation failures consume an
// attempt and back off, while "model not found/unsupported" responses
// advance to the next candidate immediately.
type Client struct {
	cfg         config.GenAIConfig
	httpClient  *commonhttp.Client
	logger      logger.Logger
	backoffBase time.Duration
}

func NewClient(cfg config.GenAIConfig, log logger.Logger) *Client {
	return &Client{
		cfg:         cfg,
		httpClient:  commonhttp.NewClient(0), // per-attempt timeout via context
		logger:      log,
		backoffBase: time.Second,
	}
}

// generateContent request/response wire types.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMimeType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Generate produces a validated qualitative report for the QSE input.
// It either returns a fully valid report or a downstream error carrying the
// last failure; partial results are never surfaced.
func (c *Client) Generate(ctx context.Context, qse *models.QSEReport, analysisID string) (*models.QualitativeReport, error) {
	candidates := c.cfg.Candidates()
	if len(candidates) == 0 {
		return nil, errors.NewModelUnavailableError(fmt.Errorf("no generative models configured"))
	}

	prompt := buildPrompt(qse)

	cursor := 0
	attempt := 1
	var lastErr error

	for attempt <= c.cfg.MaxRetries {
		model := candidates[cursor]
		report, err := c.callModel(ctx, model, prompt, analysisID)
		if err == nil {
			metrics.GenAIAttempts.WithLabelValues(model, "success").Inc()
			return report, nil
		}
		lastErr = err

		if isModelUnsupported(err) && cursor < len(candidates)-1 {
			// Next candidate, same attempt, no backoff.
			metrics.GenAIAttempts.WithLabelValues(model, "unsupported").Inc()
			c.logger.Warn("model unsupported, trying next candidate", map[string]interface{}{
				"analysis_id": analysisID,
				"model":       model,
				"error":       err.Error(),
			})
			cursor++
			continue
		}

		metrics.GenAIAttempts.WithLabelValues(model, "error").Inc()
		c.logger.Warn("generative model call failed", map[string]interface{}{
			"analysis_id": analysisID,
			"model":       model,
			"attempt":     attempt,
			"error":       err.Error(),
		})

		if attempt < c.cfg.MaxRetries {
			if err := c.backoff(ctx, attempt); err != nil {
				return nil, errors.NewModelUnavailableError(fmt.Errorf("generation cancelled during backoff: %w", err))
			}
		}
		attempt++
	}

	return nil, errors.NewModelUnavailableError(
		fmt.Errorf("generative model exhausted after %d attempts: %w", c.cfg.MaxRetries, lastErr))
}

// callModel runs a single bounded generateContent call and validates the
// returned document against the qualitative-report schema.
func (c *Client) callModel(ctx context.Context, model, prompt, analysisID string) (*models.QualitativeReport, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.Timeout)*time.Millisecond)
	defer cancel()

	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:      c.cfg.Temperature,
			MaxOutputTokens:  c.cfg.MaxOutputTokens,
			ResponseMimeType: "application/json",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), strings.TrimPrefix(model, "models/"), c.cfg.APIKey)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithContext(attemptCtx, req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded {
			return nil, errors.NewModelTimeoutError(model)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var decoded generateResponse
		msg := strings.TrimSpace(string(body))
		if json.Unmarshal(body, &decoded) == nil && decoded.Error != nil {
			msg = decoded.Error.Message
		}
		if resp.StatusCode == http.StatusNotFound {
			return nil, &modelUnsupportedError{model: model, message: msg}
		}
		if looksUnsupported(msg) {
			return nil, &modelUnsupportedError{model: model, message: msg}
		}
		return nil, fmt.Errorf("generate call returned status %d: %s", resp.StatusCode, msg)
	}

	var decoded generateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, errors.NewModelInvalidResponseError("malformed generate response envelope: " + err.Error())
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return nil, errors.NewModelInvalidResponseError("generate response carries no candidates")
	}

	return parseReport([]byte(decoded.Candidates[0].Content.Parts[0].Text), analysisID)
}

// parseReport normalizes the recommendation synonym, validates the document
// against the report schema, and decodes it. Malformed output is a failure,
// never a silent coercion.
func parseReport(raw []byte, analysisID string) (*models.QualitativeReport, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewModelInvalidResponseError("model returned malformed JSON: " + err.Error())
	}

	if rec, ok := doc["final_recommendation"].(string); ok {
		if canonical, ok := models.NormalizeRecommendation(rec); ok {
			doc["final_recommendation"] = canonical
		}
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewModelInvalidResponseError("re-encode normalized report: " + err.Error())
	}
	if err := validation.ValidateQualitativeReport(normalized); err != nil {
		return nil, errors.NewModelInvalidResponseError(err.Error())
	}

	var report models.QualitativeReport
	if err := json.Unmarshal(normalized, &report); err != nil {
		return nil, errors.NewModelInvalidResponseError("decode qualitative report: " + err.Error())
	}
	if report.AnalysisID == "" {
		report.AnalysisID = analysisID
	}
	return &report, nil
}

// buildPrompt renders the analyst instruction with the report's headline
// fields inlined.
func buildPrompt(qse *models.QSEReport) string {
	var b strings.Builder
	b.WriteString("System: You are CrediSynth, a senior risk analyst at the National Bank of Ethiopia. ")
	b.WriteString("Generate a concise qualitative JSON report with fields: analysis_id, qse_request_id, customer_id, ")
	b.WriteString("executive_summary, ability_to_repay, willingness_to_repay, key_risk_synthesis, key_strengths_synthesis, ")
	b.WriteString("nbe_compliance_summary, final_recommendation (Approve | Approve with Conditions | Manual Review | Decline), ")
	b.WriteString("recommendation_justification.\n\n")
	fmt.Fprintf(&b, "qse_request_id: %s\n", qse.RequestID)
	fmt.Fprintf(&b, "customer_id: %s\n", qse.CustomerID)
	fmt.Fprintf(&b, "risk_level: %s\n", deref(qse.RiskLevel))
	if qse.DefaultProbability != nil {
		fmt.Fprintf(&b, "default_probability: %v\n", *qse.DefaultProbability)
	} else {
		b.WriteString("default_probability: \n")
	}
	fmt.Fprintf(&b, "model_version: %s\n", deref(qse.ModelVersion))
	return b.String()
}

func (c *Client) backoff(ctx context.Context, attempt int) error {
	delay := c.backoffBase * time.Duration(1<<uint(attempt))
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// modelUnsupportedError marks a candidate as permanently unusable for this
// deployment; the caller skips to the next candidate without backing off.
type modelUnsupportedError struct {
	model   string
	message string
}

func (e *modelUnsupportedError) Error() string {
	return fmt.Sprintf("model %s unsupported: %s", e.model, e.message)
}

func isModelUnsupported(err error) bool {
	_, ok := err.(*modelUnsupportedError)
	return ok
}

func looksUnsupported(msg string) bool {
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "not found") || strings.Contains(lower, "not supported") ||
		strings.Contains(lower, "unsupported")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
