// internal/analysis/explainability/client.go
package explainability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"credisynth-qaa/internal/common/config"
	commonhttp "credisynth-qaa/internal/common/http"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/models"
)

// Client fetches SHAP/LIME style explanations from the upstream
// explainability service. A failed or disabled fetch is never a request
// failure; callers fall back to the heuristic builder.
type Client struct {
	cfg        config.ExplainabilityConfig
	httpClient *commonhttp.Client
	logger     logger.Logger
}

func NewClient(cfg config.ExplainabilityConfig, log logger.Logger) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: commonhttp.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		logger:     log,
	}
}

// Fetch posts the QSE report to {base}/v1/explain and decodes the structured
// explainability block. Returns (nil, nil) when the integration is disabled.
func (c *Client) Fetch(ctx context.Context, qse *models.QSEReport) (*models.ExplainabilityExtended, error) {
	if !c.cfg.Enabled || c.cfg.BaseURL == "" {
		return nil, nil
	}

	body, err := json.Marshal(qse)
	if err != nil {
		return nil, fmt.Errorf("marshal explainability payload: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/explain"
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build explainability request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoWithContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call explainability service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explainability service returned status %d", resp.StatusCode)
	}

	var out models.ExplainabilityExtended
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode explainability response: %w", err)
	}

	c.logger.Debug("fetched external explainability", map[string]interface{}{
		"request_id": qse.RequestID,
		"drivers":    len(out.FeatureImportance),
	})
	return &out, nil
}
