// internal/audit/store.go
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"credisynth-qaa/internal/common/database"
	"credisynth-qaa/internal/common/errors"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/common/metrics"
)

const (
	StatusCreated   = "created"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	maxErrorTextLen = 2048
	cacheKeyPrefix  = "qaa:analysis:"
)

const createTableStmt = `
CREATE TABLE IF NOT EXISTS analysis_records (
	analysis_id    VARCHAR(64) PRIMARY KEY,
	correlation_id VARCHAR(128),
	status         VARCHAR(32) NOT NULL,
	request_json   JSONB,
	response_json  JSONB,
	error_text     VARCHAR(2048),
	created_at     TIMESTAMP NOT NULL DEFAULT (NOW() AT TIME ZONE 'utc'),
	completed_at   TIMESTAMP
)`

// Record is a stored analysis audit row.
type Record struct {
	AnalysisID    string          `json:"analysis_id"`
	CorrelationID *string         `json:"correlation_id,omitempty"`
	Status        string          `json:"status"`
	RequestJSON   json.RawMessage `json:"request_json,omitempty"`
	ResponseJSON  json.RawMessage `json:"response_json,omitempty"`
	ErrorText     *string         `json:"error_text,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

// Store persists the analysis audit trail in Postgres and caches completed
// records in Redis for retrieval. Both backends are optional: a nil database
// disables auditing entirely, a nil cache just skips the read-through layer.
type Store struct {
	db       *database.PostgresClient
	cache    *database.RedisClient
	cacheTTL time.Duration
	logger   logger.Logger
}

func NewStore(db *database.PostgresClient, cache *database.RedisClient, cacheTTL time.Duration, log logger.Logger) *Store {
	return &Store{db: db, cache: cache, cacheTTL: cacheTTL, logger: log}
}

// Enabled reports whether audit persistence is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// EnsureSchema creates the audit table when persistence is enabled.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.db.Exec(ctx, createTableStmt); err != nil {
		return errors.NewAuditWriteFailedError(err)
	}
	return nil
}

// RecordCreated inserts the initial audit row for a new analysis.
func (s *Store) RecordCreated(ctx context.Context, analysisID string, correlationID *string, requestJSON []byte) error {
	if !s.Enabled() {
		return nil
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO analysis_records (analysis_id, correlation_id, status, request_json, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		analysisID, correlationID, StatusCreated, nullableJSON(requestJSON), time.Now().UTC())
	if err != nil {
		metrics.AuditFailures.Inc()
		return errors.NewAuditWriteFailedError(err)
	}
	return nil
}

// RecordCompleted marks the analysis row completed, stores the response, and
// primes the retrieval cache with the full record so cache hits and database
// reads serve identical bodies.
func (s *Store) RecordCompleted(ctx context.Context, analysisID string, responseJSON []byte) error {
	if !s.Enabled() {
		return nil
	}
	completedAt := time.Now().UTC()
	row := s.db.QueryRow(ctx,
		`UPDATE analysis_records SET status = $1, response_json = $2, completed_at = $3 WHERE analysis_id = $4
		 RETURNING correlation_id, request_json, created_at`,
		StatusCompleted, nullableJSON(responseJSON), completedAt, analysisID)

	rec := Record{
		AnalysisID:  analysisID,
		Status:      StatusCompleted,
		CompletedAt: &completedAt,
	}
	var correlationID sql.NullString
	var requestJSON []byte
	if err := row.Scan(&correlationID, &requestJSON, &rec.CreatedAt); err != nil {
		metrics.AuditFailures.Inc()
		return errors.NewAuditWriteFailedError(err)
	}
	if correlationID.Valid {
		rec.CorrelationID = &correlationID.String
	}
	if len(requestJSON) > 0 {
		rec.RequestJSON = json.RawMessage(requestJSON)
	}
	if len(responseJSON) > 0 {
		rec.ResponseJSON = json.RawMessage(responseJSON)
	}

	if s.cache != nil {
		raw, err := json.Marshal(rec)
		if err == nil {
			err = s.cache.Set(ctx, cacheKeyPrefix+analysisID, string(raw), s.cacheTTL)
		}
		if err != nil {
			// Cache priming is best-effort; retrieval falls back to Postgres.
			s.logger.Warn("analysis cache write failed", map[string]interface{}{
				"analysis_id": analysisID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

// RecordFailed marks the analysis row failed with a truncated error message.
func (s *Store) RecordFailed(ctx context.Context, analysisID string, errorText string) error {
	if !s.Enabled() {
		return nil
	}
	if len(errorText) > maxErrorTextLen {
		errorText = errorText[:maxErrorTextLen]
	}
	_, err := s.db.Exec(ctx,
		`UPDATE analysis_records SET status = $1, error_text = $2, completed_at = $3 WHERE analysis_id = $4`,
		StatusFailed, errorText, time.Now().UTC(), analysisID)
	if err != nil {
		metrics.AuditFailures.Inc()
		return errors.NewAuditWriteFailedError(err)
	}
	return nil
}

// GetAnalysis returns the stored audit record for an analysis id. Completed
// responses are served from the cache when present; otherwise the row is read
// from Postgres. A nil record with nil error means not found (or auditing
// disabled).
func (s *Store) GetAnalysis(ctx context.Context, analysisID string) (*Record, error) {
	if !s.Enabled() {
		return nil, nil
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKeyPrefix+analysisID)
		if err == nil && cached != "" {
			var rec Record
			// entries that don't decode to a full record fall through to Postgres
			if uerr := json.Unmarshal([]byte(cached), &rec); uerr == nil && rec.AnalysisID != "" {
				return &rec, nil
			}
		}
		if err != nil && err != redis.Nil {
			s.logger.Warn("analysis cache read failed", map[string]interface{}{
				"analysis_id": analysisID,
				"error":       err.Error(),
			})
		}
	}

	row := s.db.QueryRow(ctx,
		`SELECT analysis_id, correlation_id, status, request_json, response_json, error_text, created_at, completed_at
		 FROM analysis_records WHERE analysis_id = $1`,
		analysisID)

	var rec Record
	var correlationID, errorText sql.NullString
	var requestJSON, responseJSON []byte
	var completedAt sql.NullTime
	err := row.Scan(&rec.AnalysisID, &correlationID, &rec.Status, &requestJSON, &responseJSON, &errorText, &rec.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewAuditReadFailedError(err)
	}

	if correlationID.Valid {
		rec.CorrelationID = &correlationID.String
	}
	if errorText.Valid {
		rec.ErrorText = &errorText.String
	}
	if completedAt.Valid {
		rec.CompletedAt = &completedAt.Time
	}
	if len(requestJSON) > 0 {
		rec.RequestJSON = json.RawMessage(requestJSON)
	}
	if len(responseJSON) > 0 {
		rec.ResponseJSON = json.RawMessage(responseJSON)
	}
	return &rec, nil
}

// nullableJSON maps empty payloads to SQL NULL.
func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
