// internal/analysis/service.go
package analysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"credisynth-qaa/internal/analysis/explainability"
	"credisynth-qaa/internal/analysis/gateway"
	"credisynth-qaa/internal/analysis/scoring"
	"credisynth-qaa/internal/analysis/synthesizer"
	"credisynth-qaa/internal/audit"
	"credisynth-qaa/internal/common/config"
	"credisynth-qaa/internal/common/logger"
	"credisynth-qaa/internal/models"
)

// ReportGenerator produces a qualitative report from a QSE input. The
// production implementation is the Gemini client; tests substitute fakes.
type ReportGenerator interface {
	Generate(ctx context.Context, qse *models.QSEReport, analysisID string) (*models.QualitativeReport, error)
}

// Service runs the two analysis pipelines: the QSE pipeline (narrative
// generation, explainability, risk derivation, score consolidation) and the
// gateway consolidation pipeline. Auditing wraps both and is best-effort.
type Service struct {
	cfg          *config.Config
	generator    ReportGenerator
	explBuilder  *explainability.Builder
	consolidator *scoring.Consolidator
	store        *audit.Store
	logger       logger.Logger
}

func NewService(cfg *config.Config, generator ReportGenerator, explBuilder *explainability.Builder, store *audit.Store, log logger.Logger) *Service {
	return &Service{
		cfg:          cfg,
		generator:    generator,
		explBuilder:  explBuilder,
		consolidator: scoring.NewConsolidator(cfg.Calibration, cfg.Ensemble, cfg.GenAI.Model),
		store:        store,
		logger:       log,
	}
}

// AnalyzeQSE runs the full QSE pipeline and returns the extended response.
// On failure the audit record is marked failed and the typed error is
// returned for the transport layer to map.
func (s *Service) AnalyzeQSE(ctx context.Context, qse *models.QSEReport, correlationID string) (*models.ExtendedResponse, string, error) {
	start := time.Now()
	analysisID := uuid.NewString()
	if correlationID == "" {
		if qse.CorrelationID != nil && *qse.CorrelationID != "" {
			correlationID = *qse.CorrelationID
		} else {
			correlationID = analysisID
		}
	}

	s.auditCreated(ctx, analysisID, correlationID, qse)

	var report *models.QualitativeReport
	var err error
	if s.cfg.GenAI.MockMode {
		report = synthesizer.Synthesize(qse, analysisID)
	} else {
		report, err = s.generator.Generate(ctx, qse, analysisID)
		if err != nil {
			s.auditFailed(ctx, analysisID, err)
			return nil, analysisID, err
		}
	}

	expl := s.explBuilder.Build(ctx, qse)

	level := s.consolidator.EffectiveRiskLevel(qse)
	defaultProb := s.consolidator.ResolveDefaultProbability(qse, level)
	category := s.consolidator.DeriveRiskCategory(level, defaultProb)
	scoresBlock := s.consolidator.BuildScores(qse, defaultProb, report.FinalRecommendation)
	dims := scoring.ComputeRiskDimensions(qse, expl)
	riskAnalysis := s.consolidator.BuildRiskAnalysis(qse, defaultProb, dims)
	ensemble := s.consolidator.BuildEnsembleDetails(qse, defaultProb, scoresBlock.ApprovalProbability)

	governance := qse.ModelGovernanceAndMonitoring
	modelVersion := qse.ModelVersion
	if modelVersion == nil {
		if mv, ok := governance.String("model_version"); ok {
			modelVersion = &mv
		}
	}

	resp := &models.ExtendedResponse{
		RequestID:                qse.RequestID,
		CustomerID:               qse.CustomerID,
		CorrelationID:            qse.CorrelationID,
		CreditScore:              scoring.ClampCreditScore(qse.CreditScore),
		RiskLevel:                level,
		RiskCategory:             category,
		DefaultProbability:       defaultProb,
		ModelVersion:             modelVersion,
		FeaturesCount:            qse.FeaturesCount,
		EthiopianMarketOptimized: true,
		FeatureAnalysis:          qse.FeatureAnalysis,
		Explainability:           expl,
		RiskAnalysis:             riskAnalysis,
		EnsembleDetails:          ensemble,
		NBEComplianceStatus:      qse.NBEComplianceStatus,
		AdditionalInsights:       qse.AdditionalInsightsIn,
		QAAReport:                report,
		Scores:                   scoresBlock,
		Links: []models.Link{
			{Rel: "Explainability", Href: "/ui/explainability", Title: "Explainability"},
			{Rel: "Compliance", Href: "/ui/compliance", Title: "Compliance Detail"},
		},
	}

	meta := &models.ProcessingMetadata{}
	if ts, ok := governance.String("timestamp"); ok {
		meta.Timestamp = &ts
	}
	if dq, ok := governance.Float("data_quality_score"); ok {
		meta.DataQualityScore = &dq
	}
	elapsed := time.Since(start).Milliseconds()
	meta.ProcessingTimeMs = &elapsed
	resp.ProcessingMetadata = meta
	resp.ProcessingTimeMs = &elapsed

	s.auditCompleted(ctx, analysisID, resp)

	s.logger.Info("analyze complete", map[string]interface{}{
		"analysis_id":        analysisID,
		"correlation_id":     correlationID,
		"processing_time_ms": elapsed,
	})
	return resp, analysisID, nil
}

// AnalyzeGateway consolidates an already-scored gateway assessment.
func (s *Service) AnalyzeGateway(ctx context.Context, input *models.GatewayAssessmentInput, correlationID string) (*models.EnhancedAnalysisResponse, string, error) {
	start := time.Now()
	analysisID := uuid.NewString()
	if correlationID == "" {
		if input.CorrelationID != nil && *input.CorrelationID != "" {
			correlationID = *input.CorrelationID
		} else {
			correlationID = analysisID
		}
	}

	s.auditCreated(ctx, analysisID, correlationID, input)

	resp := gateway.Analyze(input, analysisID)
	elapsed := time.Since(start).Milliseconds()
	resp.ProcessingTimeMs = &elapsed

	s.auditCompleted(ctx, analysisID, resp)

	s.logger.Info("gateway analyze complete", map[string]interface{}{
		"analysis_id":        analysisID,
		"correlation_id":     correlationID,
		"processing_time_ms": elapsed,
	})
	return resp, analysisID, nil
}

// GetAnalysis returns the stored audit record for an analysis id; nil when
// unknown or when auditing is disabled.
func (s *Service) GetAnalysis(ctx context.Context, analysisID string) (*audit.Record, error) {
	return s.store.GetAnalysis(ctx, analysisID)
}

// RecordRejected audits a request that failed validation before the pipeline
// started: a created row immediately marked failed.
func (s *Service) RecordRejected(ctx context.Context, correlationID string, request []byte, cause error) string {
	analysisID := uuid.NewString()
	if correlationID == "" {
		correlationID = analysisID
	}
	if err := s.store.RecordCreated(ctx, analysisID, &correlationID, request); err != nil {
		s.logger.Warn("audit create failed", map[string]interface{}{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
	s.auditFailed(ctx, analysisID, cause)
	return analysisID
}

// RecordQueued audits an accepted async job. Execution is deferred; the
// record tracks the submission.
func (s *Service) RecordQueued(ctx context.Context, correlationID string, request []byte) string {
	jobID := uuid.NewString()
	if correlationID == "" {
		correlationID = jobID
	}
	if err := s.store.RecordCreated(ctx, jobID, &correlationID, request); err != nil {
		s.logger.Warn("audit create failed", map[string]interface{}{
			"analysis_id": jobID,
			"error":       err.Error(),
		})
	}
	return jobID
}

// Models lists the configured generative model candidates.
func (s *Service) Models() []string {
	return s.cfg.GenAI.Candidates()
}

func (s *Service) auditCreated(ctx context.Context, analysisID, correlationID string, request interface{}) {
	raw, err := json.Marshal(request)
	if err != nil {
		raw = nil
	}
	if err := s.store.RecordCreated(ctx, analysisID, &correlationID, raw); err != nil {
		s.logger.Warn("audit create failed", map[string]interface{}{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) auditCompleted(ctx context.Context, analysisID string, response interface{}) {
	raw, err := json.Marshal(response)
	if err != nil {
		s.logger.Warn("audit response marshal failed", map[string]interface{}{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
		return
	}
	if err := s.store.RecordCompleted(ctx, analysisID, raw); err != nil {
		s.logger.Warn("audit complete failed", map[string]interface{}{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
}

func (s *Service) auditFailed(ctx context.Context, analysisID string, cause error) {
	if err := s.store.RecordFailed(ctx, analysisID, cause.Error()); err != nil {
		s.logger.Warn("audit failed-write error", map[string]interface{}{
			"analysis_id": analysisID,
			"error":       err.Error(),
		})
	}
}
