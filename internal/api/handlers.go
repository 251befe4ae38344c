package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"crisiswatch/internal/alerting"
	"crisiswatch/internal/config"
	cerrors "crisiswatch/internal/errors"
	"crisiswatch/internal/ctxanalysis"
	"crisiswatch/internal/ensemble"
	"crisiswatch/internal/explain"
	"crisiswatch/internal/models"
	"crisiswatch/internal/schema"
	"crisiswatch/internal/urgency"
	"crisiswatch/internal/validation"
	"crisiswatch/pkg/logger"
	"crisiswatch/pkg/metrics"
)

// Server wires the pipeline components to the HTTP surface: one
// *Server owns the config Store, the ensemble engine, and the alerter, and
// is shared by every request goroutine.
type Server struct {
	store   *config.Store
	engine  *ensemble.Engine
	alerter *alerting.Alerter
	log     *logger.Logger
	metrics *metrics.Registry

	startedAt time.Time
}

func NewServer(store *config.Store, engine *ensemble.Engine, alerter *alerting.Alerter, log *logger.Logger, reg *metrics.Registry) *Server {
	return &Server{
		store:     store,
		engine:    engine,
		alerter:   alerter,
		log:       log.WithComponent("api"),
		metrics:   reg,
		startedAt: time.Now(),
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RequestsInFlight.Inc()
		defer s.metrics.RequestsInFlight.Dec()
	}

	if r.Method != http.MethodPost {
		writeError(w, cerrors.Validation("method", "only POST is supported"))
		return
	}

	var req schema.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, cerrors.Validation("body", "request body is not valid JSON"))
		return
	}

	cfg := s.store.Get()

	validated, verr := validation.AnalyzeRequest(&req)
	if verr != nil {
		writeError(w, verr)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), cfg.Security.RequestTimeout)
	defer cancel()

	assessment, err := s.engine.Assess(ctx, cfg, validated.Message, req.ConsensusAlgorithm)
	if err != nil {
		s.handleAssessError(w, err)
		return
	}
	assessment.Warnings = append(assessment.Warnings, validated.Warnings...)

	includeContext := validation.IncludeContextAnalysis(&req, len(validated.History))
	if includeContext && len(validated.History) > 0 {
		s.runContextAnalysis(cfg, assessment, validated)
	}

	level := urgency.Calculate(assessment.Severity, assessment.CrisisScore, cfg.Urgency.LateNightScoreFloor, escalationOf(assessment), temporalOf(assessment))
	assessment.RecommendedAction = urgency.RecommendedAction(assessment.Severity, level)
	if assessment.ContextAnalysis != nil {
		assessment.ContextAnalysis.InterventionUrgency = level
		assessment.ContextAnalysis.InterventionDelayed = urgency.InterventionDelayed(assessment.ContextAnalysis.Trend.Scores, cfg.Severity.High)
	}

	if req.IncludeExplanation {
		assessment.Explanation = explain.Build(assessment, req.Verbosity)
	}

	s.alerter.Observe(assessment, alertFloor(cfg.Alerter.AlertSeverity))

	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.RequestDuration.WithLabelValues("200").Observe(elapsed.Seconds())
	}

	writeJSON(w, http.StatusOK, toResponse(assessment, elapsed.Milliseconds()))
}

// runContextAnalysis runs the context analyzer and folds its result and
// warnings into assessment in place.
func (s *Server) runContextAnalysis(cfg *config.Config, assessment *models.CrisisAssessment, validated *validation.Validated) {
	points := make([]ctxanalysis.HistoryPoint, 0, len(validated.History))
	for _, h := range validated.History {
		points = append(points, ctxanalysis.HistoryPoint{
			Text:        h.Text,
			Timestamp:   h.Timestamp,
			CrisisScore: h.CrisisScore,
		})
	}

	analyzer := ctxanalysis.New(cfg.Context)
	rescoreFn := func(text string) float64 {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Security.RequestTimeout)
		defer cancel()
		a, err := s.engine.Assess(ctx, cfg, text, "")
		if err != nil {
			return 0
		}
		return a.CrisisScore
	}

	result, warnings := analyzer.Analyze(points, validated.Message, assessment.CrisisScore, assessment.Severity, time.Now(), validated.UserTimezone, rescoreFn)
	assessment.ContextAnalysis = result
	assessment.Warnings = append(assessment.Warnings, warnings...)

	if s.metrics != nil && result.Escalation.Detected {
		s.metrics.EscalationEvents.WithLabelValues(string(result.Escalation.Rate)).Inc()
	}
}

func (s *Server) handleAssessError(w http.ResponseWriter, err error) {
	var svcErr *cerrors.Error
	if errors.As(err, &svcErr) {
		if svcErr.Kind == cerrors.KindAllModelsDown {
			s.alerter.ObserveSystemFailure(svcErr.Message)
		}
		writeError(w, svcErr)
		return
	}
	s.log.Error("unexpected assess error: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func (s *Server) handleGetContextConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Get().Context
	writeJSON(w, http.StatusOK, contextConfigView(cfg))
}

func (s *Server) handlePutContextConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, cerrors.Validation("method", "only PUT is supported"))
		return
	}

	var view schema.ContextConfigView
	if err := json.NewDecoder(r.Body).Decode(&view); err != nil {
		writeError(w, cerrors.Validation("body", "request body is not valid JSON"))
		return
	}

	current := s.store.Get().Context
	next := mergeContextConfig(current, view)
	s.store.UpdateContext(next)

	writeJSON(w, http.StatusOK, contextConfigView(next))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Get()
	loaded := make([]schema.ModelHealth, 0, len(cfg.Models.Enabled))
	for _, m := range cfg.Models.Enabled {
		loaded = append(loaded, schema.ModelHealth{
			ModelID: m.ModelID,
			Enabled: m.Enabled,
			Status:  "ready",
		})
	}

	writeJSON(w, http.StatusOK, schema.HealthResponse{
		Status:          "ok",
		ModelsLoaded:    loaded,
		WarmupComplete:  true,
		AlerterTestMode: cfg.Alerter.TestingMode,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
	})
}

func escalationOf(a *models.CrisisAssessment) models.EscalationResult {
	if a.ContextAnalysis == nil {
		return models.EscalationResult{}
	}
	return a.ContextAnalysis.Escalation
}

func temporalOf(a *models.CrisisAssessment) models.TemporalResult {
	if a.ContextAnalysis == nil {
		return models.TemporalResult{}
	}
	return a.ContextAnalysis.Temporal
}

func alertFloor(configured string) models.Severity {
	switch configured {
	case "critical":
		return models.SeverityCritical
	case "medium":
		return models.SeverityMedium
	case "low":
		return models.SeverityLow
	default:
		return models.SeverityHigh
	}
}

func writeError(w http.ResponseWriter, err *cerrors.Error) {
	writeJSON(w, cerrors.HTTPStatus(err.Kind), map[string]interface{}{
		"error": err.Message,
		"kind":  string(err.Kind),
		"field": err.Field,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
