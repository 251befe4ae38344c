// Package schema defines the wire types for the /analyze request/response
// contract. Nothing here persists past the handler that built
// it; a Message or HistoryItem is a per-request value, never shared across
// requests.
package schema

import "time"

// Message is the current text being assessed.
type Message struct {
	Text      string `json:"message"`
	UserID    string `json:"user_id,omitempty"`
	ChannelID string `json:"channel_id,omitempty"`
}

// HistoryItem is one prior message supplied by the caller for context
// analysis. CrisisScore is optional: when absent the engine re-scores the
// text through the ensemble rather than trusting a caller-supplied value.
type HistoryItem struct {
	Text        string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	CrisisScore *float64  `json:"crisis_score,omitempty"`
}

// AnalyzeRequest is the decoded body of POST /analyze.
type AnalyzeRequest struct {
	Message                 string        `json:"message"`
	UserID                  string        `json:"user_id,omitempty"`
	ChannelID               string        `json:"channel_id,omitempty"`
	UserTimezone            string        `json:"user_timezone,omitempty"`
	MessageHistory          []HistoryItem `json:"message_history,omitempty"`
	IncludeContextAnalysis  *bool         `json:"include_context_analysis,omitempty"`
	IncludeExplanation      bool          `json:"include_explanation,omitempty"`
	Verbosity               string        `json:"verbosity,omitempty"`
	ConsensusAlgorithm      string        `json:"consensus_algorithm,omitempty"`
}

// AnalyzeResponse is the full CrisisAssessment shape plus request-scoped
// metadata. Field types are declared here rather than imported
// from internal/models to keep the wire format stable independent of how
// the pipeline's internal value types evolve; api.toResponse is the single
// place that maps one to the other.
type AnalyzeResponse struct {
	CrisisDetected       bool                      `json:"crisis_detected"`
	Severity             string                    `json:"severity"`
	CrisisScore          float64                   `json:"crisis_score"`
	Confidence           float64                   `json:"confidence"`
	RequiresIntervention bool                      `json:"requires_intervention"`
	RecommendedAction    string                    `json:"recommended_action"`
	Signals              map[string]SignalView     `json:"signals"`
	Consensus            ConsensusView             `json:"consensus"`
	ConflictAnalysis     ConflictView              `json:"conflict_analysis"`
	ContextAnalysis      *ContextAnalysisView      `json:"context_analysis,omitempty"`
	Explanation          *ExplanationView          `json:"explanation,omitempty"`
	Warnings             []string                  `json:"warnings,omitempty"`
	ProcessingTimeMs      int64                     `json:"processing_time_ms"`
}

type SignalView struct {
	Label        string  `json:"label"`
	Score        float64 `json:"score"`
	CrisisSignal float64 `json:"crisis_signal"`
	Weight       float64 `json:"weight"`
	WasTruncated bool    `json:"was_truncated"`
}

type ConsensusView struct {
	Algorithm      string  `json:"algorithm"`
	ConsensusScore float64 `json:"consensus_score"`
	ConsensusLabel string  `json:"consensus_label"`
	Agreement      float64 `json:"agreement"`
}

type ConflictView struct {
	Detected   bool    `json:"detected"`
	Kind       string  `json:"kind"`
	Variance   float64 `json:"variance"`
	Delta      float64 `json:"delta"`
	Resolution string  `json:"resolution"`
}

type ContextAnalysisView struct {
	Escalation           EscalationView  `json:"escalation"`
	Temporal             TemporalView    `json:"temporal"`
	Trend                TrendView       `json:"trend"`
	InterventionUrgency  string          `json:"intervention_urgency"`
	InterventionDelayed  bool            `json:"intervention_delayed"`
	HistoryMetadata      HistoryMetadata `json:"history_metadata"`
}

type EscalationView struct {
	Detected       bool     `json:"detected"`
	Rate           string   `json:"rate"`
	Confidence     float64  `json:"confidence"`
	MatchedPattern *string  `json:"matched_pattern"`
	ScoreDelta     float64  `json:"score_delta"`
	TimeSpanHours  float64  `json:"time_span_hours"`
}

type TemporalView struct {
	LateNightRisk bool    `json:"late_night_risk"`
	RapidPosting  bool    `json:"rapid_posting"`
	IsWeekend     bool    `json:"is_weekend"`
	HourOfDay     int     `json:"hour_of_day"`
	RiskModifier  float64 `json:"risk_modifier"`
	UserTimezone  string  `json:"user_timezone,omitempty"`
}

type TrendView struct {
	Direction        string    `json:"direction"`
	Velocity         string    `json:"velocity"`
	Scores           []float64 `json:"scores"`
	Start            float64   `json:"start"`
	End              float64   `json:"end"`
	Peak             float64   `json:"peak"`
	InflectionPoints []int     `json:"inflection_points"`
}

type HistoryMetadata struct {
	ItemsConsidered int      `json:"items_considered"`
	ItemsTruncated  int      `json:"items_truncated"`
	ValidationIssues []string `json:"validation_issues,omitempty"`
}

type ExplanationView struct {
	Verbosity         string   `json:"verbosity"`
	Summary           string   `json:"summary"`
	KeyFactors        []string `json:"key_factors"`
	RecommendedAction string   `json:"recommended_action"`
}

// ContextConfigView is the GET/PUT /config/context payload.
type ContextConfigView struct {
	MaxHistorySize int                `json:"max_history_size"`
	Escalation     map[string]float64 `json:"escalation_thresholds"`
	Temporal       map[string]float64 `json:"temporal_modifiers"`
	Trend          map[string]float64 `json:"trend_thresholds"`
}

// HealthResponse is the GET /health payload.
type HealthResponse struct {
	Status           string            `json:"status"`
	ModelsLoaded     []ModelHealth     `json:"models_loaded"`
	WarmupComplete   bool              `json:"warmup_complete"`
	AlerterTestMode  bool              `json:"alerter_test_mode"`
	Timestamp        string            `json:"timestamp"`
}

type ModelHealth struct {
	ModelID        string  `json:"model_id"`
	Enabled        bool    `json:"enabled"`
	WarmupLatencyMs float64 `json:"warmup_latency_ms"`
	Status         string  `json:"status"`
}
