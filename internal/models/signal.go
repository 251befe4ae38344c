// Package models holds the pipeline's request-scoped value types: the
// per-model signal, the fused ensemble/consensus/conflict results, the
// context-analysis sub-results, the final CrisisAssessment, and the
// outbound Alert. None of these are persisted; the request handler owns
// one instance of each for the lifetime of a single call.
package models

import "time"

// ModelSignal is the normalized output of one model wrapper.
type ModelSignal struct {
	ModelID      string
	RawLabel     string
	RawScore     float64
	CrisisSignal float64
	ModelWeight  float64
	WasTruncated bool
	Err          error // set when the wrapper failed; CrisisSignal/RawScore are zero value
}

// Available reports whether the wrapper actually produced a signal.
func (s ModelSignal) Available() bool {
	return s.Err == nil
}

// EnsembleScore is the fused weighted score plus the per-model signals it
// was computed from.
type EnsembleScore struct {
	WeightedScore float64
	Signals       map[string]ModelSignal
}

// ConsensusResult is produced by the consensus layer.
type ConsensusResult struct {
	Algorithm      string
	ConsensusScore float64
	ConsensusLabel string
	Agreement      float64
}

// ConflictKind classifies a detected disagreement.
type ConflictKind string

const (
	ConflictNone          ConflictKind = "none"
	ConflictScoreVariance ConflictKind = "score_variance"
	ConflictLabelMismatch ConflictKind = "label_mismatch"
	ConflictSignFlip      ConflictKind = "sign_flip"
)

// ConflictResult is produced by the conflict layer.
type ConflictResult struct {
	Detected        bool
	Kind            ConflictKind
	Variance        float64
	Delta           float64
	ResolutionNote  string
	AdjustedScore   float64 // equals the input score unless adjustment is enabled
}

// EscalationRate classifies a history's trajectory.
type EscalationRate string

const (
	EscalationNone    EscalationRate = "none"
	EscalationGradual EscalationRate = "gradual"
	EscalationRapid   EscalationRate = "rapid"
	EscalationSudden  EscalationRate = "sudden"
)

// EscalationResult is produced by the escalation detector.
type EscalationResult struct {
	Detected       bool
	Rate           EscalationRate
	Confidence     float64
	MatchedPattern string // empty when no named pattern matched
	ScoreDelta     float64
	TimeSpanHours  float64
}

// TemporalResult is produced by the temporal detector.
type TemporalResult struct {
	LateNightRisk bool
	RapidPosting  bool
	IsWeekend     bool
	HourOfDay     int
	RiskModifier  float64
	UserTimezone  string
}

// TrendDirection classifies the shape of a smoothed score series.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendStable    TrendDirection = "stable"
	TrendWorsening TrendDirection = "worsening"
	TrendVolatile  TrendDirection = "volatile"
)

// TrendVelocity classifies the mean rate of change.
type TrendVelocity string

const (
	VelocityNone     TrendVelocity = "none"
	VelocityGradual  TrendVelocity = "gradual"
	VelocityModerate TrendVelocity = "moderate"
	VelocityRapid    TrendVelocity = "rapid"
)

// TrendResult is produced by the trend analyzer.
type TrendResult struct {
	Direction        TrendDirection
	Velocity         TrendVelocity
	Scores           []float64
	Start            float64
	End              float64
	Peak             float64
	InflectionPoints []int
}

// InterventionUrgency is the operator-facing action level.
type InterventionUrgency string

const (
	UrgencyNone     InterventionUrgency = "none"
	UrgencyLow      InterventionUrgency = "low"
	UrgencyStandard InterventionUrgency = "standard"
	UrgencyHigh     InterventionUrgency = "high"
	UrgencyImmediate InterventionUrgency = "immediate"
)

// HistoryMetadata records what preprocessing did to the supplied history.
type HistoryMetadata struct {
	ItemsConsidered  int
	ItemsTruncated   int
	ValidationIssues []string
}

// ContextAnalysisResult bundles the three sub-detectors' outputs plus the
// derived intervention urgency.
type ContextAnalysisResult struct {
	Escalation          EscalationResult
	Temporal            TemporalResult
	Trend               TrendResult
	InterventionUrgency InterventionUrgency
	InterventionDelayed bool
	HistoryMetadata     HistoryMetadata
}

// Severity is the five-bucket crisis severity enumeration.
type Severity string

const (
	SeveritySafe     Severity = "safe"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// rank gives severities a total order for "severity ≥ X" comparisons.
var severityRank = map[Severity]int{
	SeveritySafe:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// AtLeast reports whether s is the same severity as or higher than other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Explanation is the optional human-readable summary.
type Explanation struct {
	Verbosity         string
	Summary           string
	KeyFactors        []string
	RecommendedAction string
}

// CrisisAssessment is the complete pipeline output — the shape of the
// /analyze response body.
type CrisisAssessment struct {
	CrisisDetected       bool
	Severity             Severity
	CrisisScore          float64
	Confidence           float64
	RequiresIntervention bool
	RecommendedAction    string
	Signals              map[string]ModelSignal
	Consensus            ConsensusResult
	Conflict             ConflictResult
	ContextAnalysis      *ContextAnalysisResult
	Explanation          *Explanation
	Warnings             []string
}

// AlertCategory distinguishes the alert-worthy events: the three
// per-assessment categories plus the system event.
type AlertCategory string

const (
	AlertCrisis     AlertCategory = "crisis_alert"
	AlertEscalation AlertCategory = "escalation_alert"
	AlertConflict   AlertCategory = "conflict_alert"
	AlertSystem     AlertCategory = "system_alert"
)

// Alert is one outbound notification produced by the alerter.
type Alert struct {
	Category     AlertCategory
	Severity     Severity
	Title        string
	Description  string
	Fields       map[string]string
	Source       string
	Suppressible bool
	Timestamp    time.Time
}
