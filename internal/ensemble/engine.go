// Package ensemble implements the Ensemble Engine: it invokes
// every enabled model wrapper concurrently, fuses their signals into a
// weighted score, delegates to consensus and conflict, and assembles the
// final CrisisAssessment. The concurrent fan-out uses a WaitGroup
// feeding a closed "done" channel, raced against ctx.Done() in a select.
package ensemble

import (
	"context"
	"sync"

	"crisiswatch/internal/conflict"
	"crisiswatch/internal/config"
	"crisiswatch/internal/consensus"
	cerrors "crisiswatch/internal/errors"
	"crisiswatch/internal/models"
	"crisiswatch/internal/wrapper"
	"crisiswatch/pkg/logger"
	"crisiswatch/pkg/metrics"
)

// Engine ties the wrapper layer to consensus/conflict fusion.
type Engine struct {
	log     *logger.Logger
	metrics *metrics.Registry
}

func New(log *logger.Logger, reg *metrics.Registry) *Engine {
	return &Engine{log: log.WithComponent("ensemble"), metrics: reg}
}

// Assess runs the full pipeline for one message and returns a
// CrisisAssessment with Context/Explanation left nil — those are filled in
// by the request handler after context analysis and explanation building.
func (e *Engine) Assess(ctx context.Context, cfg *config.Config, text string, algorithm string) (*models.CrisisAssessment, error) {
	signals, err := e.invokeWrappers(ctx, cfg, text)
	if err != nil {
		return nil, err
	}

	weighted, ironyDamp := e.weightedScore(signals)

	if algorithm == "" {
		algorithm = cfg.Consensus.DefaultAlgorithm
	}
	cons := consensus.Compute(algorithm, signals, cfg.Consensus.PerModelPositiveThreshold, severityThresholds(cfg))

	conf := conflict.Detect(signals, weighted, cfg.Conflict)

	finalScore := conf.AdjustedScore
	severity := severityFor(finalScore, cfg)
	confidence := cons.Agreement * (1 - clamp01(conf.Variance))

	assessment := &models.CrisisAssessment{
		CrisisDetected:       severity.AtLeast(models.SeverityLow),
		Severity:             severity,
		CrisisScore:          finalScore,
		Confidence:           clamp01(confidence),
		RequiresIntervention: severity.AtLeast(models.SeverityMedium),
		Signals:              signals,
		Consensus:            cons,
		Conflict:             conf,
	}

	if e.metrics != nil {
		e.metrics.EnsembleScore.Observe(finalScore)
		e.metrics.SeverityTotal.WithLabelValues(string(severity)).Inc()
		if conf.Detected {
			e.metrics.ConflictDetected.WithLabelValues(string(conf.Kind)).Inc()
		}
	}

	e.log.Debug("ensemble assessed text: score=%.3f severity=%s irony_dampener=%.3f", finalScore, severity, ironyDamp)

	return assessment, nil
}

// invokeWrappers dispatches every enabled wrapper concurrently, bounded by
// the request's context deadline, and collects whatever signals return in
// time. A model's own failure or timeout produces a ModelUnavailable entry
// rather than aborting the request.
func (e *Engine) invokeWrappers(ctx context.Context, cfg *config.Config, text string) (map[string]models.ModelSignal, error) {
	enabled := make([]config.ModelConfig, 0, len(cfg.Models.Enabled))
	for _, m := range cfg.Models.Enabled {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}

	signals := make(map[string]models.ModelSignal, len(enabled))
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(len(enabled))

	for _, mc := range enabled {
		w := wrapper.New(mc)
		go func(w wrapper.Wrapper) {
			defer wg.Done()
			sig, err := w.Analyze(ctx, text)

			mu.Lock()
			signals[w.ModelID()] = sig
			mu.Unlock()

			if e.metrics != nil {
				outcome := "ok"
				if err != nil {
					outcome = "error"
					e.metrics.ModelFailures.WithLabelValues(w.ModelID()).Inc()
				}
				e.metrics.ModelInvocations.WithLabelValues(w.ModelID(), outcome).Inc()
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return nil, cerrors.DeadlineExceeded("ensemble engine exceeded the request deadline")
	}

	anyAvailable := false
	for _, sig := range signals {
		if sig.Available() {
			anyAvailable = true
			break
		}
	}
	if !anyAvailable {
		return nil, cerrors.AllModelsUnavailable()
	}

	return signals, nil
}

// weightedScore computes Σ(signal·weight)/Σ(weight) over available,
// non-irony models, after scaling each contribution by the irony
// dampener. The irony wrapper already normalizes its crisis_signal to 1
// for sincere text and to 1-score for ironic text, so the dampener is
// that value directly: 1 when nothing is ironic, shrinking toward 0 as
// irony strengthens. Irony itself never contributes a positive term.
func (e *Engine) weightedScore(signals map[string]models.ModelSignal) (float64, float64) {
	dampener := 1.0
	if irony, ok := signals["irony"]; ok && irony.Available() {
		dampener = irony.CrisisSignal
	}

	var numerator, denominator float64
	for id, sig := range signals {
		if id == "irony" || !sig.Available() {
			continue
		}
		numerator += sig.CrisisSignal * sig.ModelWeight * dampener
		denominator += sig.ModelWeight
	}

	if denominator == 0 {
		return 0, dampener
	}
	return numerator / denominator, dampener
}

func severityThresholds(cfg *config.Config) consensus.SeverityThresholds {
	return consensus.SeverityThresholds{
		Critical: cfg.Severity.Critical,
		High:     cfg.Severity.High,
		Medium:   cfg.Severity.Medium,
		Low:      cfg.Severity.Low,
	}
}

// severityFor maps a score to a severity bucket using inclusive lower
// bounds: a score exactly on a threshold belongs to the higher bucket.
func severityFor(score float64, cfg *config.Config) models.Severity {
	switch {
	case score >= cfg.Severity.Critical:
		return models.SeverityCritical
	case score >= cfg.Severity.High:
		return models.SeverityHigh
	case score >= cfg.Severity.Medium:
		return models.SeverityMedium
	case score >= cfg.Severity.Low:
		return models.SeverityLow
	default:
		return models.SeveritySafe
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
