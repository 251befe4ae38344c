// Package alerting implements the Alerter: it observes
// completed assessments and, subject to per-category cooldowns, posts
// structured embeds to an operator chat webhook. Retries use an
// exponential Backoff; webhook failures are logged and never propagate
// to the request response.
package alerting

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"crisiswatch/internal/config"
	"crisiswatch/internal/models"
	"crisiswatch/internal/utils"
	"crisiswatch/pkg/logger"
	"crisiswatch/pkg/metrics"
)

type Alerter struct {
	cfg     config.AlerterConfig
	store   CooldownStore
	client  *http.Client
	log     *logger.Logger
	metrics *metrics.Registry

	mu        sync.Mutex
	suppressed []models.Alert
}

func New(cfg config.AlerterConfig, log *logger.Logger, reg *metrics.Registry) *Alerter {
	var store CooldownStore
	if cfg.CooldownStore == "redis" && cfg.RedisAddr != "" {
		store = NewRedisCooldownStore(cfg.RedisAddr)
	} else {
		store = NewMemoryCooldownStore()
	}

	return &Alerter{
		cfg:     cfg,
		store:   store,
		client:  &http.Client{Timeout: 5 * time.Second},
		log:     log.WithComponent("alerter"),
		metrics: reg,
	}
}

// Observe inspects a completed assessment and fires whichever of
// crisis_alert / escalation_alert / conflict_alert apply. It
// is invoked after the response body is assembled and never waits on the
// webhook: a qualifying alert that passes its category cooldown is sent on
// its own goroutine, or, in testing mode, recorded synchronously instead of
// sent. Alerts still inside their cooldown are dropped.
func (a *Alerter) Observe(assessment *models.CrisisAssessment, alertSeverityFloor models.Severity) {
	if assessment.Severity.AtLeast(alertSeverityFloor) {
		a.dispatch(a.crisisAlert(assessment))
	}

	if assessment.ContextAnalysis != nil && assessment.ContextAnalysis.Escalation.Detected {
		a.dispatch(a.escalationAlert(assessment))
	}

	if assessment.Conflict.Detected && assessment.Conflict.Variance >= a.cfg.ConflictAlertThreshold {
		a.dispatch(a.conflictAlert(assessment))
	}
}

// ObserveSystemFailure alerts on an AllModelsUnavailable condition,
// notifying the alerter as a system event rather than a per-message one.
func (a *Alerter) ObserveSystemFailure(reason string) {
	a.dispatch(models.Alert{
		Category:     models.AlertSystem,
		Severity:     models.SeverityCritical,
		Title:        "All models unavailable",
		Description:  reason,
		Source:       "ensemble_engine",
		Suppressible: true,
		Timestamp:    time.Now(),
	})
}

func (a *Alerter) crisisAlert(assessment *models.CrisisAssessment) models.Alert {
	fields := map[string]string{
		"crisis_score": formatFloat(assessment.CrisisScore),
		"confidence":   formatFloat(assessment.Confidence),
		"action":       assessment.RecommendedAction,
	}
	return models.Alert{
		Category:     models.AlertCrisis,
		Severity:     assessment.Severity,
		Title:        "Crisis threshold crossed",
		Description:  "Crisis threshold crossed for an incoming message.\n```\n" + barChart(assessment.Signals) + "\n```",
		Fields:       fields,
		Source:       "ensemble_engine",
		Suppressible: true,
		Timestamp:    time.Now(),
	}
}

func (a *Alerter) escalationAlert(assessment *models.CrisisAssessment) models.Alert {
	esc := assessment.ContextAnalysis.Escalation
	fields := map[string]string{
		"rate":        string(esc.Rate),
		"score_delta": formatFloat(esc.ScoreDelta),
		"confidence":  formatFloat(esc.Confidence),
	}
	if esc.MatchedPattern != "" {
		fields["pattern"] = esc.MatchedPattern
	}
	return models.Alert{
		Category:     models.AlertEscalation,
		Severity:     assessment.Severity,
		Title:        "Escalation detected",
		Description:  "A user's message history shows a rising crisis trajectory.",
		Fields:       fields,
		Source:       "context_analyzer",
		Suppressible: true,
		Timestamp:    time.Now(),
	}
}

func (a *Alerter) conflictAlert(assessment *models.CrisisAssessment) models.Alert {
	fields := map[string]string{
		"kind":     string(assessment.Conflict.Kind),
		"variance": formatFloat(assessment.Conflict.Variance),
	}
	return models.Alert{
		Category:     models.AlertConflict,
		Severity:     assessment.Severity,
		Title:        "Model ensemble disagreement",
		Description:  "Model ensemble signals disagreed beyond tolerance.\n```\n" + barChart(assessment.Signals) + "\n```",
		Fields:       fields,
		Source:       "conflict_layer",
		Suppressible: true,
		Timestamp:    time.Now(),
	}
}

func (a *Alerter) dispatch(alert models.Alert) {
	cooldown := a.cooldownFor(alert.Category)

	if !a.store.Allow(string(alert.Category), cooldown) {
		if a.metrics != nil {
			a.metrics.AlertsSuppressed.WithLabelValues(string(alert.Category), "cooldown").Inc()
		}
		return
	}

	if a.cfg.TestingMode {
		a.mu.Lock()
		a.suppressed = append(a.suppressed, alert)
		a.mu.Unlock()
		if a.metrics != nil {
			a.metrics.AlertsSuppressed.WithLabelValues(string(alert.Category), "testing_mode").Inc()
		}
		return
	}

	go a.send(alert)
}

func (a *Alerter) cooldownFor(category models.AlertCategory) time.Duration {
	switch category {
	case models.AlertEscalation:
		return a.cfg.EscalationCooldown
	case models.AlertConflict:
		return a.cfg.ConflictCooldown
	default:
		return a.cfg.CrisisCooldown
	}
}

// send retries a bounded number of times with exponential backoff; every
// failure is logged and none propagate to the request that triggered it.
func (a *Alerter) send(alert models.Alert) {
	if a.cfg.WebhookURL == "" {
		return
	}

	payload := buildPayload(alert)

	backoff := utils.NewBackoff(200*time.Millisecond, 2*time.Second)
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := postWebhook(a.client, a.cfg.WebhookURL, payload); err != nil {
			lastErr = err
			time.Sleep(backoff.Next())
			continue
		}
		if a.metrics != nil {
			a.metrics.AlertsSent.WithLabelValues(string(alert.Category)).Inc()
		}
		return
	}

	a.log.Error("webhook send failed after retries for %s: %v", alert.Category, lastErr)
}

// Suppressed returns the queue of alerts recorded instead of sent while
// testing mode is active.
func (a *Alerter) Suppressed() []models.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Alert, len(a.suppressed))
	copy(out, a.suppressed)
	return out
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
