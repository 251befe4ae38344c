// Package config loads the crisis service's configuration with
// github.com/spf13/viper (YAML file + env overlay + mapstructure), and
// publishes it as an
// immutable snapshot behind an atomic pointer so PUT /config/context can
// update thresholds at runtime without readers ever observing a partially
// updated struct.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full, typed configuration snapshot for one process.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Security  SecurityConfig  `mapstructure:"security"`
	Models    ModelsConfig    `mapstructure:"models"`
	Consensus ConsensusConfig `mapstructure:"consensus"`
	Conflict  ConflictConfig  `mapstructure:"conflict"`
	Severity  SeverityConfig  `mapstructure:"severity"`
	Context   ContextConfig   `mapstructure:"context"`
	Urgency   UrgencyConfig   `mapstructure:"urgency"`
	Alerter   AlerterConfig   `mapstructure:"alerter"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type SecurityConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // overall request deadline
	RateLimit      int           `mapstructure:"rate_limit"`      // requests/minute per client IP
}

// ModelConfig describes one model wrapper.
type ModelConfig struct {
	ModelID            string        `mapstructure:"model_id"`
	Kind               string        `mapstructure:"kind"` // crisis_classifier | sentiment | irony | emotion
	Enabled            bool          `mapstructure:"enabled"`
	Weight             float64       `mapstructure:"weight"`
	TokenBudget         int          `mapstructure:"token_budget"`
	TruncationStrategy string        `mapstructure:"truncation_strategy"` // smart | head | tail
	Timeout            time.Duration `mapstructure:"timeout"`
}

type ModelsConfig struct {
	Enabled []ModelConfig `mapstructure:"enabled"`
}

type ConsensusConfig struct {
	DefaultAlgorithm         string  `mapstructure:"default_algorithm"` // weighted_voting | majority | unanimous
	PerModelPositiveThreshold float64 `mapstructure:"per_model_positive_threshold"`
}

type ConflictConfig struct {
	DisagreementThreshold  float64 `mapstructure:"disagreement_threshold"`
	ConflictAlertThreshold float64 `mapstructure:"conflict_alert_threshold"`
	AdjustOnLabelMismatch  bool    `mapstructure:"adjust_on_label_mismatch"`
}

type SeverityConfig struct {
	Critical float64 `mapstructure:"critical"`
	High     float64 `mapstructure:"high"`
	Medium   float64 `mapstructure:"medium"`
	Low      float64 `mapstructure:"low"`
}

type ContextConfig struct {
	MaxHistorySize int `mapstructure:"max_history_size"`

	Escalation EscalationConfig `mapstructure:"escalation"`
	Temporal   TemporalConfig   `mapstructure:"temporal"`
	Trend      TrendConfig      `mapstructure:"trend"`
}

type EscalationConfig struct {
	SuddenThreshold      float64 `mapstructure:"sudden_threshold"`
	RapidThreshold       float64 `mapstructure:"rapid_threshold"`
	RapidThresholdHours  float64 `mapstructure:"rapid_threshold_hours"`
	GradualThreshold     float64 `mapstructure:"gradual_threshold"`
	GradualThresholdHours float64 `mapstructure:"gradual_threshold_hours"`
	MinimumMessages      int     `mapstructure:"minimum_messages"`
	// PerSeverityThresholds optionally overrides GradualThreshold by the
	// current message's severity bucket. SuddenThreshold and RapidThreshold
	// are not affected.
	PerSeverityThresholds map[string]float64 `mapstructure:"per_severity_thresholds"`
}

type TemporalConfig struct {
	LateNightStartHour        int           `mapstructure:"late_night_start_hour"`
	LateNightEndHour          int           `mapstructure:"late_night_end_hour"`
	RapidPostingMessageCount  int           `mapstructure:"rapid_posting_message_count"`
	RapidPostingThresholdMins time.Duration `mapstructure:"rapid_posting_threshold_minutes"`
	LateNightModifier         float64       `mapstructure:"late_night_modifier"`
	WeekendModifier           float64       `mapstructure:"weekend_modifier"`
	RapidPostingModifier      float64       `mapstructure:"rapid_posting_modifier"`
}

type TrendConfig struct {
	SmoothingWindow     int     `mapstructure:"smoothing_window"`
	WorseningThreshold  float64 `mapstructure:"worsening_threshold"`
	ImprovingThreshold  float64 `mapstructure:"improving_threshold"`
	VolatilityThreshold float64 `mapstructure:"volatility_threshold"`
	RapidVelocity       float64 `mapstructure:"rapid_velocity"`
	ModerateVelocity    float64 `mapstructure:"moderate_velocity"`
	GradualVelocity     float64 `mapstructure:"gradual_velocity"`
}

type UrgencyConfig struct {
	LateNightScoreFloor float64 `mapstructure:"late_night_score_floor"` // crisis_score threshold the late-night urgency boost requires
}

type AlerterConfig struct {
	WebhookURL            string        `mapstructure:"webhook_url"`
	AlertSeverity         string        `mapstructure:"alert_severity"` // minimum severity for crisis_alert
	ConflictAlertThreshold float64      `mapstructure:"conflict_alert_threshold"`
	CrisisCooldown        time.Duration `mapstructure:"crisis_cooldown"`
	EscalationCooldown    time.Duration `mapstructure:"escalation_cooldown"`
	ConflictCooldown      time.Duration `mapstructure:"conflict_cooldown"`
	TestingMode           bool          `mapstructure:"testing_mode"`
	CooldownStore         string        `mapstructure:"cooldown_store"` // memory | redis
	RedisAddr             string        `mapstructure:"redis_addr"`
}

// Load reads config.yaml (if present) plus environment overrides and
// decodes it into a typed Config. Defaults are set before ReadInConfig so
// a missing file still yields a usable configuration for tests and local
// runs.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	setDefaults()

	viper.AutomaticEnv()
	viper.BindEnv("alerter.webhook_url", "CRISIS_WEBHOOK_URL")
	viper.BindEnv("alerter.redis_addr", "CRISIS_REDIS_ADDR")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("security.request_timeout", 30*time.Second)
	viper.SetDefault("security.rate_limit", 60)

	viper.SetDefault("models.enabled", []map[string]interface{}{
		{"model_id": "crisis_classifier", "kind": "crisis_classifier", "enabled": true, "weight": 0.40, "token_budget": 512, "truncation_strategy": "smart", "timeout": "500ms"},
		{"model_id": "sentiment", "kind": "sentiment", "enabled": true, "weight": 0.25, "token_budget": 256, "truncation_strategy": "tail", "timeout": "300ms"},
		{"model_id": "irony", "kind": "irony", "enabled": true, "weight": 0.15, "token_budget": 256, "truncation_strategy": "tail", "timeout": "300ms"},
		{"model_id": "emotion", "kind": "emotion", "enabled": true, "weight": 0.20, "token_budget": 256, "truncation_strategy": "head", "timeout": "300ms"},
	})

	viper.SetDefault("consensus.default_algorithm", "weighted_voting")
	viper.SetDefault("consensus.per_model_positive_threshold", 0.5)

	viper.SetDefault("conflict.disagreement_threshold", 0.15)
	viper.SetDefault("conflict.conflict_alert_threshold", 0.15)
	viper.SetDefault("conflict.adjust_on_label_mismatch", false)

	viper.SetDefault("severity.critical", 0.85)
	viper.SetDefault("severity.high", 0.65)
	viper.SetDefault("severity.medium", 0.40)
	viper.SetDefault("severity.low", 0.20)

	viper.SetDefault("context.max_history_size", 20)

	viper.SetDefault("context.escalation.sudden_threshold", 0.4)
	viper.SetDefault("context.escalation.rapid_threshold", 0.3)
	viper.SetDefault("context.escalation.rapid_threshold_hours", 4.0)
	viper.SetDefault("context.escalation.gradual_threshold", 0.2)
	viper.SetDefault("context.escalation.gradual_threshold_hours", 24.0)
	viper.SetDefault("context.escalation.minimum_messages", 3)
	viper.SetDefault("context.escalation.per_severity_thresholds", map[string]interface{}{
		"critical": 0.15,
		"high":     0.25,
		"medium":   0.30,
		"low":      0.40,
	})

	viper.SetDefault("context.temporal.late_night_start_hour", 22)
	viper.SetDefault("context.temporal.late_night_end_hour", 5)
	viper.SetDefault("context.temporal.rapid_posting_message_count", 5)
	viper.SetDefault("context.temporal.rapid_posting_threshold_minutes", 30*time.Minute)
	viper.SetDefault("context.temporal.late_night_modifier", 1.2)
	viper.SetDefault("context.temporal.weekend_modifier", 1.1)
	viper.SetDefault("context.temporal.rapid_posting_modifier", 1.2)

	viper.SetDefault("context.trend.smoothing_window", 3)
	viper.SetDefault("context.trend.worsening_threshold", 0.15)
	viper.SetDefault("context.trend.improving_threshold", -0.15)
	viper.SetDefault("context.trend.volatility_threshold", 0.25)
	viper.SetDefault("context.trend.rapid_velocity", 0.10)
	viper.SetDefault("context.trend.moderate_velocity", 0.05)
	viper.SetDefault("context.trend.gradual_velocity", 0.02)

	viper.SetDefault("urgency.late_night_score_floor", 0.40)

	viper.SetDefault("alerter.alert_severity", "high")
	viper.SetDefault("alerter.conflict_alert_threshold", 0.15)
	viper.SetDefault("alerter.crisis_cooldown", 60*time.Second)
	viper.SetDefault("alerter.escalation_cooldown", 300*time.Second)
	viper.SetDefault("alerter.conflict_cooldown", 120*time.Second)
	viper.SetDefault("alerter.testing_mode", false)
	viper.SetDefault("alerter.cooldown_store", "memory")
}

// Validate enforces the invariants the config must hold before it is
// ever used to serve a request: at least one enabled model and a
// positive total weight.
func (c *Config) Validate() error {
	var total float64
	enabledCount := 0
	for _, m := range c.Models.Enabled {
		if !m.Enabled {
			continue
		}
		enabledCount++
		total += m.Weight
	}
	if enabledCount == 0 {
		return fmt.Errorf("configuration error: at least one model must be enabled")
	}
	if total <= 0 {
		return fmt.Errorf("configuration error: sum of enabled model weights must be > 0")
	}
	return nil
}
