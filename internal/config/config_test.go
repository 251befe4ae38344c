package config

import "testing"

func TestConfig_Load(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}

	if len(cfg.Models.Enabled) == 0 {
		t.Fatalf("expected at least one default model")
	}

	if cfg.Consensus.DefaultAlgorithm == "" {
		t.Errorf("expected a default consensus algorithm")
	}

	if cfg.Context.MaxHistorySize <= 0 {
		t.Errorf("expected positive max history size, got %d", cfg.Context.MaxHistorySize)
	}
}

func TestConfig_Validate_RejectsNoEnabledModels(t *testing.T) {
	cfg := &Config{Models: ModelsConfig{Enabled: []ModelConfig{
		{ModelID: "crisis_classifier", Enabled: false, Weight: 1.0},
	}}}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error when no model is enabled")
	}
}

func TestConfig_Validate_RejectsZeroWeight(t *testing.T) {
	cfg := &Config{Models: ModelsConfig{Enabled: []ModelConfig{
		{ModelID: "crisis_classifier", Enabled: true, Weight: 0},
	}}}

	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error when total weight is zero")
	}
}

func TestStore_UpdateContextIsIsolated(t *testing.T) {
	base := &Config{Context: ContextConfig{MaxHistorySize: 20}}
	store := NewStore(base)

	before := store.Get()
	store.UpdateContext(ContextConfig{MaxHistorySize: 50})
	after := store.Get()

	if before.Context.MaxHistorySize != 20 {
		t.Errorf("snapshot obtained before Update must not change, got %d", before.Context.MaxHistorySize)
	}
	if after.Context.MaxHistorySize != 50 {
		t.Errorf("expected updated snapshot to have MaxHistorySize 50, got %d", after.Context.MaxHistorySize)
	}
}
