package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"crisiswatch/internal/alerting"
	"crisiswatch/internal/api"
	"crisiswatch/internal/config"
	"crisiswatch/internal/ensemble"
	"crisiswatch/internal/secrets"
	"crisiswatch/pkg/logger"
	"crisiswatch/pkg/metrics"
)

func main() {
	// 1. Config & Logger
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}
	l := logger.NewLogger()

	// 2. Secrets overlay: the webhook URL may come from the secrets
	// directory rather than config.yaml or the environment viper already
	// bound.
	secretLoader := secrets.NewLoader(os.Getenv("CRISISWATCH_SECRETS_DIR"))
	if cfg.Alerter.WebhookURL == "" {
		if v, ok := secretLoader.Get("CRISIS_WEBHOOK_URL"); ok {
			cfg.Alerter.WebhookURL = v
		}
	}

	store := config.NewStore(cfg)
	reg := metrics.New()

	// 3. Core components
	engine := ensemble.New(l, reg)
	alerter := alerting.New(cfg.Alerter, l, reg)
	server := api.NewServer(store, engine, alerter, l, reg)
	httpServer := api.NewHTTPServer(server, cfg.Server.Host, cfg.Server.Port)

	// 4. Lifecycle management
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		l.Info("shutting down...")
		cancel()
	}()

	l.Info("starting crisiswatch API server...")
	if err := httpServer.Run(ctx); err != nil {
		l.Error("API server failed: %v", err)
		os.Exit(1)
	}
}
