package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/seneca-gg/riftfeed/internal/config"
	"github.com/seneca-gg/riftfeed/internal/highlights"
	"github.com/seneca-gg/riftfeed/internal/sink"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting highlights agent")

	if cfg.KafkaBootstrap == "" {
		telemetry.Errorf("KAFKA_BOOTSTRAP is required")
		os.Exit(1)
	}

	agentCfg, err := config.LoadAgent(cfg.AgentPath)
	if err != nil {
		telemetry.Errorf("Agent config: %v", err)
		os.Exit(1)
	}

	telemetry.ServeMetrics(cfg.PromPort)

	agent := highlights.NewAgent(agentCfg, cfg.KafkaBootstrap)

	if cfg.PGDSN != "" {
		pg, err := sink.NewPGSink(cfg.PGDSN)
		if err != nil {
			telemetry.Errorf("Postgres sink: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		agent.AttachPG(pg)
	} else {
		telemetry.Warnf("PG_DSN not set; highlights will not be persisted")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		telemetry.Infof("Shutting down...")
		cancel()
		<-done
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			telemetry.Errorf("Agent stopped: %v", err)
			os.Exit(1)
		}
	}

	telemetry.Infof("Shutdown complete")
}
