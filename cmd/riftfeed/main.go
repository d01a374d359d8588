package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/seneca-gg/riftfeed/internal/config"
	"github.com/seneca-gg/riftfeed/internal/events"
	"github.com/seneca-gg/riftfeed/internal/ingest"
	"github.com/seneca-gg/riftfeed/internal/sink"
	"github.com/seneca-gg/riftfeed/internal/telemetry"
	"github.com/seneca-gg/riftfeed/internal/upstream/lolesports"
	"github.com/seneca-gg/riftfeed/internal/upstream/pandascore"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))
	telemetry.Infof("Starting riftfeed")

	pipeline, err := config.LoadPipeline(cfg.PipelinePath)
	if err != nil {
		telemetry.Errorf("Pipeline config: %v", err)
		os.Exit(1)
	}

	telemetry.ServeMetrics(cfg.PromPort)

	bus := events.NewBus(events.DefaultBusSize)

	// ── Sinks ───────────────────────────────────────────────────
	var sinks []events.Sink
	if cfg.PGDSN != "" {
		pg, err := sink.NewPGSink(cfg.PGDSN)
		if err != nil {
			telemetry.Errorf("Postgres sink: %v", err)
			os.Exit(1)
		}
		defer pg.Close()
		sinks = append(sinks, pg)
	} else {
		telemetry.Warnf("PG_DSN not set; postgres sink disabled")
	}
	if cfg.KafkaBootstrap != "" {
		kafka := sink.NewKafkaSink(cfg.KafkaBootstrap)
		defer kafka.Close()
		sinks = append(sinks, kafka)
	} else {
		telemetry.Warnf("KAFKA_BOOTSTRAP not set; kafka sink disabled")
	}
	if len(sinks) == 0 {
		telemetry.Warnf("No sinks configured; events will only be logged")
		sinks = append(sinks, sink.LogSink{})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := events.NewDispatcher(bus, sinks...)
	go dispatcher.Run(ctx)

	// ── PandaScore streams ──────────────────────────────────────
	ps := pipeline.PandaScore
	if cfg.PandaScoreToken != "" {
		psClient := pandascore.NewClient(ps.BaseURL, cfg.PandaScoreToken, ps.RequestsPerHour)

		schedule := ingest.NewScheduleStream(psClient, bus,
			time.Duration(ps.Poll.ScheduleSeconds)*time.Second, ps.PageSize, ps.LeaguesWhitelist)
		go schedule.Run(ctx)

		results := ingest.NewResultsStream(psClient, bus,
			time.Duration(ps.Poll.ResultsSeconds)*time.Second, ps.PageSize)
		go results.Run(ctx)
	} else {
		telemetry.Warnf("PANDASCORE_TOKEN not set; schedule/results streams disabled")
	}

	// ── Live stream ─────────────────────────────────────────────
	le := pipeline.LolEsports
	leClient := lolesports.NewClient(le.GWBase, le.FeedBase, le.HL, cfg.LolEsportsAPIKey)
	live := ingest.NewLiveStream(leClient, bus,
		time.Duration(le.Poll.DiscoverSeconds)*time.Second,
		time.Duration(le.Poll.WindowSeconds)*time.Second,
		time.Duration(le.Poll.DetailsSeconds)*time.Second)
	go live.Run(ctx)

	telemetry.Infof("Riftfeed running  sinks=%d  metrics=:%d", len(sinks), cfg.PromPort)

	// ── Shutdown ────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")
	cancel()
	bus.Close()
	telemetry.Infof("Shutdown complete")
}
