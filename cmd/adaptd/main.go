// Adaptd hosts the adaptive learning loop for the governance dashboard:
// feedback ingestion, pattern recognition, constitutionally gated
// adaptation and the meta-learning controller.
//
// Configuration comes from a YAML file plus ADAPTD_* environment
// overrides. See internal/config for the full key list.
//
// Usage:
//
//	# Start with defaults plus environment overrides
//	ADAPTD_GOVERNANCE_VERIFIER_URL=http://localhost:8090 \
//	ADAPTD_GOVERNANCE_CONSTITUTION_HASH=sha256:... adaptd
//
//	# Start with a config file
//	adaptd -config /etc/adaptd/config.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/adaptd/internal/adaptation"
	"github.com/fyrsmithlabs/adaptd/internal/config"
	"github.com/fyrsmithlabs/adaptd/internal/feedback"
	"github.com/fyrsmithlabs/adaptd/internal/governance"
	httpapi "github.com/fyrsmithlabs/adaptd/internal/http"
	"github.com/fyrsmithlabs/adaptd/internal/ingest"
	"github.com/fyrsmithlabs/adaptd/internal/logging"
	"github.com/fyrsmithlabs/adaptd/internal/loop"
	"github.com/fyrsmithlabs/adaptd/internal/memory"
	"github.com/fyrsmithlabs/adaptd/internal/pattern"
	"github.com/fyrsmithlabs/adaptd/internal/telemetry"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("adaptd by Fyrsmith Labs\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
		os.Exit(0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

// run wires all services and blocks until the context is cancelled.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	tel, err := telemetry.New(&telemetry.Config{
		ServiceName:    "adaptd",
		ServiceVersion: version,
		Enabled:        cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	store := memory.NewInMemory()

	collector, err := feedback.NewCollector(store, logger.Named("collector"),
		feedback.WithRateLimit(cfg.Ingest.RatePerSecond, cfg.Ingest.Burst),
	)
	if err != nil {
		return fmt.Errorf("failed to create collector: %w", err)
	}

	recognizer := pattern.NewRecognizer(pattern.Config{
		SignificanceThreshold: cfg.Recognizer.SignificanceThreshold,
		MinBucketSize:         cfg.Recognizer.MinBucketSize,
		MinTrendPoints:        cfg.Recognizer.MinTrendPoints,
		TrendConsistency:      cfg.Recognizer.TrendConsistency,
	})

	verifier, err := governance.NewClient(cfg.Governance.VerifierURL, logger.Named("governance"),
		governance.WithTimeout(cfg.Governance.CallTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create verification client: %w", err)
	}
	identity := governance.NewStaticIdentity(cfg.Governance.ConstitutionHash, cfg.Governance.ComplianceLevel)

	engine, err := adaptation.NewEngine(store, identity, verifier, verifier, verifier,
		logger.Named("engine"),
		adaptation.WithGenerationThreshold(cfg.Engine.GenerationThreshold),
	)
	if err != nil {
		return fmt.Errorf("failed to create adaptation engine: %w", err)
	}

	controller, err := loop.NewController(store, recognizer, engine, logger.Named("loop"), loop.Config{
		MinFeedback:         cfg.Loop.MinFeedback,
		RecentLimit:         cfg.Loop.RecentLimit,
		Interval:            cfg.Loop.Interval,
		InitialLearningRate: cfg.Loop.InitialLearningRate,
		MaxLearningRate:     cfg.Loop.MaxLearningRate,
		DeclineWindow:       cfg.Loop.DeclineWindow,
	})
	if err != nil {
		return fmt.Errorf("failed to create controller: %w", err)
	}

	if err := controller.Start(); err != nil {
		return fmt.Errorf("failed to start controller: %w", err)
	}
	defer controller.Stop()

	var subscriber *ingest.Subscriber
	if cfg.Ingest.NATSURL != "" {
		nc, err := nats.Connect(cfg.Ingest.NATSURL,
			nats.Name("adaptd"),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()

		subscriber, err = ingest.NewSubscriber(nc, cfg.Ingest.Subject, collector, logger.Named("ingest"))
		if err != nil {
			return fmt.Errorf("failed to create subscriber: %w", err)
		}
		if err := subscriber.Start(); err != nil {
			return fmt.Errorf("failed to start subscriber: %w", err)
		}
		defer subscriber.Stop() //nolint:errcheck
	}

	server, err := httpapi.NewServer(collector, controller, store, logger.Named("http"), &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("adaptd started",
		zap.String("version", version),
		zap.Int("port", cfg.Server.Port),
		zap.Duration("cycle_interval", cfg.Loop.Interval),
		zap.Bool("nats_ingest", subscriber != nil),
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	return nil
}
