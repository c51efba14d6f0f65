// Package main provides the entry point for the decision engine daemon.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/pitch-edge/internal/config"
	"github.com/yourusername/pitch-edge/internal/database"
	"github.com/yourusername/pitch-edge/internal/dna"
	"github.com/yourusername/pitch-edge/internal/engine"
	"github.com/yourusername/pitch-edge/internal/health"
	"github.com/yourusername/pitch-edge/internal/logger"
	"github.com/yourusername/pitch-edge/internal/metrics"
	"github.com/yourusername/pitch-edge/internal/normalize"
	"github.com/yourusername/pitch-edge/internal/notify"
	"github.com/yourusername/pitch-edge/internal/repository"
	"github.com/yourusername/pitch-edge/internal/scheduler"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
)

func main() {
	configPath := os.Getenv("PITCH_EDGE_CONFIG")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load AWS secrets if enabled
	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			log.Fatalf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			log.Fatalf("Failed to load secrets: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLog := logger.NewLogger(cfg.App.LogLevel)
	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"log_level":   cfg.App.LogLevel,
		"version":     Version,
	}).Info("Pitch Edge decision engine starting")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDB(ctx, cfg.GetDatabaseDSN(), cfg.Database.MaxConnections)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	appLog.Info("Database connection established")

	gateway, err := repository.NewPostgresGateway(db, normalize.NewMapper(nil), appLog)
	if err != nil {
		appLog.WithError(err).Fatal("Failed to initialize repositories")
	}

	cache := dna.NewCache(cfg.Pipeline.DNACacheTTL())
	loader := dna.NewLoader(gateway.TeamProfiles, gateway.Friction, cache, appLog)

	met := metrics.New()

	orchestrator := engine.NewOrchestrator(cfg, gateway, loader, appLog, met)

	if cfg.Notify.Enabled && cfg.Notify.WebhookURL != "" {
		orchestrator.SetNotifier(notify.NewWebhookPublisher(cfg.Notify, appLog))
		appLog.WithField("webhook_url", cfg.Notify.WebhookURL).Info("Bet alert webhook enabled")
	} else {
		orchestrator.SetNotifier(notify.NoopPublisher{})
	}

	// Health server
	healthServer := health.NewServer(health.Config{
		ServiceName: "pitch-edge",
		Version:     Version,
		Commit:      GitCommit,
		Port:        cfg.Health.Port,
		Logger:      appLog,
		DB:          db,
	})
	if err := healthServer.Start(ctx); err != nil {
		appLog.WithError(err).Fatal("Failed to start health server")
	}

	// Metrics server on its own port
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, met.Handler())
		metricsServer = &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:     mux,
			ReadTimeout: 5 * time.Second,
		}
		go func() {
			appLog.WithFields(logrus.Fields{
				"port": cfg.Metrics.Port,
				"path": cfg.Metrics.Path,
			}).Info("Metrics server starting")
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				appLog.WithError(err).Error("Metrics server error")
			}
		}()
	}

	// Scheduler sweeps upcoming fixtures through the pipeline
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		source := scheduler.NewFileMatchSource(cfg.Scheduler.FixturesFile)
		sched = scheduler.New(cfg.Scheduler, source, orchestrator, appLog)
		if err := sched.ScheduleAnalyzeUpcoming(); err != nil {
			appLog.WithError(err).Fatal("Failed to schedule fixture analysis")
		}
		if err := sched.Start(); err != nil {
			appLog.WithError(err).Fatal("Failed to start scheduler")
		}
		appLog.WithField("next_run", sched.NextRun().Format(time.RFC3339)).Info("Fixture scheduler started")
	} else {
		appLog.Info("Scheduler disabled; daemon serves health and metrics only")
	}

	healthServer.SetReady(true)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	appLog.WithField("signal", sig).Info("Shutdown signal received")

	healthServer.SetReady(false)

	if sched != nil {
		sched.Stop()
	}

	if metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			appLog.WithError(err).Error("Metrics server shutdown error")
		}
		shutdownCancel()
	}

	cancel()
	time.Sleep(500 * time.Millisecond)

	appLog.Info("Pitch Edge decision engine shut down")
}
