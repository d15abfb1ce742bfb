package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/config"
	"github.com/leowmjw/go-replay-coach/pkg/http"
	"github.com/leowmjw/go-replay-coach/pkg/metrics"
	"github.com/leowmjw/go-replay-coach/pkg/temporal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Flags override file and environment settings
	flag.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address")
	flag.StringVar(&cfg.TemporalAddr, "temporal-addr", cfg.TemporalAddr, "Temporal server address")
	flag.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Temporal namespace")
	flag.StringVar(&cfg.TaskQueue, "task-queue", cfg.TaskQueue, "Temporal task queue")
	flag.StringVar(&cfg.Interval, "interval", cfg.Interval, "Reporting interval in seconds or as a duration (5m)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	interval, _ := cfg.IntervalSeconds()
	analyzerOpts, _ := cfg.AnalyzerOptions()

	// Setup logger
	var logHandler slog.Handler
	switch cfg.LogLevel {
	case "debug":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	case "warn":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn})
	case "error":
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError})
	default:
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	logger.Info("Starting replay coach service",
		"http_addr", cfg.HTTPAddr,
		"temporal_addr", cfg.TemporalAddr,
		"namespace", cfg.Namespace,
		"task_queue", cfg.TaskQueue,
		"interval", interval,
	)

	temporalClient, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalAddr,
		Namespace: cfg.Namespace,
		Logger:    logger,
	})
	if err != nil {
		logger.Error("Failed to create Temporal client", "error", err)
		os.Exit(1)
	}
	defer temporalClient.Close()

	// Reports live in process memory; they are lost on restart
	store := temporal.NewMemoryReportStore()
	metricsManager := metrics.NewManager(cfg.MetricsOptions()...)
	analyzer := analysis.NewAnalyzer(logger, analyzerOpts...)

	activities := temporal.NewActivitiesImpl(logger, analyzer, store, metricsManager)

	w := worker.New(temporalClient, cfg.TaskQueue, worker.Options{})

	w.RegisterWorkflow(temporal.AnalyzeReplayWorkflow)
	w.RegisterWorkflow(temporal.AnalyzeBatchWorkflow)

	w.RegisterActivityWithOptions(activities.AnalyzeReplayActivity, activity.RegisterOptions{Name: temporal.AnalyzeReplayActivityName})
	w.RegisterActivityWithOptions(activities.StoreReportActivity, activity.RegisterOptions{Name: temporal.StoreReportActivityName})

	go func() {
		logger.Info("Starting Temporal worker", "task_queue", cfg.TaskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			logger.Error("Temporal worker failed", "error", err)
			os.Exit(1)
		}
	}()

	server := http.NewServer(logger, temporalClient, store, cfg.HTTPAddr,
		http.WithTaskQueue(cfg.TaskQueue),
		http.WithMetrics(metricsManager),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := server.Start(ctx); err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	logger.Info("Received shutdown signal, stopping services...")

	cancel()

	logger.Info("Replay coach service stopped")
}
