package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/config"
	"github.com/leowmjw/go-replay-coach/pkg/hcl"
	"github.com/leowmjw/go-replay-coach/pkg/replayfile"
	"github.com/leowmjw/go-replay-coach/pkg/report"
	"github.com/leowmjw/go-replay-coach/pkg/temporal"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// options collects the command line flags
type options struct {
	path      string
	mode      string // "local" or "remote"
	address   string
	namespace string
	taskQueue string
	youName   string
	youPlayer int
	level     string
	interval  string
	format    string
	outDir    string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	var (
		opts     options
		logLevel string
	)
	flag.StringVar(&opts.path, "path", "", "Replay file (.json, .json.zst, .json.sz), HCL job file or directory (required)")
	flag.StringVar(&opts.mode, "mode", "local", "Operation mode: 'local' analyzes in process, 'remote' submits to Temporal")
	flag.StringVar(&opts.address, "address", cfg.TemporalAddr, "Address of Temporal server")
	flag.StringVar(&opts.namespace, "namespace", cfg.Namespace, "Temporal namespace")
	flag.StringVar(&opts.taskQueue, "task-queue", cfg.TaskQueue, "Temporal task queue")
	flag.StringVar(&opts.youName, "you-name", "", "Name of your player in the replay")
	flag.IntVar(&opts.youPlayer, "you-player", 0, "Position of your player, starting at 1")
	flag.StringVar(&opts.level, "level", cfg.ExportLevel, "Export level: minimal or coach")
	flag.StringVar(&opts.interval, "interval", cfg.Interval, "Reporting interval in seconds or as a duration (5m)")
	flag.StringVar(&opts.format, "format", "json", "Output format: json, prompt or tsv")
	flag.StringVar(&opts.outDir, "out", "", "Directory to write JSON reports to instead of stdout")
	flag.StringVar(&logLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.Parse()

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	// Logs go to stderr so reports can be piped
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if opts.path == "" {
		logger.Error("Path parameter is required")
		flag.Usage()
		os.Exit(1)
	}
	if opts.mode != "local" && opts.mode != "remote" {
		logger.Error("Mode must be either 'local' or 'remote'")
		os.Exit(1)
	}

	jobs, err := loadJobs(opts)
	if err != nil {
		logger.Error("Failed to load jobs", "path", opts.path, "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded analysis jobs", "count", len(jobs))

	ctx := context.Background()

	var records []*analysis.AnalysisRecord
	if opts.mode == "local" {
		records, err = analyzeLocal(ctx, logger, cfg.Classifier(), jobs)
	} else {
		records, err = analyzeRemote(ctx, logger, opts, jobs)
	}
	if err != nil {
		logger.Error("Analysis failed", "error", err)
		os.Exit(1)
	}

	if err := writeReports(os.Stdout, logger, opts, records); err != nil {
		logger.Error("Failed to write reports", "error", err)
		os.Exit(1)
	}
}

// loadJobs turns the path into analysis jobs. A replay file becomes one job
// built from the flags; HCL files carry their own settings.
func loadJobs(opts options) ([]hcl.AnalysisJob, error) {
	info, err := os.Stat(opts.path)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	var jobs []hcl.AnalysisJob
	switch {
	case info.IsDir():
		jobs, err = hcl.ParseHCLDirectory(opts.path)
	case hcl.IsHCLBasedOnExtension(opts.path):
		jobs, err = hcl.ParseHCLJobFile(opts.path)
	default:
		job, jobErr := replayJob(opts)
		jobs, err = []hcl.AnalysisJob{job}, jobErr
	}
	if err != nil {
		return nil, err
	}

	for i := range jobs {
		if jobs[i].ReplayPath == "" {
			continue
		}
		record, err := replayfile.Load(jobs[i].ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", jobs[i].Request.ReplayName, err)
		}
		jobs[i].Request.Record = record
	}
	return jobs, nil
}

func replayJob(opts options) (hcl.AnalysisJob, error) {
	if opts.youName == "" && opts.youPlayer <= 0 {
		return hcl.AnalysisJob{}, errors.New("-you-name or -you-player is required for a replay file")
	}
	level, err := analysis.ParseExportLevel(opts.level)
	if err != nil {
		return hcl.AnalysisJob{}, err
	}
	var interval int
	if opts.interval != "" {
		if interval, err = timeline.ParseInterval(opts.interval); err != nil {
			return hcl.AnalysisJob{}, err
		}
	}

	return hcl.AnalysisJob{
		ReplayPath: opts.path,
		Request: temporal.AnalyzeRequest{
			ReplayName:  filepath.Base(opts.path),
			You:         analysis.PlayerSelector{Name: opts.youName, Position: opts.youPlayer},
			ExportLevel: level,
			Interval:    interval,
		},
	}, nil
}

// analyzeLocal runs every job in process
func analyzeLocal(ctx context.Context, logger *slog.Logger, classifier *timeline.EventClassifier, jobs []hcl.AnalysisJob) ([]*analysis.AnalysisRecord, error) {
	analyzers := make(map[int]*analysis.Analyzer)
	records := make([]*analysis.AnalysisRecord, 0, len(jobs))
	for _, job := range jobs {
		analyzer, ok := analyzers[job.Request.Interval]
		if !ok {
			analyzer = analysis.NewAnalyzer(logger,
				analysis.WithInterval(job.Request.Interval),
				analysis.WithClassifier(classifier),
			)
			analyzers[job.Request.Interval] = analyzer
		}

		record, err := analyzer.Analyze(ctx, job.Request.Record, job.Request.You, job.Request.ExportLevel)
		if err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Request.ReplayName, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// analyzeRemote runs one analysis workflow per job and collects the stored
// reports from the workflow results.
func analyzeRemote(ctx context.Context, logger *slog.Logger, opts options, jobs []hcl.AnalysisJob) ([]*analysis.AnalysisRecord, error) {
	c, err := client.Dial(client.Options{
		HostPort:  opts.address,
		Namespace: opts.namespace,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create Temporal client: %w", err)
	}
	defer c.Close()

	records := make([]*analysis.AnalysisRecord, 0, len(jobs))
	for _, job := range jobs {
		workflowID := temporal.GenerateAnalysisWorkflowID(job.Request.ReplayName)
		logger.Info("Executing analysis", "workflowID", workflowID, "replay", job.Request.ReplayName)

		run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: opts.taskQueue,
		}, temporal.AnalyzeReplayWorkflow, job.Request)
		if err != nil {
			return nil, fmt.Errorf("failed to execute analysis workflow: %w", err)
		}

		var result temporal.AnalyzeResult
		if err := run.Get(ctx, &result); err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Request.ReplayName, err)
		}
		logger.Info("Analysis stored", "reportID", result.ReportID)
		records = append(records, result.Record)
	}
	return records, nil
}

// writeReports renders the records to w, or as JSON files under -out
func writeReports(w io.Writer, logger *slog.Logger, opts options, records []*analysis.AnalysisRecord) error {
	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		for _, record := range records {
			ts := time.Now().Unix()
			if record.Match.Timestamp != nil {
				ts = int64(*record.Match.Timestamp)
			}
			path := filepath.Join(opts.outDir, report.ReportFilename(record.Match.Map, ts))
			if err := replayfile.Save(path, record); err != nil {
				return err
			}
			logger.Info("Wrote report", "path", path)
		}
		return nil
	}

	switch opts.format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		for _, record := range records {
			if err := encoder.Encode(record); err != nil {
				return err
			}
		}
		return nil
	case "prompt":
		for _, record := range records {
			if _, err := fmt.Fprintln(w, report.BuildPrompt(record.Match, record.Players)); err != nil {
				return err
			}
		}
		return nil
	case "tsv":
		return report.WriteTSV(w, records)
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}
