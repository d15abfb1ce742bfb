package temporal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/metrics"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// Application error types reported by the activities. Both are non-retryable:
// analyzing the same record again gives the same answer.
const (
	ErrTypePlayerLookup  = "PlayerLookup"
	ErrTypeInvalidReplay = "InvalidReplay"
)

// Activities defines the activities used by the analysis workflows
type Activities interface {
	AnalyzeReplayActivity(ctx context.Context, request AnalyzeRequest) (*analysis.AnalysisRecord, error)
	StoreReportActivity(ctx context.Context, reportID string, record *analysis.AnalysisRecord) error
}

// ActivitiesImpl implements the Activities interface
type ActivitiesImpl struct {
	logger   *slog.Logger
	analyzer *analysis.Analyzer
	store    ReportStore
	metrics  *metrics.Manager
}

// NewActivitiesImpl creates the activities. metrics may be nil.
func NewActivitiesImpl(logger *slog.Logger, analyzer *analysis.Analyzer, store ReportStore, m *metrics.Manager) *ActivitiesImpl {
	if analyzer == nil {
		analyzer = analysis.NewAnalyzer(logger)
	}
	return &ActivitiesImpl{
		logger:   logger,
		analyzer: analyzer,
		store:    store,
		metrics:  m,
	}
}

// AnalyzeReplayActivity runs the pure analysis of one replay record
func (a *ActivitiesImpl) AnalyzeReplayActivity(ctx context.Context, request AnalyzeRequest) (*analysis.AnalysisRecord, error) {
	info := activity.GetInfo(ctx)
	a.logger.Info("Analyzing replay",
		"replay", request.ReplayName,
		"export_level", request.ExportLevel,
		"attempt", info.Attempt,
	)

	analyzer := a.analyzer
	if request.Interval > 0 && request.Interval != analyzer.Interval() {
		analyzer = analysis.NewAnalyzer(a.logger, analysis.WithInterval(request.Interval))
	}

	start := time.Now()
	record, err := analyzer.Analyze(ctx, request.Record, request.You, request.ExportLevel)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	if a.metrics != nil {
		a.metrics.ObserveAnalysis(string(request.ExportLevel), outcome, time.Since(start))
	}
	if err != nil {
		a.logger.Error("Failed to analyze replay", "replay", request.ReplayName, "error", err)
		return nil, classifyAnalysisError(err)
	}

	a.logger.Info("Successfully analyzed replay", "replay", request.ReplayName, "duration", record.Match.Duration)
	return record, nil
}

// StoreReportActivity persists a finished report
func (a *ActivitiesImpl) StoreReportActivity(ctx context.Context, reportID string, record *analysis.AnalysisRecord) error {
	if err := a.store.PutReport(ctx, reportID, record); err != nil {
		a.logger.Error("Failed to store report", "reportID", reportID, "error", err)
		return fmt.Errorf("failed to store report: %w", err)
	}
	if a.metrics != nil {
		a.metrics.IncReportsStored()
	}
	a.logger.Info("Stored report", "reportID", reportID)
	return nil
}

// classifyAnalysisError turns caller mistakes into non-retryable application
// errors. Anything else is returned as is and retried.
func classifyAnalysisError(err error) error {
	var lookupErr *analysis.LookupError
	switch {
	case errors.As(err, &lookupErr):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypePlayerLookup, err)
	case errors.Is(err, analysis.ErrInvalidRecord),
		errors.Is(err, analysis.ErrUnknownExportLevel),
		errors.Is(err, timeline.ErrInvalidEvent),
		errors.Is(err, timeline.ErrInvalidInterval),
		errors.Is(err, timeline.ErrInvalidDuration),
		errors.Is(err, timeline.ErrUnsupportedTimeFormat):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeInvalidReplay, err)
	}
	return err
}
