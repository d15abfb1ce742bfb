package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/report"
)

const (
	// Workflow IDs
	AnalysisWorkflowIDPrefix = "analysis-"
	BatchWorkflowIDPrefix    = "analysis-batch-"

	// Task queue shared by the server and the worker
	DefaultTaskQueue = "replay-coach-task-queue"

	// Activity names
	AnalyzeReplayActivityName = "analyze-replay"
	StoreReportActivityName   = "store-report"

	// Default values
	DefaultBatchConcurrency = 4
)

// AnalyzeReplayWorkflow analyzes one replay and stores the report under the
// workflow ID, which doubles as the report ID.
func AnalyzeReplayWorkflow(ctx workflow.Context, request AnalyzeRequest) (*AnalyzeResult, error) {
	logger := workflow.GetLogger(ctx)
	reportID := workflow.GetInfo(ctx).WorkflowExecution.ID
	logger.Info("Starting analysis workflow", "replay", request.ReplayName, "reportID", reportID)

	ao := workflow.ActivityOptions{
		ScheduleToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	var record *analysis.AnalysisRecord
	err := workflow.ExecuteActivity(ctx, AnalyzeReplayActivityName, request).Get(ctx, &record)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze replay: %w", err)
	}

	err = workflow.ExecuteActivity(ctx, StoreReportActivityName, reportID, record).Get(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	logger.Info("Analysis completed", "reportID", reportID, "duration", record.Match.Duration)
	return &AnalyzeResult{ReportID: reportID, Record: record}, nil
}

// AnalyzeBatchWorkflow analyzes every replay of the batch as a child
// AnalyzeReplayWorkflow, at most MaxConcurrency at a time. A failed replay is
// reported in its BatchItem and does not fail the batch.
func AnalyzeBatchWorkflow(ctx workflow.Context, request BatchRequest) (*BatchResult, error) {
	logger := workflow.GetLogger(ctx)
	parentID := workflow.GetInfo(ctx).WorkflowExecution.ID
	logger.Info("Starting batch analysis", "replays", len(request.Requests))

	concurrency := request.MaxConcurrency
	if concurrency <= 0 {
		concurrency = DefaultBatchConcurrency
	}

	result := &BatchResult{Items: make([]BatchItem, len(request.Requests))}
	for start := 0; start < len(request.Requests); start += concurrency {
		end := min(start+concurrency, len(request.Requests))

		futures := make([]workflow.ChildWorkflowFuture, 0, end-start)
		for i := start; i < end; i++ {
			childOptions := workflow.ChildWorkflowOptions{
				WorkflowID:               fmt.Sprintf("%s-%d", parentID, i),
				WorkflowExecutionTimeout: 10 * time.Minute,
				RetryPolicy: &temporal.RetryPolicy{
					MaximumAttempts: 1,
				},
			}
			childCtx := workflow.WithChildOptions(ctx, childOptions)
			futures = append(futures, workflow.ExecuteChildWorkflow(childCtx, AnalyzeReplayWorkflow, request.Requests[i]))
		}

		for offset, future := range futures {
			i := start + offset
			item := BatchItem{ReplayName: request.Requests[i].ReplayName}

			var child *AnalyzeResult
			if err := future.Get(ctx, &child); err != nil {
				logger.Error("Replay analysis failed", "replay", item.ReplayName, "error", err)
				item.Error = err.Error()
				result.Failed++
			} else {
				item.ReportID = child.ReportID
				result.Succeeded++
			}
			result.Items[i] = item
		}
	}

	logger.Info("Batch analysis completed", "succeeded", result.Succeeded, "failed", result.Failed)
	return result, nil
}

// Utility functions for workflow IDs

// GenerateAnalysisWorkflowID creates a workflow ID for analyzing one replay
func GenerateAnalysisWorkflowID(replayName string) string {
	name := report.SanitizeFilename(replayName)
	if name == "" {
		name = "replay"
	}
	return fmt.Sprintf("%s%s-%d", AnalysisWorkflowIDPrefix, name, time.Now().UnixNano())
}

// GenerateBatchWorkflowID creates a workflow ID for a batch analysis
func GenerateBatchWorkflowID() string {
	return fmt.Sprintf("%s%d", BatchWorkflowIDPrefix, time.Now().UnixNano())
}
