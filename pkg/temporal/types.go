package temporal

import (
	"github.com/leowmjw/go-replay-coach/pkg/analysis"
)

// AnalyzeRequest asks for one replay to be analyzed and stored
type AnalyzeRequest struct {
	// ReplayName labels the run in workflow IDs and logs, usually the file name
	ReplayName  string                  `json:"replay_name"`
	Record      map[string]interface{}  `json:"record"`
	You         analysis.PlayerSelector `json:"you"`
	ExportLevel analysis.ExportLevel    `json:"export_level"`
	// Interval overrides the worker's reporting interval when positive
	Interval int `json:"interval,omitempty"`
}

// AnalyzeResult is the outcome of AnalyzeReplayWorkflow
type AnalyzeResult struct {
	ReportID string                   `json:"report_id"`
	Record   *analysis.AnalysisRecord `json:"record"`
}

// BatchRequest analyzes several replays in one run
type BatchRequest struct {
	Requests []AnalyzeRequest `json:"requests"`
	// MaxConcurrency bounds the child workflows in flight; zero uses the default
	MaxConcurrency int `json:"max_concurrency,omitempty"`
}

// BatchItem is the outcome of one replay of a batch
type BatchItem struct {
	ReplayName string `json:"replay_name"`
	ReportID   string `json:"report_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

// BatchResult collects the outcome of every replay in request order
type BatchResult struct {
	Items     []BatchItem `json:"items"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
}
