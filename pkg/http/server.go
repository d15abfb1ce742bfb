package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.temporal.io/sdk/client"
	sdktemporal "go.temporal.io/sdk/temporal"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/hcl"
	"github.com/leowmjw/go-replay-coach/pkg/metrics"
	"github.com/leowmjw/go-replay-coach/pkg/replayfile"
	"github.com/leowmjw/go-replay-coach/pkg/report"
	"github.com/leowmjw/go-replay-coach/pkg/temporal"
)

// Server represents the HTTP server for the replay coach service
type Server struct {
	logger         *slog.Logger
	temporalClient client.Client
	store          temporal.ReportStore
	metrics        *metrics.Manager
	addr           string
	taskQueue      string
}

// Option configures a Server
type Option func(*Server)

// WithTaskQueue sets the Temporal task queue workflows are started on
func WithTaskQueue(taskQueue string) Option {
	return func(s *Server) {
		if taskQueue != "" {
			s.taskQueue = taskQueue
		}
	}
}

// WithMetrics records request metrics and serves them on /metrics
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// NewServer creates a new HTTP server
func NewServer(logger *slog.Logger, temporalClient client.Client, store temporal.ReportStore, addr string, opts ...Option) *Server {
	s := &Server{
		logger:         logger,
		temporalClient: temporalClient,
		store:          store,
		addr:           addr,
		taskQueue:      temporal.DefaultTaskQueue,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /replays/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /reports", s.handleListReports)
	mux.HandleFunc("GET /reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	return s.loggingMiddleware(mux)
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
	}

	s.logger.Info("Starting HTTP server", "addr", s.addr)

	errChan := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// Analysis endpoint: a JSON AnalyzeRequest, or an HCL job file with inline records
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	contentType, err := hcl.DetectContentType(r)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	var requests []temporal.AnalyzeRequest
	if contentType == hcl.ContentTypeHCL {
		requests, err = s.parseHCLBody(r.Body)
	} else {
		requests, err = s.parseJSONBody(r.Body)
	}
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if len(requests) == 1 {
		s.runAnalysis(w, r, requests[0])
		return
	}
	s.runBatch(w, r, requests)
}

func (s *Server) parseJSONBody(body io.Reader) ([]temporal.AnalyzeRequest, error) {
	decoder := json.NewDecoder(body)
	decoder.UseNumber()

	var request temporal.AnalyzeRequest
	if err := decoder.Decode(&request); err != nil {
		return nil, errors.New("invalid JSON body")
	}
	if request.Record == nil {
		return nil, errors.New("record is required")
	}
	if err := replayfile.Validate(request.Record); err != nil {
		return nil, err
	}

	level, err := analysis.ParseExportLevel(string(request.ExportLevel))
	if err != nil {
		return nil, err
	}
	request.ExportLevel = level
	return []temporal.AnalyzeRequest{request}, nil
}

func (s *Server) parseHCLBody(body io.Reader) ([]temporal.AnalyzeRequest, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return nil, errors.New("failed to read request body")
	}

	jobs, err := hcl.ParseHCLJobs(buf.String())
	if err != nil {
		return nil, err
	}

	requests := make([]temporal.AnalyzeRequest, 0, len(jobs))
	for _, job := range jobs {
		if job.ReplayPath != "" {
			return nil, fmt.Errorf("job %q: replay paths are not accepted over HTTP, inline the record", job.Request.ReplayName)
		}
		if err := replayfile.Validate(job.Request.Record); err != nil {
			return nil, fmt.Errorf("job %q: %w", job.Request.ReplayName, err)
		}
		requests = append(requests, job.Request)
	}
	return requests, nil
}

func (s *Server) runAnalysis(w http.ResponseWriter, r *http.Request, request temporal.AnalyzeRequest) {
	workflowID := temporal.GenerateAnalysisWorkflowID(request.ReplayName)
	s.logger.Info("Starting analysis", "workflowID", workflowID, "export_level", request.ExportLevel)

	workflowRun, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: s.taskQueue,
		},
		temporal.AnalyzeReplayWorkflow,
		request,
	)
	if err != nil {
		s.logger.Error("Failed to start analysis workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start analysis")
		return
	}

	var result *temporal.AnalyzeResult
	if err := workflowRun.Get(r.Context(), &result); err != nil {
		s.logger.Error("Analysis workflow failed", "workflowID", workflowID, "error", err)
		s.respondWorkflowError(w, err)
		return
	}

	s.logger.Info("Analysis completed", "reportID", result.ReportID)
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request, requests []temporal.AnalyzeRequest) {
	workflowID := temporal.GenerateBatchWorkflowID()
	s.logger.Info("Starting batch analysis", "workflowID", workflowID, "replays", len(requests))

	workflowRun, err := s.temporalClient.ExecuteWorkflow(
		r.Context(),
		client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: s.taskQueue,
		},
		temporal.AnalyzeBatchWorkflow,
		temporal.BatchRequest{Requests: requests},
	)
	if err != nil {
		s.logger.Error("Failed to start batch workflow", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to start batch analysis")
		return
	}

	var result *temporal.BatchResult
	if err := workflowRun.Get(r.Context(), &result); err != nil {
		s.logger.Error("Batch workflow failed", "workflowID", workflowID, "error", err)
		s.respondWorkflowError(w, err)
		return
	}

	s.logger.Info("Batch analysis completed", "succeeded", result.Succeeded, "failed", result.Failed)
	s.respondJSON(w, http.StatusOK, result)
}

// Report listing endpoint
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.ListReports(r.Context())
	if err != nil {
		s.logger.Error("Failed to list reports", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string][]string{"reports": ids})
}

// Report endpoint; ?format=prompt or ?format=tsv render the stored report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		s.respondError(w, http.StatusBadRequest, "report ID is required")
		return
	}

	record, err := s.store.GetReport(r.Context(), reportID)
	if errors.Is(err, temporal.ErrReportNotFound) {
		s.respondError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load report", "reportID", reportID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to load report")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "json":
		s.respondJSON(w, http.StatusOK, record)
	case "prompt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, report.BuildPrompt(record.Match, record.Players))
	case "tsv":
		w.Header().Set("Content-Type", "text/tab-separated-values")
		w.WriteHeader(http.StatusOK)
		if err := report.WriteTSV(w, []*analysis.AnalysisRecord{record}); err != nil {
			s.logger.Error("Failed to write TSV response", "error", err)
		}
	default:
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
	}
}

// Health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Middleware for request logging and metrics
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapper.statusCode,
			"duration", duration,
			"user_agent", r.UserAgent(),
		)

		if s.metrics != nil {
			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			s.metrics.ObserveHTTPRequest(route, r.Method, strconv.Itoa(wrapper.statusCode), duration)
		}
	})
}

// respondWorkflowError maps non-retryable analysis failures to client errors.
// Workflow errors nest several application errors, so the whole chain is searched.
func (s *Server) respondWorkflowError(w http.ResponseWriter, err error) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		appErr, ok := e.(*sdktemporal.ApplicationError)
		if !ok {
			continue
		}
		switch appErr.Type() {
		case temporal.ErrTypePlayerLookup:
			s.respondError(w, http.StatusUnprocessableEntity, appErr.Error())
			return
		case temporal.ErrTypeInvalidReplay:
			s.respondError(w, http.StatusBadRequest, appErr.Error())
			return
		}
	}
	s.respondError(w, http.StatusInternalServerError, "analysis execution failed")
}

// Response helpers
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Warn("HTTP error response", "status", status, "message", message)
	s.respondJSON(w, status, map[string]string{"error": message})
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
