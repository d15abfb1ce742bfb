package temporal

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
)

// ErrReportNotFound is returned for an unknown report ID
var ErrReportNotFound = errors.New("report not found")

// ReportStore keeps finished analysis reports by report ID
type ReportStore interface {
	PutReport(ctx context.Context, reportID string, record *analysis.AnalysisRecord) error
	GetReport(ctx context.Context, reportID string) (*analysis.AnalysisRecord, error)
	ListReports(ctx context.Context) ([]string, error)
}

// MemoryReportStore implements ReportStore in process memory
type MemoryReportStore struct {
	mu      sync.RWMutex
	reports map[string]*analysis.AnalysisRecord
}

// NewMemoryReportStore creates an empty in-memory report store
func NewMemoryReportStore() *MemoryReportStore {
	return &MemoryReportStore{
		reports: make(map[string]*analysis.AnalysisRecord),
	}
}

// PutReport stores record under reportID, replacing any earlier report
func (m *MemoryReportStore) PutReport(ctx context.Context, reportID string, record *analysis.AnalysisRecord) error {
	if reportID == "" {
		return errors.New("report ID is required")
	}
	if record == nil {
		return fmt.Errorf("report %s: record is nil", reportID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[reportID] = record
	return nil
}

// GetReport loads the report stored under reportID
func (m *MemoryReportStore) GetReport(ctx context.Context, reportID string) (*analysis.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	record, exists := m.reports[reportID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrReportNotFound, reportID)
	}
	return record, nil
}

// ListReports returns the stored report IDs in sorted order
func (m *MemoryReportStore) ListReports(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.reports))
	for id := range m.reports {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
