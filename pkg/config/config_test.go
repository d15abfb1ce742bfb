package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/metrics"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, New(), cfg)

	seconds, err := cfg.IntervalSeconds()
	require.NoError(t, err)
	assert.Equal(t, timeline.DefaultReportingInterval, seconds)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.yaml")
	yaml := "http_addr: \":9090\"\ninterval: 600\ntask_queue: from-file\nexport_level: minimal\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv(EnvConfigFile, path)
	t.Setenv("COACH_TASK_QUEUE", "from-env")
	t.Setenv("COACH_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "from-env", cfg.TaskQueue)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, string(analysis.ExportMinimal), cfg.ExportLevel)
	assert.Equal(t, "localhost:7233", cfg.TemporalAddr)

	seconds, err := cfg.IntervalSeconds()
	require.NoError(t, err)
	assert.Equal(t, 600, seconds)
}

func TestLoad_DurationInterval(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv("COACH_INTERVAL", "2m")

	cfg, err := Load()
	require.NoError(t, err)
	seconds, err := cfg.IntervalSeconds()
	require.NoError(t, err)
	assert.Equal(t, 120, seconds)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv(EnvConfigFile, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		is     error
	}{
		{"empty http addr", func(c *Config) { c.HTTPAddr = "" }, nil},
		{"empty task queue", func(c *Config) { c.TaskQueue = "" }, nil},
		{"zero interval", func(c *Config) { c.Interval = "0" }, timeline.ErrInvalidInterval},
		{"unparseable interval", func(c *Config) { c.Interval = "often" }, timeline.ErrUnsupportedTimeFormat},
		{"unknown export level", func(c *Config) { c.ExportLevel = "everything" }, analysis.ErrUnknownExportLevel},
		{"unsorted buckets", func(c *Config) { c.MetricsBuckets = []float64{1, 0.5} }, nil},
		{"zero bucket", func(c *Config) { c.MetricsBuckets = []float64{0, 1} }, nil},
		{"unit without line", func(c *Config) { c.UnitLines = map[string]string{"organ gun": ""} }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is))
			}
		})
	}
}

func TestLoad_ClassifierAndMetricsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coach.yaml")
	yaml := `interval: 120
unit_lines:
  organ gun: gunpowder_line
  knight: heavy_cavalry
metrics_namespace: coach_test
metrics_buckets: [0.01, 0.1, 1]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.01, 0.1, 1}, cfg.MetricsBuckets)

	classifier := cfg.Classifier()
	assert.Equal(t, "gunpowder_line", classifier.LineFor("Organ Gun"))
	assert.Equal(t, "heavy_cavalry", classifier.LineFor("Knight"))
	assert.Equal(t, "archer_line", classifier.LineFor("Crossbowman"))

	opts, err := cfg.AnalyzerOptions()
	require.NoError(t, err)
	analyzer := analysis.NewAnalyzer(nil, opts...)
	assert.Equal(t, 120, analyzer.Interval())

	m := metrics.NewManager(cfg.MetricsOptions()...)
	m.IncReportsStored()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	var names []string
	for _, family := range families {
		names = append(names, family.GetName())
	}
	assert.Contains(t, names, "coach_test_analysis_reports_stored_total")
}
