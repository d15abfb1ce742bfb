// Package config loads service settings for the replay coach server and CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/metrics"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

const (
	// EnvPrefix prefixes every environment override, e.g. COACH_HTTP_ADDR
	EnvPrefix = "COACH_"
	// EnvConfigFile names an optional YAML file layered over the defaults
	EnvConfigFile = "COACH_CONFIG"
)

// Config contains process configuration
type Config struct {
	LogLevel     string `koanf:"log_level"`
	HTTPAddr     string `koanf:"http_addr"`
	TemporalAddr string `koanf:"temporal_addr"`
	Namespace    string `koanf:"namespace"`
	TaskQueue    string `koanf:"task_queue"`

	// Interval is the reporting interval in seconds or as a Go duration ("5m")
	Interval    string `koanf:"interval"`
	ExportLevel string `koanf:"export_level"`

	// UnitLines maps extra unit names, such as mod units, to composition lines
	UnitLines map[string]string `koanf:"unit_lines"`

	MetricsNamespace string    `koanf:"metrics_namespace"`
	MetricsBuckets   []float64 `koanf:"metrics_buckets"`
}

// New returns the defaults
func New() *Config {
	return &Config{
		LogLevel:     "info",
		HTTPAddr:     ":8080",
		TemporalAddr: "localhost:7233",
		Namespace:    "default",
		TaskQueue:    "replay-coach-task-queue",
		Interval:     "300",
		ExportLevel:  string(analysis.ExportCoach),

		MetricsNamespace: "replay_coach",
	}
}

// Load builds a Config by layering, lowest precedence first:
//  1. defaults (New)
//  2. YAML file named by COACH_CONFIG, if set
//  3. COACH_* environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// COACH_TASK_QUEUE -> task_queue; underscores are kept to match the tags
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required settings are present and well-formed
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return errors.New("http_addr must not be empty")
	}
	if c.TaskQueue == "" {
		return errors.New("task_queue must not be empty")
	}
	if _, err := c.IntervalSeconds(); err != nil {
		return err
	}
	if _, err := analysis.ParseExportLevel(c.ExportLevel); err != nil {
		return err
	}
	for i, b := range c.MetricsBuckets {
		if b <= 0 || (i > 0 && b <= c.MetricsBuckets[i-1]) {
			return fmt.Errorf("metrics_buckets must be positive and strictly increasing, got %v", c.MetricsBuckets)
		}
	}
	for unit, line := range c.UnitLines {
		if strings.TrimSpace(unit) == "" || strings.TrimSpace(line) == "" {
			return fmt.Errorf("unit_lines entry %q: %q needs a unit and a line", unit, line)
		}
	}
	return nil
}

// IntervalSeconds parses Interval into whole seconds
func (c *Config) IntervalSeconds() (int, error) {
	return timeline.ParseInterval(c.Interval)
}

// Classifier builds the unit classifier with UnitLines registered over the
// default lines
func (c *Config) Classifier() *timeline.EventClassifier {
	classifier := timeline.NewEventClassifier()
	for unit, line := range c.UnitLines {
		classifier.RegisterUnit(unit, line)
	}
	return classifier
}

// AnalyzerOptions configures an analysis.Analyzer from the settings
func (c *Config) AnalyzerOptions() ([]analysis.Option, error) {
	interval, err := c.IntervalSeconds()
	if err != nil {
		return nil, err
	}
	return []analysis.Option{
		analysis.WithInterval(interval),
		analysis.WithClassifier(c.Classifier()),
	}, nil
}

// MetricsOptions configures a metrics.Manager from the settings
func (c *Config) MetricsOptions() []metrics.Option {
	return []metrics.Option{
		metrics.WithNamespace(c.MetricsNamespace),
		metrics.WithHistogramBuckets(c.MetricsBuckets),
	}
}
