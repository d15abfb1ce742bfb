package timeline

import (
	"testing"
)

func TestAggregate(t *testing.T) {
	values := []int{10, 20, 30, 40}

	tests := []struct {
		name     string
		aggType  AggregationType
		expected int
	}{
		{"sum", Sum, 100},
		{"max", Max, 40},
		{"count", Count, 4},
		{"unknown", AggregationType("p99"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Aggregate(values, tt.aggType)
			if result != tt.expected {
				t.Errorf("Expected value %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	for _, aggType := range []AggregationType{Sum, Max, Count} {
		if got := Aggregate(nil, aggType); got != 0 {
			t.Errorf("%s of empty input should be 0, got %d", aggType, got)
		}
	}
}

func TestSpanSeconds(t *testing.T) {
	tests := []struct {
		name     string
		span     Span
		expected int
	}{
		{"explicit duration", Span{Duration: Seconds(12)}, 12},
		{"duration wins", Span{Start: Seconds(0), End: Seconds(100), Duration: Seconds(7)}, 7},
		{"start and end", Span{Start: Seconds(60), End: Seconds(90)}, 30},
		{"backwards", Span{Start: Seconds(90), End: Seconds(60)}, 0},
		{"open ended", Span{Start: Seconds(60)}, 0},
	}

	for _, tt := range tests {
		if got := tt.span.Seconds(); got != tt.expected {
			t.Errorf("%s: expected %d, got %d", tt.name, tt.expected, got)
		}
	}
}

func TestSummarizeIdle(t *testing.T) {
	summary := SummarizeIdle([]Span{
		{Duration: Seconds(12)},
		{Start: Seconds(100), End: Seconds(145)},
		{Start: Seconds(300), End: Seconds(200)},
	})

	if summary.Total != 57 {
		t.Errorf("Expected total 57, got %d", summary.Total)
	}
	if summary.Count != 3 {
		t.Errorf("Expected count 3, got %d", summary.Count)
	}
	if summary.Longest != 45 {
		t.Errorf("Expected longest 45, got %d", summary.Longest)
	}

	empty := SummarizeIdle(nil)
	if empty != (IdleSummary{}) {
		t.Errorf("Expected zero summary, got %+v", empty)
	}
}
