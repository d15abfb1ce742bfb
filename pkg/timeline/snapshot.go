package timeline

import (
	"fmt"
	"sort"
)

// BuildSnapshots sweeps the events of one player over the sample instants
// derived from duration, interval and milestones. Each snapshot carries the
// cumulative count per line of every event at or before its time; the last
// snapshot is always taken at duration.
//
// Events are validated up front: an empty line or a negative time is an
// ErrInvalidEvent and no snapshots are returned.
func BuildSnapshots(events []Event, duration int, milestones []Milestone, interval int) (SnapshotSeries, error) {
	for i, e := range events {
		if e.Line == "" {
			return nil, fmt.Errorf("%w: event %d has no line", ErrInvalidEvent, i)
		}
		if e.Time < 0 {
			return nil, fmt.Errorf("%w: event %d has negative time %d", ErrInvalidEvent, i, e.Time)
		}
	}

	instants, err := SampleInstants(duration, interval, milestones)
	if err != nil {
		return nil, err
	}

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})

	totals := make(map[string]int)
	series := make(SnapshotSeries, 0, len(instants))
	next := 0
	for _, instant := range instants {
		for next < len(sorted) && sorted[next].Time <= instant {
			totals[sorted[next].Line]++
			next++
		}
		series = append(series, CompositionSnapshot{
			Time:         instant,
			TotalsByLine: copyTotals(totals),
		})
	}

	return series, nil
}

func copyTotals(totals map[string]int) map[string]int {
	out := make(map[string]int, len(totals))
	for line, count := range totals {
		out[line] = count
	}
	return out
}

// Total returns the sum of all line counts in the snapshot
func (s CompositionSnapshot) Total() int {
	sum := 0
	for _, count := range s.TotalsByLine {
		sum += count
	}
	return sum
}
