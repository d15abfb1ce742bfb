package timeline

import (
	"fmt"
	"sort"
	"time"
)

// DefaultReportingInterval is the spacing of the regular sample grid
const DefaultReportingInterval = 300

// Window is a closed-right slice of match time ending at a sample instant
type Window struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// CreateTumblingWindows splits [0, duration] into consecutive windows ending on
// every positive multiple of interval, plus a final window ending at duration.
func CreateTumblingWindows(duration, interval int) ([]Window, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidInterval, interval)
	}
	if duration < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, duration)
	}

	var windows []Window
	current := 0
	for current < duration {
		end := current + interval
		if end > duration {
			end = duration
		}
		windows = append(windows, Window{Start: current, End: end})
		current = end
	}
	if len(windows) == 0 {
		windows = append(windows, Window{Start: 0, End: 0})
	}
	return windows, nil
}

// SampleInstants returns the ascending, duplicate-free instants at which a
// composition snapshot is taken: present milestones within the match, every
// positive multiple of interval up to duration, and duration itself.
func SampleInstants(duration, interval int, milestones []Milestone) ([]int, error) {
	windows, err := CreateTumblingWindows(duration, interval)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{}, len(windows)+len(milestones))
	instants := make([]int, 0, len(windows)+len(milestones))
	add := func(t int) {
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		instants = append(instants, t)
	}

	for _, m := range milestones {
		if m.At == nil || *m.At < 0 || *m.At > duration {
			continue
		}
		add(*m.At)
	}
	for _, w := range windows {
		add(w.End)
	}

	sort.Ints(instants)
	return instants, nil
}

// ParseInterval reads a reporting interval such as "5m", "300" or "5:00"
func ParseInterval(value string) (int, error) {
	if d, err := time.ParseDuration(value); err == nil {
		seconds := int(d / time.Second)
		if seconds <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, value)
		}
		return seconds, nil
	}

	seconds, err := CoerceSeconds(value)
	if err != nil {
		return 0, fmt.Errorf("invalid interval %q: %w", value, err)
	}
	if seconds == nil || *seconds <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidInterval, value)
	}
	return *seconds, nil
}
