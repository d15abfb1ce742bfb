package timeline

import "sort"

// StateInterval is a period of match time spent in one state
type StateInterval struct {
	State string `json:"state"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// StateTimeline is a collection of contiguous state intervals
type StateTimeline []StateInterval

// LatestMilestoneToState builds the state timeline where the state at any
// instant is the most recent milestone reached, starting from initial at 0.
// Milestones that never happened or fall outside the match are ignored.
func LatestMilestoneToState(initial string, milestones []Milestone, duration int) StateTimeline {
	reached := make([]Milestone, 0, len(milestones))
	for _, m := range milestones {
		if m.At == nil || *m.At < 0 || *m.At > duration {
			continue
		}
		reached = append(reached, m)
	}
	sort.SliceStable(reached, func(i, j int) bool {
		return *reached[i].At < *reached[j].At
	})

	var result StateTimeline
	current := StateInterval{State: initial, Start: 0}
	for _, m := range reached {
		if *m.At == current.Start {
			current.State = m.Name
			continue
		}
		current.End = *m.At
		result = append(result, current)
		current = StateInterval{State: m.Name, Start: *m.At}
	}
	current.End = duration
	result = append(result, current)

	return result
}

// DurationInState sums the time spent in each state
func DurationInState(st StateTimeline) map[string]int {
	durations := make(map[string]int, len(st))
	for _, interval := range st {
		durations[interval.State] += clampNonNegative(interval.End - interval.Start)
	}
	return durations
}
