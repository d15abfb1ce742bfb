package timeline

import "errors"

// Sentinel errors for the timeline engine
var (
	ErrUnsupportedTimeFormat = errors.New("unsupported time format")
	ErrInvalidEvent          = errors.New("invalid event")
	ErrInvalidInterval       = errors.New("invalid reporting interval")
	ErrInvalidDuration       = errors.New("invalid match duration")
)

// Event is a single unit-producing entry of a player's action log
type Event struct {
	Time  int                    `json:"time"`
	Line  string                 `json:"line"`
	Attrs map[string]interface{} `json:"attrs,omitempty"`
}

// EventTimeline is a list of events
type EventTimeline []Event

// Milestone marks a named instant, such as an age-up click. A nil At means the
// milestone never happened.
type Milestone struct {
	Name string `json:"name"`
	At   *int   `json:"at"`
}

// CompositionSnapshot is the cumulative per-line tally as of Time
type CompositionSnapshot struct {
	Time         int            `json:"time"`
	TotalsByLine map[string]int `json:"totals_by_line"`
}

// SnapshotSeries is ordered by strictly increasing Time
type SnapshotSeries []CompositionSnapshot

// Last returns the final snapshot of the series
func (s SnapshotSeries) Last() (CompositionSnapshot, bool) {
	if len(s) == 0 {
		return CompositionSnapshot{}, false
	}
	return s[len(s)-1], true
}

// At returns the snapshot sampled exactly at t
func (s SnapshotSeries) At(t int) (CompositionSnapshot, bool) {
	for _, snap := range s {
		if snap.Time == t {
			return snap, true
		}
	}
	return CompositionSnapshot{}, false
}

// Seconds returns a pointer to v, for building optional time values
func Seconds(v int) *int {
	return &v
}
