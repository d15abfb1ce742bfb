package analysis

import (
	"fmt"
	"strings"

	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// ExportLevel selects which derived views an AnalysisRecord carries
type ExportLevel string

const (
	// ExportMinimal carries match, players and age timings
	ExportMinimal ExportLevel = "minimal"
	// ExportCoach adds composition snapshots and economy health
	ExportCoach ExportLevel = "coach"
)

// ParseExportLevel validates an export level name
func ParseExportLevel(s string) (ExportLevel, error) {
	switch level := ExportLevel(strings.ToLower(strings.TrimSpace(s))); level {
	case ExportMinimal, ExportCoach:
		return level, nil
	case "":
		return ExportCoach, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownExportLevel, s)
}

// PlayerSelector identifies the "you" player: by Name when set, otherwise by
// 1-based Position in the player list.
type PlayerSelector struct {
	Name     string `json:"name,omitempty"`
	Position int    `json:"position,omitempty"`
}

// AnalysisRecord is the assembled result of one analysis run
type AnalysisRecord struct {
	Match       MatchInfo   `json:"match"`
	Players     Players     `json:"players"`
	ExportLevel ExportLevel `json:"export_level"`
	CoachView   CoachView   `json:"coach_view"`
}

// MatchInfo holds match-level metadata
type MatchInfo struct {
	Map         string `json:"map"`
	Duration    int    `json:"duration"`
	DurationStr string `json:"duration_str"`
	Timestamp   *int   `json:"timestamp"`
	StartedAt   string `json:"started_at,omitempty"`
}

// PlayerInfo describes one player
type PlayerInfo struct {
	Name         string `json:"name"`
	Civilization string `json:"civilization"`
	Winner       *bool  `json:"winner"`
	Number       int    `json:"number"`
}

// Players is the you/opponent pair
type Players = Sides[PlayerInfo]

// Sides holds one value for "you" and, when present, one for the opponent
type Sides[T any] struct {
	You      T  `json:"you"`
	Opponent *T `json:"opponent,omitempty"`
}

// CoachView groups the derived per-player structures. Units and EcoHealth
// are only present at ExportCoach.
type CoachView struct {
	Timings   Sides[PlayerTimings] `json:"timings"`
	Units     *Sides[UnitsView]    `json:"units,omitempty"`
	EcoHealth *Sides[EcoHealth]    `json:"eco_health,omitempty"`
}

// AgeTiming is the timing of one age-up
type AgeTiming struct {
	ClickTime    *int   `json:"click_time"`
	ClickTimeStr string `json:"click_time_str"`
	Uptime       *int   `json:"uptime,omitempty"`
	ReachedAt    *int   `json:"reached_at,omitempty"`
	ReachedAtStr string `json:"reached_at_str,omitempty"`
}

// PlayerTimings holds age timings and time spent in each age
type PlayerTimings struct {
	Ages      map[string]AgeTiming `json:"ages"`
	TimeInAge map[string]int       `json:"time_in_age"`
}

// UnitsView is the composition snapshot series of one player
type UnitsView struct {
	Interval             int                     `json:"interval"`
	CompositionSnapshots timeline.SnapshotSeries `json:"composition_snapshots"`
}

// EcoHealth holds economic metrics of one player
type EcoHealth struct {
	TCIdleTime timeline.IdleSummary `json:"tc_idle_time"`
}
