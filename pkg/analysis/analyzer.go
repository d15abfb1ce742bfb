// Package analysis turns a decoded match replay into an AnalysisRecord: age
// timings, cumulative unit-composition snapshots and economy health for the
// "you" player and their opponent.
package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// InitialAge is the age every player starts in
const InitialAge = "Dark"

// Analyzer derives AnalysisRecords from raw replay records. It holds no
// per-run state and is safe for concurrent use.
type Analyzer struct {
	logger     *slog.Logger
	classifier *timeline.EventClassifier
	interval   int
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithInterval sets the reporting interval in seconds
func WithInterval(seconds int) Option {
	return func(a *Analyzer) {
		if seconds > 0 {
			a.interval = seconds
		}
	}
}

// WithClassifier replaces the default unit classifier
func WithClassifier(c *timeline.EventClassifier) Option {
	return func(a *Analyzer) {
		if c != nil {
			a.classifier = c
		}
	}
}

// NewAnalyzer creates an analyzer with the default classifier and interval
func NewAnalyzer(logger *slog.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Analyzer{
		logger:     logger,
		classifier: timeline.NewEventClassifier(),
		interval:   timeline.DefaultReportingInterval,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Interval returns the reporting interval in seconds
func (a *Analyzer) Interval() int {
	return a.interval
}

// playerAnalysis is the derived data of one player
type playerAnalysis struct {
	timings PlayerTimings
	units   UnitsView
	eco     EcoHealth
}

// Analyze normalizes the raw record and derives the analysis for the
// selected player and their opponent. A player that cannot be resolved is a
// *LookupError; a malformed unit event fails the whole run.
func (a *Analyzer) Analyze(ctx context.Context, raw interface{}, you PlayerSelector, level ExportLevel) (*AnalysisRecord, error) {
	if level != ExportMinimal && level != ExportCoach {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExportLevel, level)
	}

	original, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: expected an object at the root, got %T", ErrInvalidRecord, raw)
	}

	normalized, report := timeline.NormalizeTimeFieldsReport(original)
	record := normalized.(map[string]interface{})
	if len(report.Skipped) > 0 {
		a.logger.DebugContext(ctx, "Left time fields as recorded", "count", len(report.Skipped), "paths", report.Skipped)
	}

	players := extractPlayers(record)
	youIdx, err := resolveYou(players, you)
	if err != nil {
		return nil, err
	}
	oppIdx := -1
	for i := range players {
		if i != youIdx {
			oppIdx = i
			break
		}
	}

	duration, err := a.matchDuration(ctx, original, record)
	if err != nil {
		return nil, err
	}

	result := &AnalysisRecord{
		Match:       matchInfo(record, duration),
		ExportLevel: level,
	}
	result.Players.You = players[youIdx].info

	yours, err := a.analyzePlayer(record, players[youIdx], duration)
	if err != nil {
		return nil, fmt.Errorf("player %q: %w", players[youIdx].info.Name, err)
	}
	result.CoachView.Timings.You = yours.timings

	var theirs *playerAnalysis
	if oppIdx >= 0 {
		opp := players[oppIdx].info
		result.Players.Opponent = &opp
		analyzed, err := a.analyzePlayer(record, players[oppIdx], duration)
		if err != nil {
			return nil, fmt.Errorf("player %q: %w", opp.Name, err)
		}
		theirs = &analyzed
		result.CoachView.Timings.Opponent = &analyzed.timings
	}

	if level == ExportCoach {
		units := &Sides[UnitsView]{You: yours.units}
		eco := &Sides[EcoHealth]{You: yours.eco}
		if theirs != nil {
			units.Opponent = &theirs.units
			eco.Opponent = &theirs.eco
		}
		result.CoachView.Units = units
		result.CoachView.EcoHealth = eco
	}

	a.logger.InfoContext(ctx, "Analyzed replay",
		"map", result.Match.Map,
		"duration", duration,
		"you", result.Players.You.Name,
		"export_level", level,
		"coerced_fields", report.Coerced,
	)
	return result, nil
}

// matchDuration reads the match length. The normalized value is used when it
// is already whole seconds; otherwise the recorded value is coerced directly.
// A record without a duration ends at its last action.
func (a *Analyzer) matchDuration(ctx context.Context, original, record map[string]interface{}) (int, error) {
	if d, ok := record[string(timeline.KeyDuration)].(int); ok {
		return d, nil
	}

	seconds, err := timeline.CoerceSeconds(original[string(timeline.KeyDuration)])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", timeline.ErrInvalidDuration, err)
	}
	if seconds != nil {
		return *seconds, nil
	}

	last := 0
	for _, action := range mapEntries(record["actions"]) {
		if t, ok := timeline.ActionTime(action); ok && t > last {
			last = t
		}
	}
	a.logger.WarnContext(ctx, "Replay has no duration, using last action time", "duration", last)
	return last, nil
}

func (a *Analyzer) analyzePlayer(record map[string]interface{}, p rawPlayer, duration int) (playerAnalysis, error) {
	milestones, ages := ageMilestones(p.data)
	states := timeline.LatestMilestoneToState(InitialAge, reachedMilestones(milestones, ages), duration)

	var owned []map[string]interface{}
	for _, action := range mapEntries(record["actions"]) {
		if ownedBy(action, p.info.Number) {
			owned = append(owned, action)
		}
	}
	events, err := a.classifier.ClassifyActions(owned)
	if err != nil {
		return playerAnalysis{}, err
	}

	series, err := timeline.BuildSnapshots(events, duration, milestones, a.interval)
	if err != nil {
		return playerAnalysis{}, err
	}

	return playerAnalysis{
		timings: PlayerTimings{
			Ages:      ages,
			TimeInAge: timeline.DurationInState(states),
		},
		units: UnitsView{
			Interval:             a.interval,
			CompositionSnapshots: series,
		},
		eco: EcoHealth{
			TCIdleTime: timeline.SummarizeIdle(idleSpans(record, p)),
		},
	}, nil
}

// idleSpans collects the town-center idle spans of a player, from both the
// record-level tc_idle list and the player's own entry.
func idleSpans(record map[string]interface{}, p rawPlayer) []timeline.Span {
	var spans []timeline.Span
	add := func(entry map[string]interface{}) {
		spans = append(spans, timeline.Span{
			Start:    secondsField(entry, string(timeline.KeyStart)),
			End:      secondsField(entry, string(timeline.KeyEnd)),
			Duration: secondsField(entry, string(timeline.KeyDuration)),
		})
	}
	for _, entry := range mapEntries(record["tc_idle"]) {
		if ownedBy(entry, p.info.Number) {
			add(entry)
		}
	}
	for _, entry := range mapEntries(p.data["tc_idle"]) {
		add(entry)
	}
	return spans
}

func matchInfo(record map[string]interface{}, duration int) MatchInfo {
	info := MatchInfo{
		Duration:    duration,
		DurationStr: timeline.FormatSeconds(&duration),
	}

	switch m := record["map"].(type) {
	case string:
		info.Map = m
	case map[string]interface{}:
		info.Map = stringField(m, "name")
	}

	switch ts := record[string(timeline.KeyTimestamp)].(type) {
	case int:
		info.Timestamp = timeline.Seconds(ts)
	case string:
		info.StartedAt = ts
	}
	return info
}
