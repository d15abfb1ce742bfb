// Package report renders AnalysisRecords for people and spreadsheets: a
// coaching prompt, a flat TSV row and safe file names.
package report

import (
	"fmt"
	"strings"

	"github.com/leowmjw/go-replay-coach/pkg/analysis"
	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// BuildPrompt writes the coaching prompt that introduces a match to a
// reviewer: who played what, on which map, for how long and who won.
func BuildPrompt(match analysis.MatchInfo, players analysis.Players) string {
	var b strings.Builder

	mapName := match.Map
	if mapName == "" {
		mapName = "an unknown map"
	}
	fmt.Fprintf(&b, "Review this Age of Empires II match played on %s", mapName)
	if match.Duration > 0 {
		fmt.Fprintf(&b, " lasting %s", timeline.FormatSeconds(&match.Duration))
	}
	b.WriteString(".\n")

	fmt.Fprintf(&b, "I played %s.\n", describePlayer(players.You))
	if players.Opponent != nil {
		fmt.Fprintf(&b, "My opponent played %s.\n", describePlayer(*players.Opponent))
	}

	switch {
	case players.You.Winner != nil && *players.You.Winner:
		b.WriteString("I won this game.\n")
	case players.You.Winner != nil:
		b.WriteString("I lost this game.\n")
	}

	b.WriteString("Using the age-up timings, unit composition snapshots and town center idle time, " +
		"tell me the three most important things to fix in my next game.")
	return b.String()
}

func describePlayer(p analysis.PlayerInfo) string {
	civ := p.Civilization
	if civ == "" {
		civ = "an unknown civilization"
	}
	if p.Name == "" {
		return civ
	}
	return fmt.Sprintf("%s (%s)", p.Name, civ)
}
