package analysis

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/leowmjw/go-replay-coach/pkg/timeline"
)

// ageOrder is the display and milestone order of the standard ages
var ageOrder = []string{"Feudal", "Castle", "Imperial"}

// rawPlayer is a player entry of a normalized record
type rawPlayer struct {
	info PlayerInfo
	data map[string]interface{}
}

func extractPlayers(record map[string]interface{}) []rawPlayer {
	list, _ := record["players"].([]interface{})
	players := make([]rawPlayer, 0, len(list))
	for i, item := range list {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		info := PlayerInfo{
			Name:         stringField(data, "name"),
			Civilization: firstString(data, "civilization", "civ"),
			Number:       i + 1,
		}
		if n, ok := intField(data, "number"); ok {
			info.Number = n
		}
		if winner, ok := data["winner"].(bool); ok {
			info.Winner = &winner
		}
		players = append(players, rawPlayer{info: info, data: data})
	}
	return players
}

// resolveYou picks the "you" player by name, falling back to position
func resolveYou(players []rawPlayer, you PlayerSelector) (int, error) {
	matches := 0
	if you.Name != "" {
		match := -1
		for i, p := range players {
			if p.info.Name == you.Name {
				match = i
				matches++
			}
		}
		if matches == 1 {
			return match, nil
		}
		if you.Position == 0 {
			return -1, &LookupError{Name: you.Name, Matches: matches}
		}
	}

	if you.Position >= 1 && you.Position <= len(players) {
		return you.Position - 1, nil
	}
	return -1, &LookupError{Name: you.Name, Position: you.Position, Matches: matches}
}

// ageMilestones returns the age-up clicks of a player in age order, along
// with the per-age timing details.
func ageMilestones(data map[string]interface{}) ([]timeline.Milestone, map[string]AgeTiming) {
	entries := make(map[string]map[string]interface{})
	switch ages := data["ages"].(type) {
	case map[string]interface{}:
		for name, v := range ages {
			if entry, ok := v.(map[string]interface{}); ok {
				entries[name] = entry
			}
		}
	case []interface{}:
		for _, v := range ages {
			entry, ok := v.(map[string]interface{})
			if !ok {
				continue
			}
			if name := firstString(entry, "age", "name"); name != "" {
				entries[name] = entry
			}
		}
	}

	names := make([]string, 0, len(ageOrder)+len(entries))
	names = append(names, ageOrder...)
	var extra []string
	for name := range entries {
		if !isStandardAge(name) {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	milestones := make([]timeline.Milestone, 0, len(names))
	timings := make(map[string]AgeTiming, len(names))
	for _, name := range names {
		entry := entries[name]
		click := secondsField(entry, string(timeline.KeyClickTime))
		uptime := secondsField(entry, string(timeline.KeyUptime))

		timing := AgeTiming{
			ClickTime:    click,
			ClickTimeStr: timeline.FormatSeconds(click),
			Uptime:       uptime,
		}
		if click != nil && uptime != nil {
			timing.ReachedAt = timeline.Seconds(*click + *uptime)
			timing.ReachedAtStr = timeline.FormatSeconds(timing.ReachedAt)
		}

		milestones = append(milestones, timeline.Milestone{Name: name, At: click})
		timings[name] = timing
	}
	return milestones, timings
}

// reachedMilestones converts age timings into the instants each age was
// reached, falling back to the click when the research time is unknown.
func reachedMilestones(milestones []timeline.Milestone, timings map[string]AgeTiming) []timeline.Milestone {
	reached := make([]timeline.Milestone, 0, len(milestones))
	for _, m := range milestones {
		at := timings[m.Name].ReachedAt
		if at == nil {
			at = m.At
		}
		reached = append(reached, timeline.Milestone{Name: m.Name, At: at})
	}
	return reached
}

func isStandardAge(name string) bool {
	for _, age := range ageOrder {
		if age == name {
			return true
		}
	}
	return false
}

// ownedBy reports whether a record entry belongs to the player number
func ownedBy(entry map[string]interface{}, number int) bool {
	owner, ok := intField(entry, "player")
	return ok && owner == number
}

func mapEntries(v interface{}) []map[string]interface{} {
	list, _ := v.([]interface{})
	out := make([]map[string]interface{}, 0, len(list))
	for _, item := range list {
		if entry, ok := item.(map[string]interface{}); ok {
			out = append(out, entry)
		}
	}
	return out
}

func secondsField(data map[string]interface{}, key string) *int {
	if data == nil {
		return nil
	}
	seconds, err := timeline.CoerceSeconds(data[key])
	if err != nil {
		return nil
	}
	return seconds
}

func stringField(data map[string]interface{}, key string) string {
	s, _ := data[key].(string)
	return s
}

func firstString(data map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := stringField(data, key); s != "" {
			return s
		}
	}
	return ""
}

func intField(data map[string]interface{}, key string) (int, bool) {
	switch v := data[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
