package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// OtherLine groups units that no registered line claims
	OtherLine = "other"

	// MaxEventAmount bounds the units a single action may produce
	MaxEventAmount = 1000
)

// EventClassifier turns normalized action records into composition events
type EventClassifier struct {
	registry map[string]EventParser
	lines    map[string]string
}

// EventParser converts one action record into zero or more events
type EventParser func(ec *EventClassifier, data map[string]interface{}) ([]Event, error)

var defaultLines = map[string][]string{
	"villager":            {"villager"},
	"archer_line":         {"archer", "crossbowman", "arbalester", "arbalest"},
	"skirmisher_line":     {"skirmisher", "elite skirmisher", "imperial skirmisher"},
	"militia_line":        {"militia", "man-at-arms", "long swordsman", "two-handed swordsman", "champion"},
	"spear_line":          {"spearman", "pikeman", "halberdier"},
	"scout_line":          {"scout cavalry", "light cavalry", "hussar", "winged hussar"},
	"knight_line":         {"knight", "cavalier", "paladin"},
	"camel_line":          {"camel rider", "heavy camel rider", "imperial camel rider"},
	"cavalry_archer_line": {"cavalry archer", "heavy cavalry archer"},
	"hand_cannoneer":      {"hand cannoneer"},
	"monk":                {"monk"},
	"siege":               {"mangonel", "onager", "siege onager", "scorpion", "heavy scorpion", "battering ram", "capped ram", "siege ram", "trebuchet", "bombard cannon"},
	"trade":               {"trade cart", "trade cog"},
	"fishing":             {"fishing ship"},
	"navy":                {"galley", "war galley", "galleon", "fire galley", "fire ship", "fast fire ship", "demolition raft", "demolition ship", "cannon galleon"},
}

// NewEventClassifier creates a classifier with the default unit lines and
// the unit-producing action types registered.
func NewEventClassifier() *EventClassifier {
	ec := &EventClassifier{
		registry: make(map[string]EventParser),
		lines:    make(map[string]string),
	}

	for line, units := range defaultLines {
		for _, unit := range units {
			ec.RegisterUnit(unit, line)
		}
	}

	ec.RegisterEventType("train", parseUnitAction)
	ec.RegisterEventType("queue", parseUnitAction)
	ec.RegisterEventType("de_queue", parseUnitAction)
	ec.RegisterEventType("make", parseUnitAction)

	return ec
}

// RegisterEventType registers a parser for an action type
func (ec *EventClassifier) RegisterEventType(actionType string, parser EventParser) {
	ec.registry[strings.ToLower(actionType)] = parser
}

// RegisterUnit maps a unit name to a line
func (ec *EventClassifier) RegisterUnit(unit, line string) {
	ec.lines[unitKey(unit)] = line
}

// LineFor returns the line of a unit name, or OtherLine when unknown
func (ec *EventClassifier) LineFor(unit string) string {
	if line, ok := ec.lines[unitKey(unit)]; ok {
		return line
	}
	return OtherLine
}

// ClassifyAction extracts composition events from one action record. An
// explicit "line" field always makes the record a composition event; other
// records are routed by action type and ignored when no parser is registered.
func (ec *EventClassifier) ClassifyAction(data map[string]interface{}) ([]Event, error) {
	if line, ok := data["line"].(string); ok && line != "" {
		return eventsFor(data, line)
	}

	actionType := extractActionType(data)
	if actionType == "" {
		return nil, nil
	}

	parser, exists := ec.registry[strings.ToLower(actionType)]
	if !exists {
		return nil, nil
	}
	return parser(ec, data)
}

// ClassifyActions classifies every record in order
func (ec *EventClassifier) ClassifyActions(actions []map[string]interface{}) (EventTimeline, error) {
	var events EventTimeline
	for i, action := range actions {
		classified, err := ec.ClassifyAction(action)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", i, err)
		}
		events = append(events, classified...)
	}
	return events, nil
}

func parseUnitAction(ec *EventClassifier, data map[string]interface{}) ([]Event, error) {
	unit := extractUnit(data)
	if unit == "" {
		return nil, fmt.Errorf("%w: unit action without unit name", ErrInvalidEvent)
	}
	return eventsFor(data, ec.LineFor(unit))
}

func eventsFor(data map[string]interface{}, line string) ([]Event, error) {
	t, ok := ActionTime(data)
	if !ok {
		return nil, fmt.Errorf("%w: %s event without time", ErrInvalidEvent, line)
	}

	amount, err := extractAmount(data)
	if err != nil {
		return nil, err
	}
	attrs := make(map[string]interface{}, len(data))
	for k, v := range data {
		attrs[k] = v
	}

	events := make([]Event, amount)
	for i := range events {
		events[i] = Event{Time: t, Line: line, Attrs: attrs}
	}
	return events, nil
}

func extractActionType(data map[string]interface{}) string {
	fieldNames := []string{"type", "action", "action_type"}

	for _, field := range fieldNames {
		if value, exists := data[field]; exists {
			if str, ok := value.(string); ok {
				return str
			}
		}
	}

	return ""
}

func extractUnit(data map[string]interface{}) string {
	if unit, ok := data["unit"].(string); ok {
		return unit
	}
	if payload, ok := data["payload"].(map[string]interface{}); ok {
		for _, field := range []string{"unit", "unit_name", "name"} {
			if unit, ok := payload[field].(string); ok {
				return unit
			}
		}
	}
	return ""
}

// ActionTime reads the first coercible time field of an action record, in
// the order time, timestamp, t, t_sec
func ActionTime(data map[string]interface{}) (int, bool) {
	for _, field := range []TimeKey{KeyTime, KeyTimestamp, KeyT, KeyTSec} {
		value, exists := data[string(field)]
		if !exists || value == nil {
			continue
		}
		seconds, err := CoerceSeconds(value)
		if err == nil && seconds != nil {
			return *seconds, true
		}
	}
	return 0, false
}

// extractAmount reads the unit count of an action. Missing or non-positive
// amounts count as one unit; amounts above MaxEventAmount are rejected.
func extractAmount(data map[string]interface{}) (int, error) {
	value, exists := data["amount"]
	if !exists {
		if payload, ok := data["payload"].(map[string]interface{}); ok {
			value, exists = payload["amount"]
		}
	}
	if !exists {
		return 1, nil
	}
	n, ok := wholeNumber(value)
	if !ok || n < 1 {
		return 1, nil
	}
	if n > MaxEventAmount {
		return 0, fmt.Errorf("%w: amount %v exceeds %d", ErrInvalidEvent, value, MaxEventAmount)
	}
	return int(n), nil
}

// wholeNumber reads an integral count. Floats outside the int64 range
// saturate so the caller's bound check still sees them.
func wholeNumber(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return saturate(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n, true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return saturate(f)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	}
	return 0, false
}

func saturate(f float64) (int64, bool) {
	switch {
	case math.IsNaN(f):
		return 0, false
	case f >= math.MaxInt64:
		return math.MaxInt64, true
	case f <= math.MinInt64:
		return math.MinInt64, true
	}
	return int64(f), true
}

func unitKey(unit string) string {
	fields := strings.Fields(strings.ReplaceAll(strings.ToLower(unit), "_", " "))
	return strings.Join(fields, " ")
}
