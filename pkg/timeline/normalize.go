package timeline

import (
	"fmt"
	"sort"
	"strconv"
)

// TimeKey names a record field that holds a match-relative time value
type TimeKey string

const (
	KeyTime             TimeKey = "time"
	KeyT                TimeKey = "t"
	KeyTSec             TimeKey = "t_sec"
	KeyTimestamp        TimeKey = "timestamp"
	KeyDuration         TimeKey = "duration"
	KeyUptime           TimeKey = "uptime"
	KeyClickTime        TimeKey = "click_time"
	KeyStart            TimeKey = "start"
	KeyEnd              TimeKey = "end"
	KeyResponseTime     TimeKey = "response_time"
	KeyThreatSwitchTime TimeKey = "threat_switch_time"
)

var timeKeys = map[TimeKey]struct{}{
	KeyTime:             {},
	KeyT:                {},
	KeyTSec:             {},
	KeyTimestamp:        {},
	KeyDuration:         {},
	KeyUptime:           {},
	KeyClickTime:        {},
	KeyStart:            {},
	KeyEnd:              {},
	KeyResponseTime:     {},
	KeyThreatSwitchTime: {},
}

// IsTimeKey reports whether name is one of the known time-like keys
func IsTimeKey(name string) bool {
	_, ok := timeKeys[TimeKey(name)]
	return ok
}

// fieldResult is the outcome of coercing one time-like field
type fieldResult struct {
	value   interface{}
	coerced bool
}

func coerceField(value interface{}) fieldResult {
	seconds, err := CoerceSeconds(value)
	if err != nil {
		return fieldResult{value: value, coerced: false}
	}
	if seconds == nil {
		return fieldResult{value: nil, coerced: true}
	}
	return fieldResult{value: *seconds, coerced: true}
}

// NormalizeReport summarizes one normalization pass
type NormalizeReport struct {
	Coerced int      `json:"coerced"`
	Skipped []string `json:"skipped,omitempty"` // paths left as original
}

// NormalizeTimeFields returns a copy of node where every value stored under a
// time-like key has been coerced to whole seconds. Values that cannot be
// coerced are kept as they are. The input is never modified.
func NormalizeTimeFields(node interface{}) interface{} {
	out, _ := NormalizeTimeFieldsReport(node)
	return out
}

// NormalizeTimeFieldsReport is NormalizeTimeFields that also reports which
// fields were coerced and which were left untouched.
func NormalizeTimeFieldsReport(node interface{}) (interface{}, NormalizeReport) {
	var report NormalizeReport
	out := normalizeNode(node, "", &report)
	sort.Strings(report.Skipped)
	return out, report
}

func normalizeNode(node interface{}, path string, report *NormalizeReport) interface{} {
	switch n := node.(type) {
	case []interface{}:
		out := make([]interface{}, len(n))
		for i, item := range n {
			out[i] = normalizeNode(item, indexPath(path, i), report)
		}
		return out
	case []map[string]interface{}:
		out := make([]interface{}, len(n))
		for i, item := range n {
			out[i] = normalizeNode(item, indexPath(path, i), report)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(n))
		for key, value := range n {
			out[key] = normalizeField(key, value, keyPath(path, key), report)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[interface{}]interface{}, len(n))
		for key, value := range n {
			name, isString := key.(string)
			if !isString {
				out[key] = normalizeNode(value, keyPath(path, fmt.Sprint(key)), report)
				continue
			}
			out[key] = normalizeField(name, value, keyPath(path, name), report)
		}
		return out
	default:
		return node
	}
}

func normalizeField(key string, value interface{}, path string, report *NormalizeReport) interface{} {
	normalized := normalizeNode(value, path, report)
	if !IsTimeKey(key) {
		return normalized
	}
	result := coerceField(normalized)
	if result.coerced {
		report.Coerced++
	} else {
		report.Skipped = append(report.Skipped, path)
	}
	return result.value
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return parent + "[" + strconv.Itoa(i) + "]"
}
