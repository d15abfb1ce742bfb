package timeline

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FormatError reports a value that cannot be read as elapsed seconds
type FormatError struct {
	Value interface{}
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %#v", ErrUnsupportedTimeFormat, e.Value)
}

func (e *FormatError) Unwrap() error {
	return ErrUnsupportedTimeFormat
}

// CoerceSeconds converts a replay time value into whole elapsed seconds.
// Accepted inputs are numbers, time.Duration, json.Number and strings holding
// seconds, "MM:SS[.fff]" or "H:MM:SS[.fff]". Fractions are truncated. A nil
// value or a blank string yields nil without error.
func CoerceSeconds(value interface{}) (*int, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case int:
		return fromInt(int64(v), value)
	case int8:
		return fromInt(int64(v), value)
	case int16:
		return fromInt(int64(v), value)
	case int32:
		return fromInt(int64(v), value)
	case int64:
		return fromInt(v, value)
	case uint:
		return fromFloat(float64(v), value)
	case uint8:
		return fromInt(int64(v), value)
	case uint16:
		return fromInt(int64(v), value)
	case uint32:
		return fromInt(int64(v), value)
	case uint64:
		return fromFloat(float64(v), value)
	case float32:
		return fromFloat(float64(v), value)
	case float64:
		return fromFloat(v, value)
	case time.Duration:
		return fromInt(int64(v/time.Second), value)
	case json.Number:
		return coerceString(v.String(), value)
	case string:
		return coerceString(v, value)
	}
	return nil, &FormatError{Value: value}
}

func coerceString(s string, original interface{}) (*int, error) {
	stripped := strings.TrimSpace(s)
	if stripped == "" {
		return nil, nil
	}

	if isDecimal(stripped) {
		f, err := strconv.ParseFloat(stripped, 64)
		if err != nil {
			return nil, &FormatError{Value: original}
		}
		return fromFloat(f, original)
	}

	parts := strings.Split(stripped, ":")
	var hours, minutes int64
	var secondsPart string
	switch len(parts) {
	case 2:
		m, err := parseComponent(parts[0])
		if err != nil {
			return nil, &FormatError{Value: original}
		}
		minutes, secondsPart = m, parts[1]
	case 3:
		h, err := parseComponent(parts[0])
		if err != nil {
			return nil, &FormatError{Value: original}
		}
		m, err := parseComponent(parts[1])
		if err != nil {
			return nil, &FormatError{Value: original}
		}
		hours, minutes, secondsPart = h, m, parts[2]
	default:
		return nil, &FormatError{Value: original}
	}

	if !isDecimal(secondsPart) {
		return nil, &FormatError{Value: original}
	}
	seconds, err := strconv.ParseFloat(secondsPart, 64)
	if err != nil {
		return nil, &FormatError{Value: original}
	}

	// float64 keeps huge components out of int64 wraparound; fromFloat rejects them
	return fromFloat(float64(hours)*3600+float64(minutes)*60+seconds, original)
}

// isDecimal accepts digits with at most one decimal point
func isDecimal(s string) bool {
	digits := 0
	dots := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

func parseComponent(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-digit component %q", s)
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

func fromInt(v int64, original interface{}) (*int, error) {
	if v < 0 {
		return nil, &FormatError{Value: original}
	}
	out := int(v)
	return &out, nil
}

func fromFloat(f float64, original interface{}) (*int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 || f >= math.MaxInt64 {
		return nil, &FormatError{Value: original}
	}
	return fromInt(int64(math.Trunc(f)), original)
}
