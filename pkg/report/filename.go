package report

import (
	"regexp"
	"strconv"
	"strings"
)

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SanitizeFilename collapses every run of characters outside [A-Za-z0-9_-]
// into a single underscore and trims underscores from both ends.
func SanitizeFilename(name string) string {
	return strings.Trim(unsafeFilenameChars.ReplaceAllString(name, "_"), "_")
}

// ReportFilename names the JSON export of a match: "<map>_<timestamp>.json".
// An unnamed map becomes "match".
func ReportFilename(mapName string, timestamp int64) string {
	base := SanitizeFilename(mapName)
	if base == "" {
		base = "match"
	}
	return base + "_" + strconv.FormatInt(timestamp, 10) + ".json"
}
