package timeline

import "fmt"

// FormatSeconds renders whole seconds as "M:SS", or "H:MM:SS" from one hour
// up. A nil value renders as the empty string.
func FormatSeconds(seconds *int) string {
	if seconds == nil {
		return ""
	}
	s := *seconds
	if s < 0 {
		s = 0
	}
	hours, rem := s/3600, s%3600
	minutes, secs := rem/60, rem%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
