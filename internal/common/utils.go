package common

import (
	"fmt"
	"time"
)

// FormatElapsed renders a wall-clock duration as HH:MM:SS. Hours are not
// wrapped, so a run past a day shows e.g. 27:15:09.
func FormatElapsed(d time.Duration) string {
	s := int(d.Seconds())
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, (s%3600)/60, s%60)
}

// Truncate cuts s to at most n runes, never splitting a multibyte
// sequence mid-rune.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
