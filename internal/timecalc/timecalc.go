package timecalc

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

// elapsedPattern matches hh:mm:ss with optional centiseconds. The stopwatch
// display separates centiseconds with ':' while stored values use '.'.
var elapsedPattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})(?:[.:](\d{2}))?$`)

// maxHours keeps a parsed elapsed time inside time.Duration.
const maxHours = int64(math.MaxInt64/int64(time.Hour)) - 1

var timeOfDayPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2}):(\d{2})$`)

// Unset is the sort key of a missing or unreadable time. It orders after
// every real time.
const Unset int64 = math.MaxInt64

// FormatElapsed renders d as hh:mm:ss.cc. Centiseconds are truncated.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d / (10 * time.Millisecond))
	h := cs / 360000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	c := cs % 100
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, s, c)
}

// ParseElapsed parses hh:mm:ss.cc (or hh:mm:ss:cc, or hh:mm:ss) into a duration.
func ParseElapsed(s string) (time.Duration, error) {
	m := elapsedPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time %q: want hh:mm:ss.cc", s)
	}
	h, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || h > maxHours {
		return 0, fmt.Errorf("invalid time %q: hours out of range", s)
	}
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if min > 59 || sec > 59 {
		return 0, fmt.Errorf("invalid time %q: minutes and seconds must be below 60", s)
	}
	cs := 0
	if m[4] != "" {
		cs, _ = strconv.Atoi(m[4])
	}
	return time.Duration(h)*time.Hour +
		time.Duration(min)*time.Minute +
		time.Duration(sec)*time.Second +
		time.Duration(cs)*10*time.Millisecond, nil
}

// SortKey converts a stored time into milliseconds since midnight.
// nil, empty and unparsable values return Unset.
func SortKey(s *string) int64 {
	if s == nil || *s == "" {
		return Unset
	}
	d, err := ParseElapsed(*s)
	if err != nil {
		return Unset
	}
	return d.Milliseconds()
}

// ParseTimeOfDay parses the HH:MM:SS returned by the time server into an
// offset since midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	m := timeOfDayPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid time of day %q: want HH:MM:SS", s)
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	if h > 23 || min > 59 || sec > 59 {
		return 0, fmt.Errorf("invalid time of day %q: out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(min)*time.Minute + time.Duration(sec)*time.Second, nil
}

// OffsetOfDay returns how far t is past its own midnight.
func OffsetOfDay(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(t.Nanosecond())
}

// FormatTimeOfDay renders an offset since midnight as HH:MM:SS, wrapping
// past 24h.
func FormatTimeOfDay(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d/time.Second) % 86400
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, (secs/60)%60, secs%60)
}

// FormatDuration formats seconds as a human-readable string like "1h 40m" or "45m" or "30s".
func FormatDuration(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}
