// Package timeutil parses the timestamp shapes seen in client payloads and
// exported record data. Unparseable values are treated as expired by callers,
// never as open-ended.
package timeutil

import (
	"regexp"
	"strings"
	"time"
)

var compactOffset = regexp.MustCompile(`([+-])(\d{2})(\d{2})$`)

// ParseTimestamp accepts RFC3339 plus the sloppier variants in the wild:
// trailing "Z", trailing ".mmmZ", a compact "+HHMM"/"-HHMM" offset, and a
// space instead of the "T" separator. The result is always UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := compactOffset.FindStringSubmatch(s); m != nil {
		s = s[:len(s)-5] + m[1] + m[2] + ":" + m[3]
	}
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ExpiredString reports whether a raw timestamp is in the past relative to
// now. Missing or unparseable values count as expired (fail closed).
func ExpiredString(raw string, now time.Time) bool {
	t, ok := ParseTimestamp(raw)
	if !ok {
		return true
	}
	return now.After(t)
}

// Expired reports whether a nullable expiry has passed. A nil expiry counts
// as expired (fail closed).
func Expired(t *time.Time, now time.Time) bool {
	if t == nil || t.IsZero() {
		return true
	}
	return now.After(*t)
}
