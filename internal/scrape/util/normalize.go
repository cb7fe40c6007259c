package util

import "strings"

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormalizeLocation collapses whitespace (NBSP included) and nothing else;
// repeated parts such as "New York, New York" are real data.
func NormalizeLocation(loc string) string {
	return CleanText(loc)
}

// OrDefault returns the cleaned value, or def when it is blank.
func OrDefault(s, def string) string {
	if s = CleanText(s); s != "" {
		return s
	}
	return def
}
