package util

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseISOTime accepts ISO-8601 with or without a trailing Z or offset.
// Values without a zone are taken as UTC. Returns nil when unparsable.
func ParseISOTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if strings.HasSuffix(s, "z") {
		s = s[:len(s)-1] + "Z"
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// FromEpochMillis converts a millisecond epoch; non-positive values are unknown.
func FromEpochMillis(ms float64) *time.Time {
	if ms <= 0 || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return nil
	}
	t := time.UnixMilli(int64(ms)).UTC()
	return &t
}

// ParseTimestamp reads a raw JSON value that may be epoch millis (number)
// or an ISO-8601 string. Anything else, including null, is unknown.
func ParseTimestamp(raw json.RawMessage) *time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		return ParseISOTime(s)
	default:
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return nil
		}
		return FromEpochMillis(ms)
	}
}

// FirstTime returns the first non-nil timestamp.
func FirstTime(ts ...*time.Time) *time.Time {
	for _, t := range ts {
		if t != nil {
			return t
		}
	}
	return nil
}
