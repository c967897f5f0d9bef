package chatexport

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// Timestamp is an export date. Exports carry ISO-8601 strings; older tools
// wrote unix seconds, so numbers are accepted too.
type Timestamp struct {
	Raw   string
	Time  time.Time
	Valid bool
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses the string forms found in exports
func ParseTimestamp(s string) Timestamp {
	ts := Timestamp{Raw: s}
	s = strings.TrimSpace(s)
	if s == "" {
		return ts
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			ts.Valid = true
			return ts
		}
	}
	return ts
}

// UnmarshalJSON accepts strings, numbers and null. Values that are neither
// leave the timestamp invalid rather than failing the whole document.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*ts = ParseTimestamp(s)
		return nil
	}

	var seconds float64
	if err := json.Unmarshal(data, &seconds); err == nil {
		whole, frac := math.Modf(seconds)
		ts.Raw = string(data)
		ts.Time = time.Unix(int64(whole), int64(frac*1e9)).UTC()
		ts.Valid = true
	}
	return nil
}

// MarshalJSON writes the raw value back, or null when absent
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Raw)
}
