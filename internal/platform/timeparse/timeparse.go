package timeparse

import (
	"fmt"
	"strings"
	"time"
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Parse accepts an absolute timestamp, a clock time for today
// ("07:30"), or an offset from now ("-90m", "2h30m ago").
func Parse(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("time is required")
	}
	if value == "now" {
		return now, nil
	}
	loc := now.Location()
	for _, layout := range absoluteLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.ParseInLocation("15:04", value, loc); err == nil {
		y, m, d := now.Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	offset := strings.TrimSpace(strings.TrimSuffix(value, "ago"))
	if d, err := time.ParseDuration(offset); err == nil {
		// bare offsets point into the past; "+" reaches forward
		if d > 0 && !strings.HasPrefix(offset, "+") {
			d = -d
		}
		return now.Add(d), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q (use RFC3339, \"2006-01-02 15:04\", \"15:04\" or \"90m ago\")", value)
}

// ParseMonth resolves "2006-01" to the first instant of that month. Empty
// input means the current month.
func ParseMonth(value string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()), nil
	}
	t, err := time.ParseInLocation("2006-01", strings.TrimSpace(value), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("month must look like 2006-01: %w", err)
	}
	return t, nil
}
