package booking

import (
	"strings"
	"time"
	_ "time/tzdata"
)

// loadLocation resolves an IANA zone name; empty means UTC.
func loadLocation(field, name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, invalid(field, "unknown timezone "+name)
	}
	return loc, nil
}

const localLayoutSeconds = "2006-01-02T15:04:05"
const localLayoutMinutes = "2006-01-02T15:04"

// parseStartTime accepts RFC 3339 with an offset, or a local date-time read in loc.
func parseStartTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range []string{localLayoutSeconds, localLayoutMinutes} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, invalid("start_time", "must be RFC 3339 or YYYY-MM-DDTHH:MM")
}

// ParseDateBound parses a listing bound: RFC 3339, or a bare date. A bare end date covers the
// whole day.
func ParseDateBound(field, s string, end bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, invalid(field, "must be YYYY-MM-DD or RFC 3339")
	}
	if end {
		d = d.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &d, nil
}
