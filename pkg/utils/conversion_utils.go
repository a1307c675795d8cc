package utils

import (
	"strconv"
	"time"
)

// OptionalInt64 parses s when non-empty. An empty string yields nil without error.
func OptionalInt64(s string) (*int64, error) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DateLayout is the query-string date format accepted by the API (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// OptionalDate parses a YYYY-MM-DD string. endOfDay moves the result to the last
// nanosecond of that day so it can be used as an inclusive upper bound.
func OptionalDate(s string, endOfDay bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &t, nil
}
