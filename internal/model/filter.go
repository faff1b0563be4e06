package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeRange is a relative window measured back from the evaluation time.
type TimeRange string

const (
	RangeAll      TimeRange = "all"
	RangeLastHour TimeRange = "1h"
	RangeLastDay  TimeRange = "24h"
	RangeLastWeek TimeRange = "7d"
)

// ParseTimeRange accepts "", "all", "1h", "24h" and "7d".
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(strings.ToLower(strings.TrimSpace(s))) {
	case "", RangeAll:
		return RangeAll, nil
	case RangeLastHour:
		return RangeLastHour, nil
	case RangeLastDay:
		return RangeLastDay, nil
	case RangeLastWeek:
		return RangeLastWeek, nil
	}
	return RangeAll, fmt.Errorf("unknown time range %q (valid: all, 1h, 24h, 7d)", s)
}

// Window returns the length of the range, or 0 for RangeAll.
func (r TimeRange) Window() time.Duration {
	switch r {
	case RangeLastHour:
		return time.Hour
	case RangeLastDay:
		return 24 * time.Hour
	case RangeLastWeek:
		return 7 * 24 * time.Hour
	}
	return 0
}

// FilterSpec narrows a capture log. The zero value matches everything: an
// empty Methods or IPs set means no constraint.
type FilterSpec struct {
	Search    string
	Methods   map[string]struct{}
	IPs       map[string]struct{}
	TimeRange TimeRange
	// DateFrom and DateTo are calendar days; DateTo includes its whole day.
	DateFrom *time.Time
	DateTo   *time.Time
}

// NewSet builds a membership set, skipping blank entries.
func NewSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		set[v] = struct{}{}
	}
	return set
}
