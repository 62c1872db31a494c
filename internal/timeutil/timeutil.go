// ABOUTME: Time utility functions for add-time windows and relative ages
// ABOUTME: Turns period names like today or 7d into query bounds for listing entries

package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// StartOfDay returns midnight (00:00:00) of the day containing now, in now's location
func StartOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// StartOfWeek returns midnight of the most recent Sunday
// Note: Week starts on Sunday
func StartOfWeek(now time.Time) time.Time {
	today := StartOfDay(now)
	return today.AddDate(0, 0, -int(today.Weekday()))
}

// StartOfMonth returns midnight of the first day of now's month
func StartOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// Window is an add-time range. A nil bound is open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// ParsePeriod converts a period name into an add-time window relative to now.
// Supported values: "today", "yesterday", "week", "month", and a count of
// days or any Go duration ("7d", "36h") meaning "within the last ...".
func ParsePeriod(period string, now time.Time) (Window, error) {
	period = strings.TrimSpace(strings.ToLower(period))
	switch period {
	case "today":
		from := StartOfDay(now)
		return Window{From: &from}, nil
	case "yesterday":
		to := StartOfDay(now)
		from := to.AddDate(0, 0, -1)
		// Bounds are inclusive, so stop just before midnight.
		end := to.Add(-time.Millisecond)
		return Window{From: &from, To: &end}, nil
	case "week":
		from := StartOfWeek(now)
		return Window{From: &from}, nil
	case "month":
		from := StartOfMonth(now)
		return Window{From: &from}, nil
	case "":
		return Window{}, fmt.Errorf("empty period")
	}

	d, err := parseSpan(period)
	if err != nil {
		return Window{}, fmt.Errorf("unknown period %q: use today, yesterday, week, month, Nd or a duration", period)
	}
	from := now.Add(-d)
	return Window{From: &from}, nil
}

func parseSpan(s string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("span must be positive")
	}
	return d, nil
}

// ParseCutoff resolves a period, span, ISO date (YYYY-MM-DD) or RFC3339
// timestamp to a single point in time: the start of the period's window.
func ParseCutoff(s string, now time.Time) (time.Time, error) {
	if w, err := ParsePeriod(s, now); err == nil && w.From != nil {
		return *w.From, nil
	}
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation("2006-01-02", s, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse %q: use today, yesterday, week, month, 7d, or YYYY-MM-DD", s)
}

// Ago renders t relative to now, e.g. "3 days ago".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
