// Package timefmt converts between the spoken date/time values the assistant
// collects ("2026-03-14" + "2:00 PM") and absolute instants, and renders
// instants back into 12-hour wall-clock strings in the business time zone.
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDateTime interprets date (YYYY-MM-DD) plus a time of day in loc and
// returns the instant in UTC. The time of day may be 12-hour ("2:00 PM",
// "2 PM") or 24-hour ("14:00"). Minutes default to 0; "12 AM" is midnight,
// "12 PM" is noon.
func ParseDateTime(date, timeOfDay string, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	hour, minute, err := parseClock(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc).UTC(), nil
}

func parseClock(s string) (hour, minute int, err error) {
	raw := strings.ToUpper(strings.TrimSpace(s))
	if raw == "" {
		return 0, 0, fmt.Errorf("parse time: empty value")
	}

	meridiem := ""
	for _, m := range []string{"AM", "PM"} {
		if strings.HasSuffix(raw, m) {
			meridiem = m
			raw = strings.TrimSpace(strings.TrimSuffix(raw, m))
			break
		}
	}

	hh, mm, _ := strings.Cut(raw, ":")
	hour, err = strconv.Atoi(strings.TrimSpace(hh))
	if err != nil {
		return 0, 0, fmt.Errorf("parse time %q: %w", s, err)
	}
	if mm != "" {
		minute, err = strconv.Atoi(strings.TrimSpace(mm))
		if err != nil {
			return 0, 0, fmt.Errorf("parse time %q: %w", s, err)
		}
	}

	switch meridiem {
	case "AM":
		if hour == 12 {
			hour = 0
		}
	case "PM":
		if hour != 12 {
			hour += 12
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("parse time %q: out of range", s)
	}
	return hour, minute, nil
}

// FormatSlots renders each instant as a 12-hour clock string in loc,
// preserving order. Empty input yields an empty (non-nil) slice.
func FormatSlots(slots []time.Time, loc *time.Location) []string {
	out := make([]string, 0, len(slots))
	for _, t := range slots {
		out = append(out, FormatClock(t, loc))
	}
	return out
}

func FormatClock(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("3:04 PM")
}

func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("Monday, 2 January 2006")
}
