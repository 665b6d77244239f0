// Package timeutil holds the textual time formats used at the UI and wire
// boundaries and the arithmetic for recombining edited date/time components.
package timeutil

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	// DateLayout is the calendar-date input format.
	DateLayout = "2006-01-02"
	// ClockLayout is the 24-hour clock input format.
	ClockLayout = "15:04:05"
	// WireLayout is the timestamp format exchanged with the remote store.
	WireLayout = time.RFC3339
)

// FormatClockDuration renders d as [-]H:MM:SS. Hours are not zero-padded and
// may exceed 24.
func FormatClockDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	total := int64(d.Seconds())
	return fmt.Sprintf("%s%d:%02d:%02d", sign, total/3600, total/60%60, total%60)
}

// ParseClockDuration parses [-]H:MM:SS into a duration. Minutes and seconds
// must be below 60; a leading '-' yields a negative duration.
func ParseClockDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parse duration %q: want H:MM:SS", s)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("parse duration %q: bad hours", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("parse duration %q: bad minutes", s)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("parse duration %q: bad seconds", s)
	}
	d := time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if negative {
		d = -d
	}
	return d, nil
}

// FormatDecimalHours renders d as decimal hours with one fractional digit,
// e.g. 20.5 for 20h30m.
func FormatDecimalHours(d time.Duration) string {
	return fmt.Sprintf("%.1f", float64(d.Minutes())/60)
}

// ParseDecimalHours parses a decimal-hours string ("H.H") into a duration,
// truncated to whole seconds.
func ParseDecimalHours(s string) (time.Duration, error) {
	hours, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parse hours %q: %w", s, err)
	}
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return 0, fmt.Errorf("parse hours %q: not a finite number", s)
	}
	return time.Duration(int64(hours*3600)) * time.Second, nil
}

// CombineDate keeps t's clock time and replaces its calendar date with the
// parsed dateText.
func CombineDate(t time.Time, dateText string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(dateText))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", dateText, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location()), nil
}

// CombineClock keeps t's calendar date and replaces its clock time with the
// parsed clockText.
func CombineClock(t time.Time, clockText string) (time.Time, error) {
	c, err := time.Parse(ClockLayout, strings.TrimSpace(clockText))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", clockText, err)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), c.Hour(), c.Minute(), c.Second(), 0, t.Location()), nil
}

// ParseWire parses a server-sourced RFC3339 timestamp into local time.
func ParseWire(s string) (time.Time, error) {
	t, err := time.Parse(WireLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.Local(), nil
}

// FormatWire renders a local timestamp for the remote store.
func FormatWire(t time.Time) string {
	return t.Format(WireLayout)
}
