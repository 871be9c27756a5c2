package model

import (
    "fmt"
    "time"
)

// Date is a calendar date without a time component.  It is stored and
// exchanged in the canonical "YYYY-MM-DD" form, which compares
// lexicographically in the same order as chronologically.  All dates are
// interpreted in the service's local calendar; no timezone conversion is
// performed anywhere in the engine.
type Date string

// dateLayout is the canonical wire and storage form for Date values.
const dateLayout = "2006-01-02"

// ParseDate validates s against the canonical layout and returns it as a
// Date.  Inputs such as "2025-6-1" or "01/06/2025" are rejected.
func ParseDate(s string) (Date, error) {
    t, err := time.Parse(dateLayout, s)
    if err != nil {
        return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
    }
    // Round-trip to reject inputs time.Parse normalises (e.g. 2025-02-30).
    if t.Format(dateLayout) != s {
        return "", fmt.Errorf("invalid date %q", s)
    }
    return Date(s), nil
}

// Time converts the date to a time.Time at midnight.  The zero Date
// converts to the zero time.Time.
func (d Date) Time() time.Time {
    t, _ := time.Parse(dateLayout, string(d))
    return t
}

// Weekday returns the engine's day-of-week for the date.
func (d Date) Weekday() DayOfWeek {
    return dayOfWeekFrom(d.Time().Weekday())
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d < other }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d > other }

// String returns the canonical form.
func (d Date) String() string { return string(d) }

// ClockTime is a wall-clock time of day in the canonical "HH:MM" 24-hour
// form.  Like Date, the canonical form compares lexicographically in
// chronological order, so interval math is plain string comparison.
type ClockTime string

// clockLayout is the canonical form for ClockTime values.
const clockLayout = "15:04"

// ParseClockTime validates s against the canonical layout and returns it
// as a ClockTime.  Seconds are not carried; "10:00:00" is rejected.
func ParseClockTime(s string) (ClockTime, error) {
    t, err := time.Parse(clockLayout, s)
    if err != nil {
        return "", fmt.Errorf("invalid time %q: want HH:MM", s)
    }
    if t.Format(clockLayout) != s {
        return "", fmt.Errorf("invalid time %q", s)
    }
    return ClockTime(s), nil
}

// Before reports whether t is strictly earlier in the day than other.
func (t ClockTime) Before(other ClockTime) bool { return t < other }

// String returns the canonical form.
func (t ClockTime) String() string { return string(t) }

// DayOfWeek enumerates the seven weekdays with Monday first, matching the
// fixed weekday-name mapping used by schedule windows.
type DayOfWeek int

const (
    Monday DayOfWeek = iota
    Tuesday
    Wednesday
    Thursday
    Friday
    Saturday
    Sunday
)

// dayNames holds display names indexed by DayOfWeek.
var dayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// dayOfWeekFrom converts the standard library's Sunday-first weekday into
// the engine's Monday-first enumeration.
func dayOfWeekFrom(w time.Weekday) DayOfWeek {
    return DayOfWeek((int(w) + 6) % 7)
}

// Valid reports whether d is one of the seven defined values.
func (d DayOfWeek) Valid() bool { return d >= Monday && d <= Sunday }

// String returns the lowercase English day name, or "invalid" for
// out-of-range values.
func (d DayOfWeek) String() string {
    if !d.Valid() {
        return "invalid"
    }
    return dayNames[d]
}
