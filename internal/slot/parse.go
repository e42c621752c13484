package slot

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")
	ErrInvalidTime = errors.New("time must be formatted as HH:MM[:SS] with an optional UTC offset")
)

// Date is a calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay is a wall-clock time with an optional fixed UTC offset. A nil Zone
// means the value is naive.
type TimeOfDay struct {
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
	Zone       *time.Location
}

// Tried in order; the first layout that parses wins. Fractional seconds are
// accepted after the seconds field even though no layout spells them out.
var timeLayouts = []struct {
	layout string
	zoned  bool
}{
	{"15:04:05Z07:00", true},
	{"15:04:05Z0700", true},
	{"15:04Z07:00", true},
	{"15:04Z0700", true},
	{"15:04:05", false},
	{"15:04", false},
}

// ParseTimeOfDay parses "HH:MM", "HH:MM:SS" or "HH:MM:SS.ffffff", optionally
// suffixed with "Z", "±HH:MM" or "±HHMM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	for _, l := range timeLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		tod := TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second(), Nanosecond: t.Nanosecond()}
		if l.zoned {
			_, offset := t.Zone()
			tod.Zone = time.FixedZone("", offset)
		}
		return tod, nil
	}
	return TimeOfDay{}, ErrInvalidTime
}

// Naive reports whether t carries no offset.
func (t TimeOfDay) Naive() bool { return t.Zone == nil }

// HourMinute returns "HH:MM" using the numbers as given, ignoring any offset.
func (t TimeOfDay) HourMinute() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// String renders t as HH:MM:SS[.ffffff][±HH:MM]. A zero offset renders as
// "+00:00" rather than "Z".
func (t TimeOfDay) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
	if t.Nanosecond != 0 {
		fmt.Fprintf(&b, ".%06d", t.Nanosecond/1000)
	}
	if t.Zone != nil {
		_, offset := time.Date(2000, 1, 1, 0, 0, 0, 0, t.Zone).Zone()
		sign := '+'
		if offset < 0 {
			sign = '-'
			offset = -offset
		}
		fmt.Fprintf(&b, "%c%02d:%02d", sign, offset/3600, (offset%3600)/60)
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (t TimeOfDay) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *TimeOfDay) UnmarshalText(b []byte) error {
	parsed, err := ParseTimeOfDay(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
