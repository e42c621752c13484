// Package slot converts a wall-clock booking request into the canonical UTC
// interval used for storage and conflict checks, and decides whether a
// requested start falls inside the restaurant's operating hours.
//
// Nothing in this package performs I/O; every function is deterministic for a
// given Calculator and input.
package slot

import (
	"fmt"
	"time"
)

// Config is the booking policy the Calculator is built from. It is read once at
// startup and never mutated.
type Config struct {
	Timezone         string // IANA name, e.g. "Europe/Moscow"
	SlotHours        int
	WorkdayStartHour int // restaurant-local, 24h
	WorkdayEndHour   int // restaurant-local, 24h
}

// Slot is a half-open [Start, End) interval in UTC.
type Slot struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether s and other intersect under half-open semantics.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && s.End.After(other.Start)
}

// Calculator holds the resolved restaurant timezone and slot policy.
type Calculator struct {
	loc       *time.Location
	slot      time.Duration
	slotHours int
	startHour int
	endHour   int
}

// New resolves the configured timezone and validates the hour window.
func New(cfg Config) (*Calculator, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load restaurant timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.SlotHours <= 0 {
		return nil, fmt.Errorf("slot hours must be positive, got %d", cfg.SlotHours)
	}
	if cfg.WorkdayStartHour < 0 || cfg.WorkdayEndHour > 24 || cfg.WorkdayStartHour >= cfg.WorkdayEndHour {
		return nil, fmt.Errorf("invalid workday window %d..%d", cfg.WorkdayStartHour, cfg.WorkdayEndHour)
	}
	if cfg.WorkdayEndHour-cfg.WorkdayStartHour < cfg.SlotHours {
		return nil, fmt.Errorf("workday window %d..%d is shorter than one %dh slot",
			cfg.WorkdayStartHour, cfg.WorkdayEndHour, cfg.SlotHours)
	}
	return &Calculator{
		loc:       loc,
		slot:      time.Duration(cfg.SlotHours) * time.Hour,
		slotHours: cfg.SlotHours,
		startHour: cfg.WorkdayStartHour,
		endHour:   cfg.WorkdayEndHour,
	}, nil
}


// SlotHours returns the configured slot length in hours.
func (c *Calculator) SlotHours() int { return c.slotHours }

// RestaurantInstant anchors (date, t) and expresses it in restaurant time.
//
// A naive t is taken as restaurant wall-clock time verbatim. An offset-bearing
// t is anchored at its own offset first and then converted, so "13:00+03:00"
// in a UTC restaurant is 10:00 restaurant time, not 13:00.
func (c *Calculator) RestaurantInstant(d Date, t TimeOfDay) time.Time {
	if t.Zone == nil {
		return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, c.loc)
	}
	source := time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, t.Second, t.Nanosecond, t.Zone)
	return source.In(c.loc)
}

// Build returns the UTC slot starting at (date, t). End-Start always equals the
// configured slot length as an absolute duration.
func (c *Calculator) Build(d Date, t TimeOfDay) Slot {
	start := c.RestaurantInstant(d, t)
	end := start.Add(c.slot)
	return Slot{Start: start.UTC(), End: end.UTC()}
}

// CanBook reports whether a slot starting at (date, t) lies inside the working
// day. The window is computed on the restaurant-local calendar date of the
// converted start, which can differ from d when an offset crosses midnight.
// Both ends are inclusive.
func (c *Calculator) CanBook(d Date, t TimeOfDay) bool {
	start := c.RestaurantInstant(d, t)
	year, month, day := start.Date()
	workdayStart := time.Date(year, month, day, c.startHour, 0, 0, 0, c.loc)
	workdayEnd := time.Date(year, month, day, c.endHour, 0, 0, 0, c.loc)
	latestStart := workdayEnd.Add(-c.slot)
	return !start.Before(workdayStart) && !start.After(latestStart)
}

// WindowMessage is the user-facing description of the bookable window.
func (c *Calculator) WindowMessage() string {
	return fmt.Sprintf("Booking is available from %d:00 to %d:00.", c.startHour, c.endHour-c.slotHours)
}
