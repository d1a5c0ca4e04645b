// Package clock supplies timestamps in a fixed timezone.
package clock

import (
	"fmt"
	"time"

	// Embed the zone database so a fixed zone resolves on hosts without
	// /usr/share/zoneinfo (containers, Windows).
	_ "time/tzdata"
)

// DefaultZone is the zone used when none is configured.
const DefaultZone = "Europe/Warsaw"

// TimestampLayout renders as YYYY-MM-DD HH:MM:SS.
const TimestampLayout = "2006-01-02 15:04:05"

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// Zoned is a Clock that reports wall time in a fixed location.
type Zoned struct {
	loc *time.Location
	now func() time.Time
}

// New returns a Zoned clock for the IANA zone name. An empty name selects
// DefaultZone.
func New(zone string) (*Zoned, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", zone, err)
	}
	return &Zoned{loc: loc, now: time.Now}, nil
}

// Now returns the current time in the clock's location.
func (z *Zoned) Now() time.Time {
	return z.now().In(z.loc)
}

// Location returns the clock's location.
func (z *Zoned) Location() *time.Location {
	return z.loc
}

// Format renders t with TimestampLayout in t's own location.
func Format(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Fixed is a Clock that always reports the same instant. Useful for tests.
type Fixed time.Time

// Now returns the fixed instant.
func (f Fixed) Now() time.Time {
	return time.Time(f)
}
