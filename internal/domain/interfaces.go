package domain

import "time"

// ─── Collaborator Interfaces ────────────────────────────────────────────────

// Clock supplies "now" to the layers that call into the engine. Engine
// operations take the time as a parameter instead of reading a clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and replays.
type FixedClock struct{ T time.Time }

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return c.T }
