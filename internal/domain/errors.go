package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure: no infrastructure dependency.

var (
	// Lookup errors
	ErrGoalNotFound      = errors.New("goal not found")
	ErrProfileNotFound   = errors.New("player profile not found")
	ErrChallengeNotFound = errors.New("daily challenge not found")

	// Input errors
	ErrInvalidDelta  = errors.New("activity delta must be +1 or -1")
	ErrInvalidGoal   = errors.New("invalid goal")
	ErrInvalidPlayer = errors.New("player id is required")

	// Persistence errors
	ErrActivityNotRecorded = errors.New("activity not recorded")
)

// IsNotFound reports whether err is any of the lookup errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGoalNotFound) ||
		errors.Is(err, ErrProfileNotFound) ||
		errors.Is(err, ErrChallengeNotFound)
}
