package engagement

import "github.com/clickquest/clickquest/internal/domain"

// AdvanceStreak records activity on date (YYYY-MM-DD) against the profile's
// streak and reports whether the streak changed.
// Same day: no-op. Next day: extend. Any gap: reset to 1.
// A date earlier than the last active date is ignored.
func AdvanceStreak(p *domain.PlayerProfile, date string) bool {
	if p.LastActiveDate == date {
		return false
	}

	if p.LastActiveDate == "" {
		// First activity ever
		p.StreakCount = 1
	} else {
		gap, ok := daysBetweenKeys(p.LastActiveDate, date)
		switch {
		case !ok:
			p.StreakCount = 1
		case gap < 0:
			return false
		case gap == 1:
			p.StreakCount++
		default:
			// Streak breaks silently
			p.StreakCount = 1
		}
	}

	p.LastActiveDate = date
	if p.StreakCount > p.LongestStreak {
		p.LongestStreak = p.StreakCount
	}
	return true
}

// LiveStreak returns the streak as seen on date: a streak whose last active
// day is before yesterday has already lapsed and reads as 0.
func LiveStreak(p domain.PlayerProfile, date string) int {
	if p.LastActiveDate == "" {
		return 0
	}
	gap, ok := daysBetweenKeys(p.LastActiveDate, date)
	if !ok || gap > 1 {
		return 0
	}
	return p.StreakCount
}

// RebuildStreak recomputes the profile's streak fields from its active
// dates, newest first. Used when an unclick empties a day.
func RebuildStreak(p *domain.PlayerProfile, activeDates []string) {
	p.LastActiveDate, p.StreakCount, p.LongestStreak = "", 0, 0
	if len(activeDates) == 0 {
		return
	}
	p.LastActiveDate = activeDates[0]

	run, current := 1, 0
	for i := 1; i <= len(activeDates); i++ {
		if i < len(activeDates) {
			if gap, ok := daysBetweenKeys(activeDates[i], activeDates[i-1]); ok && gap == 1 {
				run++
				continue
			}
		}
		if current == 0 {
			current = run
		}
		if run > p.LongestStreak {
			p.LongestStreak = run
		}
		run = 1
	}
	p.StreakCount = current
}
