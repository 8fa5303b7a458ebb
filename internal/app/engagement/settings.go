// Package engagement implements the clickquest progression engine.
// Goal levels from points, profile levels from cumulative clicks, decay on
// inactivity, achievements, daily challenges and streaks.
package engagement

import (
	"time"

	"github.com/clickquest/clickquest/internal/domain"
)

// Settings holds the tunables shared by the engagement services.
type Settings struct {
	Location          *time.Location // calendar used for day boundaries
	Decay             DecayPolicy
	EarlyMorningHour  int // clicks before this hour count as early morning
	LateNightHour     int // clicks at or after this hour count as late night
	MorningCutoffHour int // morning challenge window ends at this hour
}

// DefaultSettings returns the production defaults in the local time zone.
func DefaultSettings() Settings {
	return Settings{
		Location:          time.Local,
		Decay:             DefaultDecayPolicy(),
		EarlyMorningHour:  6,
		LateNightHour:     22,
		MorningCutoffHour: 10,
	}
}

func (s Settings) loc() *time.Location {
	if s.Location == nil {
		return time.Local
	}
	return s.Location
}

// DateKey returns t's calendar date in the settings' location.
func (s Settings) DateKey(t time.Time) string {
	return DateKey(t, s.loc())
}

// IsEarlyMorning reports whether t falls before EarlyMorningHour.
func (s Settings) IsEarlyMorning(t time.Time) bool {
	return t.In(s.loc()).Hour() < s.EarlyMorningHour
}

// IsLateNight reports whether t falls at or after LateNightHour.
func (s Settings) IsLateNight(t time.Time) bool {
	return t.In(s.loc()).Hour() >= s.LateNightHour
}

// snapshot builds the counters achievement rules are evaluated against.
func (s Settings) snapshot(p *domain.PlayerProfile, todayClicks int64, at time.Time) domain.AchievementSnapshot {
	return domain.AchievementSnapshot{
		TotalClicks:              p.TotalClicks,
		StreakCount:              p.StreakCount,
		TodayClicks:              todayClicks,
		IsEarlyMorning:           s.IsEarlyMorning(at),
		IsLateNight:              s.IsLateNight(at),
		DailyChallengesCompleted: p.DailyChallengesCompleted,
	}
}

// ─── Calendar Dates ─────────────────────────────────────────────────────────

const dateLayout = "2006-01-02"

// DateKey formats t as YYYY-MM-DD in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

// ParseDate parses a YYYY-MM-DD key as midnight in loc.
func ParseDate(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dateLayout, key, loc)
}

// addDays shifts a date key by n calendar days.
func addDays(key string, n int) string {
	t, err := time.Parse(dateLayout, key)
	if err != nil {
		return key
	}
	return t.AddDate(0, 0, n).Format(dateLayout)
}

// calendarDays counts date boundaries crossed from from to to, with both
// read as calendar dates in to's location. DST shifts do not skew it.
func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.In(to.Location()).Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// daysBetweenKeys is calendarDays over two date keys.
func daysBetweenKeys(from, to string) (int, bool) {
	a, err := time.Parse(dateLayout, from)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse(dateLayout, to)
	if err != nil {
		return 0, false
	}
	return calendarDays(a, b), true
}
