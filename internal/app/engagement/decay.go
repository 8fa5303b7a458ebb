package engagement

import (
	"math"
	"time"

	"github.com/clickquest/clickquest/internal/domain"
)

// DecayPolicy sets how fast inactive goals lose points.
type DecayPolicy struct {
	GraceWeeks   int   // inactive weeks before decay starts
	PointsPerDay int64 // points lost per inactive day after the grace period
}

// DefaultDecayPolicy is one week of grace, then 50 points a day.
func DefaultDecayPolicy() DecayPolicy {
	return DecayPolicy{GraceWeeks: 1, PointsPerDay: 50}
}

// GraceDays returns the grace period in days.
func (p DecayPolicy) GraceDays() int {
	return p.GraceWeeks * 7
}

// CalculateDecay applies the default policy. See DecayPolicy.Calculate.
func CalculateDecay(lastActivity *time.Time, currentPoints int64, weeklyAverage, dailyAverage float64, now time.Time) domain.DecayResult {
	return DefaultDecayPolicy().Calculate(lastActivity, currentPoints, weeklyAverage, dailyAverage, now)
}

// Calculate returns the points a goal keeps after inactivity.
//
// Days since activity are counted on calendar dates in now's location. No
// decay accrues while that count is within the grace period, and a nil
// lastActivity never decays. The averages are informational only; decay is
// a function of time and points alone. Points never go below zero.
func (p DecayPolicy) Calculate(lastActivity *time.Time, currentPoints int64, weeklyAverage, dailyAverage float64, now time.Time) domain.DecayResult {
	if currentPoints < 0 {
		currentPoints = 0
	}
	if lastActivity == nil {
		return domain.DecayResult{NewPoints: currentPoints}
	}
	return p.charge(currentPoints, calendarDays(*lastActivity, now)-p.GraceDays())
}

// Uncharged returns the decay accrued between the later of the grace
// period's end and chargedThrough, and now. A zero chargedThrough means no
// day has been charged since lastActivity.
func (p DecayPolicy) Uncharged(lastActivity, chargedThrough time.Time, currentPoints int64, now time.Time) domain.DecayResult {
	if currentPoints < 0 {
		currentPoints = 0
	}
	from := lastActivity.AddDate(0, 0, p.GraceDays())
	if chargedThrough.After(from) {
		from = chargedThrough
	}
	return p.charge(currentPoints, calendarDays(from, now))
}

// charge deducts days of decay from points. PointsLost is the nominal
// charge; NewPoints is floored at zero.
func (p DecayPolicy) charge(points int64, days int) domain.DecayResult {
	if days < 0 {
		days = 0
	}
	pointsLost := int64(days) * p.PointsPerDay
	newPoints := points - pointsLost
	if newPoints < 0 {
		newPoints = 0
	}
	return domain.DecayResult{
		NewPoints:    newPoints,
		DaysInactive: days,
		PointsLost:   pointsLost,
	}
}

// CalculateWeeklyTarget returns the minimum weekly activity for a goal: the
// larger of 30% of the weekly average and 30% of the daily average over a week.
func CalculateWeeklyTarget(weeklyAverage, dailyAverage float64) float64 {
	return math.Max(weeklyAverage*0.3, dailyAverage*0.3*7)
}

// CheckActivityThreshold compares a week's clicks against a weekly target.
// A target of zero or less is trivially met at 100%.
func CheckActivityThreshold(weeklyClicks int64, weeklyTarget float64) domain.ThresholdResult {
	if weeklyTarget <= 0 {
		return domain.ThresholdResult{MetThreshold: true, Percentage: 100}
	}
	return domain.ThresholdResult{
		MetThreshold: float64(weeklyClicks) >= weeklyTarget,
		Percentage:   float64(weeklyClicks) / weeklyTarget * 100,
	}
}
