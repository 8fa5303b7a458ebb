package engagement

// PointsPerLevel is the width of one goal level in points.
const PointsPerLevel int64 = 100

// LevelFromPoints returns the goal level for a point total.
// Negative totals are treated as 0. There is no upper bound.
func LevelFromPoints(points int64) int {
	if points < 0 {
		points = 0
	}
	return int(points/PointsPerLevel) + 1
}

// PointsFromLevel returns the points at which level begins.
func PointsFromLevel(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(level-1) * PointsPerLevel
}

// PointsToNextLevel returns the points still needed to reach the next level.
func PointsToNextLevel(points int64) int64 {
	if points < 0 {
		points = 0
	}
	return PointsFromLevel(LevelFromPoints(points)+1) - points
}

// LevelProgressPct returns progress through the current level (0.0–100.0).
func LevelProgressPct(points int64) float64 {
	if points < 0 {
		points = 0
	}
	into := points - PointsFromLevel(LevelFromPoints(points))
	return float64(into) / float64(PointsPerLevel) * 100.0
}

// LevelFromCumulativeClicks returns the profile level for a lifetime click
// total. The scan stops at the first requirement not met, so the result
// saturates at MaxLevel.
func LevelFromCumulativeClicks(totalClicks int64) int {
	level := 1
	for _, l := range ProgressionLevels {
		if totalClicks < l.ClicksRequired {
			break
		}
		level = l.Level
	}
	return level
}

// ClicksToNextProfileLevel returns the clicks still needed for the next
// profile level, or 0 at MaxLevel.
func ClicksToNextProfileLevel(totalClicks int64) int64 {
	level := LevelFromCumulativeClicks(totalClicks)
	if level >= MaxLevel {
		return 0
	}
	return ProgressionLevel(level+1).ClicksRequired - totalClicks
}
