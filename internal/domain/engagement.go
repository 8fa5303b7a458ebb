// Package domain holds the pure types of the clickquest progression engine.
// Goals earn level points from clicks, players climb a fixed progression
// table, and inactivity decays goal points after a grace period.
package domain

import "time"

// ─── Goals & Counters ───────────────────────────────────────────────────────

// Goal is a player-defined tracked activity with its own points and level.
// CurrentLevel is a cache of LevelFromPoints(LevelPoints) and is rewritten
// in the same update as LevelPoints.
type Goal struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"owner_id"`
	Name         string    `json:"name" validate:"required,max=100"`
	Description  string    `json:"description" validate:"max=500"`
	Category     string    `json:"category" validate:"max=50"`
	IsActive     bool      `json:"is_active"`
	TotalClicks  int64     `json:"total_clicks"`
	CurrentLevel int       `json:"current_level"`
	LevelPoints  int64     `json:"level_points"`
	WeeklyTarget float64   `json:"weekly_target" validate:"gte=0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// DecayChargedThrough is the last date inactivity decay was charged
	// for, "" if never. Days up to it are never charged again.
	DecayChargedThrough string `json:"decay_charged_through"`
}

// OverallScope is the goal ID used for the player-wide daily counter.
const OverallScope = ""

// DailyCounter counts clicks for one (player, goal, date). GoalID is
// OverallScope for the player-wide counter. Clicks never go below zero.
type DailyCounter struct {
	PlayerID string `json:"player_id"`
	GoalID   string `json:"goal_id"`
	Date     string `json:"date"` // YYYY-MM-DD in the engine's location
	Clicks   int64  `json:"clicks"`
}

// ActivityEvent is one entry of the append-only activity log.
type ActivityEvent struct {
	ID         int64     `json:"id"`
	PlayerID   string    `json:"player_id"`
	GoalID     string    `json:"goal_id"`
	Delta      int       `json:"delta"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ─── Player Profile ─────────────────────────────────────────────────────────

// PlayerProfile is the per-player aggregate. Achievements and UnlockedSkins
// have set semantics and only ever grow.
type PlayerProfile struct {
	PlayerID                 string    `json:"player_id"`
	TotalClicks              int64     `json:"total_clicks"`
	CurrentLevel             int       `json:"current_level"`
	CurrentSkin              string    `json:"current_skin"`
	UnlockedSkins            []string  `json:"unlocked_skins"`
	Achievements             []string  `json:"achievements"`
	StreakCount              int       `json:"streak_count"`
	LongestStreak            int       `json:"longest_streak"`
	LastActiveDate           string    `json:"last_active_date"`
	LastChallengeDate        string    `json:"last_challenge_date"`
	DailyChallengeCompleted  bool      `json:"daily_challenge_completed"`
	DailyChallengesCompleted int       `json:"daily_challenges_completed"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

// HasSkin reports whether id is among the unlocked skins.
func (p PlayerProfile) HasSkin(id string) bool {
	for _, s := range p.UnlockedSkins {
		if s == id {
			return true
		}
	}
	return false
}

// ─── Static Tables ──────────────────────────────────────────────────────────

// ProgressionLevel is one row of the player-wide progression table.
type ProgressionLevel struct {
	Level          int    `json:"level"`
	Name           string `json:"name"`
	Title          string `json:"title"`
	ClicksRequired int64  `json:"clicks_required"`
	Description    string `json:"description"`
}

// Skin is a cosmetic unlocked once the profile reaches UnlockLevel.
type Skin struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	UnlockLevel int    `json:"unlock_level"`
	Color       string `json:"color"`
}

// AchievementCategory groups achievement rules. Categories are evaluated in
// declaration order.
type AchievementCategory string

const (
	CatClickCount     AchievementCategory = "click_count"
	CatStreak         AchievementCategory = "streak"
	CatDailyVolume    AchievementCategory = "daily_volume"
	CatTimeOfDay      AchievementCategory = "time_of_day"
	CatChallengeCount AchievementCategory = "challenge_count"
)

// AchievementDef describes a one-time unlock and the rule that grants it.
type AchievementDef struct {
	Key         string                          `json:"key"`
	Name        string                          `json:"name"`
	Description string                          `json:"description"`
	Icon        string                          `json:"icon"`
	Category    AchievementCategory             `json:"category"`
	Predicate   func(AchievementSnapshot) bool `json:"-"`
}

// AchievementSnapshot is the counter snapshot achievement rules read.
// IsEarlyMorning and IsLateNight are supplied by the caller.
type AchievementSnapshot struct {
	TotalClicks              int64 `json:"total_clicks"`
	StreakCount              int   `json:"streak_count"`
	TodayClicks              int64 `json:"today_clicks"`
	IsEarlyMorning           bool  `json:"is_early_morning"`
	IsLateNight              bool  `json:"is_late_night"`
	DailyChallengesCompleted int   `json:"daily_challenges_completed"`
}

// ─── Daily Challenges ───────────────────────────────────────────────────────

// ChallengeType names a daily challenge template.
type ChallengeType string

const (
	ChallengeClicks      ChallengeType = "clicks"
	ChallengeStreak      ChallengeType = "streak"
	ChallengeMorning     ChallengeType = "morning"
	ChallengeConsistency ChallengeType = "consistency"
)

// DailyChallenge is the challenge issued to a player for one date.
type DailyChallenge struct {
	PlayerID    string        `json:"player_id"`
	Date        string        `json:"date"`
	Type        ChallengeType `json:"challenge_type"`
	TargetValue int           `json:"target_value"`
	Description string        `json:"description"`
	Reward      string        `json:"reward"`
	BonusPoints int64         `json:"bonus_points"`
	Completed   bool          `json:"completed"`
	CreatedAt   time.Time     `json:"created_at"`
}

// ChallengeProgress reports how far a player is into today's challenge.
type ChallengeProgress struct {
	Challenge     DailyChallenge `json:"challenge"`
	Progress      int            `json:"progress"`
	JustCompleted bool           `json:"just_completed"`
	BonusGoalID   string         `json:"bonus_goal_id,omitempty"`
	NewGoalLevel  int            `json:"new_goal_level,omitempty"`
	LeveledUp     bool           `json:"leveled_up"`
	Achievements  []string       `json:"achievements,omitempty"`
}

// Pct returns completion percentage capped at 100.
func (c ChallengeProgress) Pct() float64 {
	if c.Challenge.TargetValue <= 0 {
		return 100.0
	}
	pct := float64(c.Progress) / float64(c.Challenge.TargetValue) * 100.0
	if pct > 100.0 {
		pct = 100.0
	}
	return pct
}

// ─── Results ────────────────────────────────────────────────────────────────

// ActivityResult is returned for every click or unclick.
type ActivityResult struct {
	GoalID        string   `json:"goal_id"`
	Date          string   `json:"date"`
	NewGoalClicks int64    `json:"new_goal_clicks"` // goal's clicks for Date
	NewLevel      int      `json:"new_level"`
	PreviousLevel int      `json:"previous_level"`
	LeveledUp     bool     `json:"leveled_up"`
	LeveledDown   bool     `json:"leveled_down"`
	ProfileLevel  int      `json:"profile_level"`
	NewSkins      []string `json:"new_skins,omitempty"`
	Achievements  []string `json:"achievements,omitempty"`
	Success       bool     `json:"success"`
}

// DecayResult is the outcome of one decay calculation.
type DecayResult struct {
	NewPoints    int64 `json:"new_points"`
	DaysInactive int   `json:"days_inactive"`
	PointsLost   int64 `json:"points_lost"`
}

// ThresholdResult reports weekly clicks against a weekly target.
type ThresholdResult struct {
	MetThreshold bool    `json:"met_threshold"`
	Percentage   float64 `json:"percentage"`
}

// DecayReport describes decay applied to one goal by a sweep. The embedded
// DecayResult keeps the nominal charge; PointsRemoved is what the goal
// actually lost after flooring at zero.
type DecayReport struct {
	GoalID        string `json:"goal_id"`
	OwnerID       string `json:"owner_id"`
	DecayResult
	PointsRemoved int64   `json:"points_removed"`
	PreviousLevel int     `json:"previous_level"`
	NewLevel      int     `json:"new_level"`
	LeveledDown   bool    `json:"leveled_down"`
	WeeklyTarget  float64 `json:"weekly_target"`
}

// ThresholdReport is a goal's weekly activity against its target.
type ThresholdReport struct {
	GoalID        string  `json:"goal_id"`
	WeeklyClicks  int64   `json:"weekly_clicks"`
	WeeklyTarget  float64 `json:"weekly_target"`
	WeeklyAverage float64 `json:"weekly_average"`
	DailyAverage  float64 `json:"daily_average"`
	ThresholdResult
	Decay DecayResult `json:"decay_preview"`
}

// UnlockedAchievement records when a player earned an achievement.
type UnlockedAchievement struct {
	Key        string    `json:"key"`
	UnlockedAt time.Time `json:"unlocked_at"`
}
