package engagement

import "github.com/clickquest/clickquest/internal/domain"

// ─── Progression Table ──────────────────────────────────────────────────────
// Requirements are strictly increasing. LevelFromCumulativeClicks relies on it.

// ProgressionLevels is the player-wide level table, lowest level first.
var ProgressionLevels = []domain.ProgressionLevel{
	{Level: 1, Name: "Novice", Title: "First Steps", ClicksRequired: 0, Description: "Every quest starts with a single click."},
	{Level: 2, Name: "Apprentice", Title: "Getting Warm", ClicksRequired: 10, Description: "The habit is taking shape."},
	{Level: 3, Name: "Initiate", Title: "On the Path", ClicksRequired: 50, Description: "Fifty clicks in and still going."},
	{Level: 4, Name: "Adept", Title: "Steady Hand", ClicksRequired: 100, Description: "Triple digits."},
	{Level: 5, Name: "Journeyman", Title: "Road Tested", ClicksRequired: 250, Description: "Progress is becoming routine."},
	{Level: 6, Name: "Expert", Title: "Focused Mind", ClicksRequired: 500, Description: "Half a thousand clicks of focus."},
	{Level: 7, Name: "Veteran", Title: "Battle Worn", ClicksRequired: 1000, Description: "A thousand clicks logged."},
	{Level: 8, Name: "Master", Title: "Craftsperson", ClicksRequired: 2500, Description: "Consistency turned into skill."},
	{Level: 9, Name: "Grandmaster", Title: "Unshakable", ClicksRequired: 5000, Description: "Few make it this far."},
	{Level: 10, Name: "Champion", Title: "Relentless", ClicksRequired: 10000, Description: "Ten thousand clicks."},
	{Level: 11, Name: "Legend", Title: "Storied", ClicksRequired: 25000, Description: "Your streaks are told as stories."},
	{Level: 12, Name: "Mythic", Title: "Beyond Measure", ClicksRequired: 50000, Description: "The top of the table."},
}

// MaxLevel is the highest profile level.
var MaxLevel = ProgressionLevels[len(ProgressionLevels)-1].Level

// ProgressionLevel returns the table row for level, clamped to the table.
func ProgressionLevel(level int) domain.ProgressionLevel {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return ProgressionLevels[level-1]
}

// ─── Skins ──────────────────────────────────────────────────────────────────

// DefaultSkin is unlocked for every new profile.
const DefaultSkin = "classic"

// Skins lists cosmetic skins by unlock level.
var Skins = []domain.Skin{
	{ID: DefaultSkin, Name: "Classic", Description: "The original button.", UnlockLevel: 1, Color: "#4F46E5"},
	{ID: "ocean", Name: "Ocean", Description: "Calm blue waves.", UnlockLevel: 3, Color: "#0EA5E9"},
	{ID: "forest", Name: "Forest", Description: "Deep green growth.", UnlockLevel: 5, Color: "#16A34A"},
	{ID: "sunset", Name: "Sunset", Description: "Warm evening glow.", UnlockLevel: 7, Color: "#F97316"},
	{ID: "neon", Name: "Neon", Description: "Bright city lights.", UnlockLevel: 9, Color: "#D946EF"},
	{ID: "galaxy", Name: "Galaxy", Description: "Stars in every click.", UnlockLevel: 11, Color: "#1E1B4B"},
	{ID: "golden", Name: "Golden", Description: "Reserved for the mythic.", UnlockLevel: 12, Color: "#EAB308"},
}

// unlockSkins adds every skin the profile's level qualifies for and returns
// the IDs that were newly added. Skins are never removed.
func unlockSkins(p *domain.PlayerProfile) []string {
	var added []string
	for _, s := range Skins {
		if p.CurrentLevel >= s.UnlockLevel && !p.HasSkin(s.ID) {
			p.UnlockedSkins = append(p.UnlockedSkins, s.ID)
			added = append(added, s.ID)
		}
	}
	return added
}

// ─── Achievement Catalog ────────────────────────────────────────────────────
// Ordered by category: click count, streak, daily volume, time of day,
// challenge count.

// AllAchievements returns the full achievement catalog.
func AllAchievements() []domain.AchievementDef {
	return []domain.AchievementDef{
		// ── Click count ────────────────────────────────────────────────
		{
			Key: "firstClick", Name: "First Click", Description: "Log your first click.",
			Icon: "👆", Category: domain.CatClickCount,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TotalClicks >= 1 },
		},
		{
			Key: "hundred", Name: "Centurion", Description: "Reach 100 total clicks.",
			Icon: "💯", Category: domain.CatClickCount,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TotalClicks >= 100 },
		},
		{
			Key: "thousand", Name: "Thousandaire", Description: "Reach 1,000 total clicks.",
			Icon: "🏅", Category: domain.CatClickCount,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TotalClicks >= 1000 },
		},
		{
			Key: "tenThousand", Name: "Click Machine", Description: "Reach 10,000 total clicks.",
			Icon: "🏆", Category: domain.CatClickCount,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TotalClicks >= 10000 },
		},

		// ── Streak ─────────────────────────────────────────────────────
		{
			Key: "streak3", Name: "Warming Up", Description: "Be active 3 days in a row.",
			Icon: "🔥", Category: domain.CatStreak,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.StreakCount >= 3 },
		},
		{
			Key: "streak7", Name: "Week Warrior", Description: "Be active 7 days in a row.",
			Icon: "📅", Category: domain.CatStreak,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.StreakCount >= 7 },
		},
		{
			Key: "streak30", Name: "Monthly Machine", Description: "Be active 30 days in a row.",
			Icon: "💪", Category: domain.CatStreak,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.StreakCount >= 30 },
		},

		// ── Daily volume ───────────────────────────────────────────────
		{
			Key: "speedster", Name: "Speedster", Description: "Log 100 clicks in one day.",
			Icon: "⚡", Category: domain.CatDailyVolume,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TodayClicks >= 100 },
		},
		{
			Key: "marathon", Name: "Marathon", Description: "Log 500 clicks in one day.",
			Icon: "🏃", Category: domain.CatDailyVolume,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.TodayClicks >= 500 },
		},

		// ── Time of day ────────────────────────────────────────────────
		{
			Key: "earlyBird", Name: "Early Bird", Description: "Click before 6 AM.",
			Icon: "🌅", Category: domain.CatTimeOfDay,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.IsEarlyMorning },
		},
		{
			Key: "nightOwl", Name: "Night Owl", Description: "Click after 10 PM.",
			Icon: "🦉", Category: domain.CatTimeOfDay,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.IsLateNight },
		},

		// ── Challenge count ────────────────────────────────────────────
		{
			Key: "dailyChamp", Name: "Daily Champion", Description: "Complete 10 daily challenges.",
			Icon: "🎯", Category: domain.CatChallengeCount,
			Predicate: func(s domain.AchievementSnapshot) bool { return s.DailyChallengesCompleted >= 10 },
		},
	}
}
