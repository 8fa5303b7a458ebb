package engagement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
)

func TestStreak_FirstActivity(t *testing.T) {
	p := &domain.PlayerProfile{}
	assert.True(t, engagement.AdvanceStreak(p, "2025-07-01"))
	assert.Equal(t, 1, p.StreakCount)
	assert.Equal(t, 1, p.LongestStreak)
	assert.Equal(t, "2025-07-01", p.LastActiveDate)
}

func TestStreak_ConsecutiveDays(t *testing.T) {
	p := &domain.PlayerProfile{}
	for _, d := range []string{"2025-07-30", "2025-07-31", "2025-08-01", "2025-08-02", "2025-08-03"} {
		engagement.AdvanceStreak(p, d)
	}
	assert.Equal(t, 5, p.StreakCount)
	assert.Equal(t, 5, p.LongestStreak)
}

func TestStreak_SameDayNoop(t *testing.T) {
	p := &domain.PlayerProfile{}
	engagement.AdvanceStreak(p, "2025-07-01")
	assert.False(t, engagement.AdvanceStreak(p, "2025-07-01"))
	assert.Equal(t, 1, p.StreakCount)
}

func TestStreak_GapResets(t *testing.T) {
	p := &domain.PlayerProfile{}
	engagement.AdvanceStreak(p, "2025-07-01")
	engagement.AdvanceStreak(p, "2025-07-02")
	engagement.AdvanceStreak(p, "2025-07-03")
	engagement.AdvanceStreak(p, "2025-07-05")

	assert.Equal(t, 1, p.StreakCount)
	assert.Equal(t, 3, p.LongestStreak, "longest streak is kept")
}

func TestStreak_EarlierDateIgnored(t *testing.T) {
	p := &domain.PlayerProfile{StreakCount: 4, LongestStreak: 4, LastActiveDate: "2025-07-10"}
	assert.False(t, engagement.AdvanceStreak(p, "2025-07-08"))
	assert.Equal(t, 4, p.StreakCount)
	assert.Equal(t, "2025-07-10", p.LastActiveDate)
}

func TestLiveStreak(t *testing.T) {
	p := domain.PlayerProfile{StreakCount: 4, LastActiveDate: "2025-07-10"}
	assert.Equal(t, 4, engagement.LiveStreak(p, "2025-07-10"))
	assert.Equal(t, 4, engagement.LiveStreak(p, "2025-07-11"))
	assert.Equal(t, 0, engagement.LiveStreak(p, "2025-07-12"))
	assert.Equal(t, 0, engagement.LiveStreak(domain.PlayerProfile{}, "2025-07-12"))
}

func TestRebuildStreak(t *testing.T) {
	tests := []struct {
		name            string
		dates           []string
		last            string
		streak, longest int
	}{
		{"empty", nil, "", 0, 0},
		{"single day", []string{"2025-07-10"}, "2025-07-10", 1, 1},
		{"current run", []string{"2025-07-10", "2025-07-09", "2025-07-08"}, "2025-07-10", 3, 3},
		{"older run is longer", []string{"2025-07-10", "2025-07-09", "2025-07-05", "2025-07-04", "2025-07-03"}, "2025-07-10", 2, 3},
		{"gap before latest", []string{"2025-07-10", "2025-07-08", "2025-07-07"}, "2025-07-10", 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &domain.PlayerProfile{StreakCount: 9, LongestStreak: 9, LastActiveDate: "2025-07-11"}
			engagement.RebuildStreak(p, tt.dates)
			assert.Equal(t, tt.last, p.LastActiveDate)
			assert.Equal(t, tt.streak, p.StreakCount)
			assert.Equal(t, tt.longest, p.LongestStreak)
		})
	}
}
