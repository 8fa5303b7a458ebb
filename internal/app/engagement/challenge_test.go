package engagement_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
)

func TestGenerateDailyChallenge_Templates(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	seen := map[domain.ChallengeType]bool{}
	for i := 0; i < 200; i++ {
		c := engagement.GenerateDailyChallenge("2025-01-15", 4, rng)
		seen[c.Type] = true
		assert.Equal(t, "2025-01-15", c.Date)
		assert.Equal(t, int64(c.TargetValue)*2, c.BonusPoints)
		assert.NotEmpty(t, c.Description)
		assert.NotEmpty(t, c.Reward)

		switch c.Type {
		case domain.ChallengeClicks:
			assert.Equal(t, 20, c.TargetValue)
		case domain.ChallengeStreak:
			assert.Equal(t, 3, c.TargetValue)
		case domain.ChallengeMorning:
			assert.Equal(t, 8, c.TargetValue)
		case domain.ChallengeConsistency:
			assert.Equal(t, 3, c.TargetValue)
		default:
			t.Fatalf("unexpected type %q", c.Type)
		}
	}
	assert.Len(t, seen, 4, "every template is reachable")
}

func TestGenerateDailyChallenge_ScalesWithLevel(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 7))
	for i := 0; i < 100; i++ {
		c := engagement.GenerateDailyChallenge("2025-01-15", 12, rng)
		switch c.Type {
		case domain.ChallengeClicks:
			assert.Equal(t, 60, c.TargetValue)
		case domain.ChallengeStreak:
			assert.Equal(t, 7, c.TargetValue)
		case domain.ChallengeMorning:
			assert.Equal(t, 24, c.TargetValue)
		case domain.ChallengeConsistency:
			assert.Equal(t, 6, c.TargetValue)
		}
	}
	// Level below 1 is treated as 1.
	c := engagement.GenerateDailyChallenge("2025-01-15", 0, nil)
	assert.GreaterOrEqual(t, c.TargetValue, 3)
}

func TestChallengeService_TodayRequiresProfile(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.challenges.Today(context.Background(), "ghost", day(15, 12))
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestChallengeService_TodayIsStable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGoal(t, "p1", "Read")

	first, err := env.challenges.Today(ctx, "p1", day(15, 8))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := env.challenges.Today(ctx, "p1", day(15, 20))
		require.NoError(t, err)
		assert.Equal(t, first.Type, again.Type)
		assert.Equal(t, first.TargetValue, again.TargetValue)
	}

	p, err := env.recorder.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", p.LastChallengeDate)
	assert.False(t, p.DailyChallengeCompleted)
}

func TestChallengeService_TodayConcurrent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createGoal(t, "p1", "Read")

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		types = map[domain.ChallengeType]int{}
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := env.challenges.Today(ctx, "p1", day(15, 12))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			types[c.Type]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, types, 1, "racing callers observe one challenge")
	stored, err := env.db.Challenge(ctx, "p1", "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, 16, types[stored.Type])
}

func TestChallengeService_ClicksChallengeCompletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.challenges.ForceTemplate(domain.ChallengeClicks)
	g := env.createGoal(t, "p1", "Read")

	env.click(t, "p1", g.ID, day(15, 12), 9)
	progress, err := env.challenges.Evaluate(ctx, "p1", day(15, 12))
	require.NoError(t, err)
	assert.Equal(t, 9, progress.Progress)
	assert.Equal(t, 10, progress.Challenge.TargetValue)
	assert.False(t, progress.JustCompleted)
	assert.InDelta(t, 90.0, progress.Pct(), 0.001)

	env.click(t, "p1", g.ID, day(15, 13), 1)
	progress, err = env.challenges.Evaluate(ctx, "p1", day(15, 13))
	require.NoError(t, err)
	assert.True(t, progress.JustCompleted)
	assert.True(t, progress.Challenge.Completed)
	assert.Equal(t, g.ID, progress.BonusGoalID)

	got, err := env.recorder.Goal(ctx, "p1", g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10+20), got.LevelPoints)
	assert.Equal(t, int64(10), got.TotalClicks, "bonus points are not clicks")

	// Completion is granted once.
	progress, err = env.challenges.Evaluate(ctx, "p1", day(15, 14))
	require.NoError(t, err)
	assert.False(t, progress.JustCompleted)
	got, err = env.recorder.Goal(ctx, "p1", g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(30), got.LevelPoints)

	p, err := env.recorder.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.DailyChallengesCompleted)
	assert.True(t, p.DailyChallengeCompleted)
}

func TestChallengeService_BonusCanLevelUp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.challenges.ForceTemplate(domain.ChallengeClicks)
	g := env.createGoal(t, "p1", "Read")

	// Profile level 3 at 90 clicks: target 15, bonus 30 takes 90 points to 120.
	env.click(t, "p1", g.ID, day(15, 12), 90)
	progress, err := env.challenges.Evaluate(ctx, "p1", day(15, 12))
	require.NoError(t, err)
	require.True(t, progress.JustCompleted)
	assert.True(t, progress.LeveledUp)
	assert.Equal(t, 2, progress.NewGoalLevel)
}

func TestChallengeService_MorningWindow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.challenges.ForceTemplate(domain.ChallengeMorning)
	g := env.createGoal(t, "p1", "Read")

	env.click(t, "p1", g.ID, day(15, 8), 4)
	env.click(t, "p1", g.ID, day(15, 11), 3)
	progress, err := env.challenges.Evaluate(ctx, "p1", day(15, 11))
	require.NoError(t, err)
	assert.Equal(t, 5, progress.Challenge.TargetValue)
	assert.Equal(t, 4, progress.Progress, "clicks after the cutoff do not count")
	assert.False(t, progress.JustCompleted)
}

func TestChallengeService_ConsistencyAndStreak(t *testing.T) {
	for _, typ := range []domain.ChallengeType{domain.ChallengeConsistency, domain.ChallengeStreak} {
		t.Run(string(typ), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			env.challenges.ForceTemplate(typ)
			g := env.createGoal(t, "p1", "Read")

			env.click(t, "p1", g.ID, day(13, 12), 1)
			env.click(t, "p1", g.ID, day(14, 12), 1)
			env.click(t, "p1", g.ID, day(15, 12), 1)

			progress, err := env.challenges.Evaluate(ctx, "p1", day(15, 12))
			require.NoError(t, err)
			assert.Equal(t, 3, progress.Challenge.TargetValue)
			assert.Equal(t, 3, progress.Progress)
			assert.True(t, progress.JustCompleted)
		})
	}
}

func TestChallengeService_NewDayResetsFlag(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.challenges.ForceTemplate(domain.ChallengeClicks)
	g := env.createGoal(t, "p1", "Read")

	env.click(t, "p1", g.ID, day(15, 12), 10)
	_, err := env.challenges.Evaluate(ctx, "p1", day(15, 12))
	require.NoError(t, err)

	c, err := env.challenges.Today(ctx, "p1", day(16, 9))
	require.NoError(t, err)
	assert.Equal(t, "2025-01-16", c.Date)
	assert.False(t, c.Completed)

	p, err := env.recorder.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-16", p.LastChallengeDate)
	assert.False(t, p.DailyChallengeCompleted)
	assert.Equal(t, 1, p.DailyChallengesCompleted)
}
