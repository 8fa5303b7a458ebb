package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickquest/clickquest/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

var testNow = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func seedGoal(t *testing.T, db *DB, owner, id string) domain.Goal {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, db.EnsureProfile(ctx, owner, "default", testNow))
	g := domain.Goal{
		ID: id, OwnerID: owner, Name: "goal " + id, CurrentLevel: 1,
		CreatedAt: testNow, UpdatedAt: testNow,
	}
	require.NoError(t, db.InsertGoal(ctx, g))
	return g
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err, "database file should exist")
}

func TestOpen_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, db.EnsureProfile(context.Background(), "p1", "default", testNow))
	require.NoError(t, db.Close())

	// Migrations already applied; data survives.
	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()
	p, err := db.Profile(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.CurrentLevel)
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, db.Ping())
}

// ─── Goals ──────────────────────────────────────────────────────────────────

func TestGoal_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Goal(context.Background(), "p1", "missing")
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestGoal_ScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	seedGoal(t, db, "p1", "g1")

	_, err := db.Goal(context.Background(), "p2", "g1")
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)
}

func TestSaveGoalProgress(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	g := seedGoal(t, db, "p1", "g1")

	g.TotalClicks = 250
	g.LevelPoints = 250
	g.CurrentLevel = 3
	g.WeeklyTarget = 42.5
	g.DecayChargedThrough = "2025-01-14"
	require.NoError(t, db.SaveGoalProgress(ctx, g, testNow))

	got, err := db.Goal(ctx, "p1", "g1")
	require.NoError(t, err)
	assert.Equal(t, int64(250), got.TotalClicks)
	assert.Equal(t, 3, got.CurrentLevel)
	assert.Equal(t, 42.5, got.WeeklyTarget)
	assert.Equal(t, "2025-01-14", got.DecayChargedThrough)
}

func TestActivateGoal_UniqueIndex(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGoal(t, db, "p1", "g1")
	seedGoal(t, db, "p1", "g2")

	require.NoError(t, db.ActivateGoal(ctx, "p1", "g1", testNow))
	// A second active goal without deactivating first violates the index.
	assert.Error(t, db.ActivateGoal(ctx, "p1", "g2", testNow))

	active, err := db.ActiveGoal(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, "g1", active.ID)
}

func TestActiveGoal_NoneIsNil(t *testing.T) {
	db := newTestDB(t)
	seedGoal(t, db, "p1", "g1")

	active, err := db.ActiveGoal(context.Background(), "p1")
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestInTx_RollbackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGoal(t, db, "p1", "g1")
	require.NoError(t, db.ActivateGoal(ctx, "p1", "g1", testNow))

	err := db.InTx(ctx, func(tx *Tx) error {
		if err := tx.DeactivateGoals(ctx, "p1"); err != nil {
			return err
		}
		return tx.ActivateGoal(ctx, "p1", "nope", testNow)
	})
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	active, err := db.ActiveGoal(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, active, "deactivation must roll back")
	assert.Equal(t, "g1", active.ID)
}

func TestInTx_NonBusyErrorNotRetried(t *testing.T) {
	db := newTestDB(t)
	calls := 0
	boom := errors.New("boom")
	err := db.InTx(context.Background(), func(tx *Tx) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestIsBusy(t *testing.T) {
	assert.True(t, isBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, isBusy(errors.New("constraint failed")))
	assert.False(t, isBusy(context.Canceled))
	assert.False(t, isBusy(nil))
}

func TestOwnersWithMultipleActiveGoals_Empty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	seedGoal(t, db, "p1", "g1")
	require.NoError(t, db.ActivateGoal(ctx, "p1", "g1", testNow))

	owners, err := db.OwnersWithMultipleActiveGoals(ctx)
	require.NoError(t, err)
	assert.Empty(t, owners)
}

// ─── Counters ───────────────────────────────────────────────────────────────

func TestAddClicks_ClampedAtZero(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	n, err := db.AddClicks(ctx, "p1", "g1", "2025-01-15", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = db.AddClicks(ctx, "p1", "g1", "2025-01-15", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = db.AddClicks(ctx, "p1", "g1", "2025-01-15", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = db.AddClicks(ctx, "p1", "g1", "2025-01-15", -1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCounterRanges(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	for _, d := range []string{"2025-01-10", "2025-01-12", "2025-01-12", "2025-01-14"} {
		_, err := db.AddClicks(ctx, "p1", "g1", d, 1)
		require.NoError(t, err)
	}
	_, err := db.AddClicks(ctx, "p1", "g2", "2025-01-13", 5)
	require.NoError(t, err)

	total, err := db.ClicksBetween(ctx, "p1", "g1", "2025-01-11", "2025-01-14")
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	days, err := db.ActiveDaysBetween(ctx, "p1", "g1", "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	assert.Equal(t, 3, days)

	last, err := db.LastActiveDate(ctx, "p1", "g1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-14", last)

	last, err = db.LastActiveDate(ctx, "p1", "none")
	require.NoError(t, err)
	assert.Equal(t, "", last)

	counters, err := db.Counters(ctx, "p1", "g1", "2025-01-01", "2025-01-31")
	require.NoError(t, err)
	require.Len(t, counters, 3)
	assert.Equal(t, "2025-01-10", counters[0].Date)
	assert.Equal(t, int64(2), counters[1].Clicks)

	dates, err := db.ActiveDates(ctx, "p1", "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-14", "2025-01-12", "2025-01-10"}, dates)

	_, err = db.AddClicks(ctx, "p1", "g1", "2025-01-14", -1)
	require.NoError(t, err)
	dates, err = db.ActiveDates(ctx, "p1", "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-12", "2025-01-10"}, dates, "emptied days drop out")
}

func TestEvents_NetClicksBetween(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	for _, e := range []domain.ActivityEvent{
		{PlayerID: "p1", GoalID: "g1", Delta: 1, OccurredAt: base.Add(7 * time.Hour)},
		{PlayerID: "p1", GoalID: "g1", Delta: 1, OccurredAt: base.Add(8 * time.Hour)},
		{PlayerID: "p1", GoalID: "g1", Delta: -1, OccurredAt: base.Add(9 * time.Hour)},
		{PlayerID: "p1", GoalID: "g1", Delta: 1, OccurredAt: base.Add(11 * time.Hour)},
	} {
		_, err := db.AppendEvent(ctx, e)
		require.NoError(t, err)
	}

	n, err := db.NetClicksBetween(ctx, "p1", base, base.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	events, err := db.RecentEvents(ctx, "p1", 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Delta)
	assert.Equal(t, -1, events[1].Delta)
}

// ─── Profiles & Achievements ────────────────────────────────────────────────

func TestEnsureProfile_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnsureProfile(ctx, "p1", "default", testNow))

	p, err := db.Profile(ctx, "p1")
	require.NoError(t, err)
	p.TotalClicks = 12
	require.NoError(t, db.SaveProfile(ctx, *p, testNow))

	require.NoError(t, db.EnsureProfile(ctx, "p1", "default", testNow))
	p, err = db.Profile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), p.TotalClicks)
	assert.Equal(t, []string{"default"}, p.UnlockedSkins)
	assert.Empty(t, p.Achievements)
}

func TestProfile_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Profile(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	assert.ErrorIs(t, db.SaveProfile(context.Background(), domain.PlayerProfile{PlayerID: "ghost"}, testNow), domain.ErrProfileNotFound)
}

func TestUnlockAchievement_OnlyOnce(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ok, err := db.UnlockAchievement(ctx, "p1", "firstClick", testNow)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = db.UnlockAchievement(ctx, "p1", "firstClick", testNow.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := db.ListUnlockedAchievements(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, testNow.Unix(), list[0].UnlockedAt.Unix())
}

// ─── Challenges ─────────────────────────────────────────────────────────────

func TestChallenge_InsertIfAbsent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	c := domain.DailyChallenge{
		PlayerID: "p1", Date: "2025-01-15", Type: domain.ChallengeClicks,
		TargetValue: 10, Description: "Click 10 times", Reward: "20 bonus points",
		BonusPoints: 20, CreatedAt: testNow,
	}

	stored, err := db.InsertChallengeIfAbsent(ctx, c)
	require.NoError(t, err)
	assert.True(t, stored)

	other := c
	other.Type = domain.ChallengeStreak
	stored, err = db.InsertChallengeIfAbsent(ctx, other)
	require.NoError(t, err)
	assert.False(t, stored)

	got, err := db.Challenge(ctx, "p1", "2025-01-15")
	require.NoError(t, err)
	assert.Equal(t, domain.ChallengeClicks, got.Type)

	_, err = db.Challenge(ctx, "p1", "2025-01-16")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestCompleteChallenge_Once(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	_, err := db.InsertChallengeIfAbsent(ctx, domain.DailyChallenge{
		PlayerID: "p1", Date: "2025-01-15", Type: domain.ChallengeClicks, TargetValue: 10, CreatedAt: testNow,
	})
	require.NoError(t, err)

	first, err := db.CompleteChallenge(ctx, "p1", "2025-01-15")
	require.NoError(t, err)
	second, err := db.CompleteChallenge(ctx, "p1", "2025-01-15")
	require.NoError(t, err)
	assert.True(t, first)
	assert.False(t, second)
}
