package engagement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
	"github.com/clickquest/clickquest/internal/infra/sqlite"
)

// testDB creates a temporary SQLite database for testing.
func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sqlite.Open(dir)
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv wires every engagement service against one database.
type testEnv struct {
	db           *sqlite.DB
	settings     engagement.Settings
	achievements *engagement.AchievementService
	recorder     *engagement.Recorder
	challenges   *engagement.ChallengeService
	sweeper      *engagement.Sweeper
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testDB(t)
	settings := engagement.DefaultSettings()
	settings.Location = time.UTC
	locks := engagement.NewPlayerLocks()
	ach := engagement.NewAchievementService(db, nil)
	return &testEnv{
		db:           db,
		settings:     settings,
		achievements: ach,
		recorder:     engagement.NewRecorder(db, ach, locks, settings, nil),
		challenges:   engagement.NewChallengeService(db, ach, locks, settings, nil),
		sweeper:      engagement.NewSweeper(db, locks, settings, nil),
	}
}

// day returns hour:00 UTC on 2025-01-<d>.
func day(d, hour int) time.Time {
	return time.Date(2025, 1, d, hour, 0, 0, 0, time.UTC)
}

func (e *testEnv) createGoal(t *testing.T, player, name string) *domain.Goal {
	t.Helper()
	g, err := e.recorder.CreateGoal(context.Background(), player, domain.Goal{Name: name}, day(1, 9))
	require.NoError(t, err)
	return g
}

func (e *testEnv) click(t *testing.T, player, goalID string, at time.Time, n int) *domain.ActivityResult {
	t.Helper()
	var res *domain.ActivityResult
	for i := 0; i < n; i++ {
		var err error
		res, err = e.recorder.RecordGoalActivity(context.Background(), player, goalID, at, 1)
		require.NoError(t, err)
	}
	return res
}
