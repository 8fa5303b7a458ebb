package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clickquest/clickquest/internal/domain"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := defaultConfigIn(t.TempDir())
	cfg.Engagement.Timezone = "UTC"
	cfg.API.Port = 0
	return cfg
}

func TestNewWithConfig_WiresServices(t *testing.T) {
	d, err := NewWithConfig(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer d.Close()

	assert.NotNil(t, d.DB)
	assert.NotNil(t, d.Recorder)
	assert.NotNil(t, d.Challenges)
	assert.NotNil(t, d.Sweeper)
	assert.NotNil(t, d.Health)
	assert.NotNil(t, d.Server)

	// Services share one database and lock map.
	ctx := context.Background()
	now := time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)
	g, err := d.Recorder.CreateGoal(ctx, "p1", domain.Goal{Name: "Read"}, now)
	require.NoError(t, err)
	_, err = d.Recorder.RecordGoalActivity(ctx, "p1", g.ID, now, 1)
	require.NoError(t, err)

	c, err := d.Challenges.Today(ctx, "p1", now)
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15", c.Date)
}

func TestNewWithConfig_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engagement.Timezone = "Nowhere/Special"
	_, err := NewWithConfig(cfg, nil)
	assert.Error(t, err)
}

func TestServe_StopsOnCancel(t *testing.T) {
	d, err := NewWithConfig(testConfig(t), nil)
	require.NoError(t, err)
	defer d.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(35 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
