package cli

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clickquest/clickquest/internal/domain"
)

// run executes the root command against home and returns its output.
// Flag variables are package globals, so they are reset first.
func run(t *testing.T, home string, args ...string) (string, error) {
	t.Helper()
	challengeEvaluate = false
	goalDescription, goalCategory, goalWeeklyTarget = "", "", 0

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--home", home, "--player", "tester"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCLI_GoalLifecycle(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CLICKQUEST_ENGAGEMENT_TIMEZONE", "UTC")

	out, err := run(t, home, "goal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No goals yet")

	out, err = run(t, home, "goal", "add", "Read", "--category", "learning")
	require.NoError(t, err)
	assert.Contains(t, out, `Created goal "Read"`)
	assert.Contains(t, out, "active goal")

	out, err = run(t, home, "click")
	require.NoError(t, err)
	assert.Contains(t, out, "1 clicks today")
	assert.Contains(t, out, "First Click")

	out, err = run(t, home, "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Novice")
	assert.Contains(t, out, "Clicks:   1 (9 to next level)")
	assert.Contains(t, out, "Achievements: 1/")

	out, err = run(t, home, "unclick")
	require.NoError(t, err)
	assert.Contains(t, out, "0 clicks today")

	out, err = run(t, home, "goal", "list")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`\*\s+\S+\s+Read`), out)

	out, err = run(t, home, "goal", "threshold")
	require.NoError(t, err)
	assert.Contains(t, out, "This week: 0")
}

func TestCLI_ChallengeAndDecay(t *testing.T) {
	home := t.TempDir()
	t.Setenv("CLICKQUEST_ENGAGEMENT_TIMEZONE", "UTC")

	_, err := run(t, home, "goal", "add", "Write")
	require.NoError(t, err)

	out, err := run(t, home, "challenge")
	require.NoError(t, err)
	assert.Contains(t, out, "(open)")
	assert.Contains(t, out, "bonus points")

	out, err = run(t, home, "challenge", "--evaluate")
	require.NoError(t, err)
	assert.Contains(t, out, "0 / ")

	out, err = run(t, home, "decay")
	require.NoError(t, err)
	assert.Contains(t, out, "No decay applied.")
}

func TestCLI_Errors(t *testing.T) {
	home := t.TempDir()

	_, err := run(t, home, "click")
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	_, err = run(t, home, "goal", "activate", "missing")
	assert.ErrorIs(t, err, domain.ErrGoalNotFound)

	_, err = run(t, home, "profile")
	assert.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestCLI_Levels(t *testing.T) {
	out, err := run(t, t.TempDir(), "levels")
	require.NoError(t, err)
	assert.Contains(t, out, "Mythic")
	assert.Contains(t, out, "50000")
	assert.Contains(t, out, "Golden")
}

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[----]", progressBar(0, 4))
	assert.Equal(t, "[##--]", progressBar(50, 4))
	assert.Equal(t, "[####]", progressBar(250, 4))
}
