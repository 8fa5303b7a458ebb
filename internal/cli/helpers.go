package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/daemon"
	"github.com/clickquest/clickquest/internal/domain"
)

// openDaemon wires the engine against the configured data directory.
func openDaemon() (*daemon.Daemon, error) {
	if homeDir != "" {
		return daemon.NewFromHome(homeDir)
	}
	return daemon.New()
}

// resolveGoal returns goalID, or the player's active goal when it is empty.
func resolveGoal(ctx context.Context, d *daemon.Daemon, goalID string) (string, error) {
	if goalID != "" {
		return goalID, nil
	}
	goals, err := d.Recorder.ListGoals(ctx, playerID)
	if err != nil {
		return "", err
	}
	for _, g := range goals {
		if g.IsActive {
			return g.ID, nil
		}
	}
	return "", fmt.Errorf("%w: no active goal, run 'clickquest goal add <name>' first", domain.ErrGoalNotFound)
}

// progressBar renders pct (0-100) as a fixed-width bar.
func progressBar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func printActivity(w io.Writer, res *domain.ActivityResult) {
	fmt.Fprintf(w, "%s: %d clicks today, goal level %d\n", res.Date, res.NewGoalClicks, res.NewLevel)
	if res.LeveledUp {
		fmt.Fprintf(w, "Level up! %d -> %d\n", res.PreviousLevel, res.NewLevel)
	}
	if res.LeveledDown {
		fmt.Fprintf(w, "Level down: %d -> %d\n", res.PreviousLevel, res.NewLevel)
	}
	for _, s := range res.NewSkins {
		fmt.Fprintf(w, "New skin unlocked: %s\n", s)
	}
	printAchievements(w, res.Achievements)
}

func printAchievements(w io.Writer, keys []string) {
	if len(keys) == 0 {
		return
	}
	names := make(map[string]string)
	for _, def := range engagement.AllAchievements() {
		names[def.Key] = def.Icon + " " + def.Name
	}
	for _, k := range keys {
		fmt.Fprintf(w, "Achievement unlocked: %s\n", names[k])
	}
}
