package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clickquest/clickquest/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(profileCmd)
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show level, streak, skins and achievements",
	RunE:  runProfile,
}

func runProfile(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	p, err := d.Recorder.Profile(ctx, playerID)
	if err != nil {
		return err
	}
	unlocked, err := d.Achievements.ListUnlocked(ctx, playerID)
	if err != nil {
		return err
	}

	level := engagement.ProgressionLevel(p.CurrentLevel)
	today := d.Recorder.DateKey(d.Clock.Now())

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Player:   %s\n", p.PlayerID)
	fmt.Fprintf(out, "Level:    %d %s (%s)\n", level.Level, level.Name, level.Title)
	fmt.Fprintf(out, "Clicks:   %d", p.TotalClicks)
	if next := engagement.ClicksToNextProfileLevel(p.TotalClicks); next > 0 {
		fmt.Fprintf(out, " (%d to next level)", next)
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Streak:   %d days (longest %d)\n", engagement.LiveStreak(*p, today), p.LongestStreak)
	fmt.Fprintf(out, "Skin:     %s [%s]\n", p.CurrentSkin, strings.Join(p.UnlockedSkins, ", "))
	fmt.Fprintf(out, "Challenges completed: %d\n", p.DailyChallengesCompleted)
	fmt.Fprintf(out, "Achievements: %d/%d\n", len(unlocked), d.Achievements.TotalCount())

	names := make(map[string]string)
	for _, def := range d.Achievements.Definitions() {
		names[def.Key] = def.Icon + " " + def.Name
	}
	for _, a := range unlocked {
		fmt.Fprintf(out, "  %s  %s\n", a.UnlockedAt.Format("2006-01-02"), names[a.Key])
	}
	return nil
}
