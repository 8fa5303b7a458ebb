package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clickquest/clickquest/internal/app/engagement"
	"github.com/clickquest/clickquest/internal/domain"
)

func init() {
	goalAddCmd.Flags().StringVarP(&goalDescription, "description", "d", "", "Goal description")
	goalAddCmd.Flags().StringVarP(&goalCategory, "category", "c", "", "Goal category")
	goalAddCmd.Flags().Float64Var(&goalWeeklyTarget, "weekly-target", 0, "Clicks per week to aim for")

	goalCmd.AddCommand(goalAddCmd, goalListCmd, goalActivateCmd, goalThresholdCmd)
	rootCmd.AddCommand(goalCmd)
}

var (
	goalDescription  string
	goalCategory     string
	goalWeeklyTarget float64
)

var goalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage tracked goals",
}

var goalAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a goal (the first goal becomes active)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		g, err := d.Recorder.CreateGoal(cmd.Context(), playerID, domain.Goal{
			Name:         args[0],
			Description:  goalDescription,
			Category:     goalCategory,
			WeeklyTarget: goalWeeklyTarget,
		}, d.Clock.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Created goal %q (%s)\n", g.Name, g.ID)
		if g.IsActive {
			fmt.Fprintln(out, "It is now your active goal.")
		}
		return nil
	},
}

var goalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List your goals",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		goals, err := d.Recorder.ListGoals(cmd.Context(), playerID)
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No goals yet. Run 'clickquest goal add <name>' to get started.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ACTIVE\tID\tNAME\tLEVEL\tPOINTS\tCLICKS\tWEEKLY TARGET")
		for _, g := range goals {
			active := ""
			if g.IsActive {
				active = "*"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.1f\n",
				active, g.ID, g.Name, g.CurrentLevel, g.LevelPoints, g.TotalClicks, g.WeeklyTarget)
		}
		return w.Flush()
	},
}

var goalActivateCmd = &cobra.Command{
	Use:   "activate <goal-id>",
	Short: "Make a goal the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.Recorder.SetActiveGoal(cmd.Context(), playerID, args[0], d.Clock.Now()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active goal: %s\n", args[0])
		return nil
	},
}

var goalThresholdCmd = &cobra.Command{
	Use:   "threshold [goal-id]",
	Short: "Show this week's clicks against the weekly target",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDaemon()
		if err != nil {
			return err
		}
		defer d.Close()

		var goalID string
		if len(args) == 1 {
			goalID = args[0]
		}
		goalID, err = resolveGoal(cmd.Context(), d, goalID)
		if err != nil {
			return err
		}

		r, err := d.Sweeper.Threshold(cmd.Context(), playerID, goalID, d.Clock.Now())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "This week: %d / %.1f clicks %s %.0f%%\n",
			r.WeeklyClicks, r.WeeklyTarget, progressBar(r.Percentage, 20), r.Percentage)
		if r.MetThreshold {
			fmt.Fprintln(out, "Weekly target met.")
		}
		if r.Decay.PointsLost > 0 {
			fmt.Fprintf(out, "Inactive for %d days: %d points will decay (%d left, level %d).\n",
				r.Decay.DaysInactive, r.Decay.PointsLost, r.Decay.NewPoints,
				engagement.LevelFromPoints(r.Decay.NewPoints))
		}
		return nil
	},
}
