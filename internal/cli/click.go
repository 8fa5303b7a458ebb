package cli

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(clickCmd, unclickCmd)
}

var clickCmd = &cobra.Command{
	Use:   "click [goal-id]",
	Short: "Log one unit of progress on a goal (default: the active goal)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  activityRunner(1),
}

var unclickCmd = &cobra.Command{
	Use:   "unclick [goal-id]",
	Short: "Undo one of today's clicks on a goal",
	Args:  cobra.MaximumNArgs(1),
	RunE:  activityRunner(-1),
}

func activityRunner(delta int) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
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

		res, err := d.Recorder.RecordGoalActivity(cmd.Context(), playerID, goalID, d.Clock.Now(), delta)
		if err != nil {
			return err
		}
		printActivity(cmd.OutOrStdout(), res)
		return nil
	}
}
