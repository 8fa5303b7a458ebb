package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	challengeCmd.Flags().BoolVarP(&challengeEvaluate, "evaluate", "e", false, "Check progress and claim the bonus if complete")
	rootCmd.AddCommand(challengeCmd)
}

var challengeEvaluate bool

var challengeCmd = &cobra.Command{
	Use:   "challenge",
	Short: "Show today's daily challenge",
	RunE:  runChallenge,
}

func runChallenge(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !challengeEvaluate {
		c, err := d.Challenges.Today(ctx, playerID, d.Clock.Now())
		if err != nil {
			return err
		}
		status := "open"
		if c.Completed {
			status = "completed"
		}
		fmt.Fprintf(out, "%s (%s): %s\n", c.Date, status, c.Description)
		fmt.Fprintf(out, "Reward: %s\n", c.Reward)
		return nil
	}

	p, err := d.Challenges.Evaluate(ctx, playerID, d.Clock.Now())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s\n", p.Challenge.Description)
	fmt.Fprintf(out, "%d / %d %s %.0f%%\n",
		p.Progress, p.Challenge.TargetValue, progressBar(p.Pct(), 20), p.Pct())
	if p.JustCompleted {
		fmt.Fprintf(out, "Challenge complete! +%d points\n", p.Challenge.BonusPoints)
		if p.LeveledUp {
			fmt.Fprintf(out, "Level up! Goal is now level %d\n", p.NewGoalLevel)
		}
	}
	printAchievements(out, p.Achievements)
	return nil
}
