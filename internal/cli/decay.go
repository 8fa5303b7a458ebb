package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(decayCmd)
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Apply inactivity decay to every goal now",
	Long: `Run one decay sweep. Goals inactive past the grace period lose points
for each day not yet charged. Running it twice on the same day is a no-op.`,
	RunE: runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	d, err := openDaemon()
	if err != nil {
		return err
	}
	defer d.Close()

	reports, err := d.Sweeper.Sweep(cmd.Context(), d.Clock.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No decay applied.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tGOAL\tDAYS\tLOST\tPOINTS\tLEVEL")
	for _, r := range reports {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d -> %d\n",
			r.OwnerID, r.GoalID, r.DaysInactive, r.PointsRemoved, r.NewPoints, r.PreviousLevel, r.NewLevel)
	}
	return w.Flush()
}
