package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clickquest/clickquest/internal/app/engagement"
)

func init() {
	rootCmd.AddCommand(levelsCmd)
}

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "Show the progression table and skin unlocks",
	RunE: func(cmd *cobra.Command, args []string) error {
		skins := make(map[int]string)
		for _, s := range engagement.Skins {
			skins[s.UnlockLevel] = s.Name
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "LEVEL\tNAME\tTITLE\tCLICKS\tSKIN")
		for _, l := range engagement.ProgressionLevels {
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.Level, l.Name, l.Title, l.ClicksRequired, skins[l.Level])
		}
		return w.Flush()
	},
}
