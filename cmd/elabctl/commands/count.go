package commands

import (
	"elabftw-tools/lib/serviceutil"
	"elabftw-tools/lib/stats"
	"os"

	"github.com/spf13/cobra"
)

var countLimit *int

func init() {
	countLimit = countCmd.Flags().Int("limit", stats.DefaultLimit, "The most entries fetched per category.")
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count [--limit <n>]",
	Short: "Counts the resources in every resource category.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		api := client(config(cmd))

		counts, err := stats.CountEntries(cmd.Context(), api, *countLimit)
		if err != nil {
			serviceutil.Fatal("failed to count entries", err)
		}
		stats.Render(os.Stdout, counts)
	},
}
