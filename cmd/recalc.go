package cmd

import (
	"fmt"
	"os"
	"pagelab/core"
	"pagelab/logger"

	"github.com/spf13/cobra"
)

var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Recompute every URL and timing average from stored runs",
	Run: func(cmd *cobra.Command, args []string) {
		logger.Info("Executing 'recalc' command")
		stats, err := core.RebuildAllAverages()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error recalculating averages: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Recalculated %d URL averages and %d timing averages.\n", stats.URLAverages, stats.TimingAverages)
	},
}

func init() {
	rootCmd.AddCommand(recalcCmd)
}
