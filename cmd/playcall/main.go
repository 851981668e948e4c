// Command playcall serves, trains and inspects situational play-call models.
package main

import (
	"log"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "playcall",
	Short: "Situational next-play prediction service",
	Long: `playcall learns which play an offense calls next from the plays it already
ran on a drive, grouped by down, distance, field position and optional game
context. Configuration comes from environment variables and MODEL_CONFIG.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&snapshotOnExit, "snapshot-on-exit", true, "Save a snapshot of the live model during shutdown")

	rootCmd.AddCommand(trainCmd)
	trainCmd.Flags().IntSliceVar(&trainSeasons, "seasons", nil, "Seasons to train on, e.g. 2022,2023")
	trainCmd.Flags().BoolVar(&trainSave, "save", true, "Store the trained model as a new snapshot")
	trainCmd.MarkFlagRequired("seasons")

	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspectTop, "top", 0, "Only list the N situations with the most examples (0 lists all)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("playcall: %v", err)
	}
}
