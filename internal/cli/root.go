package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "decayd",
	Short: "Scripted persona decay engine",
	Long:  "decayd drives a persona's time-based behavioral decay over a fixed campaign window: escalating text corruption, spontaneous events, and observer-driven recovery challenges. Single Go binary.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(tickCmd)
	rootCmd.AddCommand(challengeCmd)
}
