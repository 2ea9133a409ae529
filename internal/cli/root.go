// Package cli implements the xuunu command line: the HTTP server and one-shot
// score and insight commands that share the same wiring.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"Xuunu.homeostasis/internal/config"
)

// loadConfig is replaced in tests.
var loadConfig = config.LoadConfig

var rootCmd = &cobra.Command{
	Use:           "xuunu",
	Short:         "Xuunu homeostasis service",
	Long:          `Health and environment tracking backend: stores samples, scores homeostasis and serves one AI insight per user per day.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(insightCmd)

	scoreCmd.Flags().String("user", "", "User ID to score (required)")
	_ = scoreCmd.MarkFlagRequired("user")
	insightCmd.Flags().String("user", "", "User ID to fetch today's insight for (required)")
	_ = insightCmd.MarkFlagRequired("user")
}
