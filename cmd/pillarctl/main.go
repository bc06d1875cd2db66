// Package main implements the pillarctl CLI for manual operations against
// the pillard HTTP server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the pillard HTTP server
	serverURL string
	// userID is sent as the X-User-ID header on every API call
	userID string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pillarctl",
	Short: "CLI for pillard HTTP server operations",
	Long: `pillarctl is a command-line interface for interacting with the pillard
intelligence daemon. It provides commands for ingesting metric samples,
triggering analysis, and reading insights, recommendations, predictions,
and briefings.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:9180", "pillard server URL")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", "", "user ID (required for API commands)")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(correlationsCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(recommendationsCmd)
	rootCmd.AddCommand(predictionsCmd)
	rootCmd.AddCommand(briefingCmd)
	rootCmd.AddCommand(reviewCmd)
}

// requireUser validates the --user flag for commands that hit the API.
func requireUser(cmd *cobra.Command, args []string) error {
	if userID == "" {
		return fmt.Errorf("--user is required")
	}
	return nil
}
