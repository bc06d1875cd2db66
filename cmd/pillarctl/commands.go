package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check pillard server health",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			Status string `json:"status"`
		}
		if err := call("GET", "/health", nil, &resp); err != nil {
			return err
		}
		fmt.Printf("Server Status: %s\n", resp.Status)
		fmt.Printf("Server URL: %s\n", serverURL)
		return nil
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest metric samples from a JSON file or stdin",
	Long: `Ingest metric samples from a JSON file or stdin.

The input is the POST /api/v1/samples request body:

  {"samples": [{"key": {"pillar": "health", "metric": "sleep_hours"},
                "value": 7.5, "recorded_at": "2026-08-30T08:00:00Z"}]}

Examples:
  pillarctl ingest -u alice samples.json
  cat samples.json | pillarctl ingest -u alice -`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		var content []byte
		var err error
		if len(args) == 0 || args[0] == "-" {
			content, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read from stdin: %w", err)
			}
		} else {
			content, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read file %s: %w", args[0], err)
			}
		}

		var body json.RawMessage = content
		var resp map[string]int
		if err := call("POST", "/api/v1/samples", body, &resp); err != nil {
			return err
		}
		fmt.Printf("Ingested %d sample(s)\n", resp["ingested"])
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full analysis pipeline",
	Long: `Run the full analysis pipeline: correlations, insights,
recommendations, predictions, and the daily briefing.

Examples:
  pillarctl run -u alice
  pillarctl run -u alice --period weekly`,
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		period, _ := cmd.Flags().GetString("period")
		var report any
		if err := call("POST", "/api/v1/analysis/run?period="+url.QueryEscape(period), nil, &report); err != nil {
			return err
		}
		return printJSON(report)
	},
}

var correlationsCmd = &cobra.Command{
	Use:     "correlations",
	Short:   "List the latest discovered correlations",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		var out any
		if err := call("GET", fmt.Sprintf("/api/v1/correlations?days=%d", days), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var insightsCmd = &cobra.Command{
	Use:     "insights",
	Short:   "List insights",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if pillar, _ := cmd.Flags().GetString("pillar"); pillar != "" {
			q.Set("pillar", pillar)
		}
		if unread, _ := cmd.Flags().GetBool("unread"); unread {
			q.Set("unread_only", "true")
		}
		var out any
		if err := call("GET", "/api/v1/insights?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var markReadCmd = &cobra.Command{
	Use:     "read <insight-id>",
	Short:   "Mark an insight as read",
	Args:    cobra.ExactArgs(1),
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		return call("POST", "/api/v1/insights/"+url.PathEscape(args[0])+"/read", nil, nil)
	},
}

var recommendationsCmd = &cobra.Command{
	Use:     "recommendations",
	Short:   "List recommendations",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			q.Set("status", status)
		}
		var out any
		if err := call("GET", "/api/v1/recommendations?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var setStatusCmd = &cobra.Command{
	Use:   "set-status <recommendation-id> <status>",
	Short: "Update a recommendation's status",
	Long: `Update a recommendation's lifecycle status.

Valid statuses: pending, accepted, dismissed, completed.

Examples:
  pillarctl recommendations set-status -u alice 3f1c... accepted
  pillarctl recommendations set-status -u alice 3f1c... completed --outcome "slept 8h all week"`,
	Args:    cobra.ExactArgs(2),
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		outcome, _ := cmd.Flags().GetString("outcome")
		body := map[string]string{"status": args[1], "outcome": outcome}
		return call("PATCH", "/api/v1/recommendations/"+url.PathEscape(args[0])+"/status", body, nil)
	},
}

var predictionsCmd = &cobra.Command{
	Use:     "predictions",
	Short:   "List predictions",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if typ, _ := cmd.Flags().GetString("type"); typ != "" {
			q.Set("type", typ)
		}
		var out any
		if err := call("GET", "/api/v1/predictions?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var briefingCmd = &cobra.Command{
	Use:     "briefing",
	Short:   "Show the daily briefing",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			q.Set("date", date)
		}
		var out any
		if err := call("GET", "/api/v1/briefings/daily?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

var reviewCmd = &cobra.Command{
	Use:     "review",
	Short:   "Show the weekly review",
	PreRunE: requireUser,
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if date, _ := cmd.Flags().GetString("date"); date != "" {
			q.Set("date", date)
		}
		var out any
		if err := call("GET", "/api/v1/reviews/weekly?"+q.Encode(), nil, &out); err != nil {
			return err
		}
		return printJSON(out)
	},
}

func init() {
	runCmd.Flags().String("period", "daily", "analysis period (daily, weekly, monthly)")
	correlationsCmd.Flags().Int("days", 90, "trailing window in days")
	insightsCmd.Flags().String("pillar", "", "filter by pillar")
	insightsCmd.Flags().Bool("unread", false, "only unread insights")
	insightsCmd.AddCommand(markReadCmd)
	recommendationsCmd.Flags().String("status", "", "filter by status")
	recommendationsCmd.AddCommand(setStatusCmd)
	setStatusCmd.Flags().String("outcome", "", "outcome note for the status change")
	predictionsCmd.Flags().String("type", "", "filter by prediction type")
	briefingCmd.Flags().String("date", "", "briefing date (YYYY-MM-DD)")
	reviewCmd.Flags().String("date", "", "any date in the target week (YYYY-MM-DD)")
}
