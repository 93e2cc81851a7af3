package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sketchbook/internal/store"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "List recent calls made to the evaluation service",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		endpoint, _ := cmd.Flags().GetString("endpoint")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		events, err := st.EventRepo().QueryEvaluations(context.Background(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query events: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No evaluation calls found.")
			return nil
		}

		fmt.Fprintf(out, "%-5s  %-19s  %-11s  %-12s  %-36s  %-7s  %s\n",
			"ID", "Timestamp", "Endpoint", "Question", "Session", "Ms", "OK")
		fmt.Fprintln(out, strings.Repeat("─", 110))

		for _, e := range events {
			if endpoint != "" && e.Endpoint != endpoint {
				continue
			}
			ok := "✓"
			if !e.Success {
				ok = "✗"
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-11s  %-12s  %-36s  %-7d  %s\n",
				e.ID,
				e.Timestamp.Local().Format("2006-01-02 15:04:05"),
				e.Endpoint,
				truncate(e.QuestionID, 12),
				e.SessionID,
				e.LatencyMs,
				ok,
			)
		}
		return nil
	},
}

var journalViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "Show the full request and response of one call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event ID %q: %w", args[0], err)
		}

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		e, err := st.EventRepo().GetEvaluation(context.Background(), id)
		if err != nil {
			return fmt.Errorf("get event: %w", err)
		}
		if e == nil {
			return fmt.Errorf("evaluation event %d not found", id)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Event #%d\n", e.ID)
		fmt.Fprintf(out, "Timestamp:  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(out, "Session:    %s\n", e.SessionID)
		fmt.Fprintf(out, "Endpoint:   %s\n", e.Endpoint)
		fmt.Fprintf(out, "Question:   %s\n", e.QuestionID)
		fmt.Fprintf(out, "Latency:    %dms\n", e.LatencyMs)
		fmt.Fprintf(out, "Success:    %v\n", e.Success)
		if e.ErrorMessage != "" {
			fmt.Fprintf(out, "Error:      %s\n", e.ErrorMessage)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "── Request ──")
		fmt.Fprintln(out, e.RequestBody)
		fmt.Fprintln(out)
		fmt.Fprintln(out, "── Response ──")
		fmt.Fprintln(out, e.ResponseBody)
		return nil
	},
}

func init() {
	journalCmd.Flags().IntP("limit", "n", 20, "Number of events to show")
	journalCmd.Flags().String("endpoint", "", "Filter by endpoint (next, log_mistake)")

	journalCmd.AddCommand(journalViewCmd)
}
