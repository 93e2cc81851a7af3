package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sketchbook/internal/store"
)

var mistakesCmd = &cobra.Command{
	Use:   "mistakes",
	Short: "List journaled mistakes",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		topic, _ := cmd.Flags().GetString("topic")

		st, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx := context.Background()
		repo := st.EventRepo()
		events, err := repo.QueryMistakes(ctx, store.QueryOpts{Limit: limit}, topic)
		if err != nil {
			return fmt.Errorf("query mistakes: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No mistakes found.")
			return nil
		}

		fmt.Fprintf(out, "%-19s  %-12s  %-8s  %-40s  %-20s  %s\n",
			"Timestamp", "Topic", "Mode", "Question", "Your answer", "Correct")
		fmt.Fprintln(out, strings.Repeat("─", 120))
		for _, e := range events {
			fmt.Fprintf(out, "%-19s  %-12s  %-8s  %-40s  %-20s  %s\n",
				e.At.Local().Format("2006-01-02 15:04:05"),
				truncate(e.Topic, 12),
				e.Mode,
				truncate(e.QuestionText, 40),
				truncate(e.UserAnswer, 20),
				e.CorrectAnswer,
			)
		}

		if topic != "" {
			return nil
		}
		counts, err := repo.MistakeCountsByTopic(ctx)
		if err != nil {
			return fmt.Errorf("count mistakes: %w", err)
		}
		topics := make([]string, 0, len(counts))
		for t := range counts {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		fmt.Fprintln(out)
		for _, t := range topics {
			fmt.Fprintf(out, "%-12s  %d\n", t, counts[t])
		}
		return nil
	},
}

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

func init() {
	mistakesCmd.Flags().IntP("limit", "n", 20, "Number of mistakes to show")
	mistakesCmd.Flags().String("topic", "", "Only show mistakes for this topic")
}
