package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evanmorse/crisiseval/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded evaluation runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}

		s, err := history.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open history database: %w", err)
		}
		defer s.Close()

		records, err := s.RecentRuns(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("query runs: %w", err)
		}

		if len(records) == 0 {
			fmt.Println("No recorded runs.")
			return nil
		}

		fmt.Printf("%-36s  %-19s  %-10s  %-8s  %s\n",
			"Run", "Started", "Corpus", "Plain", "Weighted")
		for _, rec := range records {
			fmt.Printf("%-36s  %-19s  %-10s  %6.1f%%  %6.1f%%\n",
				rec.RunID,
				rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
				rec.CorpusVersion,
				rec.PlainPassRate,
				rec.WeightedPassRate,
			)
		}
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "Maximum runs to list")
	historyCmd.AddCommand(historyListCmd)
}
