package cmd

import (
	"github.com/evanmorse/crisiseval/internal/history"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "crisiseval",
	Short: "Evaluation harness for the crisis-severity classifier",
	Long: "Crisiseval runs a curated phrase corpus against the remote crisis-severity\n" +
		"classifier, scores the verdicts with safety-weighted aggregation, and\n" +
		"proposes threshold changes for categories that miss their goals.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite history database (overrides CRISISEVAL_DB env var)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(corpusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then CRISISEVAL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, history.EnsureDir(p)
	}
	return history.DefaultDBPath()
}
