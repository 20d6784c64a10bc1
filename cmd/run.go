package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/evanmorse/crisiseval/internal/classifier"
	"github.com/evanmorse/crisiseval/internal/corpus"
	"github.com/evanmorse/crisiseval/internal/harness"
	"github.com/evanmorse/crisiseval/internal/history"
	"github.com/evanmorse/crisiseval/internal/report"
	"github.com/evanmorse/crisiseval/internal/tuning"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Evaluate the classifier against the phrase corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := classifier.ConfigFromEnv()
		if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
			cfg.Endpoint = endpoint
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		client, err := classifier.New(cfg)
		if err != nil {
			return err
		}

		c, err := loadCorpus(cmd)
		if err != nil {
			return err
		}

		var thresholds tuning.ThresholdMap
		if path, _ := cmd.Flags().GetString("thresholds"); path != "" {
			thresholds, err = tuning.LoadThresholdMapFile(path)
			if err != nil {
				return err
			}
		}

		var store *history.Store
		if noStore, _ := cmd.Flags().GetBool("no-store"); !noStore {
			dbPath, err := resolveDBPath(cmd)
			if err != nil {
				return fmt.Errorf("resolve database path: %w", err)
			}
			store, err = history.Open(dbPath)
			if err != nil {
				return fmt.Errorf("open history database: %w", err)
			}
			defer store.Close()
		}

		categories, _ := cmd.Flags().GetStringSlice("categories")
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		deadline, _ := cmd.Flags().GetDuration("deadline")

		opts := harness.Options{
			Corpus:      c,
			Client:      client,
			Thresholds:  thresholds,
			Categories:  categories,
			Concurrency: concurrency,
			Deadline:    deadline,
		}
		if store != nil {
			opts.History = store
		}

		r, err := harness.Run(context.Background(), opts)
		if err != nil {
			return err
		}

		if store != nil {
			if err := store.SaveReport(context.Background(), r); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to record run: %v\n", err)
			}
		}

		if out, _ := cmd.Flags().GetString("out"); out != "" {
			if err := report.WriteJSON(out, r); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", out)
		}

		printSummary(r)

		missed := 0
		for _, cs := range r.Summary.Categories {
			if !cs.GoalMet {
				missed++
			}
		}
		if missed > 0 {
			return fmt.Errorf("%d of %d categories missed their pass-rate goal", missed, len(r.Summary.Categories))
		}
		return nil
	},
}

func init() {
	runCmd.Flags().String("endpoint", "", "Classifier analyze URL (overrides CRISISEVAL_ENDPOINT)")
	runCmd.Flags().String("corpus", "", "Path to a corpus YAML file (default: embedded corpus)")
	runCmd.Flags().String("thresholds", "", "Path to a threshold-map YAML file (default: embedded table)")
	runCmd.Flags().StringSlice("categories", nil, "Restrict the run to these categories")
	runCmd.Flags().Int("concurrency", 0, "Worker pool size (default 4)")
	runCmd.Flags().Duration("deadline", 0, "Run deadline; expired runs report cancelled phrases")
	runCmd.Flags().String("out", "", "Write the JSON report to this file")
	runCmd.Flags().Bool("no-store", false, "Skip recording this run in the history database")
}

func loadCorpus(cmd *cobra.Command) (*corpus.Corpus, error) {
	if path, _ := cmd.Flags().GetString("corpus"); path != "" {
		return corpus.LoadFile(path)
	}
	return corpus.LoadDefault()
}

func printSummary(r *report.Report) {
	bold := color.New(color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)
	dim := color.New(color.FgHiBlack)

	bold.Printf("\nRun %s  (corpus %s)\n", r.RunID, r.CorpusVersion)
	dim.Printf("%s — %s\n\n", r.StartedAt.Format(time.RFC3339), r.FinishedAt.Format(time.RFC3339))

	fmt.Printf("%-20s  %-6s  %-6s  %-6s  %-6s  %-9s  %s\n",
		"Category", "Pass", "Fail", "Err", "Cxl", "Rate", "Goal")
	for _, cs := range r.Summary.Categories {
		mark := green.Sprint("✓")
		if !cs.GoalMet {
			mark = red.Sprint("✗")
		}
		fmt.Printf("%-20s  %-6d  %-6d  %-6d  %-6d  %7.1f%%  %s %.0f%%\n",
			cs.Category, cs.Passed, cs.Failed, cs.Errored, cs.Cancelled,
			cs.PassRate, mark, cs.TargetPassRate)
	}

	fmt.Println()
	bold.Printf("Plain pass rate:    %.1f%%\n", r.Summary.PlainPassRate)
	bold.Printf("Weighted pass rate: %.1f%%\n", r.Summary.WeightedPassRate)
	if r.Summary.Errored > 0 || r.Summary.Cancelled > 0 {
		yellow.Printf("%d errored, %d cancelled (excluded from pass/fail)\n",
			r.Summary.Errored, r.Summary.Cancelled)
	}

	if len(r.Suggestions) > 0 {
		bold.Println("\nTuning suggestions:")
		for _, s := range r.Suggestions {
			level := dim
			switch s.Risk {
			case tuning.RiskCritical:
				level = red
			case tuning.RiskModerate:
				level = yellow
			}
			level.Printf("  [%s/%s] %s %s by %+.2f\n", s.Risk, s.Confidence, s.Direction, s.Variable, s.Delta)
			dim.Printf("      %s\n", s.Rationale)
		}
	}
}
