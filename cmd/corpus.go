package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evanmorse/crisiseval/internal/corpus"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect and validate phrase corpora",
}

var corpusValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a corpus file's integrity without running it",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var c *corpus.Corpus
		var err error
		if len(args) == 1 {
			c, err = corpus.LoadFile(args[0])
		} else {
			c, err = corpus.LoadDefault()
		}
		if err != nil {
			return err
		}

		fmt.Printf("Corpus %s: %d categories, %d phrases\n",
			c.Version, len(c.Categories()), c.TotalPhrases())
		for _, cat := range c.Categories() {
			critical := ""
			if cat.Critical {
				critical = "  critical"
			}
			fmt.Printf("  %-20s  %-10s  %3d phrases  goal %.0f%%%s\n",
				cat.Name, cat.Kind, len(cat.Phrases), cat.TargetPassRate, critical)
		}
		return nil
	},
}

func init() {
	corpusCmd.AddCommand(corpusValidateCmd)
}
