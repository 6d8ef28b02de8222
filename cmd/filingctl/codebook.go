package main

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"filing-service/internal/codebook"
)

var codebookCmd = &cobra.Command{
	Use:   "codebook",
	Short: "Inspect the tax office codebook",
}

var codebookCheckCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Load a codebook file and report offices without a regional office",
	Long: `Loads the codebook from a .json or .xlsx file, or the embedded copy when no
path is given, and prints row counts. Exits non-zero when an active local
office has no active regional office.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCodebookCheck,
}

func init() {
	codebookCmd.AddCommand(codebookCheckCmd)
	rootCmd.AddCommand(codebookCmd)
}

func runCodebookCheck(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}

	logger := logrus.New()
	logger.SetOutput(cmd.ErrOrStderr())
	source := codebook.NewSource(path)

	book, err := codebook.NewProvider(source, logger).Codebook(cmd.Context())
	if err != nil {
		return err
	}

	stats := book.Stats()
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(stats); err != nil {
		return err
	}
	if len(stats.Unresolved) > 0 {
		return fmt.Errorf("%s: %d active offices without a regional office", source.Name(), len(stats.Unresolved))
	}
	return nil
}
