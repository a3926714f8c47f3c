package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nao1215/boardcrawl/internal/config"
	"github.com/nao1215/boardcrawl/internal/database"
	"github.com/nao1215/boardcrawl/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous crawl runs",
		Long: `History lists the most recent crawl runs with the board/topic position each
one reached, newest first. Given a run id it prints that run's full summary,
including the flags that resume it.

Examples:
  # List the last 20 runs
  boardcrawl history

  # Show one run
  boardcrawl history 42

  # Markdown table of the last 5 runs
  boardcrawl history --limit 5 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", database.DefaultListLimit, "Number of runs to list")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown (mutually exclusive with --json)")
	cmd.Flags().BoolP("json", "j", false, "Output JSON (mutually exclusive with --markdown)")
	cmd.MarkFlagsMutuallyExclusive("markdown", "json")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dataDir, err := cmd.Flags().GetString("data-dir")
	if err != nil || dataDir == "" {
		dataDir = config.XDGDataDir()
	}

	out := cmd.OutOrStdout()
	var w report.Writer
	switch {
	case asMarkdown:
		w = report.NewMarkdownWriter(out)
	case asJSON:
		w = report.NewJSONWriter(out, report.WithPrettyPrint())
	default:
		w = report.NewSimpleWriter(out, report.WithVerbose(true))
	}

	if _, err := os.Stat(filepath.Join(dataDir, database.FileName)); errors.Is(err, os.ErrNotExist) {
		_, err := w.WriteHistory(nil)
		return err
	}

	db, err := database.Open(dataDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		run, err := db.GetRun(cmd.Context(), id)
		if err != nil {
			return err
		}
		_, err = w.Write(&run.Stats)
		return err
	}

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	_, err = w.WriteHistory(runs)
	return err
}
