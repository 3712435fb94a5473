package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spigell/resume-matcher/internal/export"
	"github.com/spigell/resume-matcher/internal/history"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect stored matching runs",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored runs, newest first",
	Run: func(cmd *cobra.Command, _ []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		withHistory(func(ctx context.Context, store *history.Store) error {
			summaries, err := store.List(ctx, limit)
			if err != nil {
				return err
			}
			return printSummaries(os.Stdout, summaries)
		})
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the ranked table and AI evaluations of a run",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withHistory(func(ctx context.Context, store *history.Store) error {
			run, err := store.Get(ctx, args[0])
			if err != nil {
				return err
			}
			return printRun(os.Stdout, run)
		})
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run with its rows and AI evaluations",
	Args:  cobra.ExactArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withHistory(func(ctx context.Context, store *history.Store) error {
			id, err := store.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "deleted run %s\n", id)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDeleteCmd)

	historyListCmd.Flags().IntP("limit", "n", 20, "maximum number of runs to list. 0 lists all")
}

func withHistory(fn func(ctx context.Context, store *history.Store) error) {
	ctx := context.Background()

	logger, config := prepare()

	store, err := history.Open(ctx, config.History.Path)
	if err != nil {
		logger.Fatal("opening run history", zap.Error(err), zap.String("path", config.History.Path))
	}
	defer store.Close()

	if err := fn(ctx, store); err != nil {
		logger.Fatal("reading run history", zap.Error(err))
	}
}

func printSummaries(w io.Writer, summaries []history.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCreated\tResumes\tBest\tScore\tJob Description")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%.2f\t%s\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.Resumes, s.BestName, s.BestScore, s.JDExcerpt)
	}
	return tw.Flush()
}

func printRun(w io.Writer, run *history.Run) error {
	fmt.Fprintf(w, "Run: %s\nCreated: %s\nJob Description: %s\n\n",
		run.ID, run.CreatedAt.Local().Format(time.DateTime), run.JDExcerpt)

	if err := export.WriteTable(w, run.Table); err != nil {
		return err
	}

	return printEvaluationRecords(w, run.Evaluations)
}
