package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
)

const timeRounding = time.Millisecond

type historyOptions struct {
	taskName string
	model    string
	limit    int
}

func newHistoryCmd(st *cliState) *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show evaluation history",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.taskName, "task", "", "task name to filter")
	cmd.Flags().StringVar(&opts.model, "model", "", "model name to filter")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max runs to list")

	cmd.AddCommand(newHistoryShowCmd(st))
	return cmd
}

func newHistoryShowCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show details for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryShow(cmd, st, args[0])
		},
	}
}

func runHistoryList(cmd *cobra.Command, st *cliState, opts *historyOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("history: nil options")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	var reader store.RunReader = stor

	filter := store.RunFilter{
		Task:  strings.TrimSpace(opts.taskName),
		Model: strings.TrimSpace(opts.model),
		Limit: opts.limit,
	}
	runs, err := reader.ListRuns(cmd.Context(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN_ID\tTASK\tMODEL\tFEWSHOT\tDOCS\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.ID,
			r.Task,
			r.Model,
			r.NumFewshot,
			r.Documents,
			formatTime(r.StartedAt),
		)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, st *cliState, runID string) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("history: missing config (internal error)")
	}

	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("history: missing run id")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	run, err := stor.GetRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Run: %s\n", run.ID)
	_, _ = fmt.Fprintf(out, "Task: %s model=%s fewshot=%d seed=%d\n", run.Task, run.Model, run.NumFewshot, run.Seed)
	_, _ = fmt.Fprintf(out, "Documents: %d\n", run.Documents)
	_, _ = fmt.Fprintf(out, "Started: %s\n", formatTime(run.StartedAt))
	_, _ = fmt.Fprintf(out, "Finished: %s\n", formatTime(run.FinishedAt))

	if len(run.Metrics) > 0 {
		keys := make([]string, 0, len(run.Metrics))
		for key := range run.Metrics {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		_, _ = fmt.Fprintln(out)
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "METRIC\tVALUE")
		for _, key := range keys {
			fmt.Fprintf(tw, "%s\t%.4f\n", key, run.Metrics[key])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	examples, err := stor.GetExamples(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(examples) == 0 {
		return nil
	}

	_, _ = fmt.Fprintf(out, "\nExamples: %d\n", len(examples))
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DOC\tPREDICTION\tTARGET")
	for _, ex := range examples {
		target := ""
		if len(ex.Target) > 0 {
			target = ex.Target[0]
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", ex.DocID, truncate(ex.Pred, 60), truncate(target, 60))
	}
	return tw.Flush()
}

func formatTime(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.UTC().Format(time.RFC3339)
}

func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
