package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
)

type leaderboardOptions struct {
	taskName string
	metric   string
	limit    int
}

func newLeaderboardCmd(st *cliState) *cobra.Command {
	var opts leaderboardOptions

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank models by their best score on a task",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLeaderboard(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.taskName, "task", "", "task name, e.g. wikilingua_en")
	cmd.Flags().StringVar(&opts.metric, "metric", "rouge1_fmeasure", "metric to rank by")
	cmd.Flags().IntVar(&opts.limit, "limit", 20, "max entries")

	return cmd
}

func runLeaderboard(cmd *cobra.Command, st *cliState, opts *leaderboardOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("leaderboard: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("leaderboard: nil options")
	}

	taskName := strings.TrimSpace(opts.taskName)
	if taskName == "" {
		return fmt.Errorf("leaderboard: specify --task <name>")
	}

	stor, err := store.Open(st.cfg)
	if err != nil {
		return err
	}
	defer stor.Close()

	entries, err := stor.Leaderboard(cmd.Context(), taskName, strings.TrimSpace(opts.metric), opts.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(out, "No runs found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tMODEL\tSCORE\tRUN_ID")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%.4f\t%s\n", i+1, e.Model, e.Score, e.RunID)
	}
	return tw.Flush()
}
