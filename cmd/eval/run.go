package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/docstore"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/llm"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/runner"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/store"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

type runCmdOptions struct {
	taskName     string
	provider     string
	template     string
	description  string
	numFewshot   int
	seed         int64
	limit        int
	saveExamples bool
	noStore      bool
}

func newRunCmd(st *cliState) *cobra.Command {
	var opts runCmdOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a task evaluation",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluation(cmd, st, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.taskName, "task", "", "task name, e.g. wikilingua_en")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "provider name (overrides config)")
	cmd.Flags().StringVar(&opts.template, "template", "", "path to a custom prompt template")
	cmd.Flags().StringVar(&opts.description, "description", "", "task description prepended to each prompt")
	cmd.Flags().IntVar(&opts.numFewshot, "num-fewshot", -1, "few-shot examples per prompt (overrides config)")
	cmd.Flags().Int64Var(&opts.seed, "seed", -1, "sampling seed (overrides config)")
	cmd.Flags().IntVar(&opts.limit, "limit", -1, "max evaluation documents, 0 = all (overrides config)")
	cmd.Flags().BoolVar(&opts.saveExamples, "save-examples", false, "record per-document predictions")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "skip persisting results")

	return cmd
}

func runEvaluation(cmd *cobra.Command, st *cliState, opts *runCmdOptions) error {
	if st == nil || st.cfg == nil {
		return fmt.Errorf("run: missing config (internal error)")
	}
	if opts == nil {
		return fmt.Errorf("run: nil options")
	}

	taskName := strings.TrimSpace(opts.taskName)
	if taskName == "" {
		return fmt.Errorf("run: specify --task <name> (see 'list tasks')")
	}

	reg := task.NewRegistry()
	lang, ok := reg.Get(taskName)
	if !ok {
		return fmt.Errorf("run: unknown task %q (see 'list tasks')", taskName)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	docs, err := docstore.Load(ctx, st.cfg.Dataset.Dir, lang.Dataset)
	if err != nil {
		return err
	}

	taskOpts := task.Options{
		ExampleSeparator:    st.cfg.Evaluation.ExampleSeparator,
		TextTargetSeparator: st.cfg.Evaluation.TextTargetSeparator,
		SaveExamples:        st.cfg.Evaluation.SaveExamples || opts.saveExamples,
	}
	if path := strings.TrimSpace(opts.template); path != "" {
		tpl, err := prompt.LoadFromFile(path)
		if err != nil {
			return err
		}
		taskOpts.Template = tpl
	}

	tk, err := task.New(lang, docs, taskOpts)
	if err != nil {
		return err
	}

	provider, err := resolveProvider(st, opts.provider)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	runOpts := runner.Options{
		NumFewshot:  st.cfg.Evaluation.NumFewshot,
		Seed:        st.cfg.Evaluation.Seed,
		Limit:       st.cfg.Evaluation.Limit,
		Description: opts.description,
	}
	if opts.numFewshot >= 0 {
		runOpts.NumFewshot = opts.numFewshot
	}
	if opts.seed >= 0 {
		runOpts.Seed = opts.seed
	}
	if opts.limit >= 0 {
		runOpts.Limit = opts.limit
	}

	r := &runner.Runner{Provider: provider}
	if !opts.noStore {
		stor, err := store.Open(st.cfg)
		if err != nil {
			return fmt.Errorf("run: open store: %w", err)
		}
		defer stor.Close()
		r.Store = stor
	}

	res, err := r.Run(ctx, tk, runOpts)
	if err != nil {
		return err
	}

	return printRunResult(cmd, res)
}

func resolveProvider(st *cliState, name string) (llm.Provider, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return llm.DefaultProviderFromConfig(st.cfg)
	}

	registry, err := llm.NewRegistryFromConfig(st.cfg)
	if err != nil {
		return nil, err
	}
	provider, ok := registry.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, registry.Names())
	}
	return provider, nil
}

func printRunResult(cmd *cobra.Command, res *runner.RunResult) error {
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintf(out, "Run: %s\n", res.RunID)
	_, _ = fmt.Fprintf(out, "Task: %s model=%s fewshot=%d seed=%d\n", res.Task, res.Model, res.NumFewshot, res.Seed)
	_, _ = fmt.Fprintf(out, "Documents: %d failed=%d elapsed=%s\n\n", res.Documents, res.Failed, res.TotalTime.Round(timeRounding))

	keys := make([]string, 0, len(res.Metrics))
	for key := range res.Metrics {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tVALUE")
	for _, key := range keys {
		fmt.Fprintf(tw, "%s\t%.4f\n", key, res.Metrics[key])
	}
	return tw.Flush()
}
