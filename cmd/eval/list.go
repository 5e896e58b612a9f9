package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/prompt"
	"github.com/LuisVasquezBSC/flor-language-adaptation/internal/task"
)

func newListCmd(st *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks or prompt templates",
		Args:  cobra.NoArgs,
	}

	cmd.AddCommand(newListTasksCmd())
	cmd.AddCommand(newListTemplatesCmd(st))
	return cmd
}

func newListTasksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List available evaluation tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := task.NewRegistry()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK\tLANGUAGE\tDATASET\tTEMPLATE")
			for _, name := range reg.Names() {
				lang, _ := reg.Get(name)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, lang.Code, lang.Dataset, lang.Template().Name)
			}
			return tw.Flush()
		},
	}
}

func newListTemplatesCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List custom prompt templates",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := st.cfg.Dataset.TemplatesDir
			if dir == "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No templates directory configured.")
				return nil
			}

			templates, err := prompt.LoadFromDir(dir)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tTARGET_FIELD\tMETRICS\tDESCRIPTION")
			for _, tpl := range templates {
				fmt.Fprintf(tw, "%s\t%s\t%v\t%s\n", tpl.Name, tpl.TargetField, tpl.Metrics, tpl.Description)
			}
			return tw.Flush()
		},
	}
}
