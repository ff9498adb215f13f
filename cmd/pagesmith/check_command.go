package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pagesmith/internal/preflight"
	"pagesmith/internal/procexec"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var skipLLM bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify directories, external tools, and service reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{LLM: !skipLLM, Executor: procexec.OS{}})
			fmt.Fprintln(cmd.OutOrStdout(), renderCheckTable(results))
			if failures := preflight.Failures(results); len(failures) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failures))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipLLM, "skip-llm", false, "Skip the analysis service reachability check")
	return cmd
}

func renderCheckTable(results []preflight.Result) string {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if !r.Passed {
			status = "FAIL"
		}
		rows = append(rows, []string{r.Name, status, r.Detail})
	}
	return renderTable([]string{"Check", "Status", "Detail"}, rows, nil, "")
}
