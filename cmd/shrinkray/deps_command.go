package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"shrinkray/internal/deps"
	"shrinkray/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external dependencies and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckSystemDeps(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				state := "missing"
				if status.Available {
					state = "ok"
				} else if status.Optional {
					state = "missing (optional)"
				}
				detail := status.Detail
				if detail == "" {
					detail = status.Command
				}
				rows = append(rows, []string{status.Name, state, detail, status.Description})
			}
			table := renderTable(
				[]string{"Dependency", "State", "Detail", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)

			results := preflight.Run(cfg)
			if msg := preflight.Failures(results); msg != "" {
				return fmt.Errorf("preflight failed: %s", msg)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Preflight checks passed")
			return nil
		},
	}
}
