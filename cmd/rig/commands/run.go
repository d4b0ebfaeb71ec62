package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/rig/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every task in the plan against its target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			showGraph, _ := cmd.Flags().GetBool("show-graph")
			return c.app.Run(cmd.Context(), cmd.OutOrStdout(), app.RunOptions{
				PlanPath:  c.config.GetString("plan"),
				VCPUs:     c.intOverride("vcpus"),
				MemoryMiB: c.int64Override("memory-mib"),
				ShowGraph: showGraph,
			})
		},
	}
	cmd.Flags().Int("vcpus", 0, "Override the vCPUs requested for the run")
	cmd.Flags().Int64("memory-mib", 0, "Override the memory budget in MiB")
	cmd.Flags().Bool("show-graph", false, "Print the waves instead of running them")
	c.bind(cmd.Flags().Lookup("vcpus"))
	c.bind(cmd.Flags().Lookup("memory-mib"))
	return cmd
}

func (c *CLI) newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph",
		Short: "Print the execution waves of the plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Graph(cmd.Context(), cmd.OutOrStdout(), c.config.GetString("plan"))
		},
	}
}
