package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.trai.ch/rig/internal/adapters/execd"
	"go.trai.ch/rig/internal/core/domain"
)

func (c *CLI) newExecdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "execd",
		Short:  "Serve streamed command execution (internal use)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			listen, _ := cmd.Flags().GetString("listen")
			idle, _ := cmd.Flags().GetDuration("idle-timeout")

			lifecycle := execd.NewLifecycle(idle)
			defer lifecycle.Shutdown()
			return execd.NewServer(lifecycle, c.logger).ListenAndServe(cmd.Context(), listen)
		},
	}
	cmd.Flags().String("listen", fmt.Sprintf(":%d", domain.DefaultExecdPort), "Address to listen on")
	cmd.Flags().Duration("idle-timeout", domain.DefaultExecdIdleTimeout, "Exit after this long without requests (0 disables)")
	return cmd
}
