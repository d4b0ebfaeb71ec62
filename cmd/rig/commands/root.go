// Package commands implements the CLI commands for rig.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.trai.ch/rig/internal/app"
	"go.trai.ch/rig/internal/build"
	"go.trai.ch/rig/internal/core/ports"
)

// EnvPrefix prefixes the environment variables that stand in for flags, e.g. RIG_PLAN.
const EnvPrefix = "RIG"

// CLI represents the command line interface for rig.
type CLI struct {
	app     Application
	logger  ports.Logger
	config  *viper.Viper
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, out io.Writer, opts app.RunOptions) error
	Graph(ctx context.Context, out io.Writer, planPath string) error
}

// jsonToggler is implemented by loggers that can switch to JSON output.
type jsonToggler interface {
	SetJSON(enable bool)
}

// New creates a new CLI instance with the given app.
func New(a Application, log ports.Logger) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rig",
		Short:         "Provision a host from a dependency graph of shell tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	c := &CLI{
		app:     a,
		logger:  log,
		config:  v,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringP("plan", "f", "", "Path to the plan file (default \"rig.yaml\")")
	rootCmd.PersistentFlags().Bool("log-json", false, "Emit logs as JSON lines")
	c.bind(rootCmd.PersistentFlags().Lookup("plan"))
	c.bind(rootCmd.PersistentFlags().Lookup("log-json"))

	rootCmd.PersistentPreRun = func(_ *cobra.Command, _ []string) {
		if t, ok := c.logger.(jsonToggler); ok && c.config.GetBool("log-json") {
			t.SetJSON(true)
		}
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newGraphCmd())
	rootCmd.AddCommand(c.newExecdCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
