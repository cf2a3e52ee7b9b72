// Package commands implements the CLI commands for the kiln asset builder.
package commands

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/config" //nolint:depguard // Settings are resolved at the CLI edge
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app      Application
	rootCmd  *cobra.Command
	settings config.Settings
	hook     func(dir string, settings config.Settings)
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context) error
	Watch(ctx context.Context, opts app.WatchOptions) error
	Clean(ctx context.Context, opts app.CleanOptions) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Build the assets of a static site",
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

	rootCmd.PersistentFlags().StringP("dir", "C", ".", "Project directory")
	rootCmd.PersistentFlags().Bool("log-json", false, "Log in JSON instead of human readable text")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.loadSettings

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// SetSettingsHook registers fn to be called with the project directory and the
// resolved settings before any command runs.
func (c *CLI) SetSettingsHook(fn func(dir string, settings config.Settings)) {
	c.hook = fn
}

func (c *CLI) loadSettings(cmd *cobra.Command, _ []string) error {
	dir, err := cmd.Flags().GetString("dir")
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "invalid project directory"), "dir", dir)
	}

	settings, err := config.LoadSettings(abs, cmd.Flags())
	if err != nil {
		return err
	}
	c.settings = settings

	if c.hook != nil {
		c.hook(abs, settings)
	}
	return nil
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
