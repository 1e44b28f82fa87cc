// Package commands implements the CLI commands for the kiln pipeline runner.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/adapters/detector"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/build"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for kiln.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	file      string
	dir       string
	logLevel  string
	logFormat string
}

// Application represents the application logic interface.
type Application interface {
	Run(ctx context.Context, opts app.RunOptions) error
	Watch(ctx context.Context, opts app.RunOptions) error
	List(ctx context.Context, opts app.RunOptions) ([]app.ListEntry, error)
	Env(ctx context.Context, opts app.RunOptions) ([]string, error)
}

// LogSettings is implemented by loggers that can be reconfigured from flags.
type LogSettings interface {
	SetLevel(level domain.LogLevel)
	SetMode(mode detector.OutputMode)
}

// New creates a new CLI instance with the given app.
// log receives the --log-level and --log-format settings when it is not nil.
func New(a Application, log LogSettings) *CLI {
	rootCmd := &cobra.Command{
		Use:           "kiln",
		Short:         "Run pipelines of shell steps with layered environments",
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

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.file, "file", "f", "", "Pipeline file (default: discovered in the working directory)")
	flags.StringVarP(&c.dir, "dir", "C", "", "Working directory")
	flags.StringVar(&c.logLevel, "log-level", "info", "Minimum log level: debug, info, warn or error")
	flags.StringVar(&c.logFormat, "log-format", "auto", "Log format: auto, pretty, text or json")

	rootCmd.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		return c.configureLogging(log)
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newListCmd())
	rootCmd.AddCommand(c.newEnvCmd())
	rootCmd.AddCommand(c.newPluginCmd())
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

// SetInput sets the stream plugin requests are read from. Used for testing.
func (c *CLI) SetInput(in io.Reader) {
	c.rootCmd.SetIn(in)
}

func (c *CLI) configureLogging(log LogSettings) error {
	level, ok := domain.ParseLogLevel(c.logLevel)
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "unknown log level"), "level", c.logLevel)
	}
	switch c.logFormat {
	case "", "auto", "pretty", "text", "ci", "json":
	default:
		return zerr.With(zerr.Wrap(domain.ErrConfiguration, "unknown log format"), "format", c.logFormat)
	}
	if log == nil {
		return nil
	}
	log.SetLevel(level)
	log.SetMode(detector.ResolveMode(detector.ModeAuto, c.logFormat))
	return nil
}

// options returns the run options shared by every command.
func (c *CLI) options(targets []string) app.RunOptions {
	return app.RunOptions{
		Dir:     c.dir,
		File:    c.file,
		Targets: targets,
	}
}
