package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/de-tools/impact-atlas/pkg/runtime/terminal/commands"
	"github.com/de-tools/impact-atlas/pkg/runtime/terminal/export"
	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/services/estimate"
	"github.com/de-tools/impact-atlas/pkg/store/objects"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const defaultSettingsPath = "impact.yaml"

// CLI represents the command-line interface
type CLI struct {
	env     *commands.Env
	rootCmd *cobra.Command

	settingsPath string
	format       string
	logLevel     string
	logOutput    io.Writer
}

// Options contain configuration for the CLI
type Options struct {
	Output    io.Writer
	Input     io.Reader
	LogOutput io.Writer
	Bootstrap func(ctx context.Context, settings *config.Settings, withSink bool) (*estimate.Runtime, error)
	Uploader  func(ctx context.Context, settings objects.Settings) (objects.Uploader, error)
	Now       func() time.Time
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Bootstrap == nil {
		opts.Bootstrap = estimate.Bootstrap
	}
	if opts.Uploader == nil {
		opts.Uploader = objects.NewS3Uploader
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	cli := &CLI{logOutput: opts.LogOutput}
	cli.env = &commands.Env{
		Settings:  func() (*config.Settings, error) { return config.LoadSettings(cli.settingsPath) },
		Bootstrap: opts.Bootstrap,
		Uploader:  opts.Uploader,
		Reporter:  export.NewReporter(opts.Output),
		Input:     opts.Input,
		Now:       opts.Now,
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) ExecuteContext(ctx context.Context, args ...string) error {
	if args != nil {
		cli.rootCmd.SetArgs(args)
	}
	return cli.rootCmd.ExecuteContext(ctx)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "impact",
		Short:             "Environmental impact estimation tool",
		SilenceUsage:      true,
		PersistentPreRunE: cli.setup,
	}

	cmd.PersistentFlags().StringVarP(&cli.settingsPath, "config", "c", defaultSettingsPath, "Path to the settings file")
	cmd.PersistentFlags().StringVar(&cli.format, "format", string(export.FormatTable), "Output format: table, yaml, json or prometheus")
	cmd.PersistentFlags().StringVar(&cli.logLevel, "log-level", zerolog.InfoLevel.String(), "Log level")

	cmd.AddCommand(commands.NewCalculateCmd(cli.env))
	cmd.AddCommand(commands.NewAggregateCmd(cli.env))
	cmd.AddCommand(commands.NewLocationsCmd(cli.env))
	cmd.AddCommand(commands.NewNodesCmd(cli.env))
	cmd.AddCommand(commands.NewPluginCmd(cli.env))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	format, err := export.ParseFormat(cli.format)
	if err != nil {
		return err
	}
	cli.env.Reporter.SetFormat(format)

	level, err := zerolog.ParseLevel(strings.ToLower(cli.logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cli.logLevel, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: cli.logOutput, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
	cmd.SetContext(logger.WithContext(ctx))
	return nil
}
