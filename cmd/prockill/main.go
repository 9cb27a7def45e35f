package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"prockill/internal/app"
	"prockill/internal/config"
	"prockill/internal/logging"
	"prockill/internal/match"
)

// controllerAPI is the part of app.App the commands drive.
type controllerAPI interface {
	Plan(ctx context.Context, cfg config.Configuration) ([]match.Candidate, error)
	Kill(ctx context.Context, params app.KillParams) (app.KillResult, error)
}

var controllerFactory = func(opts app.Options) controllerAPI {
	return app.New(opts)
}

var (
	flagOpts   config.Options
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "prockill --path <regex> | --args <regex> [flags]",
	Short: "prockill: terminate processes and services by pattern",
	Long: `prockill takes one snapshot of the running processes, selects those whose
executable path or arguments match the given patterns, and terminates them one by
one. Processes that belong to a service can be stopped through the service
manager instead of being killed.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := prepare(cmd)
		if err != nil {
			return err
		}
		defer logger.Sync()

		out := cmd.OutOrStdout()
		stop := startSpinner(cmd.ErrOrStderr(), " Collecting processes...")
		res, err := controllerFactory(app.Options{
			Logger: logger,
			Out:    out,
			Color:  cfg.Output == config.OutputResult && isTerminal(out),
		}).Kill(cmd.Context(), app.KillParams{
			Config:  cfg,
			Planned: func(int) { stop() },
		})
		stop()

		if res.Message != "" && cfg.Output == config.OutputProgress {
			fmt.Fprintln(out, res.Message)
		}
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringArrayVar(&flagOpts.Paths, "path", nil, "Regex matched against the executable path (repeatable)")
	flags.StringArrayVar(&flagOpts.Args, "args", nil, "Regex matched against the command-line arguments (repeatable)")
	flags.StringVar(&flagOpts.StopServices, "stopservices", "", "Stop owning services first: none, all or recovery (default none)")
	flags.StringVar(&flagOpts.StopTimeout, "stoptimeout", "", "Seconds to wait for a stopped service's process to exit (default 10)")
	flags.BoolVar(&flagOpts.DryRun, "dry", false, "Report what would happen without stopping or killing anything")
	flags.StringVar(&flagOpts.Output, "output", "", "Output mode: progress or result (default result)")
	flags.BoolVar(&flagOpts.Verbose, "verbose", false, "Also print each target's full command line in progress mode")
	flags.StringVar(&configPath, "config", "", "Path to YAML defaults file (default $XDG_CONFIG_HOME/prockill/config.yaml)")
	flags.StringVar(&logLevel, "log-level", "", "Log level for diagnostics on stderr (default warn)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// prepare resolves defaults, validates the flags and builds the logger.
func prepare(cmd *cobra.Command) (config.Configuration, *zap.Logger, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	defs, err := config.Load(path)
	if err != nil {
		return config.Configuration{}, nil, err
	}

	cfg, err := config.Build(flagOpts, defs)
	if err != nil {
		return cfg, nil, err
	}

	level := defs.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level, cmd.ErrOrStderr())
	if err != nil {
		return cfg, nil, err
	}
	for _, w := range defs.Warnings {
		logger.Warn(w)
	}
	return cfg, logger, nil
}

// startSpinner shows a spinner on w while the snapshot is collected. It is a
// no-op unless w is a terminal. The returned stop func may be called repeatedly.
func startSpinner(w io.Writer, suffix string) func() {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	s.Suffix = suffix
	s.Start()
	return s.Stop
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
