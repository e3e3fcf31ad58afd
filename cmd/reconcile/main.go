// Command reconcile runs the reconciler demo, benchmark and devtools
// server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/reconciler/internal/config"
	"github.com/vango-dev/reconciler/internal/errors"
	"github.com/vango-dev/reconciler/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┌─┐┌─┐┌┐┌┌─┐┬┬  ┌─┐
  ├┬┘├┤ │  │ ││││└─┐││  ├┤
  ┴└─└─┘└─┘└─┘┘└┘└─┘┴┴─┘└─┘
`

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configDir string
	logLevel  string
	logFormat string
	logFile   string
	debug     bool
}

// env is the configuration and logger prepared before a command runs.
type env struct {
	cfg *config.Config
	log *logging.Logger
}

func (e *env) setup(cmd *cobra.Command, flags *globalFlags) error {
	cfg, err := config.LoadOrDefault(flags.configDir)
	if err != nil {
		return err
	}

	fs := cmd.Flags()
	if fs.Changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = flags.logFormat
	}
	if fs.Changed("log-file") {
		cfg.Log.File = flags.logFile
	}
	if fs.Changed("debug") {
		cfg.Reconciler.Debug = flags.debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return err
	}
	slog.SetDefault(logger.Logger)

	e.cfg = cfg
	e.log = logger
	return nil
}

func (e *env) close() {
	if e.log != nil {
		_ = e.log.Close()
	}
}

func main() {
	flags := &globalFlags{}
	e := &env{}

	rootCmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Incremental UI tree reconciler",
		Long: `reconcile drives an incremental tree reconciler against an in-memory
host tree.

  • demo    scripted session of the demo app, printing the host tree
  • bench   keyed list reorder benchmark across independent roots
  • serve   demo app plus the devtools inspection server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return e.setup(cmd, flags)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configDir, "config", "c", ".", "directory containing "+config.ConfigFileName)
	pf.StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "text", "log format: text or json")
	pf.StringVar(&flags.logFile, "log-file", "", "also write JSON logs to this file")
	pf.BoolVar(&flags.debug, "debug", false, "enable reconciler development checks")

	rootCmd.AddCommand(
		demoCmd(e),
		benchCmd(e),
		serveCmd(e),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errors.PrintError(os.Stderr, err)
		os.Exit(1)
	}
}

// printBanner prints the ASCII art banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// step prints a step header.
func step(w io.Writer, label string) {
	fmt.Fprintf(w, "\033[36m▸\033[0m %s\n", label)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}
