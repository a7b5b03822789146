// Package commands builds the calendar-clock command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thegreatkingbear/calendar-clock/internal/app"
	"github.com/thegreatkingbear/calendar-clock/internal/config"
	"github.com/thegreatkingbear/calendar-clock/internal/logging"
	"github.com/thegreatkingbear/calendar-clock/internal/printer"
)

type rootOptions struct {
	output   string
	logLevel string
}

func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "calendar-clock",
		Short:         "A desk clock with today's calendar events and the weather.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVarP(&ro.output, "output", "o", printer.FormatText, "Output format: text, json or yaml.")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "Override the configured log level.")

	AddCommands(cmd, ro)
	return cmd
}

func AddCommands(topLevel *cobra.Command, ro *rootOptions) {
	addRun(topLevel, ro)
	addStatus(topLevel, ro)
	addAgenda(topLevel, ro)
	addCalendars(topLevel, ro)
	addToggle(topLevel, ro)
	addWeather(topLevel, ro)
}

// env is what every command needs after config has been read.
type env struct {
	cfg     config.Runtime
	logger  *log.Logger
	printer *printer.Printer
}

func (ro *rootOptions) load(out io.Writer) (env, error) {
	format, err := printer.ParseFormat(ro.output)
	if err != nil {
		return env{}, err
	}

	cfg, err := config.Load()
	if err != nil {
		return env{}, err
	}

	level := cfg.LogLevel
	if ro.logLevel != "" {
		level = ro.logLevel
	}

	return env{
		cfg:    cfg,
		logger: logging.New(level, os.Stderr),
		printer: &printer.Printer{
			Out:      out,
			Format:   format,
			Color:    out == os.Stdout && !color.NoColor,
			Location: cfg.Location,
		},
	}, nil
}

// withDeps opens the collaborators for a one-shot command bounded by the
// configured timeout.
func withDeps(cmd *cobra.Command, e env, fn func(ctx context.Context, deps app.Deps) error) error {
	timeout := e.cfg.Timeout + 5*time.Second
	if timeout < 10*time.Second {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	deps, release, err := app.Build(ctx, e.cfg, e.logger)
	if err != nil {
		return fmt.Errorf("open collaborators: %w", err)
	}
	defer release()

	return fn(ctx, deps)
}
