package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/thegreatkingbear/calendar-clock/internal/app"
	"github.com/thegreatkingbear/calendar-clock/internal/printer"
	"github.com/thegreatkingbear/calendar-clock/internal/state"
)

func addStatus(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the last state written by run.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			snapshot, err := state.LoadSnapshot(e.cfg.SnapshotPath)
			if err != nil {
				return err
			}
			if !snapshot.Exists {
				return errors.New("no snapshot yet, is calendar-clock run active?")
			}
			return e.printer.State(snapshot.State, snapshot.UpdatedAt)
		},
	}
	topLevel.AddCommand(cmd)
}

func addAgenda(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Print today's events of the selected calendars.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return withDeps(cmd, e, func(ctx context.Context, deps app.Deps) error {
				records, err := app.Agenda(ctx, deps)
				if err != nil {
					return err
				}
				return e.printer.Agenda(records)
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addCalendars(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "calendars",
		Short: "List calendars grouped by owner with their selection.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return withDeps(cmd, e, func(ctx context.Context, deps app.Deps) error {
				groups, err := app.Calendars(ctx, deps)
				if err != nil {
					return err
				}
				return e.printer.Calendars(groups)
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addToggle(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "toggle ID",
		Short:   "Select or deselect a calendar.",
		Example: "calendar-clock toggle work/team.ics",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return withDeps(cmd, e, func(ctx context.Context, deps app.Deps) error {
				if _, err := app.ToggleCalendar(ctx, deps, args[0]); err != nil {
					return err
				}
				groups, err := app.Calendars(ctx, deps)
				if err != nil {
					return err
				}
				return e.printer.Calendars(groups)
			})
		},
	}
	topLevel.AddCommand(cmd)
}

func addWeather(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Print current conditions and the forecast by day.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			return withDeps(cmd, e, func(ctx context.Context, deps app.Deps) error {
				current, forecast, err := app.Weather(ctx, deps)
				if err != nil {
					return err
				}
				return e.printer.Weather(printer.WeatherReport{Current: current, Forecast: forecast})
			})
		},
	}
	topLevel.AddCommand(cmd)
}
