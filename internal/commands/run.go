package commands

import (
	"bufio"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thegreatkingbear/calendar-clock/internal/app"
	"github.com/thegreatkingbear/calendar-clock/internal/reactor"
	"github.com/thegreatkingbear/calendar-clock/internal/state"
)

func addRun(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clock until interrupted.",
		Long: `Run the clock loop. Every new state is written to the snapshot file read by
"status". Commands are read from stdin, one per line:

  hide N       hide the Nth event of today
  undo         show every hidden event again
  lock         toggle the display lock
  toggle ID    select or deselect a calendar
  refresh      fetch everything now
  quit         stop
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := ro.load(cmd.OutOrStdout())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, release, err := app.Build(ctx, e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer release()

			observer := func(action reactor.Action, st reactor.State) {
				now := deps.Now()
				if err := state.SaveSnapshot(e.cfg.SnapshotPath, st, now); err != nil {
					e.logger.Warn("write snapshot", "err", err)
				}
				if _, tick := action.(reactor.Clicked); tick && !e.printer.Structured() {
					return
				}
				if err := e.printer.State(st, ""); err != nil {
					e.logger.Warn("print state", "err", err)
				}
			}

			loop := app.New(deps, app.IntervalsFrom(e.cfg), observer)
			if err := loop.Start(ctx); err != nil {
				return err
			}
			defer loop.Stop()
			e.logger.Info("clock running", "source", e.cfg.Source, "snapshot", e.cfg.SnapshotPath)

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(cmd.InOrStdin())
				for scanner.Scan() {
					select {
					case lines <- scanner.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case line, ok := <-lines:
					if !ok {
						<-ctx.Done()
						return nil
					}
					err := loop.Exec(line)
					if errors.Is(err, app.ErrQuit) {
						return nil
					}
					if err != nil {
						e.logger.Warn("ignoring input", "line", line, "err", err)
					}
				}
			}
		},
	}

	topLevel.AddCommand(cmd)
}
