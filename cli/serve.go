// cli/serve.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/sharednotes/backup"
	"github.com/ViniZap4/sharednotes/feed"
	httphandlers "github.com/ViniZap4/sharednotes/http"
	"github.com/ViniZap4/sharednotes/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the notes HTTP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			e, err := setup(ctx, *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			hub := feed.NewHub(logging.Component(e.log, "feed"))
			hubCtx, stopHub := context.WithCancel(context.Background())
			defer stopHub()
			go hub.Run(hubCtx)

			if e.cfg.Backup.Schedule != "" {
				sink, err := openSink(ctx, e.cfg.Backup)
				if err != nil {
					return err
				}
				backupLog := logging.Component(e.log, "backup")
				sched := backup.NewScheduler(backup.NewSnapshotter(e.store, sink, backupLog), backupLog)
				if err := sched.Start(e.cfg.Backup.Schedule); err != nil {
					return err
				}
				defer sched.Stop()
			}

			server := httphandlers.NewServer(e.store, hub, logging.Component(e.log, "http"))
			app := httphandlers.NewApp(server)

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(e.cfg.Addr)
			}()
			e.log.Info().Str("addr", e.cfg.Addr).Str("backend", e.cfg.Backend).Msg("server starting")

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			e.log.Info().Msg("shutting down")
			// open event streams only end when the hub stops
			stopHub()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.ShutdownWithContext(shutdownCtx)
		},
	}
}
