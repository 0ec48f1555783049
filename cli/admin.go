// cli/admin.go
package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ViniZap4/sharednotes/backup"
	"github.com/ViniZap4/sharednotes/config"
	"github.com/ViniZap4/sharednotes/logging"
	"github.com/ViniZap4/sharednotes/postgres"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the postgres backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Backend != config.BackendPostgres {
				return errors.New("migrate only applies to the postgres backend")
			}

			if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newBackupCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Take one snapshot of the notes log now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(cmd.Context(), *configPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			sink, err := openSink(cmd.Context(), e.cfg.Backup)
			if err != nil {
				return err
			}

			snap := backup.NewSnapshotter(e.store, sink, logging.Component(e.log, "backup"))
			name, err := snap.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
			return nil
		},
	}
}
