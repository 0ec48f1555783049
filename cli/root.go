// cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ViniZap4/sharednotes/backup"
	"github.com/ViniZap4/sharednotes/config"
	"github.com/ViniZap4/sharednotes/filesystem"
	httphandlers "github.com/ViniZap4/sharednotes/http"
	"github.com/ViniZap4/sharednotes/logging"
	"github.com/ViniZap4/sharednotes/postgres"
)

// NewRootCmd builds the notesd command tree.
func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "notesd",
		Short:         "Shared notes endpoint backed by a bounded JSON log",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newListCmd(&configPath),
		newAppendCmd(&configPath),
		newMigrateCmd(&configPath),
		newBackupCmd(&configPath),
	)
	return root
}

func Execute() int {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

// env is what every command needs: config, logger and an open store.
type env struct {
	cfg   config.Config
	log   zerolog.Logger
	store httphandlers.NoteStore
	close func()
}

func setup(ctx context.Context, configPath string, logOut io.Writer) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log.Level, cfg.Log.Format, logOut)

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, store: store, close: closeStore}, nil
}

func openStore(ctx context.Context, cfg config.Config, log zerolog.Logger) (httphandlers.NoteStore, func(), error) {
	storeLog := logging.Component(log, "store")

	switch cfg.Backend {
	case config.BackendPostgres:
		store, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.LockTimeout, storeLog)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		store := filesystem.NewStore(afero.NewOsFs(), cfg.DataFile,
			filesystem.WithLockTimeout(cfg.LockTimeout),
			filesystem.WithLogger(storeLog),
		)
		return store, func() {}, nil
	}
}

func openSink(ctx context.Context, cfg config.BackupConfig) (backup.Sink, error) {
	if cfg.S3.Bucket != "" {
		return backup.NewMinioSink(ctx, backup.MinioConfig{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			Region:    cfg.S3.Region,
			UseSSL:    cfg.S3.UseSSL,
		})
	}
	return backup.NewDirSink(afero.NewOsFs(), cfg.Dir), nil
}
