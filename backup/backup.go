// backup/backup.go
package backup

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ViniZap4/sharednotes/domain"
	"github.com/ViniZap4/sharednotes/filesystem"
)

const nameLayout = "20060102T150405Z"

// Lister is the read side of a note store.
type Lister interface {
	List(ctx context.Context) []domain.Note
}

// Sink stores one snapshot under name.
type Sink interface {
	Put(ctx context.Context, name string, data []byte) error
}

type Snapshotter struct {
	source Lister
	sink   Sink
	log    zerolog.Logger
	now    func() time.Time
}

func NewSnapshotter(source Lister, sink Sink, log zerolog.Logger) *Snapshotter {
	return &Snapshotter{source: source, sink: sink, log: log, now: time.Now}
}

// Snapshot writes the current log to the sink and returns the snapshot name.
func (s *Snapshotter) Snapshot(ctx context.Context) (string, error) {
	notes := s.source.List(ctx)

	data, err := domain.Marshal(notes)
	if err != nil {
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	name := SnapshotName(s.now())
	if err := s.sink.Put(ctx, name, data); err != nil {
		return "", fmt.Errorf("failed to store snapshot %s: %w", name, err)
	}

	s.log.Info().Str("snapshot", name).Int("notes", len(notes)).Msg("snapshot written")
	return name, nil
}

func SnapshotName(t time.Time) string {
	return "notes-" + t.UTC().Format(nameLayout) + ".json"
}

// DirSink writes snapshots into a directory.
type DirSink struct {
	fs  afero.Fs
	dir string
}

func NewDirSink(fs afero.Fs, dir string) *DirSink {
	return &DirSink{fs: fs, dir: dir}
}

func (d *DirSink) Put(ctx context.Context, name string, data []byte) error {
	return filesystem.WriteFileAtomic(d.fs, filepath.Join(d.dir, name), data)
}
