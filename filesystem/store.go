// filesystem/store.go
package filesystem

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/ViniZap4/sharednotes/domain"
)

// Store keeps the note log in a single JSON file. The file is re-read on
// every call; nothing is cached between requests.
type Store struct {
	fs          afero.Fs
	path        string
	locker      Locker
	lockTimeout time.Duration
	log         zerolog.Logger
}

type Option func(*Store)

// WithLocker replaces the default sidecar file lock.
func WithLocker(l Locker) Option {
	return func(s *Store) { s.locker = l }
}

// WithLockTimeout bounds how long Append waits for the lock. Zero, the
// default, waits forever.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// NewStore returns a store for the log at path. Unless WithLocker is given,
// writers serialize on an flock of LockPath(path) on the OS filesystem.
func NewStore(fsys afero.Fs, path string, opts ...Option) *Store {
	s := &Store{
		fs:   fsys,
		path: path,
		log:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.locker == nil {
		s.locker = NewFileLock(LockPath(path), s.lockTimeout)
	}
	return s
}

func (s *Store) Path() string {
	return s.path
}

// List returns the log newest first. A missing, empty or corrupt file reads
// as an empty log; List never fails.
func (s *Store) List(ctx context.Context) []domain.Note {
	return s.read()
}

// Append validates the fields, then under the exclusive lock re-reads the
// log, prepends the note, trims the log to domain.MaxItems and replaces the
// file atomically. It returns the log as written.
func (s *Store) Append(ctx context.Context, fields domain.RawFields) ([]domain.Note, error) {
	note, err := domain.NewNote(fields)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("acquiring notes lock failed")
		return nil, &domain.WriteError{Op: "lock", Err: err}
	}
	defer func() {
		if err := unlock(); err != nil {
			s.log.Warn().Err(err).Str("path", s.path).Msg("releasing notes lock failed")
		}
	}()

	s.removeStaleTemps()

	current, err := s.load()
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("reading notes failed")
		return nil, &domain.WriteError{Op: "read", Err: err}
	}
	notes := domain.Prepend(current, note)

	data, err := domain.Marshal(notes)
	if err != nil {
		return nil, &domain.WriteError{Op: "encode", Err: err}
	}

	if err := WriteFileAtomic(s.fs, s.path, data); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("writing notes failed")
		return nil, &domain.WriteError{Op: "replace", Err: err}
	}

	s.log.Debug().Int("count", len(notes)).Msg("note appended")
	return notes, nil
}

func (s *Store) read() []domain.Note {
	notes, err := s.load()
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Msg("reading notes failed, serving empty log")
		return []domain.Note{}
	}
	return notes
}

// load reads the log. A missing file is an empty log and damaged content
// keeps whatever entries still parse; only an unreadable file is an error.
func (s *Store) load() ([]domain.Note, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Note{}, nil
	}
	if err != nil {
		return nil, err
	}

	notes, err := parseLog(data)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.path).Int("kept", len(notes)).Msg("notes log is damaged")
	}
	return notes, nil
}

// removeStaleTemps deletes temp files of writes that died before their
// rename. Only the lock holder writes temp files, so with the lock held
// every one of them is stale.
func (s *Store) removeStaleTemps() {
	stale, err := staleTemps(s.fs, s.path)
	if err != nil {
		return
	}
	for _, name := range stale {
		if err := s.fs.Remove(name); err != nil {
			s.log.Warn().Err(err).Str("file", name).Msg("removing stale temp file failed")
			continue
		}
		s.log.Info().Str("file", name).Msg("removed temp file of an interrupted write")
	}
}
