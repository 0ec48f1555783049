// postgres/store.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/sharednotes/domain"
)

// advisoryLockKey identifies the notes writer lock among advisory locks.
const advisoryLockKey int64 = 0x6e6f746573 // "notes"

const (
	listQuery   = `SELECT text, title, author, when_label FROM notes ORDER BY id DESC LIMIT $1`
	insertQuery = `INSERT INTO notes (text, title, author, when_label) VALUES ($1, $2, $3, $4)`
	trimQuery   = `DELETE FROM notes WHERE id < (
		SELECT min(id) FROM (SELECT id FROM notes ORDER BY id DESC LIMIT $1) AS newest
	)`
)

// Store keeps the note log in PostgreSQL with the same rules as the file
// store: newest first, capped at domain.MaxItems, writers serialized.
type Store struct {
	pool        *pgxpool.Pool
	lockTimeout time.Duration
	log         zerolog.Logger
}

// Open connects to databaseURL. A lockTimeout of zero waits for the writer
// lock forever.
func Open(ctx context.Context, databaseURL string, lockTimeout time.Duration, log zerolog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Store{pool: pool, lockTimeout: lockTimeout, log: log}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// List returns the newest domain.MaxItems notes. Query failures are logged
// and read as an empty log.
func (s *Store) List(ctx context.Context) []domain.Note {
	rows, err := s.pool.Query(ctx, listQuery, domain.MaxItems)
	if err != nil {
		s.log.Warn().Err(err).Msg("listing notes failed, serving empty log")
		return []domain.Note{}
	}

	notes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Note])
	if err != nil {
		s.log.Warn().Err(err).Msg("reading notes failed, serving empty log")
		return []domain.Note{}
	}
	if notes == nil {
		notes = []domain.Note{}
	}
	return notes
}

// Append inserts the note and trims the table in one transaction that holds
// a transaction-scoped advisory lock, then returns the log as committed.
func (s *Store) Append(ctx context.Context, fields domain.RawFields) ([]domain.Note, error) {
	note, err := domain.NewNote(fields)
	if err != nil {
		return nil, err
	}

	var notes []domain.Note
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if s.lockTimeout > 0 {
			ms := max(s.lockTimeout.Milliseconds(), 1)
			if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = %d", ms)); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, insertQuery, note.Text, note.Title, note.Author, note.When); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, trimQuery, domain.MaxItems); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, listQuery, domain.MaxItems)
		if err != nil {
			return err
		}
		notes, err = pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Note])
		return err
	})
	if err != nil {
		werr := classify(err)
		s.log.Error().Err(err).Str("op", werr.Op).Msg("appending note failed")
		return nil, werr
	}

	return notes, nil
}

func classify(err error) *domain.WriteError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgerrcode.LockNotAvailable:
			return &domain.WriteError{Op: "lock", Err: err}
		case pgerrcode.IsConnectionException(pgErr.Code):
			return &domain.WriteError{Op: "connect", Err: err}
		}
	}
	return &domain.WriteError{Op: "append", Err: err}
}
