package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a SQLite database whose tables can be filtered.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	logger   *slog.Logger
}

// Option configures Open.
type Option func(*Store)

// ReadOnly opens the database with mode=ro and query_only set. The file
// must already exist.
func ReadOnly() Option {
	return func(s *Store) { s.readOnly = true }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// Open opens a SQLite database. ":memory:" gives a private in-memory
// database, which lives as long as the Store since the pool holds a single
// connection.
//
// Writable databases use WAL with synchronous=NORMAL. Every database gets a
// 5 second busy timeout and foreign key enforcement.
func Open(path string, opts ...Option) (*Store, error) {
	s := &Store{path: path, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	dsn := path
	if s.readOnly {
		dsn = "file:" + path + "?mode=ro"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	// One connection: SQLite has one writer, and :memory: is per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s.db = db
	if err := s.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Debug("store opened", "path", path, "read_only", s.readOnly)
	return s, nil
}

func (s *Store) pragmas() []string {
	if s.readOnly {
		return []string{
			"PRAGMA query_only = ON",
			"PRAGMA busy_timeout = 5000",
			"PRAGMA foreign_keys = ON",
		}
	}
	return []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
}

func (s *Store) applyPragmas() error {
	for _, p := range s.pragmas() {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return nil
}

// Close closes the database. Closing twice is harmless.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// ReadOnly reports whether the store was opened with ReadOnly.
func (s *Store) ReadOnly() bool { return s.readOnly }

// Exec runs a SQL script, such as a fixture. It fails on read-only stores.
func (s *Store) Exec(ctx context.Context, script string) error {
	if _, err := s.db.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec on %s: %w", s.path, err)
	}
	return nil
}

// pragma returns the current value of a pragma as text.
func (s *Store) pragma(ctx context.Context, name string) (string, error) {
	var value string
	if err := s.db.QueryRowContext(ctx, "PRAGMA "+name).Scan(&value); err != nil {
		return "", fmt.Errorf("read pragma %s: %w", name, err)
	}
	return value, nil
}
