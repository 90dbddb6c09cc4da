// Package store persists players, hand histories, table money, rake,
// chat and table statistics in a SQL database.
//
// Three drivers are supported: "sqlite3" (cgo), "sqlite" (pure Go) and
// "postgres". Queries are written with ? placeholders and rebound for
// postgres.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/decred/slog"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite3  = "sqlite3"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// Config selects the database.
type Config struct {
	Driver string
	// DSN is a file path (or ":memory:") for the sqlite drivers and a
	// connection string for postgres.
	DSN string
	Log slog.Logger
}

// Store is a SQL database holding the server's persistent state. It is
// safe for concurrent use.
type Store struct {
	db     *sql.DB
	driver string
	log    slog.Logger
	now    func() time.Time
}

// Open connects to the database and creates missing tables.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	switch cfg.Driver {
	case "":
		cfg.Driver = DriverSQLite3
	case DriverSQLite3, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("empty database dsn")
	}
	if cfg.Driver != DriverPostgres && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, err
	}
	if cfg.Driver == DriverPostgres {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// A sqlite database, in memory ones included, lives in a single
		// connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	s := &Store{db: db, driver: cfg.Driver, log: cfg.Log, now: time.Now}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	if cfg.Driver != DriverPostgres {
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000;`); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	s.log.Infof("Opened %s database", cfg.Driver)
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Driver() string { return s.driver }

func (s *Store) createTables(ctx context.Context) error {
	autoID := "INTEGER PRIMARY KEY AUTOINCREMENT"
	blob := "BLOB"
	if s.driver == DriverPostgres {
		autoID = "BIGSERIAL PRIMARY KEY"
		blob = "BYTEA"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS hands (
			serial ` + autoID + `,
			table_id BIGINT NOT NULL,
			tourney_serial BIGINT NOT NULL DEFAULT 0,
			history ` + blob + `,
			created_at_ms BIGINT NOT NULL,
			saved_at_ms BIGINT
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			serial ` + autoID + `,
			name TEXT NOT NULL UNIQUE,
			created_at_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			serial BIGINT NOT NULL,
			currency INTEGER NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (serial, currency)
		)`,
		`CREATE TABLE IF NOT EXISTS table_money (
			serial BIGINT NOT NULL,
			table_id BIGINT NOT NULL,
			currency INTEGER NOT NULL DEFAULT 0,
			amount BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (serial, table_id)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id ` + autoID + `,
			serial BIGINT NOT NULL,
			table_id BIGINT NOT NULL,
			amount BIGINT NOT NULL,
			type TEXT NOT NULL,
			created_at_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rake (
			currency INTEGER NOT NULL,
			serial BIGINT NOT NULL,
			amount BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (currency, serial)
		)`,
		`CREATE TABLE IF NOT EXISTS chat (
			id ` + autoID + `,
			serial BIGINT NOT NULL,
			table_id BIGINT NOT NULL,
			message TEXT NOT NULL,
			created_at_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS table_stats (
			table_id BIGINT PRIMARY KEY,
			observers INTEGER NOT NULL,
			waiting INTEGER NOT NULL,
			updated_at_ms BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id ` + autoID + `,
			kind TEXT NOT NULL,
			table_id BIGINT NOT NULL,
			hand_serial BIGINT NOT NULL,
			transient BOOLEAN NOT NULL,
			tourney_serial BIGINT NOT NULL,
			created_at_ms BIGINT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind rewrites ? placeholders as $1, $2... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	return rebindDollar(query)
}

func rebindDollar(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) nowMs() int64 {
	return s.now().UTC().UnixMilli()
}

// inTx runs f in a transaction committed when f succeeds.
func (s *Store) inTx(ctx context.Context, f func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := f(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// IsConflict reports whether err is a unique or primary key violation.
func IsConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
