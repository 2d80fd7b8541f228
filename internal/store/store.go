package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// user_version history: 0 is the pre-release ledger, 1 adds the UNIQUE
// index on contributions.source_link_digest.
const currentSchemaVersion = 1

// Store is the append-only contribution ledger plus the user directory,
// backed by a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger at path, bringing pragmas
// and schema up to date. Reopening an existing ledger is a no-op beyond
// the version check.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY on concurrent inserts from this process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the raw handle for queries the Store does not model, such
// as test-only corruption setups.
func (s *Store) DB() *sql.DB {
	return s.db
}

// BeginRead opens a read-only transaction. All lookups and scans of one
// uniqueness check run inside a single read transaction so the scan sees a
// consistent snapshot. The caller must Close the session on every exit path.
func (s *Store) BeginRead(ctx context.Context) (*ReadTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read tx: %w", err)
	}
	return &ReadTx{tx: tx}, nil
}

// ReadTx is a snapshot-consistent read session over the store.
type ReadTx struct {
	tx *sql.Tx
}

// Close releases the read transaction. Safe to call on every exit path; a
// read-only transaction has nothing to commit.
func (r *ReadTx) Close() error {
	if err := r.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return fmt.Errorf("close read tx: %w", err)
	}
	return nil
}

// WAL keeps readers unblocked during inserts; busy_timeout covers the
// brief writer handoff between processes sharing the ledger file.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema runs the embedded schema (all statements are IF NOT EXISTS)
// and then walks the ledger forward through any pending migrations.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		if err := migrateToV1(db); err != nil {
			return err
		}
		version = 1
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// migrateToV1 backfills the source-link guard index on ledgers created
// before it existed; fresh ledgers get it straight from schema.sql.
func migrateToV1(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_contributions_source_link_digest
		ON contributions(source_link_digest)
	`)
	if err != nil {
		return fmt.Errorf("migrate to v1: %w", err)
	}
	return nil
}

// verifyPragma reports whether a pragma holds the expected value; tests
// use it to pin the connection configuration.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("query pragma %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("pragma %s = %q, want %q", name, value, expected)
	}
	return nil
}
