// Package sqlite provides a durable SnapshotStore backed by SQLite. It
// stores the same envelope shape as the file store inside a BLOB column, so
// snapshots move freely between backends.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lumafield/enginemesh/core"
	"github.com/lumafield/enginemesh/store"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	envelope   BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Store is a SQLite backed SnapshotStore. Uses WAL mode for concurrent
// reads during writes and a single-writer connection pool to avoid
// SQLITE_BUSY errors.
type Store struct {
	db        *sql.DB
	threshold int
	ttl       time.Duration
}

// Options configures a sqlite Store.
type Options struct {
	// CompressionThreshold mirrors store.FileStoreOptions: size above which
	// envelope values are gzipped. Zero uses the default; negative disables.
	CompressionThreshold int

	// TTL expires saved snapshots after the duration. Zero disables expiry.
	TTL time.Duration
}

// WithCompressionThreshold sets the gzip threshold (negative disables).
func WithCompressionThreshold(n int) func(o *Options) {
	return func(o *Options) { o.CompressionThreshold = n }
}

// WithTTL expires saved snapshots after d.
func WithTTL(d time.Duration) func(o *Options) {
	return func(o *Options) { o.TTL = d }
}

// Open creates or opens a SQLite database at the given path and ensures the
// snapshots table exists. Safe to call multiple times on the same path.
func Open(path string, optFns ...func(o *Options)) (*Store, error) {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite supports one writer at a time; keep a single connection ready
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, threshold: opts.CompressionThreshold, ttl: opts.TTL}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the snapshot envelope under the name.
func (s *Store) Save(name string, snap core.Snapshot) error {
	env, err := store.Encode(snap, s.threshold, s.ttl)
	if err != nil {
		return fmt.Errorf("encode snapshot %q: %w", name, err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %q: %w", name, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO snapshots (name, envelope, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET envelope = excluded.envelope, updated_at = excluded.updated_at`,
		name, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save snapshot %q: %w", name, err)
	}
	return nil
}

// Load returns the stored snapshot or store.ErrSnapshotNotFound. Expired
// envelopes are deleted and reported as absent.
func (s *Store) Load(name string) (core.Snapshot, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT envelope FROM snapshots WHERE name = ?`, name).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, store.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %q: %w", name, err)
	}

	var env store.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope %q: %w", name, err)
	}

	if env.Expired(time.Now()) {
		_, _ = s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
		return nil, store.ErrSnapshotNotFound
	}

	snap, err := env.Decode()
	if err != nil {
		return nil, fmt.Errorf("decode envelope %q: %w", name, err)
	}
	return snap, nil
}

// Delete removes the snapshot row or returns store.ErrSnapshotNotFound.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete snapshot %q: %w", name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrSnapshotNotFound
	}
	return nil
}

// List returns the stored snapshot names ordered by name.
func (s *Store) List() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM snapshots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
