package credstore

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/and161185/homeheaven/internal/errs"
	"github.com/and161185/homeheaven/internal/migrate"
)

// SQLite keeps the credential in a local key/value table, one row under Key.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database file and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// single writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	if err := migrate.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// Close releases the database handle.
func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Load() (string, error) {
	const q = `SELECT value FROM local_storage WHERE key = ?`
	var v string
	err := s.db.QueryRow(q, Key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", errs.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

func (s *SQLite) Save(credential string) error {
	const q = `
INSERT INTO local_storage (key, value) VALUES (?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(q, Key, credential)
	return err
}

func (s *SQLite) Clear() error {
	const q = `DELETE FROM local_storage WHERE key = ?`
	_, err := s.db.Exec(q, Key)
	return err
}
