// Package storage persists per-user settings, statistics, referrals and
// thumbnails in SQLite, and holds the in-memory session table used while a
// user is typing multi-step input.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // register "sqlite3" driver
)

// ErrNotFound is returned when a user or thumbnail row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id         INTEGER PRIMARY KEY,
	username        TEXT    NOT NULL DEFAULT '',
	first_name      TEXT    NOT NULL DEFAULT '',
	premium_until   INTEGER NOT NULL DEFAULT 0,
	files_processed INTEGER NOT NULL DEFAULT 0,
	referrals       INTEGER NOT NULL DEFAULT 0,
	created_at      INTEGER NOT NULL,
	last_active     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
	user_id         INTEGER PRIMARY KEY REFERENCES users (user_id),
	rename_mode     TEXT NOT NULL DEFAULT 'autorename',
	template        TEXT NOT NULL DEFAULT '',
	replace_rules   TEXT NOT NULL DEFAULT '[]',
	caption_mode    TEXT NOT NULL DEFAULT 'Normal',
	thumbnail_mode  TEXT NOT NULL DEFAULT 'normal',
	banner_position TEXT NOT NULL DEFAULT 'DISABLED',
	banner_link     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_analytics (
	user_id        INTEGER PRIMARY KEY REFERENCES users (user_id),
	total_files    INTEGER NOT NULL DEFAULT 0,
	files_today    INTEGER NOT NULL DEFAULT 0,
	last_file_date TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS referrals (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	referrer_id INTEGER NOT NULL REFERENCES users (user_id),
	referred_id INTEGER NOT NULL REFERENCES users (user_id),
	created_at  INTEGER NOT NULL,
	UNIQUE (referrer_id, referred_id)
);

CREATE TABLE IF NOT EXISTS thumbnails (
	user_id INTEGER NOT NULL REFERENCES users (user_id),
	slot    TEXT    NOT NULL,
	file_id TEXT    NOT NULL,
	PRIMARY KEY (user_id, slot)
);
`

// Store is the SQLite-backed settings and statistics store. It is safe for
// concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// User identifies a chat user.
type User struct {
	ID        int64
	Username  string
	FirstName string
}

// DisplayName prefers the first name, then the username, then "User".
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return u.Username
	}
	return "User"
}

// EnsureUser creates the user with default settings if needed and refreshes
// the stored names and activity time. created reports whether the user is
// new.
func (s *Store) EnsureUser(ctx context.Context, u User) (created bool, err error) {
	now := s.now().Unix()
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO users (user_id, username, first_name, created_at, last_active)
			 VALUES (?, ?, ?, ?, ?)`, u.ID, u.Username, u.FirstName, now, now)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1
		if !created {
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET username = ?, first_name = ?, last_active = ? WHERE user_id = ?`,
				u.Username, u.FirstName, now, u.ID); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_settings (user_id) VALUES (?)`, u.ID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO user_analytics (user_id) VALUES (?)`, u.ID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("ensure user %d: %w", u.ID, err)
	}
	return created, nil
}
