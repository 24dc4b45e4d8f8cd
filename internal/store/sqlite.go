package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cache keys for the two snapshots the widget persists.
const (
	KeyWeather  = "weatherData"
	KeyLocation = "location"
)

var ErrNotFound = errors.New("store: key not found")

// Store is a key-value cache on top of SQLite. Entries never expire.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Get returns the value for key, or ErrNotFound.
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv_cache WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// GetMany returns the values present for keys. Missing keys are absent from the map.
func (s *Store) GetMany(keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	ph := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		ph[i] = "?"
		args[i] = k
	}

	// Only placeholders are interpolated; values stay bound.
	q := fmt.Sprintf(`SELECT key, value FROM kv_cache WHERE key IN (%s)`, strings.Join(ph, ","))
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("get many: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("get many: scan: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Put stores value under key, replacing any previous value.
func (s *Store) Put(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("store: empty key")
	}
	_, err := s.db.Exec(`
		INSERT INTO kv_cache (key, value, stored_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			stored_at = excluded.stored_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// StoredAt returns when key was last written.
func (s *Store) StoredAt(key string) (time.Time, error) {
	var at time.Time
	err := s.db.QueryRow(`SELECT stored_at FROM kv_cache WHERE key = ?`, key).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("stored at %q: %w", key, err)
	}
	return at, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
