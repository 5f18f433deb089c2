// Package checkpoint persists conversation state per thread in SQLite.
package checkpoint

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/spigell/linkedin-coach/internal/profile"
	"github.com/spigell/linkedin-coach/internal/session"
)

// DefaultCapacity bounds the number of stored threads.
const DefaultCapacity = 100

var (
	ErrNotFound         = errors.New("thread not found")
	ErrCapacityExceeded = errors.New("thread capacity exceeded")
	ErrURLTaken         = errors.New("profile url belongs to another thread")
)

// Thread describes a stored thread without its state.
type Thread struct {
	ID           string
	ProfileURL   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ByteSize     int64
	MessageCount int
}

// Store handles thread persistence. Each profile url maps to at most one thread.
type Store struct {
	db       *sql.DB
	capacity int
	now      func() time.Time
}

// Open opens (or creates) the SQLite database at path.
func Open(path string, capacity int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	s, err := NewStore(db, capacity)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore creates a store on db. A non positive capacity means DefaultCapacity.
func NewStore(db *sql.DB, capacity int) (*Store, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Store{db: db, capacity: capacity, now: time.Now}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS threads (
			id TEXT PRIMARY KEY,
			profile_url TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			state_gz BLOB NOT NULL,
			byte_size INTEGER NOT NULL,
			message_count INTEGER NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_threads_profile_url
			ON threads(profile_url);

		CREATE INDEX IF NOT EXISTS idx_threads_updated
			ON threads(updated_at DESC);
	`)
	return err
}

// NewThreadID returns a fresh time ordered thread id.
func (s *Store) NewThreadID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id.String(), nil
}

// Get loads the state of thread id.
func (s *Store) Get(ctx context.Context, id string) (*session.State, error) {
	var compressed []byte
	err := s.db.QueryRowContext(ctx, `SELECT state_gz FROM threads WHERE id = ?`, id).Scan(&compressed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}

	return decodeState(compressed)
}

// Put stores st under id, replacing the previous state. A new thread fails with
// ErrCapacityExceeded once the store is full, and with ErrURLTaken when another
// thread already owns the profile url.
func (s *Store) Put(ctx context.Context, id string, st *session.State) error {
	if st == nil {
		return errors.New("state is nil")
	}
	url := profile.NormalizeURL(st.ProfileURL)

	compressed, err := encodeState(st)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, `SELECT id FROM threads WHERE profile_url = ?`, url).Scan(&owner)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("query owner: %w", err)
	case owner != id:
		return fmt.Errorf("%w: %s is owned by %s", ErrURLTaken, url, owner)
	}

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM threads WHERE id = ?)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("query thread: %w", err)
	}

	now := s.now().UTC().UnixNano()

	if exists {
		_, err = tx.ExecContext(ctx, `
			UPDATE threads
			SET profile_url = ?, updated_at = ?, state_gz = ?, byte_size = ?, message_count = ?
			WHERE id = ?
		`, url, now, compressed, len(compressed), len(st.Messages), id)
		if err != nil {
			return fmt.Errorf("update: %w", err)
		}
		return tx.Commit()
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM threads`).Scan(&total); err != nil {
		return fmt.Errorf("count: %w", err)
	}
	if total >= s.capacity {
		return fmt.Errorf("%w: %d threads stored", ErrCapacityExceeded, total)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO threads (id, profile_url, created_at, updated_at, state_gz, byte_size, message_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, url, now, now, compressed, len(compressed), len(st.Messages))
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}

	return tx.Commit()
}

// Delete removes thread id.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM threads WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// FindByURL returns the thread owning the profile url.
func (s *Store) FindByURL(ctx context.Context, url string) (string, error) {
	url = profile.NormalizeURL(url)

	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM threads WHERE profile_url = ?`, url).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	return id, nil
}

// ListThreadIDs returns up to limit thread ids, most recently updated first.
func (s *Store) ListThreadIDs(ctx context.Context, limit int) ([]string, error) {
	threads, err := s.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(threads))
	for _, t := range threads {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// List returns thread metadata, most recently updated first. States are not loaded.
func (s *Store) List(ctx context.Context, limit int) ([]Thread, error) {
	if limit <= 0 {
		limit = s.capacity
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profile_url, created_at, updated_at, byte_size, message_count
		FROM threads
		ORDER BY updated_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		var (
			t                Thread
			created, updated int64
		)
		if err := rows.Scan(&t.ID, &t.ProfileURL, &created, &updated, &t.ByteSize, &t.MessageCount); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		t.CreatedAt = time.Unix(0, created).UTC()
		t.UpdatedAt = time.Unix(0, updated).UTC()
		threads = append(threads, t)
	}
	return threads, rows.Err()
}

func encodeState(st *session.State) ([]byte, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("close gzip: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeState(compressed []byte) (*session.State, error) {
	gz, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}

	var st session.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &st, nil
}
