package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrEmptySlot is returned by a Slot that has never been written.
var ErrEmptySlot = errors.New("slot is empty")

// Slot is a single durable location holding one serialized state.
type Slot interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, payload []byte) error
}

// FileSlot keeps the state in one JSON file.
type FileSlot struct {
	path string
}

// NewFileSlot constructs a FileSlot for path.
func NewFileSlot(path string) *FileSlot {
	return &FileSlot{path: path}
}

// Read returns the file content.
func (s *FileSlot) Read(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrEmptySlot
	}
	return data, err
}

// Write replaces the file through a rename so readers never see a partial payload.
func (s *FileSlot) Write(ctx context.Context, payload []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// SQLSlot keeps the state in one row of the app_state table.
type SQLSlot struct {
	db   *sqlx.DB
	name string
}

// NewSQLSlot constructs a SQLSlot storing under name.
func NewSQLSlot(db *sqlx.DB, name string) *SQLSlot {
	return &SQLSlot{db: db, name: name}
}

// Read returns the stored payload.
func (s *SQLSlot) Read(ctx context.Context) ([]byte, error) {
	var payload string
	err := s.db.GetContext(ctx, &payload, s.db.Rebind(`SELECT payload FROM app_state WHERE slot = ?`), s.name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmptySlot
	}
	if err != nil {
		return nil, fmt.Errorf("read slot %s: %w", s.name, err)
	}
	return []byte(payload), nil
}

// Write upserts the payload.
func (s *SQLSlot) Write(ctx context.Context, payload []byte) error {
	query := s.db.Rebind(`INSERT INTO app_state (slot, payload, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`)
	if _, err := s.db.ExecContext(ctx, query, s.name, string(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("write slot %s: %w", s.name, err)
	}
	return nil
}
