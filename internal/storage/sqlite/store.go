// Package sqlite implements the storage contract on an embedded SQL
// engine (modernc.org/sqlite, pure Go). The DSN ":memory:" gives a
// volatile store; a file path gives a persisted one.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"airdrophub-backend/internal/storage"
)

type Store struct {
	db   *sql.DB
	open atomic.Bool
}

// timeNow is swapped in tests.
var timeNow = time.Now

// New opens the engine at dsn, applies pragmas and ensures the schema
// idempotently. A failure here is fatal to the caller: the application
// must not proceed with silent no-op persistence.
func New(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: empty DSN")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", dsn, err)
	}
	// The embedded engine processes one operation at a time.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: apply %q: %w", pragma, err)
		}
	}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.open.Store(true)
	return s, nil
}

func (s *Store) Close() error {
	if !s.open.Swap(false) {
		return nil
	}
	return s.db.Close()
}

// Vacuum reclaims free pages. Maintenance only; never required for
// correctness.
func (s *Store) Vacuum(ctx context.Context) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return s.wrap("vacuum", err)
}

func (s *Store) ready() error {
	if s == nil || s.db == nil || !s.open.Load() {
		return storage.ErrNotInitialized
	}
	return nil
}

// wrap maps engine constraint failures onto the shared taxonomy and
// attaches the operation name to everything else.
func (s *Store) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *sqlite.Error
	if errors.As(err, &se) && se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
		return fmt.Errorf("%s: %w", op, storage.ErrConstraint)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// decodeJSON validates the stored blob against the target type so shape
// drift surfaces as an error instead of silently dropping data.
func decodeJSON(raw string, dst any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}
