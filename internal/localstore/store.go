package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/relocrm/leadstack/internal/tracing"
)

const (
	KeyAutoSyncStatus  = "autoSyncStatus"
	KeyAutoSyncEnabled = "autoSyncEnabled"
	KeyRecentSearches  = "recentSearches"
)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps small JSON values across restarts in a local SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) the store at path with WAL enabled.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating kv table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetJSON decodes the value stored under key into target. Reports false when the key is absent.
func (s *SQLiteStore) GetJSON(ctx context.Context, key string, target interface{}) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SQLiteStore.GetJSON")
	defer span.Finish()
	tracing.TagComponentLocalStore(span)
	span.LogKV("key", key)

	var raw string
	err := s.db.GetContext(ctx, &raw, "SELECT value FROM kv WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("reading key %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), target); err != nil {
		tracing.TraceErr(span, err)
		return false, fmt.Errorf("decoding key %s: %w", key, err)
	}
	return true, nil
}

func (s *SQLiteStore) SetJSON(ctx context.Context, key string, value interface{}) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SQLiteStore.SetJSON")
	defer span.Finish()
	tracing.TagComponentLocalStore(span)
	span.LogKV("key", key)

	data, err := json.Marshal(value)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("encoding key %s: %w", key, err)
	}

	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO kv (key, value, updated_at) VALUES (?, ?, ?)",
		key, string(data), time.Now().UTC(),
	)
	if err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("writing key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "SQLiteStore.Delete")
	defer span.Finish()
	tracing.TagComponentLocalStore(span)

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		tracing.TraceErr(span, err)
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}
