package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// pgxConn is the subset of pgxpool.Pool used by PostgresKV.
type pgxConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresKV keeps entries in a single table. Listing is keyset paginated on
// the primary key, so the cursor is the last key returned.
type PostgresKV struct {
	conn pgxConn
}

func NewPostgresKV(conn pgxConn) *PostgresKV {
	return &PostgresKV{conn: conn}
}

// EnsureSchema creates the backing table when it does not exist yet.
func (p *PostgresKV) EnsureSchema(ctx context.Context) error {
	if _, err := p.conn.Exec(ctx, createKVTable); err != nil {
		return fmt.Errorf("creating kv_entries: %w", err)
	}
	return nil
}

func (p *PostgresKV) Put(ctx context.Context, key string, value []byte, meta Metadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	_, err = p.conn.Exec(ctx, `
		INSERT INTO kv_entries (key, value, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, metadata = EXCLUDED.metadata, updated_at = now()`,
		key, value, metaJSON)
	if err != nil {
		return fmt.Errorf("upserting %s: %w", key, err)
	}
	return nil
}

func (p *PostgresKV) PutIfAbsent(ctx context.Context, key string, value []byte, meta Metadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	tag, err := p.conn.Exec(ctx, `
		INSERT INTO kv_entries (key, value, metadata)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING`,
		key, value, metaJSON)
	if err != nil {
		return fmt.Errorf("inserting %s: %w", key, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrKeyExists
	}
	return nil
}

func (p *PostgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.conn.QueryRow(ctx, `SELECT value FROM kv_entries WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("selecting %s: %w", key, err)
	}
	return value, nil
}

func (p *PostgresKV) List(ctx context.Context, opts ListOptions) (Page, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.conn.Query(ctx, `
		SELECT key, metadata FROM kv_entries
		WHERE key LIKE $1 ESCAPE '\' AND key > $2
		ORDER BY key
		LIMIT $3`,
		escapeLike(opts.Prefix)+"%", opts.Cursor, limit+1)
	if err != nil {
		return Page{}, fmt.Errorf("listing %s: %w", opts.Prefix, err)
	}
	defer rows.Close()

	var keys []KeyInfo
	for rows.Next() {
		var (
			info    KeyInfo
			rawMeta []byte
		)
		if err := rows.Scan(&info.Name, &rawMeta); err != nil {
			return Page{}, fmt.Errorf("scanning row: %w", err)
		}
		_ = json.Unmarshal(rawMeta, &info.Metadata)
		keys = append(keys, info)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("iterating rows: %w", err)
	}

	page := Page{Keys: keys, Complete: int64(len(keys)) <= limit}
	if !page.Complete {
		page.Keys = keys[:limit]
		page.Cursor = page.Keys[len(page.Keys)-1].Name
	}
	return page, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
