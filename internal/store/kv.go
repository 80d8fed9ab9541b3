package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested key does not exist
	ErrNotFound = errors.New("not found")
	// ErrKeyExists is returned by PutIfAbsent when the key is already taken
	ErrKeyExists = errors.New("key already exists")
)

// Metadata is stored next to each value so listings can be served without
// reading the values themselves.
type Metadata struct {
	Type   string `json:"type,omitempty"`
	Target string `json:"target,omitempty"`
	Size   *int64 `json:"size,omitempty"`
}

type KeyInfo struct {
	Name     string
	Metadata Metadata
}

type ListOptions struct {
	Prefix string
	// Cursor is the opaque value returned by the previous page, empty for
	// the first page.
	Cursor string
	Limit  int64
}

type Page struct {
	Keys     []KeyInfo
	Cursor   string
	Complete bool
}

// KV is the durable key-value store owning all persisted state. Single-key
// Put and Get are atomic; List is eventually consistent and may repeat keys
// across pages.
type KV interface {
	Put(ctx context.Context, key string, value []byte, meta Metadata) error
	PutIfAbsent(ctx context.Context, key string, value []byte, meta Metadata) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context, opts ListOptions) (Page, error)
}

// ListAll walks every page under prefix until the cursor is exhausted.
// Keys repeated across pages are returned once.
func ListAll(ctx context.Context, kv KV, prefix string, pageSize int64) ([]KeyInfo, error) {
	var (
		out    []KeyInfo
		cursor string
		seen   = make(map[string]struct{})
	)
	for {
		page, err := kv.List(ctx, ListOptions{Prefix: prefix, Cursor: cursor, Limit: pageSize})
		if err != nil {
			return nil, err
		}
		for _, k := range page.Keys {
			if _, dup := seen[k.Name]; dup {
				continue
			}
			seen[k.Name] = struct{}{}
			out = append(out, k)
		}
		if page.Complete || page.Cursor == "" {
			return out, nil
		}
		cursor = page.Cursor
	}
}
