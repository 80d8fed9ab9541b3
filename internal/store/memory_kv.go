package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryEntry struct {
	value []byte
	meta  Metadata
}

// MemoryKV keeps everything in process memory. It is meant for local
// development and tests; config refuses it in production.
type MemoryKV struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{entries: make(map[string]memoryEntry)}
}

func (m *MemoryKV) Put(_ context.Context, key string, value []byte, meta Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), meta: meta}
	return nil
}

func (m *MemoryKV) PutIfAbsent(_ context.Context, key string, value []byte, meta Metadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[key]; ok {
		return ErrKeyExists
	}
	m.entries[key] = memoryEntry{value: append([]byte(nil), value...), meta: meta}
	return nil
}

func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// List returns keys in lexical order. The cursor is the last key of the
// previous page.
func (m *MemoryKV) List(_ context.Context, opts ListOptions) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if strings.HasPrefix(k, opts.Prefix) && k > opts.Cursor {
			names = append(names, k)
		}
	}
	sort.Strings(names)

	limit := int(opts.Limit)
	complete := true
	if limit > 0 && len(names) > limit {
		names = names[:limit]
		complete = false
	}

	page := Page{Keys: make([]KeyInfo, 0, len(names)), Complete: complete}
	for _, k := range names {
		page.Keys = append(page.Keys, KeyInfo{Name: k, Metadata: m.entries[k].meta})
	}
	if !complete {
		page.Cursor = names[len(names)-1]
	}
	return page, nil
}
