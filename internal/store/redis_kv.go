package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "kv:"
	fieldValue     = "value"
	fieldMetadata  = "metadata"
)

var putIfAbsentScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return 0
end
redis.call('HSET', KEYS[1], 'value', ARGV[1], 'metadata', ARGV[2])
return 1
`)

// RedisKV stores each key as a hash holding the value and its JSON metadata.
// Listing walks SCAN with a MATCH on the prefix, so the cursor is Redis' own.
type RedisKV struct {
	client redis.UniversalClient
}

func NewRedisKV(client redis.UniversalClient) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Put(ctx context.Context, key string, value []byte, meta Metadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := r.client.HSet(ctx, redisKeyPrefix+key, fieldValue, value, fieldMetadata, metaJSON).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) PutIfAbsent(ctx context.Context, key string, value []byte, meta Metadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	stored, err := putIfAbsentScript.Run(ctx, r.client, []string{redisKeyPrefix + key}, value, metaJSON).Int()
	if err != nil {
		return fmt.Errorf("put if absent %s: %w", key, err)
	}
	if stored == 0 {
		return ErrKeyExists
	}
	return nil
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.HGet(ctx, redisKeyPrefix+key, fieldValue).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("hget %s: %w", key, err)
	}
	return val, nil
}

func (r *RedisKV) List(ctx context.Context, opts ListOptions) (Page, error) {
	var cursor uint64
	if opts.Cursor != "" {
		c, err := strconv.ParseUint(opts.Cursor, 10, 64)
		if err != nil {
			return Page{}, fmt.Errorf("invalid cursor %q: %w", opts.Cursor, err)
		}
		cursor = c
	}

	match := redisKeyPrefix + escapeGlob(opts.Prefix) + "*"
	keys, next, err := r.client.Scan(ctx, cursor, match, opts.Limit).Result()
	if err != nil {
		return Page{}, fmt.Errorf("scan %s: %w", opts.Prefix, err)
	}

	page := Page{Keys: make([]KeyInfo, 0, len(keys)), Complete: next == 0}
	if next != 0 {
		page.Cursor = strconv.FormatUint(next, 10)
	}
	if len(keys) == 0 {
		return page, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.HGet(ctx, k, fieldMetadata)
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return Page{}, fmt.Errorf("reading metadata: %w", err)
	}

	for i, k := range keys {
		info := KeyInfo{Name: strings.TrimPrefix(k, redisKeyPrefix)}
		// Metadata is advisory; a missing or unreadable field still lists the key.
		if raw, err := cmds[i].Bytes(); err == nil {
			_ = json.Unmarshal(raw, &info.Metadata)
		}
		page.Keys = append(page.Keys, info)
	}
	return page, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
