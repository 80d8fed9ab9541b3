package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"mira.app/federation/core/config"
	"mira.app/federation/core/db"
)

// Open returns the KV selected by cfg.Store.Backend. The returned close
// function releases backend resources other than the shared Redis client.
func Open(ctx context.Context, cfg config.Config, rdb redis.UniversalClient) (KV, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendRedis:
		if rdb == nil {
			return nil, nil, fmt.Errorf("redis backend requires a redis client")
		}
		return NewRedisKV(rdb), func() {}, nil

	case config.StoreBackendPostgres:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		kv := NewPostgresKV(database.Pool())
		if err := kv.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, nil, err
		}
		return kv, database.Close, nil

	case config.StoreBackendMemory:
		return NewMemoryKV(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
