package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mira.app/federation/common/logger"
	"mira.app/federation/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// RedisReclaimer periodically reclaims stale pending messages, covering a
// worker that died after XREADGROUP but before XACK.
type RedisReclaimer struct {
	client    redis.UniversalClient
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor
}

func NewRedisReclaimer(client redis.UniversalClient, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
	}
}

// Run blocks until ctx is cancelled.
func (r *RedisReclaimer) Run(ctx context.Context) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "federation.worker.reclaimer",
	})

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"stream", r.cfg.Stream,
		"group", r.cfg.Group)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "reclaimer stopping")
			return nil
		case <-ticker.C:
			if err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			}
		}
	}
}

// ReclaimOnce claims every message idle for at least MinIdle. Stale
// queue_rebuild tasks coalesce: one rebuild covers all of them, so only the
// newest is processed and the rest are acked with it.
func (r *RedisReclaimer) ReclaimOnce(ctx context.Context) error {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: r.cfg.Stream,
		Group:  r.cfg.Group,
		Idle:   r.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return fmt.Errorf("xpending: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	ids := make([]string, len(pending))
	for i, p := range pending {
		ids[i] = p.ID
	}
	slog.InfoContext(ctx, "found stale pending tasks",
		"count", len(pending),
		"oldest_consumer", pending[0].Consumer,
		"oldest_idle", pending[0].Idle)

	claimed, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Messages: ids,
	}).Result()
	if err != nil {
		return fmt.Errorf("xclaim: %w", err)
	}
	if len(claimed) == 0 {
		slog.DebugContext(ctx, "tasks already reclaimed by another worker")
		return nil
	}

	var rebuilds []queue.Message
	for _, raw := range claimed {
		msg, err := queue.ParseMessage(raw)
		if err != nil {
			slog.ErrorContext(ctx, "dropping unparseable reclaimed task", "error", err, "message_id", raw.ID)
			_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: raw})
			continue
		}
		if msg.TaskType == queue.TaskTypeQueueRebuild {
			rebuilds = append(rebuilds, msg)
			continue
		}
		r.processAndAck(ctx, msg)
	}

	if len(rebuilds) == 0 {
		return nil
	}

	// Stream IDs are time ordered; XCLAIM returns them in request order.
	newest := rebuilds[len(rebuilds)-1]
	if err := r.process(ctx, newest); err != nil {
		return err
	}
	for _, msg := range rebuilds {
		if err := r.consumer.Ack(ctx, msg); err != nil {
			slog.WarnContext(ctx, "failed to ack reclaimed task", "error", err, "message_id", msg.ID)
		}
	}
	if len(rebuilds) > 1 {
		slog.InfoContext(ctx, "coalesced stale rebuild tasks", "count", len(rebuilds))
	}
	return nil
}

func (r *RedisReclaimer) processAndAck(ctx context.Context, msg queue.Message) {
	if err := r.process(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to process reclaimed task", "error", err, "message_id", msg.ID)
		return
	}
	if err := r.consumer.Ack(ctx, msg); err != nil {
		slog.WarnContext(ctx, "failed to ack reclaimed task", "error", err, "message_id", msg.ID)
	}
}

func (r *RedisReclaimer) process(ctx context.Context, msg queue.Message) error {
	msgID := msg.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	start := time.Now()
	if err := r.processor(ctx, msg); err != nil {
		return fmt.Errorf("processing reclaimed task %s: %w", msg.ID, err)
	}
	slog.InfoContext(ctx, "reclaimed task processed",
		"attempt", msg.Attempt,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
