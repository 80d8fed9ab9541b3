package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	EnqueueRebuild(ctx context.Context, req RebuildRequest) error
	Close() error
}

type redisProducer struct {
	client redis.UniversalClient
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client redis.UniversalClient, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) EnqueueRebuild(ctx context.Context, req RebuildRequest) error {
	attempt := req.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type": string(TaskTypeQueueRebuild),
		"attempt":   attempt,
	}
	if req.Reason != "" {
		fields["reason"] = req.Reason
	}
	if req.ProposalKey != "" {
		fields["proposal_key"] = req.ProposalKey
	}
	if req.TraceID != nil && *req.TraceID != "" {
		fields["trace_id"] = *req.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue rebuild: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued queue rebuild", "reason", req.Reason, "proposal_key", req.ProposalKey, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
