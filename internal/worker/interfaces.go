package worker

import (
	"context"

	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// QueueRebuilder is the part of service.QueueService the worker needs.
type QueueRebuilder interface {
	Rebuild(ctx context.Context) (*model.QueueSnapshot, error)
}
