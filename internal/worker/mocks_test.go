package worker

import (
	"context"

	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
)

type mockConsumer struct {
	readFn   func(ctx context.Context) ([]queue.Message, error)
	acked    []string
	requeued []string
	dlq      []string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.dlq = append(m.dlq, msg.ID)
	return nil
}

type mockRebuilder struct {
	rebuildFn func(ctx context.Context) (*model.QueueSnapshot, error)
	calls     int
}

func (m *mockRebuilder) Rebuild(ctx context.Context) (*model.QueueSnapshot, error) {
	m.calls++
	if m.rebuildFn != nil {
		return m.rebuildFn(ctx)
	}
	return &model.QueueSnapshot{Items: []model.QueueItem{}}, nil
}
