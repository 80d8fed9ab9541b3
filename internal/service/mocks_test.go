package service_test

import (
	"context"

	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
	"mira.app/federation/internal/store"
)

// mockKV wraps a MemoryKV and lets individual operations be overridden.
type mockKV struct {
	*store.MemoryKV
	putFn         func(ctx context.Context, key string, value []byte, meta store.Metadata) error
	putIfAbsentFn func(ctx context.Context, key string, value []byte, meta store.Metadata) error
	listFn        func(ctx context.Context, opts store.ListOptions) (store.Page, error)
	putCalls      int
}

func newMockKV() *mockKV {
	return &mockKV{MemoryKV: store.NewMemoryKV()}
}

func (m *mockKV) Put(ctx context.Context, key string, value []byte, meta store.Metadata) error {
	m.putCalls++
	if m.putFn != nil {
		return m.putFn(ctx, key, value, meta)
	}
	return m.MemoryKV.Put(ctx, key, value, meta)
}

func (m *mockKV) PutIfAbsent(ctx context.Context, key string, value []byte, meta store.Metadata) error {
	if m.putIfAbsentFn != nil {
		return m.putIfAbsentFn(ctx, key, value, meta)
	}
	return m.MemoryKV.PutIfAbsent(ctx, key, value, meta)
}

func (m *mockKV) List(ctx context.Context, opts store.ListOptions) (store.Page, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return m.MemoryKV.List(ctx, opts)
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, req queue.RebuildRequest) error
	requests  []queue.RebuildRequest
}

func (m *mockProducer) EnqueueRebuild(ctx context.Context, req queue.RebuildRequest) error {
	m.requests = append(m.requests, req)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, req)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}

type mockCycleLog struct {
	appendFn func(ctx context.Context, event model.CycleEvent) error
	events   []model.CycleEvent
}

func (m *mockCycleLog) Append(ctx context.Context, event model.CycleEvent) error {
	if m.appendFn != nil {
		if err := m.appendFn(ctx, event); err != nil {
			return err
		}
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockCycleLog) Recent(_ context.Context, n int64) ([]model.CycleEvent, error) {
	out := make([]model.CycleEvent, 0, n)
	for i := len(m.events) - 1; i >= 0 && int64(len(out)) < n; i-- {
		out = append(out, m.events[i])
	}
	return out, nil
}
