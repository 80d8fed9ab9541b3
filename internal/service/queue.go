package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"mira.app/federation/internal/model"
	"mira.app/federation/internal/store"
)

var ErrSnapshotNotFound = errors.New("queue snapshot has not been built yet")

type QueueService interface {
	// Rebuild lists every stored proposal, orders them newest first and
	// overwrites the review queue snapshot.
	Rebuild(ctx context.Context) (*model.QueueSnapshot, error)
	Snapshot(ctx context.Context) (*model.QueueSnapshot, error)
}

type queueService struct {
	kv       store.KV
	pageSize int64
	now      func() time.Time
}

func NewQueueService(kv store.KV, pageSize int64) QueueService {
	return &queueService{
		kv:       kv,
		pageSize: pageSize,
		now:      time.Now,
	}
}

type queueEntry struct {
	item model.QueueItem
	seq  int
}

func (s *queueService) Rebuild(ctx context.Context) (*model.QueueSnapshot, error) {
	keys, err := store.ListAll(ctx, s.kv, PatchesPrefix, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}

	entries := make([]queueEntry, 0, len(keys))
	for _, k := range keys {
		ts, seq, _ := ParseKeyTimestamp(k.Name)
		typ := k.Metadata.Type
		if typ == "" {
			typ = model.ProposalType
		}
		entries = append(entries, queueEntry{
			item: model.QueueItem{
				Key:    k.Name,
				TS:     ts,
				Target: k.Metadata.Target,
				Type:   typ,
				Size:   k.Metadata.Size,
			},
			seq: seq,
		})
	}
	sortQueue(entries)

	snap := &model.QueueSnapshot{
		UpdatedAt: s.now().UTC(),
		Total:     len(entries),
		Items:     make([]model.QueueItem, len(entries)),
	}
	for i, e := range entries {
		snap.Items[i] = e.item
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := s.kv.Put(ctx, QueueKey, body, store.Metadata{Type: model.QueueType}); err != nil {
		return nil, fmt.Errorf("storing snapshot: %w", err)
	}

	slog.InfoContext(ctx, "patch queue rebuilt", "total", snap.Total)
	return snap, nil
}

func (s *queueService) Snapshot(ctx context.Context) (*model.QueueSnapshot, error) {
	body, err := s.kv.Get(ctx, QueueKey)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snap model.QueueSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}
	return &snap, nil
}

// sortQueue orders newest first. Same-second saves are ordered by their
// suffix, and the key breaks any remaining tie so the order is total.
func sortQueue(entries []queueEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.item.TS != b.item.TS {
			return a.item.TS > b.item.TS
		}
		if a.seq != b.seq {
			return a.seq > b.seq
		}
		return a.item.Key < b.item.Key
	})
}
