package queue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"mira.app/federation/internal/model"
)

// cycleLogMaxLen bounds the cycle stream; older entries are trimmed.
const cycleLogMaxLen = 10000

// CycleLog is the append-only log of autonomy cycle events.
type CycleLog interface {
	Append(ctx context.Context, event model.CycleEvent) error
	Recent(ctx context.Context, n int64) ([]model.CycleEvent, error)
}

type redisCycleLog struct {
	client redis.UniversalClient
	stream string
}

func NewRedisCycleLog(client redis.UniversalClient, stream string) CycleLog {
	return &redisCycleLog{client: client, stream: stream}
}

func (l *redisCycleLog) Append(ctx context.Context, event model.CycleEvent) error {
	err := l.client.XAdd(ctx, &redis.XAddArgs{
		Stream: l.stream,
		MaxLen: cycleLogMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":               strconv.FormatInt(event.ID, 10),
			"ts":               event.Timestamp.UTC().Format(time.RFC3339Nano),
			"type":             event.Type,
			"resonance_index":  event.ResonanceIndex,
			"mean_confidence":  event.MeanConfidence,
			"mean_uncertainty": event.MeanUncertainty,
			"decision":         event.Decision,
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd cycle event (stream=%s): %w", l.stream, err)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (l *redisCycleLog) Recent(ctx context.Context, n int64) ([]model.CycleEvent, error) {
	msgs, err := l.client.XRevRangeN(ctx, l.stream, "+", "-", n).Result()
	if err != nil {
		return nil, fmt.Errorf("xrevrange cycle events: %w", err)
	}

	events := make([]model.CycleEvent, 0, len(msgs))
	for _, m := range msgs {
		ev, err := parseCycleEvent(m.Values)
		if err != nil {
			return nil, fmt.Errorf("parsing cycle event %s: %w", m.ID, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseCycleEvent(values map[string]any) (model.CycleEvent, error) {
	var (
		ev  model.CycleEvent
		err error
	)
	if ev.ID, err = parseInt64(values, "id"); err != nil {
		return ev, err
	}
	ts, err := parseString(values, "ts")
	if err != nil {
		return ev, err
	}
	if ev.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return ev, fmt.Errorf("parsing ts: %w", err)
	}
	ev.Type, _ = parseOptionalString(values, "type")
	ev.Decision, _ = parseOptionalString(values, "decision")
	if ev.ResonanceIndex, err = parseOptionalFloat(values, "resonance_index"); err != nil {
		return ev, err
	}
	if ev.MeanConfidence, err = parseOptionalFloat(values, "mean_confidence"); err != nil {
		return ev, err
	}
	if ev.MeanUncertainty, err = parseOptionalFloat(values, "mean_uncertainty"); err != nil {
		return ev, err
	}
	return ev, nil
}
