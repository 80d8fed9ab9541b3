package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mira.app/federation/common/id"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
)

const (
	CycleEventCollect = "collect"
	DecisionPending   = "pending"
)

type CycleParams struct {
	ResonanceIndex  float64 `json:"resonance_index"`
	MeanConfidence  float64 `json:"mean_confidence"`
	MeanUncertainty float64 `json:"mean_uncertainty"`
}

// CycleService hands evaluation results to the autonomy cycle log.
type CycleService interface {
	Collect(ctx context.Context, params CycleParams) (*model.CycleEvent, error)
	Recent(ctx context.Context, n int64) ([]model.CycleEvent, error)
}

type cycleService struct {
	log queue.CycleLog
	now func() time.Time
}

func NewCycleService(log queue.CycleLog) CycleService {
	return &cycleService{log: log, now: time.Now}
}

func (s *cycleService) Collect(ctx context.Context, params CycleParams) (*model.CycleEvent, error) {
	event := model.CycleEvent{
		ID:              id.New(),
		Timestamp:       s.now().UTC(),
		Type:            CycleEventCollect,
		ResonanceIndex:  params.ResonanceIndex,
		MeanConfidence:  params.MeanConfidence,
		MeanUncertainty: params.MeanUncertainty,
		Decision:        DecisionPending,
	}

	if err := s.log.Append(ctx, event); err != nil {
		return nil, fmt.Errorf("appending cycle event: %w", err)
	}

	slog.InfoContext(ctx, "cycle event logged",
		"event_id", event.ID,
		"resonance_index", event.ResonanceIndex)
	return &event, nil
}

func (s *cycleService) Recent(ctx context.Context, n int64) ([]model.CycleEvent, error) {
	if n <= 0 {
		n = 20
	}
	return s.log.Recent(ctx, n)
}
