package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"mira.app/federation/common/id"
	"mira.app/federation/common/logger"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/resonance"
	"mira.app/federation/internal/store"
)

const reportType = "evaluation_report"

type EvaluationService interface {
	Evaluate(ctx context.Context, raw []any) model.ResonanceResult
	ListReports(ctx context.Context, limit int) ([]model.ReportRef, error)
}

type evaluationService struct {
	kv             store.KV
	scorer         *resonance.Scorer
	reportsEnabled bool
	pageSize       int64
	now            func() time.Time
}

func NewEvaluationService(kv store.KV, scorer *resonance.Scorer, reportsEnabled bool, pageSize int64) EvaluationService {
	if scorer == nil {
		scorer = resonance.NewScorer(nil)
	}
	return &evaluationService{
		kv:             kv,
		scorer:         scorer,
		reportsEnabled: reportsEnabled,
		pageSize:       pageSize,
		now:            time.Now,
	}
}

// Evaluate scores the batch and, when enabled, persists a compact report.
// A failed report write is logged and never affects the result.
func (s *evaluationService) Evaluate(ctx context.Context, raw []any) model.ResonanceResult {
	result := s.scorer.Evaluate(raw)

	slog.InfoContext(ctx, "batch evaluated",
		"count", result.Metrics.Count,
		"resonance_index", result.ResonanceIndex,
		"policy", result.Policy.Status)

	if s.reportsEnabled && s.kv != nil {
		s.writeReport(ctx, result)
	}
	return result
}

func (s *evaluationService) writeReport(ctx context.Context, result model.ResonanceResult) {
	now := s.now().UTC()
	report := model.EvaluationReport{
		ID:             id.New(),
		CreatedAt:      now,
		ResonanceIndex: result.ResonanceIndex,
		Policy:         result.Policy,
		Metrics:        result.Metrics,
		PerSource:      result.PerSource,
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{ReportID: &report.ID})

	body, err := json.Marshal(report)
	if err != nil {
		slog.WarnContext(ctx, "failed to marshal evaluation report", "error", err)
		return
	}

	size := int64(len(body))
	key := reportKey(now, report.ID)
	if err := s.kv.Put(ctx, key, body, store.Metadata{Type: reportType, Size: &size}); err != nil {
		slog.WarnContext(ctx, "failed to store evaluation report", "error", err, "key", key)
		return
	}
	slog.DebugContext(ctx, "evaluation report stored", "key", key)
}

// ListReports returns stored report keys, newest first. limit <= 0 returns all.
func (s *evaluationService) ListReports(ctx context.Context, limit int) ([]model.ReportRef, error) {
	keys, err := store.ListAll(ctx, s.kv, ReportsPrefix, s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("listing reports: %w", err)
	}

	refs := make([]model.ReportRef, 0, len(keys))
	for _, k := range keys {
		ts := SentinelTimestamp
		rest := strings.TrimPrefix(k.Name, ReportsPrefix)
		if len(rest) >= len(KeyTimeLayout) {
			if _, err := time.Parse(KeyTimeLayout, rest[:len(KeyTimeLayout)]); err == nil {
				ts = rest[:len(KeyTimeLayout)]
			}
		}
		refs = append(refs, model.ReportRef{Key: k.Name, TS: ts, Size: k.Metadata.Size})
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].TS != refs[j].TS {
			return refs[i].TS > refs[j].TS
		}
		return refs[i].Key > refs[j].Key
	})

	if limit > 0 && len(refs) > limit {
		refs = refs[:limit]
	}
	return refs, nil
}
