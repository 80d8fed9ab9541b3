package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"mira.app/federation/common"
	"mira.app/federation/common/logger"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/queue"
	"mira.app/federation/internal/store"
)

// maxKeyAttempts bounds the same-second suffix search in Save.
const maxKeyAttempts = 100

var (
	ErrInvalidProposal   = errors.New("type must be patch_proposal")
	ErrInvalidTargetFile = errors.New("target_file must be a non-empty string")
	ErrEmptyChanges      = errors.New("changes must be a non-empty array")
)

type SaveResult struct {
	Key   string
	Bytes int
}

type PatchService interface {
	Propose(ctx context.Context, code, target string) (*model.PatchProposal, error)
	// Save validates and stores a submitted proposal. Fields it does not
	// know about are kept as submitted.
	Save(ctx context.Context, proposal map[string]json.RawMessage) (*SaveResult, error)
}

type patchService struct {
	kv       store.KV
	analyzer *mirror.Analyzer
	producer queue.Producer
	now      func() time.Time
}

// NewPatchService builds the analyzer/persistence service. producer may be
// nil, in which case saves rely on the scheduled rebuild alone.
func NewPatchService(kv store.KV, analyzer *mirror.Analyzer, producer queue.Producer) PatchService {
	if analyzer == nil {
		analyzer = mirror.NewAnalyzer()
	}
	return &patchService{
		kv:       kv,
		analyzer: analyzer,
		producer: producer,
		now:      time.Now,
	}
}

func (s *patchService) Propose(ctx context.Context, code, target string) (*model.PatchProposal, error) {
	p, err := s.analyzer.Propose(code, target, s.now())
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TargetFile: &p.TargetFile})
	slog.InfoContext(ctx, "patch proposal generated",
		"issues", len(p.Issues),
		"priority", p.Priority)
	return p, nil
}

func (s *patchService) Save(ctx context.Context, proposal map[string]json.RawMessage) (*SaveResult, error) {
	target, err := validateProposal(proposal)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TargetFile: &target})

	safeTarget := common.SanitizeTarget(target)
	if safeTarget == "" {
		return nil, ErrInvalidTargetFile
	}

	now := s.now().UTC()
	enriched := make(map[string]json.RawMessage, len(proposal)+3)
	for k, v := range proposal {
		enriched[k] = v
	}
	enriched["saved_at"] = mustJSON(now)
	enriched["version"] = mustJSON(model.ProposalVersion)

	for seq := 0; seq < maxKeyAttempts; seq++ {
		key := proposalKey(now, seq, safeTarget)
		enriched["storage_key"] = mustJSON(key)

		body, err := json.Marshal(enriched)
		if err != nil {
			return nil, fmt.Errorf("marshaling proposal: %w", err)
		}
		size := int64(len(body))
		meta := store.Metadata{Type: model.ProposalType, Target: target, Size: &size}

		err = s.kv.PutIfAbsent(ctx, key, body, meta)
		if errors.Is(err, store.ErrKeyExists) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("storing proposal: %w", err)
		}

		ctx = logger.WithLogFields(ctx, logger.LogFields{ProposalKey: &key})
		slog.InfoContext(ctx, "patch proposal stored", "bytes", len(body))

		s.requestRebuild(ctx, key)
		return &SaveResult{Key: key, Bytes: len(body)}, nil
	}
	return nil, fmt.Errorf("no free key for %s after %d attempts", safeTarget, maxKeyAttempts)
}

func (s *patchService) requestRebuild(ctx context.Context, key string) {
	if s.producer == nil {
		return
	}
	req := queue.RebuildRequest{Reason: "proposal_saved", ProposalKey: key}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		traceID := spanCtx.TraceID().String()
		req.TraceID = &traceID
	}
	if err := s.producer.EnqueueRebuild(ctx, req); err != nil {
		slog.WarnContext(ctx, "failed to enqueue queue rebuild", "error", err)
	}
}

// validateProposal checks the three required fields and returns the target.
func validateProposal(p map[string]json.RawMessage) (string, error) {
	var typ string
	if err := json.Unmarshal(p["type"], &typ); err != nil || typ != model.ProposalType {
		return "", ErrInvalidProposal
	}

	var target string
	if err := json.Unmarshal(p["target_file"], &target); err != nil || strings.TrimSpace(target) == "" {
		return "", ErrInvalidTargetFile
	}

	var changes []json.RawMessage
	if err := json.Unmarshal(p["changes"], &changes); err != nil || len(changes) == 0 {
		return "", ErrEmptyChanges
	}
	return target, nil
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
