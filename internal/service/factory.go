package service

import (
	"mira.app/federation/core/config"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/queue"
	"mira.app/federation/internal/resonance"
	"mira.app/federation/internal/store"
)

type Services struct {
	kv       store.KV
	producer queue.Producer
	cycles   queue.CycleLog
	analyzer *mirror.Analyzer
	storeCfg config.StoreConfig
}

// NewServices wires the services over one store. producer and cycles may be
// nil when no Redis is available (CLI, memory backend).
func NewServices(kv store.KV, producer queue.Producer, cycles queue.CycleLog, analyzer *mirror.Analyzer, storeCfg config.StoreConfig) *Services {
	return &Services{
		kv:       kv,
		producer: producer,
		cycles:   cycles,
		analyzer: analyzer,
		storeCfg: storeCfg,
	}
}

func (s *Services) Evaluations() EvaluationService {
	return NewEvaluationService(s.kv, resonance.NewScorer(nil), s.storeCfg.ReportsEnabled, s.storeCfg.ListPageSize)
}

func (s *Services) Patches() PatchService {
	return NewPatchService(s.kv, s.analyzer, s.producer)
}

func (s *Services) Queue() QueueService {
	return NewQueueService(s.kv, s.storeCfg.ListPageSize)
}

// Cycles returns nil when no cycle log is configured.
func (s *Services) Cycles() CycleService {
	if s.cycles == nil {
		return nil
	}
	return NewCycleService(s.cycles)
}
