package resonance

import (
	"math"

	"mira.app/federation/internal/model"
)

const (
	contextDepthWeight     = 0.15
	emotionalValenceWeight = 0.05
	neutralSignal          = 0.5
)

// EmptyBatchNote explains a zero result for a batch with nothing to score.
const EmptyBatchNote = "no evaluable responses: every record was missing answer text"

// Scorer turns normalized responses into a ResonanceResult. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	policies PolicyTable
}

func NewScorer(policies PolicyTable) *Scorer {
	if len(policies) == 0 {
		policies = DefaultPolicies
	}
	return &Scorer{policies: policies}
}

// Evaluate normalizes raw inputs and scores them.
func (s *Scorer) Evaluate(raw []any) model.ResonanceResult {
	return s.Score(Normalize(raw))
}

// Score computes the resonance index, aggregate metrics, per-source rollups,
// the policy decision and the text report.
func (s *Scorer) Score(records []model.ResponseRecord) model.ResonanceResult {
	if len(records) == 0 {
		result := model.ResonanceResult{
			PerSource: map[string]model.SourceStats{},
			Policy:    s.policies.Decide(0),
			Note:      EmptyBatchNote,
		}
		result.Report = RenderReport(result)
		return result
	}

	n := float64(len(records))
	var conf, unc, depth, valence float64
	for _, r := range records {
		conf += r.Confidence
		unc += r.Uncertainty
		depth += r.ContextDepth
		valence += r.EmotionalValence
	}
	conf /= n
	unc /= n
	depth /= n
	valence /= n

	similarity := MeanPairwiseSimilarity(records)

	index := (conf - unc) * similarity
	index *= 1 + contextDepthWeight*(depth-neutralSignal)
	index *= 1 + emotionalValenceWeight*(valence-neutralSignal)
	index = round3(clampUnit(index))

	result := model.ResonanceResult{
		ResonanceIndex: index,
		Metrics: model.Metrics{
			Count:                len(records),
			MeanConfidence:       round3(conf),
			MeanUncertainty:      round3(unc),
			MeanContextDepth:     round3(depth),
			MeanEmotionalValence: round3(valence),
			MeanTextSimilarity:   round3(similarity),
		},
		PerSource: perSource(records),
		Policy:    s.policies.Decide(index),
	}
	result.Report = RenderReport(result)
	return result
}

func perSource(records []model.ResponseRecord) map[string]model.SourceStats {
	type acc struct {
		count     int
		conf, unc float64
	}
	sums := make(map[string]*acc)
	for _, r := range records {
		a, ok := sums[r.Source]
		if !ok {
			a = &acc{}
			sums[r.Source] = a
		}
		a.count++
		a.conf += r.Confidence
		a.unc += r.Uncertainty
	}

	out := make(map[string]model.SourceStats, len(sums))
	for source, a := range sums {
		out[source] = model.SourceStats{
			Count:           a.count,
			MeanConfidence:  round3(a.conf / float64(a.count)),
			MeanUncertainty: round3(a.unc / float64(a.count)),
		}
	}
	return out
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
