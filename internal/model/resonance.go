package model

import "time"

type PolicyStatus string

const (
	PolicyOK   PolicyStatus = "ok"
	PolicyWarn PolicyStatus = "warn"
	PolicyFail PolicyStatus = "fail"
)

type Policy struct {
	Status PolicyStatus `json:"status"`
	Action string       `json:"action"`
}

type Metrics struct {
	Count                int     `json:"count"`
	MeanConfidence       float64 `json:"mean_confidence"`
	MeanUncertainty      float64 `json:"mean_uncertainty"`
	MeanContextDepth     float64 `json:"mean_context_depth"`
	MeanEmotionalValence float64 `json:"mean_emotional_valence"`
	MeanTextSimilarity   float64 `json:"mean_text_similarity"`
}

type SourceStats struct {
	Count           int     `json:"count"`
	MeanConfidence  float64 `json:"mean_confidence"`
	MeanUncertainty float64 `json:"mean_uncertainty"`
}

// ResonanceResult is built once per evaluation and never mutated afterwards.
type ResonanceResult struct {
	ResonanceIndex float64                `json:"resonance_index"`
	Metrics        Metrics                `json:"metrics"`
	PerSource      map[string]SourceStats `json:"per_source"`
	Policy         Policy                 `json:"policy"`
	Report         string                 `json:"report"`
	Note           string                 `json:"note,omitempty"`
}

// EvaluationReport is the compact form of a ResonanceResult kept in the store.
type EvaluationReport struct {
	ID             int64                  `json:"id,string"`
	CreatedAt      time.Time              `json:"created_at"`
	ResonanceIndex float64                `json:"resonance_index"`
	Policy         Policy                 `json:"policy"`
	Metrics        Metrics                `json:"metrics"`
	PerSource      map[string]SourceStats `json:"per_source"`
}

// CycleEvent is appended to the cycle log when a resonance result is
// handed over to the autonomy cycle.
type CycleEvent struct {
	ID              int64     `json:"id,string"`
	Timestamp       time.Time `json:"ts"`
	Type            string    `json:"type"`
	ResonanceIndex  float64   `json:"resonance_index"`
	MeanConfidence  float64   `json:"mean_confidence"`
	MeanUncertainty float64   `json:"mean_uncertainty"`
	Decision        string    `json:"decision"`
}

// ReportRef points at a stored EvaluationReport.
type ReportRef struct {
	Key  string `json:"key"`
	TS   string `json:"ts"`
	Size *int64 `json:"size,omitempty"`
}
