package model

// ResponseRecord is one peer-submitted answer after normalization.
// Every numeric field is within [0,1] and Answer is never empty.
type ResponseRecord struct {
	Source           string    `json:"source"`
	Intent           string    `json:"intent,omitempty"`
	QuestionID       string    `json:"question_id,omitempty"`
	Answer           string    `json:"answer"`
	Confidence       float64   `json:"confidence"`
	Uncertainty      float64   `json:"uncertainty"`
	ContextDepth     float64   `json:"context_depth"`
	EmotionalValence float64   `json:"emotional_valence"`
	Timestamp        string    `json:"timestamp,omitempty"`
	Signature        string    `json:"signature,omitempty"`
	Embedding        []float64 `json:"embedding,omitempty"`
}
