package resonance

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"mira.app/federation/internal/model"
)

// UnknownSource is used for records that carry no usable source identifier.
const UnknownSource = "unknown"

// Accepted field names per record field, in precedence order. The first name
// that yields a usable value wins.
var (
	answerFields     = []string{"answer", "content"}
	sourceFields     = []string{"source", "agent"}
	confidenceFields = []string{"confidence", "confidence_score"}
)

const (
	defaultConfidence       = 0.0
	defaultUncertainty      = 0.5
	defaultContextDepth     = 0.5
	defaultEmotionalValence = 0.5
)

// Normalize coerces loosely typed response inputs (as decoded from JSON) into
// well-formed records. Missing or invalid fields take their defaults, numeric
// fields are clamped into [0,1] and entries without answer text are dropped.
func Normalize(raw []any) []model.ResponseRecord {
	records := make([]model.ResponseRecord, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		rec, ok := normalizeOne(obj)
		if !ok {
			continue
		}
		records = append(records, rec)
	}
	return records
}

func normalizeOne(obj map[string]any) (model.ResponseRecord, bool) {
	answer := firstString(obj, answerFields)
	if answer == "" {
		return model.ResponseRecord{}, false
	}

	source := firstString(obj, sourceFields)
	if source == "" {
		source = UnknownSource
	}

	return model.ResponseRecord{
		Source:           source,
		Intent:           firstString(obj, []string{"intent"}),
		QuestionID:       firstString(obj, []string{"question_id"}),
		Answer:           answer,
		Confidence:       firstUnit(obj, confidenceFields, defaultConfidence),
		Uncertainty:      firstUnit(obj, []string{"uncertainty"}, defaultUncertainty),
		ContextDepth:     firstUnit(obj, []string{"context_depth"}, defaultContextDepth),
		EmotionalValence: firstUnit(obj, []string{"emotional_valence"}, defaultEmotionalValence),
		Timestamp:        firstString(obj, []string{"timestamp"}),
		Signature:        firstString(obj, []string{"signature"}),
		Embedding:        toVector(obj["embedding"]),
	}, true
}

func firstString(obj map[string]any, names []string) string {
	for _, name := range names {
		if s, ok := toString(obj[name]); ok && s != "" {
			return s
		}
	}
	return ""
}

func firstUnit(obj map[string]any, names []string, fallback float64) float64 {
	for _, name := range names {
		if f, ok := toFloat(obj[name]); ok {
			return clampUnit(f)
		}
	}
	return fallback
}

func toString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	default:
		return "", false
	}
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		return parseFloat(string(t))
	case string:
		return parseFloat(strings.TrimSpace(t))
	default:
		return 0, false
	}
}

// parseFloat accepts out-of-range literals as ±Inf (or 0 on underflow) so
// they clamp like any other value.
func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// clampUnit maps NaN to 0 and everything else into [0,1].
func clampUnit(f float64) float64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

func toVector(v any) []float64 {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	vec := make([]float64, len(items))
	for i, item := range items {
		f, ok := toFloat(item)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		vec[i] = f
	}
	return vec
}
