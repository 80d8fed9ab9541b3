package resonance

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"mira.app/federation/internal/model"
)

const (
	jaccardWeight   = 0.9
	structureWeight = 0.1
)

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// TextSimilarity blends token-level Jaccard overlap (weight 0.9) with a
// length-ratio structure bonus (at most 0.1). Identical texts score 1.
func TextSimilarity(a, b string) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var jaccard float64
	switch {
	case len(ta) == 0 && len(tb) == 0:
		if a == b {
			jaccard = 1
		}
	default:
		shared := 0
		for tok := range ta {
			if _, ok := tb[tok]; ok {
				shared++
			}
		}
		jaccard = float64(shared) / float64(len(ta)+len(tb)-shared)
	}

	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	var ratio float64
	if longest := max(la, lb); longest > 0 {
		ratio = float64(min(la, lb)) / float64(longest)
	}

	return jaccard*jaccardWeight + ratio*structureWeight
}

// CosineSimilarity returns the cosine of two embedding vectors. ok is false
// when the vectors cannot be compared (different length, empty, zero norm).
func CosineSimilarity(a, b []float64) (sim float64, ok bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// PairSimilarity uses embedding cosine when both records carry comparable
// vectors and the text heuristic otherwise. The result is within [0,1].
func PairSimilarity(a, b model.ResponseRecord) float64 {
	if cos, ok := CosineSimilarity(a.Embedding, b.Embedding); ok {
		return clampUnit(cos)
	}
	return clampUnit(TextSimilarity(a.Answer, b.Answer))
}

// MeanPairwiseSimilarity averages PairSimilarity over every unordered pair.
// A batch of one record agrees with itself perfectly.
func MeanPairwiseSimilarity(records []model.ResponseRecord) float64 {
	if len(records) < 2 {
		return 1
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(records); i++ {
		for j := i + 1; j < len(records); j++ {
			sum += PairSimilarity(records[i], records[j])
			pairs++
		}
	}
	return sum / float64(pairs)
}

func tokenSet(s string) map[string]struct{} {
	words := wordPattern.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
