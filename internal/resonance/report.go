package resonance

import (
	"fmt"
	"slices"
	"strings"

	"mira.app/federation/internal/model"
)

// RenderReport renders a deterministic markdown summary of a result.
// Sources are listed in lexical order.
func RenderReport(r model.ResonanceResult) string {
	var b strings.Builder

	b.WriteString("## Resonance Report\n\n")
	fmt.Fprintf(&b, "- resonance_index: %.3f\n", r.ResonanceIndex)
	fmt.Fprintf(&b, "- policy: %s (%s)\n", r.Policy.Status, r.Policy.Action)
	fmt.Fprintf(&b, "- responses: %d\n", r.Metrics.Count)
	if r.Note != "" {
		fmt.Fprintf(&b, "- note: %s\n", r.Note)
	}

	b.WriteString("\n### Metrics\n\n")
	fmt.Fprintf(&b, "| metric | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| mean_confidence | %.3f |\n", r.Metrics.MeanConfidence)
	fmt.Fprintf(&b, "| mean_uncertainty | %.3f |\n", r.Metrics.MeanUncertainty)
	fmt.Fprintf(&b, "| mean_context_depth | %.3f |\n", r.Metrics.MeanContextDepth)
	fmt.Fprintf(&b, "| mean_emotional_valence | %.3f |\n", r.Metrics.MeanEmotionalValence)
	fmt.Fprintf(&b, "| mean_text_similarity | %.3f |\n", r.Metrics.MeanTextSimilarity)

	if len(r.PerSource) > 0 {
		b.WriteString("\n### Per source\n\n")
		b.WriteString("| source | count | mean_confidence | mean_uncertainty |\n|---|---|---|---|\n")
		sources := make([]string, 0, len(r.PerSource))
		for s := range r.PerSource {
			sources = append(sources, s)
		}
		slices.Sort(sources)
		for _, s := range sources {
			st := r.PerSource[s]
			fmt.Fprintf(&b, "| %s | %d | %.3f | %.3f |\n", s, st.Count, st.MeanConfidence, st.MeanUncertainty)
		}
	}

	return b.String()
}
