package mirror

import (
	"fmt"
	"strings"

	"mira.app/federation/internal/model"
)

// Apply returns source with every insert-if-absent change whose marker is not
// yet present prepended in order. Suggestions are advisory and skipped.
// Applying the same changes again is a no-op.
func Apply(source string, changes []model.Change) (string, error) {
	var head strings.Builder
	for i, ch := range changes {
		if ch.Type != model.ChangeInsertIfAbsent {
			continue
		}
		if ch.Marker == "" {
			return "", fmt.Errorf("change %d: insert_if_absent requires a marker", i)
		}
		if strings.Contains(source, ch.Marker) || strings.Contains(head.String(), ch.Marker) {
			continue
		}
		head.WriteString(ch.Content)
		if !strings.HasSuffix(ch.Content, "\n") {
			head.WriteByte('\n')
		}
	}
	if head.Len() == 0 {
		return source, nil
	}
	return head.String() + source, nil
}
