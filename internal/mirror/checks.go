package mirror

import (
	"regexp"

	"mira.app/federation/internal/model"
)

const (
	IssueMissingTryCatch    = "missing_try_catch"
	IssueMissingContentType = "missing_content_type_header"
	IssueMissingAuthCheck   = "missing_auth_check"

	MarkerHeadersHelper = "// __MIRA_HEADERS_HELPER__"
	MarkerAuthGuard     = "// __MIRA_AUTH_GUARD__"
)

var (
	recoveryPattern    = regexp.MustCompile(`(?s)try\s*\{.*\}\s*catch\s*\(|recover\(\)`)
	contentTypePattern = regexp.MustCompile(`(?i)content-type`)
	authPattern        = regexp.MustCompile(`(?i)authorization`)
)

// Check is one heuristic: an issue raised when the code does not satisfy
// the predicate, plus the changes suggested for it.
type Check struct {
	Issue     model.Issue
	Satisfied func(code string) bool
	Changes   []model.Change
}

// HeadersHelper is offered with every proposal so other snippets can rely on
// a shared JSON_HEADERS constant.
var HeadersHelper = model.Change{
	Type:   model.ChangeInsertIfAbsent,
	Marker: MarkerHeadersHelper,
	Content: MarkerHeadersHelper + `
const JSON_HEADERS = { "content-type": "application/json", "cache-control": "no-store" };
` + MarkerHeadersHelper + `END__
`,
}

// DefaultChecks returns the built-in checks in reporting order.
func DefaultChecks() []Check {
	return []Check{
		{
			Issue: model.Issue{
				ID:       IssueMissingTryCatch,
				Severity: model.SeverityMedium,
				Hint:     "No global error handling found; wrap the main handler logic in try/catch.",
			},
			Satisfied: recoveryPattern.MatchString,
			Changes: []model.Change{{
				Type: model.ChangeAppendSuggestion,
				Content: `// __MIRA_TRY_CATCH_SUGGESTION__
/*
Suggestion:
export default {
  async fetch(request, env) {
    try {
      // ... existing logic ...
      return new Response(JSON.stringify({ status: "ok" }), { headers: JSON_HEADERS });
    } catch (err) {
      return new Response(JSON.stringify({ error: "internal_error", message: err.message || String(err) }), { status: 500, headers: JSON_HEADERS });
    }
  }
}
*/
// __MIRA_TRY_CATCH_SUGGESTION__END__
`,
			}},
		},
		{
			Issue: model.Issue{
				ID:       IssueMissingContentType,
				Severity: model.SeverityLow,
				Hint:     "Responses should set 'content-type: application/json'.",
			},
			Satisfied: contentTypePattern.MatchString,
			Changes: []model.Change{{
				Type: model.ChangeAppendSuggestion,
				Content: `// __MIRA_HEADER_SUGGESTION__
/*
Note:
Pass { headers: JSON_HEADERS } to every Response(...) so that
'content-type: application/json' and 'cache-control: no-store' are set consistently.
*/
// __MIRA_HEADER_SUGGESTION__END__
`,
			}},
		},
		{
			Issue: model.Issue{
				ID:       IssueMissingAuthCheck,
				Severity: model.SeverityHigh,
				Hint:     "Bearer token check is missing or ambiguous.",
			},
			Satisfied: authPattern.MatchString,
			Changes: []model.Change{{
				Type:   model.ChangeInsertIfAbsent,
				Marker: MarkerAuthGuard,
				Content: MarkerAuthGuard + `
function getBearerToken(request) {
  const h = request.headers.get("authorization") || "";
  const m = h.match(/^Bearer\s+(.+)$/i);
  return m ? m[1] : "";
}
` + MarkerAuthGuard + `END__
`,
			}},
		},
	}
}
