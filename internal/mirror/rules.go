package mirror

import (
	"errors"
	"fmt"
	"io"
	"regexp"

	"gopkg.in/yaml.v3"

	"mira.app/federation/internal/model"
)

// RuleFile is the YAML document accepted by LoadRules:
//
//	checks:
//	  - id: missing_rate_limit
//	    severity: medium
//	    hint: No rate limiting found.
//	    pattern: (?i)rate.?limit
//	    suggestion: |
//	      // consider a token bucket in front of the handler
type RuleFile struct {
	Checks []Rule `yaml:"checks"`
}

type Rule struct {
	ID       string `yaml:"id"`
	Severity string `yaml:"severity"`
	Hint     string `yaml:"hint"`
	Pattern  string `yaml:"pattern"`
	// Match is "absent" (default): the issue fires when the pattern is
	// missing, or "present": it fires when the pattern occurs.
	Match      string `yaml:"match"`
	Suggestion string `yaml:"suggestion"`
	Marker     string `yaml:"marker"`
	Insert     string `yaml:"insert"`
}

// LoadRules decodes extra checks from YAML. Unknown keys are rejected.
func LoadRules(r io.Reader) ([]Check, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file RuleFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding rules: %w", err)
	}

	checks := make([]Check, 0, len(file.Checks))
	for i, rule := range file.Checks {
		c, err := rule.toCheck()
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, rule.ID, err)
		}
		checks = append(checks, c)
	}
	return checks, nil
}

func (r Rule) toCheck() (Check, error) {
	if r.ID == "" {
		return Check{}, errors.New("id is required")
	}

	severity := model.Severity(r.Severity)
	if _, ok := severityWeight[severity]; !ok {
		return Check{}, fmt.Errorf("severity must be low, medium or high (got %q)", r.Severity)
	}

	re, err := regexp.Compile(r.Pattern)
	if err != nil || r.Pattern == "" {
		return Check{}, fmt.Errorf("invalid pattern %q", r.Pattern)
	}

	var satisfied func(string) bool
	switch r.Match {
	case "", "absent":
		satisfied = re.MatchString
	case "present":
		satisfied = func(code string) bool { return !re.MatchString(code) }
	default:
		return Check{}, fmt.Errorf("match must be absent or present (got %q)", r.Match)
	}

	var changes []model.Change
	if r.Insert != "" {
		if r.Marker == "" {
			return Check{}, errors.New("insert requires a marker")
		}
		changes = append(changes, model.Change{Type: model.ChangeInsertIfAbsent, Marker: r.Marker, Content: r.Insert})
	}
	if r.Suggestion != "" {
		changes = append(changes, model.Change{Type: model.ChangeAppendSuggestion, Content: r.Suggestion})
	}

	return Check{
		Issue:     model.Issue{ID: r.ID, Severity: severity, Hint: r.Hint},
		Satisfied: satisfied,
		Changes:   changes,
	}, nil
}
