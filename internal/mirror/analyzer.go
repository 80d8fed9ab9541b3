package mirror

import (
	"errors"
	"math"
	"strings"
	"time"

	"mira.app/federation/internal/model"
)

// DefaultTarget is used when a proposal request names no target file.
const DefaultTarget = "worker.js"

const Rationale = "Automatically generated adaptive-mirror proposal based on simple security and robustness checks. " +
	"It is non-binding and never applied automatically."

var ErrInvalidInput = errors.New("code must be a non-empty string")

var severityWeight = map[model.Severity]float64{
	model.SeverityHigh:   0.5,
	model.SeverityMedium: 0.35,
	model.SeverityLow:    0.2,
}

// Analyzer runs an ordered set of checks over raw source text.
// Register must not be called concurrently with Analyze or Propose.
type Analyzer struct {
	checks []Check
}

// NewAnalyzer builds an analyzer with the given checks, or the default
// checks when none are given.
func NewAnalyzer(checks ...Check) *Analyzer {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}
	return &Analyzer{checks: checks}
}

// Register appends checks after the existing ones.
func (a *Analyzer) Register(checks ...Check) {
	a.checks = append(a.checks, checks...)
}

// Analyze returns the issues raised by every unsatisfied check, in check order.
func (a *Analyzer) Analyze(code string) []model.Issue {
	issues := []model.Issue{}
	for _, c := range a.checks {
		if !c.Satisfied(code) {
			issues = append(issues, c.Issue)
		}
	}
	return issues
}

// Propose analyzes code and builds an advisory proposal for target. The code
// itself is never modified.
func (a *Analyzer) Propose(code, target string, now time.Time) (*model.PatchProposal, error) {
	if code == "" {
		return nil, ErrInvalidInput
	}
	target = strings.TrimSpace(target)
	if target == "" {
		target = DefaultTarget
	}

	issues := []model.Issue{}
	changes := []model.Change{HeadersHelper}
	for _, c := range a.checks {
		if c.Satisfied(code) {
			continue
		}
		issues = append(issues, c.Issue)
		changes = append(changes, c.Changes...)
	}

	return &model.PatchProposal{
		Type:       model.ProposalType,
		TargetFile: target,
		CreatedAt:  now.UTC(),
		Rationale:  Rationale,
		Priority:   Priority(issues),
		Issues:     issues,
		Changes:    changes,
	}, nil
}

// Priority sums severity weights (high 0.5, medium 0.35, low 0.2), capped at 1.
func Priority(issues []model.Issue) float64 {
	var p float64
	for _, is := range issues {
		p += severityWeight[is.Severity]
	}
	return math.Round(math.Min(1, p)*100) / 100
}
