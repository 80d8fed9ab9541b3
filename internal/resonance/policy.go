package resonance

import "mira.app/federation/internal/model"

const (
	OKThreshold   = 0.72
	WarnThreshold = 0.50

	ActionAutoMerge       = "auto-merge-allowed"
	ActionHumanReview     = "needs-human-review"
	ActionRejectOrIterate = "reject-or-iterate"
)

// PolicyRule maps every index >= MinIndex to a decision.
type PolicyRule struct {
	MinIndex float64
	Status   model.PolicyStatus
	Action   string
}

// PolicyTable is ordered by descending MinIndex.
type PolicyTable []PolicyRule

var DefaultPolicies = PolicyTable{
	{MinIndex: OKThreshold, Status: model.PolicyOK, Action: ActionAutoMerge},
	{MinIndex: WarnThreshold, Status: model.PolicyWarn, Action: ActionHumanReview},
	{MinIndex: 0, Status: model.PolicyFail, Action: ActionRejectOrIterate},
}

// Decide returns the first rule whose threshold the index reaches.
func (t PolicyTable) Decide(index float64) model.Policy {
	for _, rule := range t {
		if index >= rule.MinIndex {
			return model.Policy{Status: rule.Status, Action: rule.Action}
		}
	}
	return model.Policy{Status: model.PolicyFail, Action: ActionRejectOrIterate}
}
