package model

import "time"

const (
	// ProposalType marks a stored object as a patch proposal.
	ProposalType = "patch_proposal"
	// ProposalVersion is attached to every proposal at save time.
	ProposalVersion = "alpha-1"
	// QueueType marks the review queue snapshot.
	QueueType = "patch_queue"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type Issue struct {
	ID       string   `json:"id" jsonschema_description:"Stable identifier of the heuristic that fired"`
	Severity Severity `json:"severity" jsonschema:"enum=low,enum=medium,enum=high"`
	Hint     string   `json:"hint" jsonschema_description:"Why the issue was raised"`
}

type ChangeType string

const (
	// ChangeInsertIfAbsent inserts Content unless Marker is already present.
	ChangeInsertIfAbsent ChangeType = "insert_if_absent"
	// ChangeAppendSuggestion is advisory text. It is never applied.
	ChangeAppendSuggestion ChangeType = "append_suggestion"
)

type Change struct {
	Type    ChangeType `json:"type" jsonschema:"enum=insert_if_absent,enum=append_suggestion"`
	Marker  string     `json:"marker,omitempty" jsonschema_description:"Unique marker guarding idempotent inserts"`
	Content string     `json:"content"`
}

// PatchProposal is an advisory description of issues in one target file.
// Stored proposals are immutable; a revision is saved under a new key.
type PatchProposal struct {
	Type       string     `json:"type" jsonschema:"enum=patch_proposal"`
	TargetFile string     `json:"target_file"`
	CreatedAt  time.Time  `json:"created_at"`
	Rationale  string     `json:"rationale"`
	Priority   float64    `json:"priority"`
	Issues     []Issue    `json:"issues"`
	Changes    []Change   `json:"changes"`
	SavedAt    *time.Time `json:"saved_at,omitempty"`
	StorageKey string     `json:"storage_key,omitempty"`
	Version    string     `json:"version,omitempty"`
}

type QueueItem struct {
	Key    string `json:"key"`
	TS     string `json:"ts"`
	Target string `json:"target,omitempty"`
	Type   string `json:"type"`
	Size   *int64 `json:"size"`
}

// QueueSnapshot is a derived view. It can always be rebuilt from the stored
// proposal keys.
type QueueSnapshot struct {
	UpdatedAt time.Time   `json:"updated_at"`
	Total     int         `json:"total"`
	Items     []QueueItem `json:"items"`
}
