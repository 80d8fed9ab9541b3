package queue

type TaskType string

const (
	// TaskTypeQueueRebuild asks a worker to rebuild the patch review queue.
	TaskTypeQueueRebuild TaskType = "queue_rebuild"
)

// RebuildRequest is enqueued after a proposal is saved.
type RebuildRequest struct {
	Reason      string
	ProposalKey string
	TraceID     *string
	Attempt     int
}
