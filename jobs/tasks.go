package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInventorySnapshot writes a snapshot history row for every product.
	TaskInventorySnapshot = "inventory:snapshot"
	// TaskInventoryReconcile compares stock levels with their movement history.
	TaskInventoryReconcile = "inventory:reconcile"
	// TaskBackupExport writes a full ledger backup file.
	TaskBackupExport = "backup:export"
	// TaskReportWarmup pre-computes the standard period reports.
	TaskReportWarmup = "reports:warmup"
)

// Payload is shared by every ledger task.
type Payload struct {
	RequestID   string    `json:"request_id"`
	RequestedAt time.Time `json:"requested_at"`
	Reason      string    `json:"reason,omitempty"`
}

// NewTask builds a task of taskType with a fresh request id that doubles as the task id.
func NewTask(taskType, reason string, at time.Time) (*asynq.Task, error) {
	payload := Payload{RequestID: uuid.NewString(), RequestedAt: at.UTC(), Reason: reason}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body,
		asynq.Queue(QueueDefault),
		asynq.TaskID(payload.RequestID),
		asynq.MaxRetry(3),
	), nil
}

// NewCronTask builds a task for the scheduler. Scheduled tasks must not carry
// a fixed task id or every tick after the first would be rejected as a duplicate.
func NewCronTask(taskType string) (*asynq.Task, error) {
	body, err := json.Marshal(Payload{Reason: "schedule"})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

func decodePayload(t *asynq.Task) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return Payload{}, err
	}
	return payload, nil
}
