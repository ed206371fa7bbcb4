package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionPrune removes expired login sessions.
	TaskSessionPrune = "sessions:prune"
	// TaskAuditPrune trims audit log entries past the retention window.
	TaskAuditPrune = "audit:prune"
)

// SessionPrunePayload configures the session prune run.
type SessionPrunePayload struct {
	Batch int `json:"batch"`
}

// NewSessionPruneTask constructs an Asynq task for pruning expired sessions.
func NewSessionPruneTask(batch int) (*asynq.Task, error) {
	data, err := json.Marshal(SessionPrunePayload{Batch: batch})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionPrune, data, asynq.Queue(QueueDefault)), nil
}

// AuditPrunePayload configures the audit retention run.
type AuditPrunePayload struct {
	RetentionDays int `json:"retention_days"`
}

// NewAuditPruneTask constructs an Asynq task for trimming old audit entries.
func NewAuditPruneTask(retentionDays int) (*asynq.Task, error) {
	data, err := json.Marshal(AuditPrunePayload{RetentionDays: retentionDays})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditPrune, data, asynq.Queue(QueueDefault)), nil
}
