package driven

import (
	"context"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// SchedulerStore persists scheduler state so intervals survive restarts.
type SchedulerStore interface {
	// GetTask retrieves a scheduled task by ID.
	// Returns nil and no error if the task does not exist.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns all scheduled tasks ordered by ID.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or updates a task.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// RecordResult logs a task execution result.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns recent results for a task, most recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// LastSuccessfulResult returns the most recent successful result of a task,
	// or nil and no error if it never succeeded.
	LastSuccessfulResult(ctx context.Context, taskID string) (*domain.TaskResult, error)

	// PruneHistory keeps the most recent 'keep' results per task, and always
	// the latest successful one so a run of failures cannot erase it.
	PruneHistory(ctx context.Context, keep int) error
}
