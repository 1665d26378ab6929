package driving

import (
	"context"

	"github.com/custodia-labs/ndavault/internal/core/domain"
)

// WorkflowService moves NDAs through their business states.
type WorkflowService interface {
	// SetStatus sets the workflow status directly. The status must be enumerated.
	SetStatus(ctx context.Context, filename string, status domain.WorkflowStatus) (*domain.DocumentRecord, error)

	// Apply moves the record to the target of an event.
	Apply(ctx context.Context, filename string, event domain.WorkflowEvent) (*domain.DocumentRecord, error)

	// MigrateLegacyDefaults rewrites legacy workflow values once.
	// Returns the number of records changed; zero if it already ran.
	MigrateLegacyDefaults(ctx context.Context) (int, error)
}
