package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ndavault/internal/core/domain"
	"github.com/custodia-labs/ndavault/internal/core/ports/driven"
	"github.com/custodia-labs/ndavault/internal/core/ports/driving"
	"github.com/custodia-labs/ndavault/internal/logger"
)

// Ensure WorkflowService implements the interface.
var _ driving.WorkflowService = (*WorkflowService)(nil)

// legacyWorkflowMigration names the one-time rewrite of legacy workflow values.
const legacyWorkflowMigration = "workflow_legacy_defaults_v1"

// WorkflowService moves NDAs through their business states.
// Workflow changes never touch the processing status.
type WorkflowService struct {
	records driven.RecordStore
	now     func() time.Time
}

// NewWorkflowService creates a new workflow service.
func NewWorkflowService(records driven.RecordStore) *WorkflowService {
	return &WorkflowService{records: records, now: time.Now}
}

// SetStatus sets the workflow status directly.
func (s *WorkflowService) SetStatus(
	ctx context.Context, filename string, status domain.WorkflowStatus,
) (*domain.DocumentRecord, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidWorkflowStatus, status)
	}

	rec, err := s.records.Update(ctx, filename, func(r *domain.DocumentRecord) error {
		r.WorkflowStatus = status
		r.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("set workflow status of %s: %w", filename, err)
	}

	logger.Info("Workflow %s -> %s", filename, status)
	return rec, nil
}

// Apply moves the record to the target of an event.
func (s *WorkflowService) Apply(
	ctx context.Context, filename string, event domain.WorkflowEvent,
) (*domain.DocumentRecord, error) {
	target, err := event.Target()
	if err != nil {
		return nil, err
	}
	logger.Debug("Workflow event %s on %s", event, filename)
	return s.SetStatus(ctx, filename, target)
}

// MigrateLegacyDefaults rewrites legacy workflow values once: the old default
// "signed" becomes "active" and anything outside the enumerated set becomes
// "created". Later calls are no-ops.
func (s *WorkflowService) MigrateLegacyDefaults(ctx context.Context) (int, error) {
	now := s.now()
	ran, changed, err := s.records.RunDataMigration(ctx, legacyWorkflowMigration,
		func(r *domain.DocumentRecord) bool {
			next, ok := migrateWorkflowStatus(r.WorkflowStatus)
			if !ok {
				return false
			}
			r.WorkflowStatus = next
			r.UpdatedAt = now
			return true
		})
	if err != nil {
		return 0, fmt.Errorf("migrate workflow statuses: %w", err)
	}
	if ran {
		logger.Info("Workflow migration %s: %d records updated", legacyWorkflowMigration, changed)
	}
	return changed, nil
}

// migrateWorkflowStatus returns the replacement for a legacy value.
func migrateWorkflowStatus(s domain.WorkflowStatus) (domain.WorkflowStatus, bool) {
	switch {
	case s == domain.LegacyDefaultWorkflowStatus:
		return domain.WorkflowActive, true
	case !s.IsValid():
		return domain.DefaultWorkflowStatus, true
	default:
		return s, false
	}
}
