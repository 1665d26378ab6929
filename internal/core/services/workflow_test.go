package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ndavault/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/ndavault/internal/core/domain"
)

func newWorkflowFixture(t *testing.T, statuses map[string]domain.WorkflowStatus) (*WorkflowService, *memory.RecordStore) {
	t.Helper()
	records := memory.NewRecordStore()
	for name, status := range statuses {
		rec := domain.NewDocumentRecord(name, 1, time.Now())
		rec.WorkflowStatus = status
		rec.ProcessingStatus = domain.StatusProcessed
		require.NoError(t, records.Create(context.Background(), rec))
	}
	return NewWorkflowService(records), records
}

func TestWorkflowService_SetStatus(t *testing.T) {
	svc, records := newWorkflowFixture(t, map[string]domain.WorkflowStatus{"green_nda.pdf": domain.WorkflowCreated})
	ctx := context.Background()

	rec, err := svc.SetStatus(ctx, "green_nda.pdf", domain.WorkflowInReview)
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowInReview, rec.WorkflowStatus)
	assert.Equal(t, domain.StatusProcessed, rec.ProcessingStatus)

	_, err = svc.SetStatus(ctx, "green_nda.pdf", domain.WorkflowStatus("pending_legal"))
	assert.ErrorIs(t, err, domain.ErrInvalidWorkflowStatus)

	_, err = svc.SetStatus(ctx, "missing.pdf", domain.WorkflowActive)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := records.Get(ctx, "green_nda.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowInReview, stored.WorkflowStatus)
}

func TestWorkflowService_Apply(t *testing.T) {
	svc, _ := newWorkflowFixture(t, map[string]domain.WorkflowStatus{"green_nda.pdf": domain.WorkflowCreated})
	ctx := context.Background()

	steps := []struct {
		event domain.WorkflowEvent
		want  domain.WorkflowStatus
	}{
		{domain.EventStartDraft, domain.WorkflowDraft},
		{domain.EventSubmitForReview, domain.WorkflowInReview},
		{domain.EventLLMApprove, domain.WorkflowLLMReviewedApproved},
		{domain.EventSendForSignature, domain.WorkflowPendingSignature},
		{domain.EventRecordCustomerSignature, domain.WorkflowCustomerSigned},
		{domain.EventSign, domain.WorkflowSigned},
		{domain.EventActivate, domain.WorkflowActive},
		{domain.EventExpire, domain.WorkflowExpired},
		{domain.EventArchive, domain.WorkflowArchived},
	}
	for _, step := range steps {
		rec, err := svc.Apply(ctx, "green_nda.pdf", step.event)
		require.NoError(t, err, step.event)
		assert.Equal(t, step.want, rec.WorkflowStatus, step.event)
	}

	_, err := svc.Apply(ctx, "green_nda.pdf", domain.WorkflowEvent("countersign"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestWorkflowService_MigrateLegacyDefaults(t *testing.T) {
	svc, records := newWorkflowFixture(t, map[string]domain.WorkflowStatus{
		"legacy.pdf":   domain.WorkflowSigned,
		"odd.pdf":      domain.WorkflowStatus("pending_legal"),
		"draft.pdf":    domain.WorkflowDraft,
		"old_neg.docx": domain.WorkflowNegotiating,
	})
	ctx := context.Background()

	changed, err := svc.MigrateLegacyDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	want := map[string]domain.WorkflowStatus{
		"legacy.pdf":   domain.WorkflowActive,
		"odd.pdf":      domain.WorkflowCreated,
		"draft.pdf":    domain.WorkflowDraft,
		"old_neg.docx": domain.WorkflowNegotiating,
	}
	for name, status := range want {
		rec, err := records.Get(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, status, rec.WorkflowStatus, name)
	}

	// A user who deliberately marks a contract signed keeps it.
	_, err = svc.SetStatus(ctx, "draft.pdf", domain.WorkflowSigned)
	require.NoError(t, err)

	changed, err = svc.MigrateLegacyDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, changed)

	rec, err := records.Get(ctx, "draft.pdf")
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowSigned, rec.WorkflowStatus)
}
