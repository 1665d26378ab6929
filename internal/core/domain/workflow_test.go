package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkflowStatus_IsValid(t *testing.T) {
	for _, s := range AllWorkflowStatuses() {
		assert.True(t, s.IsValid(), s)
	}
	assert.Len(t, AllWorkflowStatuses(), 16)
	assert.False(t, WorkflowStatus("pending").IsValid())
	assert.False(t, WorkflowStatus("").IsValid())
}

func TestWorkflowStatus_IsLegacy(t *testing.T) {
	assert.True(t, WorkflowNegotiating.IsLegacy())
	assert.False(t, WorkflowSigned.IsLegacy())
}

func TestParseWorkflowStatus(t *testing.T) {
	s, err := ParseWorkflowStatus("  In_Review ")
	require.NoError(t, err)
	assert.Equal(t, WorkflowInReview, s)

	_, err = ParseWorkflowStatus("executed")
	assert.True(t, errors.Is(err, ErrInvalidWorkflowStatus))
}

func TestWorkflowDefaults(t *testing.T) {
	assert.Equal(t, WorkflowCreated, DefaultWorkflowStatus)
	assert.Equal(t, WorkflowSigned, LegacyDefaultWorkflowStatus)
}

func TestWorkflowEvent_Target(t *testing.T) {
	for _, e := range WorkflowEvents() {
		target, err := e.Target()
		require.NoError(t, err, e)
		assert.True(t, target.IsValid())
	}

	target, err := EventActivate.Target()
	require.NoError(t, err)
	assert.Equal(t, WorkflowActive, target)

	_, err = WorkflowEvent("renegotiate").Target()
	assert.True(t, errors.Is(err, ErrInvalidInput))
}
