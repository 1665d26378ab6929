package domain

import (
	"fmt"
	"strings"
)

// WorkflowStatus is the legal/business state of an NDA record.
// It moves only on explicit review or signature events and is never changed
// by (re)processing.
type WorkflowStatus string

// Workflow states.
const (
	WorkflowCreated             WorkflowStatus = "created"
	WorkflowDraft               WorkflowStatus = "draft"
	WorkflowInReview            WorkflowStatus = "in_review"
	WorkflowPendingSignature    WorkflowStatus = "pending_signature"
	WorkflowCustomerSigned      WorkflowStatus = "customer_signed"
	WorkflowLLMReviewedApproved WorkflowStatus = "llm_reviewed_approved"
	WorkflowLLMReviewedRejected WorkflowStatus = "llm_reviewed_rejected"
	WorkflowReviewed            WorkflowStatus = "reviewed"
	WorkflowApproved            WorkflowStatus = "approved"
	WorkflowRejected            WorkflowStatus = "rejected"
	WorkflowSigned              WorkflowStatus = "signed"
	WorkflowActive              WorkflowStatus = "active"
	WorkflowExpired             WorkflowStatus = "expired"
	WorkflowTerminated          WorkflowStatus = "terminated"
	WorkflowArchived            WorkflowStatus = "archived"

	// WorkflowNegotiating is kept for records written by older releases.
	WorkflowNegotiating WorkflowStatus = "negotiating"
)

// DefaultWorkflowStatus is assigned to new records.
const DefaultWorkflowStatus = WorkflowCreated

// LegacyDefaultWorkflowStatus was the default of older releases ("fully
// executed but not yet marked active"). The one-time migration rewrites it to
// WorkflowActive.
const LegacyDefaultWorkflowStatus = WorkflowSigned

// AllWorkflowStatuses lists every enumerated workflow status in display order.
func AllWorkflowStatuses() []WorkflowStatus {
	return []WorkflowStatus{
		WorkflowCreated,
		WorkflowDraft,
		WorkflowInReview,
		WorkflowPendingSignature,
		WorkflowCustomerSigned,
		WorkflowLLMReviewedApproved,
		WorkflowLLMReviewedRejected,
		WorkflowReviewed,
		WorkflowApproved,
		WorkflowRejected,
		WorkflowSigned,
		WorkflowActive,
		WorkflowExpired,
		WorkflowTerminated,
		WorkflowArchived,
		WorkflowNegotiating,
	}
}

// IsValid returns true if the status is one of the enumerated values.
func (s WorkflowStatus) IsValid() bool {
	for _, known := range AllWorkflowStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// IsLegacy returns true for values only kept for old records.
func (s WorkflowStatus) IsLegacy() bool {
	return s == WorkflowNegotiating
}

// String returns the string representation.
func (s WorkflowStatus) String() string {
	return string(s)
}

// ParseWorkflowStatus validates and normalises a user-supplied status.
func ParseWorkflowStatus(raw string) (WorkflowStatus, error) {
	s := WorkflowStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidWorkflowStatus, raw)
	}
	return s, nil
}

// WorkflowEvent is an explicit business action that moves a record's workflow status.
type WorkflowEvent string

// Workflow events.
const (
	EventStartDraft              WorkflowEvent = "start_draft"
	EventSubmitForReview         WorkflowEvent = "submit_for_review"
	EventMarkReviewed            WorkflowEvent = "mark_reviewed"
	EventApprove                 WorkflowEvent = "approve"
	EventReject                  WorkflowEvent = "reject"
	EventLLMApprove              WorkflowEvent = "llm_approve"
	EventLLMReject               WorkflowEvent = "llm_reject"
	EventSendForSignature        WorkflowEvent = "send_for_signature"
	EventRecordCustomerSignature WorkflowEvent = "record_customer_signature"
	EventSign                    WorkflowEvent = "sign"
	EventActivate                WorkflowEvent = "activate"
	EventExpire                  WorkflowEvent = "expire"
	EventTerminate               WorkflowEvent = "terminate"
	EventArchive                 WorkflowEvent = "archive"
)

var eventTargets = map[WorkflowEvent]WorkflowStatus{
	EventStartDraft:              WorkflowDraft,
	EventSubmitForReview:         WorkflowInReview,
	EventMarkReviewed:            WorkflowReviewed,
	EventApprove:                 WorkflowApproved,
	EventReject:                  WorkflowRejected,
	EventLLMApprove:              WorkflowLLMReviewedApproved,
	EventLLMReject:               WorkflowLLMReviewedRejected,
	EventSendForSignature:        WorkflowPendingSignature,
	EventRecordCustomerSignature: WorkflowCustomerSigned,
	EventSign:                    WorkflowSigned,
	EventActivate:                WorkflowActive,
	EventExpire:                  WorkflowExpired,
	EventTerminate:               WorkflowTerminated,
	EventArchive:                 WorkflowArchived,
}

// Target returns the workflow status the event moves a record to.
func (e WorkflowEvent) Target() (WorkflowStatus, error) {
	target, ok := eventTargets[e]
	if !ok {
		return "", fmt.Errorf("%w: unknown workflow event %q", ErrInvalidInput, string(e))
	}
	return target, nil
}

// WorkflowEvents lists all known events.
func WorkflowEvents() []WorkflowEvent {
	return []WorkflowEvent{
		EventStartDraft,
		EventSubmitForReview,
		EventMarkReviewed,
		EventApprove,
		EventReject,
		EventLLMApprove,
		EventLLMReject,
		EventSendForSignature,
		EventRecordCustomerSignature,
		EventSign,
		EventActivate,
		EventExpire,
		EventTerminate,
		EventArchive,
	}
}
