package entity

import "time"

// ApprovalStatus is the runtime decision state of one approval instance.
// A status other than Pending is final.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
	ApprovalSkipped  ApprovalStatus = "SKIPPED"
)

// Workflow contexts group approval rounds by the kind of entity they gate
const (
	ContextAgreement = "agreement"
	ContextRevision  = "revision"
)

// Approval is one runtime decision instance inside an approval round.
// Within a (context, entity) group sequence orders are stable for the round
// and the lowest-order Pending row is the single next pending approval.
type Approval struct {
	ID            int64          `json:"id"`
	Context       string         `json:"context"`
	EntityID      int64          `json:"entity_id"`
	LeadID        int64          `json:"lead_id"`
	StageName     string         `json:"stage_name"`
	ApproverRole  string         `json:"approver_role,omitempty"`
	ApproverID    *int64         `json:"approver_id,omitempty"`
	IsMandatory   bool           `json:"is_mandatory"`
	SequenceOrder int            `json:"sequence_order"`
	Status        ApprovalStatus `json:"status"`
	Comments      string         `json:"comments,omitempty"`
	RequestedAt   time.Time      `json:"requested_at"`
	RespondedAt   *time.Time     `json:"responded_at,omitempty"`
}

// Resolved reports whether the approval has left Pending
func (a *Approval) Resolved() bool {
	return a.Status != ApprovalPending
}
