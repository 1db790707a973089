package entity

import "time"

// RevisionStatus is the state of a negotiation revision round
type RevisionStatus string

const (
	RevisionPendingApproval RevisionStatus = "PENDING_APPROVAL"
	RevisionAccepted        RevisionStatus = "ACCEPTED"
	RevisionReturned        RevisionStatus = "RETURNED"
)

// NegotiationRevision is one proposed change to a lead's negotiation terms.
// Each revision runs a single-stage approval round through the approval
// workflow engine.
type NegotiationRevision struct {
	ID          int64          `json:"id"`
	LeadID      int64          `json:"lead_id"`
	Title       string         `json:"title"`
	Body        string         `json:"body,omitempty"`
	Status      RevisionStatus `json:"status"`
	SubmittedBy int64          `json:"submitted_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}
