package entity

import (
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// ReviewOutcome records one department's review of an agreement
type ReviewOutcome struct {
	ReviewedBy *int64     `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	Comments   string     `json:"comments,omitempty"`
	Approved   *bool      `json:"approved,omitempty"`
}

// Agreement is the contract record driven through the lifecycle pipeline.
// It is mutated only through lifecycle operations on the agreement service,
// never directly; every stage mutation writes one StageHistory row in the
// same transaction.
type Agreement struct {
	ID            int64       `json:"id"`
	LeadID        int64       `json:"lead_id"`
	Title         string      `json:"title"`
	ContractValue float64     `json:"contract_value"`
	Stage         stage.Stage `json:"stage"`

	HasCustomApprovalFlow bool `json:"has_custom_approval_flow"`
	ApprovalInProgress    bool `json:"approval_in_progress"`
	RequiresULCCSApproval bool `json:"requires_ulccs_approval"`

	DeliveryReview    ReviewOutcome `json:"delivery_review"`
	ProcurementReview ReviewOutcome `json:"procurement_review"`
	FinanceReview     ReviewOutcome `json:"finance_review"`
	ClientReview      ReviewOutcome `json:"client_review"`
	CEOReview         ReviewOutcome `json:"ceo_review"`
	ULCCSReview       ReviewOutcome `json:"ulccs_review"`

	ClientSignedBy  *string    `json:"client_signed_by,omitempty"`
	ClientSignedAt  *time.Time `json:"client_signed_at,omitempty"`
	CompanySignedBy *int64     `json:"company_signed_by,omitempty"`
	CompanySignedAt *time.Time `json:"company_signed_at,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	TerminatedBy      *int64     `json:"terminated_by,omitempty"`
	TerminatedAt      *time.Time `json:"terminated_at,omitempty"`
	TerminationReason string     `json:"termination_reason,omitempty"`

	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullySigned reports whether both signature blocks are populated
func (a *Agreement) FullySigned() bool {
	return a.ClientSignedAt != nil && a.CompanySignedAt != nil
}

// Removable reports whether hard deletion is permitted
func (a *Agreement) Removable() bool {
	return a.Stage == stage.Draft || a.Stage == stage.Cancelled
}
