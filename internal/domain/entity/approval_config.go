package entity

import "time"

// ApprovalType says how an approval-stage specification names its approver
type ApprovalType string

const (
	ApprovalTypeUser       ApprovalType = "SPECIFIC_USER"
	ApprovalTypeRole       ApprovalType = "ROLE"
	ApprovalTypeDepartment ApprovalType = "DEPARTMENT"
)

// IsValid returns true for a known approval type
func (t ApprovalType) IsValid() bool {
	switch t {
	case ApprovalTypeUser, ApprovalTypeRole, ApprovalTypeDepartment:
		return true
	}
	return false
}

// ApprovalConfig is one entry of an agreement's custom sign-off policy:
// who must approve, in what order. Configs are a policy snapshot, distinct
// from the runtime Approval instances created from them.
type ApprovalConfig struct {
	ID            int64        `json:"id"`
	AgreementID   int64        `json:"agreement_id"`
	SequenceOrder int          `json:"sequence_order"`
	ApprovalType  ApprovalType `json:"approval_type"`
	ApproverID    *int64       `json:"approver_id,omitempty"`
	ApproverRole  string       `json:"approver_role,omitempty"`
	DepartmentID  *int64       `json:"department_id,omitempty"`
	IsMandatory   bool         `json:"is_mandatory"`
	CreatedAt     time.Time    `json:"created_at"`
}
