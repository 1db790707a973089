package port

import (
	"context"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// Notifier dispatches in-app/email notifications. Delivery is fire-and-forget:
// callers log a failed send and move on, they never propagate it.
type Notifier interface {
	Send(ctx context.Context, notification *entity.Notification) error
}

// ApproverResolver resolves an approval-stage specification to a concrete
// directory member.
type ApproverResolver interface {
	// Resolve returns the approver id for one approval-stage spec. For role
	// and department specs the policy is deterministic: the active user with
	// the lowest id.
	Resolve(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error)
}
