package port

import (
	"context"
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// AgreementRepository defines persistence operations for Agreement
type AgreementRepository interface {
	Create(ctx context.Context, agreement *entity.Agreement) error
	GetByID(ctx context.Context, id int64) (*entity.Agreement, error)
	Update(ctx context.Context, agreement *entity.Agreement) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*entity.Agreement, error)

	// ListInStages returns agreements currently sitting in any of the given stages
	ListInStages(ctx context.Context, stages []stage.Stage) ([]*entity.Agreement, error)

	// ListActivePastEndDate returns Active agreements whose end date is before cutoff
	ListActivePastEndDate(ctx context.Context, cutoff time.Time) ([]*entity.Agreement, error)
}

// StageHistoryRepository defines persistence operations for StageHistory
type StageHistoryRepository interface {
	Create(ctx context.Context, history *entity.StageHistory) error
	GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error)

	// GetLatest returns the most recent entry for the agreement, nil when none exists
	GetLatest(ctx context.Context, agreementID int64) (*entity.StageHistory, error)
	DeleteByAgreementID(ctx context.Context, agreementID int64) error
}

// ApprovalRepository defines persistence operations for Approval instances
type ApprovalRepository interface {
	Create(ctx context.Context, approval *entity.Approval) error
	GetByID(ctx context.Context, id int64) (*entity.Approval, error)

	// GetByEntity returns the round for (workflowContext, entityID) ordered by sequence
	GetByEntity(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error)

	// ResolveIfPending atomically moves the approval out of Pending. It returns
	// false when the row was already resolved, guaranteeing at-most-once
	// resolution under concurrent responders.
	ResolveIfPending(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error)
	DeleteByEntity(ctx context.Context, workflowContext string, entityID int64) error
}

// ApprovalConfigRepository defines persistence operations for ApprovalConfig
type ApprovalConfigRepository interface {
	// ReplaceForAgreement deletes the existing flow and inserts the new one.
	// Callers run it inside a transaction so redefinition is atomic.
	ReplaceForAgreement(ctx context.Context, agreementID int64, configs []*entity.ApprovalConfig) error
	GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error)
	DeleteByAgreementID(ctx context.Context, agreementID int64) error
}

// SLAConfigRepository defines read access to per-stage SLA thresholds
type SLAConfigRepository interface {
	// GetByStage returns nil when the stage is not monitored
	GetByStage(ctx context.Context, s stage.Stage) (*entity.SLAConfig, error)
	List(ctx context.Context) ([]*entity.SLAConfig, error)
}

// LeadRepository defines persistence operations for Lead
type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	GetByID(ctx context.Context, id int64) (*entity.Lead, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Lead, error)
}

// UserRepository defines read access to the user directory
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)

	// FindByRole returns active users holding the role, ordered by id
	FindByRole(ctx context.Context, role string) ([]*entity.User, error)

	// FindByDepartment returns active users in the department, ordered by id
	FindByDepartment(ctx context.Context, departmentID int64) ([]*entity.User, error)
}

// NotificationRepository defines persistence operations for Notification
type NotificationRepository interface {
	Create(ctx context.Context, notification *entity.Notification) error
	ExistsByDedupeKey(ctx context.Context, key string) (bool, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]*entity.Notification, error)
}

// RevisionRepository defines persistence operations for NegotiationRevision
type RevisionRepository interface {
	Create(ctx context.Context, revision *entity.NegotiationRevision) error
	GetByID(ctx context.Context, id int64) (*entity.NegotiationRevision, error)
	Update(ctx context.Context, revision *entity.NegotiationRevision) error
	ListByLead(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
