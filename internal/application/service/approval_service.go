package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// StageSpec describes one ordered approval stage to instantiate
type StageSpec struct {
	Name          string
	ApprovalType  entity.ApprovalType
	ApproverID    *int64
	ApproverRole  string
	DepartmentID  *int64
	IsMandatory   bool
	SequenceOrder int
}

// ApprovalService is the approval workflow engine: it creates, tracks and
// evaluates the ordered approval round attached to a (context, entity) pair.
type ApprovalService interface {
	CreateWorkflow(ctx context.Context, workflowContext string, entityID, leadID int64, stages []StageSpec) ([]*entity.Approval, error)
	Respond(ctx context.Context, approvalID, actorID int64, status entity.ApprovalStatus, comments string) (*entity.Approval, error)
	Skip(ctx context.Context, approvalID int64, reason string) error
	ReturnToCreator(ctx context.Context, workflowContext string, entityID int64, reason string) error
	AreAllCompleted(ctx context.Context, workflowContext string, entityID int64) (bool, error)
	NextPending(ctx context.Context, workflowContext string, entityID int64) (*entity.Approval, error)
	ListByEntity(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error)
	GetByID(ctx context.Context, approvalID int64) (*entity.Approval, error)
}

type approvalServiceImpl struct {
	approvalRepo port.ApprovalRepository
	userRepo     port.UserRepository
	resolver     port.ApproverResolver
	txManager    port.TransactionManager
	logger       Logger
}

// NewApprovalService creates a new ApprovalService
func NewApprovalService(
	approvalRepo port.ApprovalRepository,
	userRepo port.UserRepository,
	resolver port.ApproverResolver,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalService {
	return &approvalServiceImpl{
		approvalRepo: approvalRepo,
		userRepo:     userRepo,
		resolver:     resolver,
		txManager:    txManager,
		logger:       logger,
	}
}

// CreateWorkflow resolves every stage spec to a concrete approver and persists
// the ordered round with all approvals Pending.
func (s *approvalServiceImpl) CreateWorkflow(ctx context.Context, workflowContext string, entityID, leadID int64, stages []StageSpec) ([]*entity.Approval, error) {
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: workflow needs at least one stage", entity.ErrValidation)
	}

	now := time.Now()
	approvals := make([]*entity.Approval, 0, len(stages))
	for _, spec := range stages {
		approverID, err := s.resolver.Resolve(ctx, spec.ApprovalType, spec.ApproverID, spec.ApproverRole, spec.DepartmentID)
		if err != nil {
			return nil, fmt.Errorf("resolve stage %q: %w", spec.Name, err)
		}
		id := approverID
		approvals = append(approvals, &entity.Approval{
			Context:       workflowContext,
			EntityID:      entityID,
			LeadID:        leadID,
			StageName:     spec.Name,
			ApproverRole:  spec.ApproverRole,
			ApproverID:    &id,
			IsMandatory:   spec.IsMandatory,
			SequenceOrder: spec.SequenceOrder,
			Status:        entity.ApprovalPending,
			RequestedAt:   now,
		})
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		for _, approval := range approvals {
			if err := s.approvalRepo.Create(txCtx, approval); err != nil {
				return fmt.Errorf("create approval: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create approval workflow", "error", err, "context", workflowContext, "entity_id", entityID)
		return nil, err
	}

	s.logger.Info("Approval workflow created", "context", workflowContext, "entity_id", entityID, "stages", len(approvals))
	return approvals, nil
}

// Respond records one approver decision. Authorization succeeds when the
// actor is the assigned approver or holds the required role; the status
// update is a compare-and-set on Pending so concurrent responders cannot
// both win.
func (s *approvalServiceImpl) Respond(ctx context.Context, approvalID, actorID int64, status entity.ApprovalStatus, comments string) (*entity.Approval, error) {
	if status != entity.ApprovalApproved && status != entity.ApprovalRejected {
		return nil, fmt.Errorf("%w: response status must be APPROVED or REJECTED, got %q", entity.ErrValidation, status)
	}

	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		return nil, fmt.Errorf("get approval: %w", err)
	}
	if approval == nil {
		return nil, fmt.Errorf("%w: approval %d", entity.ErrNotFound, approvalID)
	}
	if approval.Resolved() {
		return nil, fmt.Errorf("%w: approval %d already %s", entity.ErrConflict, approvalID, approval.Status)
	}

	if err := s.authorize(ctx, approval, actorID); err != nil {
		return nil, err
	}

	now := time.Now()
	// The responder claims the approval: role-only rows are assigned to
	// whichever qualifying actor answers first.
	resolved, err := s.approvalRepo.ResolveIfPending(ctx, approvalID, status, &actorID, comments, now)
	if err != nil {
		s.logger.Error("Failed to resolve approval", "error", err, "approval_id", approvalID)
		return nil, err
	}
	if !resolved {
		return nil, fmt.Errorf("%w: approval %d resolved concurrently", entity.ErrConflict, approvalID)
	}

	approval.Status = status
	approval.ApproverID = &actorID
	approval.Comments = comments
	approval.RespondedAt = &now

	s.logger.Info("Approval resolved", "approval_id", approvalID, "actor_id", actorID, "status", status)
	return approval, nil
}

func (s *approvalServiceImpl) authorize(ctx context.Context, approval *entity.Approval, actorID int64) error {
	if approval.ApproverID != nil && *approval.ApproverID == actorID {
		return nil
	}
	if approval.ApproverRole != "" {
		actor, err := s.userRepo.GetByID(ctx, actorID)
		if err != nil {
			return fmt.Errorf("get actor: %w", err)
		}
		if actor != nil && actor.Role == approval.ApproverRole {
			return nil
		}
	}
	return fmt.Errorf("%w: user %d cannot respond to approval %d", entity.ErrForbidden, actorID, approval.ID)
}

// Skip marks a non-mandatory approval as skipped
func (s *approvalServiceImpl) Skip(ctx context.Context, approvalID int64, reason string) error {
	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		return fmt.Errorf("get approval: %w", err)
	}
	if approval == nil {
		return fmt.Errorf("%w: approval %d", entity.ErrNotFound, approvalID)
	}
	if approval.IsMandatory {
		return fmt.Errorf("%w: mandatory approval %d cannot be skipped", entity.ErrValidation, approvalID)
	}
	if approval.Resolved() {
		return fmt.Errorf("%w: approval %d already %s", entity.ErrConflict, approvalID, approval.Status)
	}

	resolved, err := s.approvalRepo.ResolveIfPending(ctx, approvalID, entity.ApprovalSkipped, approval.ApproverID, reason, time.Now())
	if err != nil {
		return err
	}
	if !resolved {
		return fmt.Errorf("%w: approval %d resolved concurrently", entity.ErrConflict, approvalID)
	}

	s.logger.Info("Approval skipped", "approval_id", approvalID, "reason", reason)
	return nil
}

// ReturnToCreator sends the whole round back: the current pending approval is
// rejected with the reason and every other still-pending approval is skipped,
// so the round can be restarted without orphaned pending rows.
func (s *approvalServiceImpl) ReturnToCreator(ctx context.Context, workflowContext string, entityID int64, reason string) error {
	approvals, err := s.approvalRepo.GetByEntity(ctx, workflowContext, entityID)
	if err != nil {
		return fmt.Errorf("get approvals: %w", err)
	}

	now := time.Now()
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		returned := false
		for _, approval := range approvals {
			if approval.Status != entity.ApprovalPending {
				continue
			}
			if !returned {
				if _, err := s.approvalRepo.ResolveIfPending(txCtx, approval.ID, entity.ApprovalRejected, approval.ApproverID, fmt.Sprintf("returned to creator: %s", reason), now); err != nil {
					return fmt.Errorf("return approval %d: %w", approval.ID, err)
				}
				returned = true
				continue
			}
			if _, err := s.approvalRepo.ResolveIfPending(txCtx, approval.ID, entity.ApprovalSkipped, approval.ApproverID, "round returned to creator", now); err != nil {
				return fmt.Errorf("skip approval %d: %w", approval.ID, err)
			}
		}
		return nil
	})
}

// AreAllCompleted is true iff every mandatory approval is Approved or Skipped
func (s *approvalServiceImpl) AreAllCompleted(ctx context.Context, workflowContext string, entityID int64) (bool, error) {
	approvals, err := s.approvalRepo.GetByEntity(ctx, workflowContext, entityID)
	if err != nil {
		return false, fmt.Errorf("get approvals: %w", err)
	}
	for _, approval := range approvals {
		if !approval.IsMandatory {
			continue
		}
		if approval.Status != entity.ApprovalApproved && approval.Status != entity.ApprovalSkipped {
			return false, nil
		}
	}
	return true, nil
}

// NextPending returns the lowest-sequence pending approval, nil when none
func (s *approvalServiceImpl) NextPending(ctx context.Context, workflowContext string, entityID int64) (*entity.Approval, error) {
	approvals, err := s.approvalRepo.GetByEntity(ctx, workflowContext, entityID)
	if err != nil {
		return nil, fmt.Errorf("get approvals: %w", err)
	}
	// rows come back ordered by sequence
	for _, approval := range approvals {
		if approval.Status == entity.ApprovalPending {
			return approval, nil
		}
	}
	return nil, nil
}

// ListByEntity returns the full round ordered by sequence
func (s *approvalServiceImpl) ListByEntity(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
	return s.approvalRepo.GetByEntity(ctx, workflowContext, entityID)
}

// GetByID returns one approval instance
func (s *approvalServiceImpl) GetByID(ctx context.Context, approvalID int64) (*entity.Approval, error) {
	approval, err := s.approvalRepo.GetByID(ctx, approvalID)
	if err != nil {
		return nil, err
	}
	if approval == nil {
		return nil, fmt.Errorf("%w: approval %d", entity.ErrNotFound, approvalID)
	}
	return approval, nil
}
