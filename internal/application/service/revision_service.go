package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// RevisionService runs the negotiation revision loop: each submitted revision
// opens a single-stage approval round, assigned to the lead's account owner,
// through the same approval workflow engine agreements use.
type RevisionService interface {
	Submit(ctx context.Context, leadID, submittedBy int64, title, body string) (*entity.NegotiationRevision, error)
	GetByID(ctx context.Context, id int64) (*entity.NegotiationRevision, error)
	ListByLead(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error)
	ResolveAfterApproval(ctx context.Context, revisionID int64) (*entity.NegotiationRevision, error)
}

type revisionServiceImpl struct {
	revisionRepo port.RevisionRepository
	leadRepo     port.LeadRepository
	approvalSvc  ApprovalService
	txManager    port.TransactionManager
	logger       Logger
}

// NewRevisionService creates a new RevisionService
func NewRevisionService(
	revisionRepo port.RevisionRepository,
	leadRepo port.LeadRepository,
	approvalSvc ApprovalService,
	txManager port.TransactionManager,
	logger Logger,
) RevisionService {
	return &revisionServiceImpl{
		revisionRepo: revisionRepo,
		leadRepo:     leadRepo,
		approvalSvc:  approvalSvc,
		txManager:    txManager,
		logger:       logger,
	}
}

// Submit records a revision and opens its approval round
func (s *revisionServiceImpl) Submit(ctx context.Context, leadID, submittedBy int64, title, body string) (*entity.NegotiationRevision, error) {
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", entity.ErrValidation)
	}
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if lead == nil {
		return nil, fmt.Errorf("%w: lead %d", entity.ErrNotFound, leadID)
	}

	now := time.Now()
	revision := &entity.NegotiationRevision{
		LeadID:      leadID,
		Title:       title,
		Body:        body,
		Status:      entity.RevisionPendingApproval,
		SubmittedBy: submittedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ownerID := lead.AccountOwnerID
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.revisionRepo.Create(txCtx, revision); err != nil {
			return fmt.Errorf("create revision: %w", err)
		}
		_, err := s.approvalSvc.CreateWorkflow(txCtx, entity.ContextRevision, revision.ID, leadID, []StageSpec{{
			Name:          "revision-review",
			ApprovalType:  entity.ApprovalTypeUser,
			ApproverID:    &ownerID,
			IsMandatory:   true,
			SequenceOrder: 1,
		}})
		return err
	})
	if err != nil {
		s.logger.Error("Failed to submit revision", "error", err, "lead_id", leadID)
		return nil, err
	}

	s.logger.Info("Revision submitted", "revision_id", revision.ID, "lead_id", leadID)
	return revision, nil
}

// GetByID returns one revision
func (s *revisionServiceImpl) GetByID(ctx context.Context, id int64) (*entity.NegotiationRevision, error) {
	revision, err := s.revisionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if revision == nil {
		return nil, fmt.Errorf("%w: revision %d", entity.ErrNotFound, id)
	}
	return revision, nil
}

// ListByLead returns a lead's revisions
func (s *revisionServiceImpl) ListByLead(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error) {
	return s.revisionRepo.ListByLead(ctx, leadID)
}

// ResolveAfterApproval settles the revision once its round has a decision:
// a rejection returns it for rework, full completion accepts it.
func (s *revisionServiceImpl) ResolveAfterApproval(ctx context.Context, revisionID int64) (*entity.NegotiationRevision, error) {
	revision, err := s.GetByID(ctx, revisionID)
	if err != nil {
		return nil, err
	}
	if revision.Status != entity.RevisionPendingApproval {
		return revision, nil
	}

	approvals, err := s.approvalSvc.ListByEntity(ctx, entity.ContextRevision, revisionID)
	if err != nil {
		return nil, fmt.Errorf("get approvals: %w", err)
	}

	rejected := false
	for _, approval := range approvals {
		if approval.Status == entity.ApprovalRejected {
			rejected = true
			break
		}
	}

	var status entity.RevisionStatus
	switch {
	case rejected:
		status = entity.RevisionReturned
	default:
		completed, err := s.approvalSvc.AreAllCompleted(ctx, entity.ContextRevision, revisionID)
		if err != nil {
			return nil, err
		}
		if !completed {
			return revision, nil
		}
		status = entity.RevisionAccepted
	}

	now := time.Now()
	revision.Status = status
	revision.ResolvedAt = &now
	revision.UpdatedAt = now
	if err := s.revisionRepo.Update(ctx, revision); err != nil {
		s.logger.Error("Failed to resolve revision", "error", err, "revision_id", revisionID)
		return nil, err
	}

	s.logger.Info("Revision resolved", "revision_id", revisionID, "status", status)
	return revision, nil
}
