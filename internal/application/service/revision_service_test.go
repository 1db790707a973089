package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

func newRevisionService(revisionRepo *mockRevisionRepo, leadRepo *mockLeadRepo, approvalSvc *mockApprovalService) RevisionService {
	if revisionRepo == nil {
		revisionRepo = &mockRevisionRepo{}
	}
	if leadRepo == nil {
		leadRepo = &mockLeadRepo{}
	}
	if approvalSvc == nil {
		approvalSvc = &mockApprovalService{}
	}
	return NewRevisionService(revisionRepo, leadRepo, approvalSvc, &mockTxManager{}, &mockLogger{})
}

func TestRevisionService_Submit(t *testing.T) {
	t.Run("title is required", func(t *testing.T) {
		svc := newRevisionService(nil, nil, nil)
		_, err := svc.Submit(context.Background(), 1, 2, "", "drop clause 4")
		if !errors.Is(err, entity.ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("unknown lead", func(t *testing.T) {
		leadRepo := &mockLeadRepo{
			getByIDFunc: func(ctx context.Context, id int64) (*entity.Lead, error) {
				return nil, nil
			},
		}
		svc := newRevisionService(nil, leadRepo, nil)
		_, err := svc.Submit(context.Background(), 1, 2, "Pricing rework", "")
		if !errors.Is(err, entity.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("submission opens a round for the account owner", func(t *testing.T) {
		var gotContext string
		var gotSpecs []StageSpec
		approvalSvc := &mockApprovalService{
			createWorkflowFunc: func(ctx context.Context, workflowContext string, entityID, leadID int64, stages []StageSpec) ([]*entity.Approval, error) {
				gotContext = workflowContext
				gotSpecs = stages
				return make([]*entity.Approval, len(stages)), nil
			},
		}
		svc := newRevisionService(nil, nil, approvalSvc)
		revision, err := svc.Submit(context.Background(), 1, 2, "Pricing rework", "drop clause 4")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if revision.Status != entity.RevisionPendingApproval {
			t.Errorf("expected PENDING_APPROVAL, got %s", revision.Status)
		}
		if gotContext != entity.ContextRevision {
			t.Errorf("round should use the revision context, got %q", gotContext)
		}
		if len(gotSpecs) != 1 {
			t.Fatalf("expected a single-stage round, got %d stages", len(gotSpecs))
		}
		// the default mock lead is owned by user 10
		if gotSpecs[0].ApproverID == nil || *gotSpecs[0].ApproverID != 10 {
			t.Errorf("round should be assigned to the account owner")
		}
		if !gotSpecs[0].IsMandatory {
			t.Errorf("the owner's review is mandatory")
		}
	})
}

func TestRevisionService_ResolveAfterApproval(t *testing.T) {
	tests := []struct {
		name        string
		current     entity.RevisionStatus
		approvals   []*entity.Approval
		wantStatus  entity.RevisionStatus
		wantUpdated bool
	}{
		{
			name:       "already settled revision is untouched",
			current:    entity.RevisionAccepted,
			wantStatus: entity.RevisionAccepted,
		},
		{
			name:    "rejection returns the revision",
			current: entity.RevisionPendingApproval,
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalRejected, IsMandatory: true},
			},
			wantStatus:  entity.RevisionReturned,
			wantUpdated: true,
		},
		{
			name:    "approval accepts the revision",
			current: entity.RevisionPendingApproval,
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalApproved, IsMandatory: true},
			},
			wantStatus:  entity.RevisionAccepted,
			wantUpdated: true,
		},
		{
			name:    "pending round leaves it open",
			current: entity.RevisionPendingApproval,
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalPending, IsMandatory: true},
			},
			wantStatus: entity.RevisionPendingApproval,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updated := false
			revisionRepo := &mockRevisionRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.NegotiationRevision, error) {
					return &entity.NegotiationRevision{ID: id, LeadID: 1, Status: tt.current}, nil
				},
				updateFunc: func(ctx context.Context, revision *entity.NegotiationRevision) error {
					updated = true
					return nil
				},
			}
			approvalSvc := &mockApprovalService{
				areAllCompletedFunc: func(ctx context.Context, workflowContext string, entityID int64) (bool, error) {
					for _, a := range tt.approvals {
						if a.IsMandatory && a.Status != entity.ApprovalApproved && a.Status != entity.ApprovalSkipped {
							return false, nil
						}
					}
					return true, nil
				},
			}
			approvalSvc.listByEntity = tt.approvals

			svc := newRevisionService(revisionRepo, nil, approvalSvc)
			revision, err := svc.ResolveAfterApproval(context.Background(), 1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if revision.Status != tt.wantStatus {
				t.Errorf("expected %s, got %s", tt.wantStatus, revision.Status)
			}
			if updated != tt.wantUpdated {
				t.Errorf("updated = %v, want %v", updated, tt.wantUpdated)
			}
			if tt.wantUpdated && revision.ResolvedAt == nil {
				t.Errorf("resolved_at not set")
			}
		})
	}
}
