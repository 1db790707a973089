package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

func int64Ptr(v int64) *int64 { return &v }

func newApprovalService(approvalRepo *mockApprovalRepo, userRepo *mockUserRepo, resolver *mockResolver) ApprovalService {
	if approvalRepo == nil {
		approvalRepo = &mockApprovalRepo{}
	}
	if userRepo == nil {
		userRepo = &mockUserRepo{}
	}
	if resolver == nil {
		resolver = &mockResolver{}
	}
	return NewApprovalService(approvalRepo, userRepo, resolver, &mockTxManager{}, &mockLogger{})
}

func TestApprovalService_CreateWorkflow(t *testing.T) {
	tests := []struct {
		name     string
		stages   []StageSpec
		resolver *mockResolver
		wantErr  error
	}{
		{
			name:    "empty workflow is rejected",
			stages:  nil,
			wantErr: entity.ErrValidation,
		},
		{
			name: "resolver failure aborts the round",
			stages: []StageSpec{
				{Name: "approval-1", ApprovalType: entity.ApprovalTypeRole, ApproverRole: entity.RoleFinance, SequenceOrder: 1},
			},
			resolver: &mockResolver{
				resolveFunc: func(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error) {
					return 0, entity.ErrNotFound
				},
			},
			wantErr: entity.ErrNotFound,
		},
		{
			name: "two stage workflow",
			stages: []StageSpec{
				{Name: "approval-1", ApprovalType: entity.ApprovalTypeUser, ApproverID: int64Ptr(5), IsMandatory: true, SequenceOrder: 1},
				{Name: "approval-2", ApprovalType: entity.ApprovalTypeRole, ApproverRole: entity.RoleCEO, SequenceOrder: 2},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newApprovalService(nil, nil, tt.resolver)
			approvals, err := svc.CreateWorkflow(context.Background(), entity.ContextAgreement, 7, 3, tt.stages)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(approvals) != len(tt.stages) {
				t.Fatalf("expected %d approvals, got %d", len(tt.stages), len(approvals))
			}
			for i, approval := range approvals {
				if approval.Status != entity.ApprovalPending {
					t.Errorf("approval %d: expected PENDING, got %s", i, approval.Status)
				}
				if approval.ApproverID == nil {
					t.Errorf("approval %d: approver not resolved", i)
				}
				if approval.EntityID != 7 || approval.LeadID != 3 {
					t.Errorf("approval %d: entity/lead ids not carried over", i)
				}
			}
		})
	}
}

func TestApprovalService_CreateWorkflow_ResolvesConcreteApprover(t *testing.T) {
	svc := newApprovalService(nil, nil, &mockResolver{
		resolveFunc: func(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error) {
			return 42, nil
		},
	})

	approvals, err := svc.CreateWorkflow(context.Background(), entity.ContextAgreement, 1, 1, []StageSpec{
		{Name: "approval-1", ApprovalType: entity.ApprovalTypeRole, ApproverRole: entity.RoleFinance, SequenceOrder: 1},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *approvals[0].ApproverID != 42 {
		t.Errorf("expected resolved approver 42, got %d", *approvals[0].ApproverID)
	}
}

func TestApprovalService_Respond(t *testing.T) {
	tests := []struct {
		name         string
		status       entity.ApprovalStatus
		actorID      int64
		approvalRepo *mockApprovalRepo
		userRepo     *mockUserRepo
		wantErr      error
	}{
		{
			name:    "status must be a decision",
			status:  entity.ApprovalSkipped,
			actorID: 5,
			wantErr: entity.ErrValidation,
		},
		{
			name:    "unknown approval",
			status:  entity.ApprovalApproved,
			actorID: 5,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return nil, nil
				},
			},
			wantErr: entity.ErrNotFound,
		},
		{
			name:    "already resolved",
			status:  entity.ApprovalApproved,
			actorID: 5,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalApproved, ApproverID: int64Ptr(5)}, nil
				},
			},
			wantErr: entity.ErrConflict,
		},
		{
			name:    "assigned approver may respond",
			status:  entity.ApprovalApproved,
			actorID: 5,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending, ApproverID: int64Ptr(5)}, nil
				},
			},
		},
		{
			name:    "role holder may respond",
			status:  entity.ApprovalRejected,
			actorID: 8,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending, ApproverID: int64Ptr(5), ApproverRole: entity.RoleFinance}, nil
				},
			},
			userRepo: &mockUserRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
					return &entity.User{ID: id, Role: entity.RoleFinance, IsActive: true}, nil
				},
			},
		},
		{
			name:    "stranger is forbidden",
			status:  entity.ApprovalApproved,
			actorID: 8,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending, ApproverID: int64Ptr(5), ApproverRole: entity.RoleFinance}, nil
				},
			},
			userRepo: &mockUserRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
					return &entity.User{ID: id, Role: entity.RoleLegal, IsActive: true}, nil
				},
			},
			wantErr: entity.ErrForbidden,
		},
		{
			name:    "concurrent responder loses the compare-and-set",
			status:  entity.ApprovalApproved,
			actorID: 5,
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending, ApproverID: int64Ptr(5)}, nil
				},
				resolveIfPendingFunc: func(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error) {
					return false, nil
				},
			},
			wantErr: entity.ErrConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newApprovalService(tt.approvalRepo, tt.userRepo, nil)
			approval, err := svc.Respond(context.Background(), 1, tt.actorID, tt.status, "looks fine")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if approval.Status != tt.status {
				t.Errorf("expected status %s, got %s", tt.status, approval.Status)
			}
			if approval.ApproverID == nil || *approval.ApproverID != tt.actorID {
				t.Errorf("responder should claim the approval")
			}
			if approval.RespondedAt == nil {
				t.Errorf("responded_at not set")
			}
		})
	}
}

func TestApprovalService_Skip(t *testing.T) {
	tests := []struct {
		name         string
		approvalRepo *mockApprovalRepo
		wantErr      error
	}{
		{
			name: "mandatory approval cannot be skipped",
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending, IsMandatory: true}, nil
				},
			},
			wantErr: entity.ErrValidation,
		},
		{
			name: "resolved approval cannot be skipped",
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalRejected}, nil
				},
			},
			wantErr: entity.ErrConflict,
		},
		{
			name: "optional pending approval skips",
			approvalRepo: &mockApprovalRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.Approval, error) {
					return &entity.Approval{ID: id, Status: entity.ApprovalPending}, nil
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newApprovalService(tt.approvalRepo, nil, nil)
			err := svc.Skip(context.Background(), 1, "reviewer on leave")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestApprovalService_ReturnToCreator(t *testing.T) {
	resolutions := map[int64]entity.ApprovalStatus{}
	approvalRepo := &mockApprovalRepo{
		getByEntityFunc: func(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
			return []*entity.Approval{
				{ID: 1, Status: entity.ApprovalApproved, SequenceOrder: 1},
				{ID: 2, Status: entity.ApprovalPending, SequenceOrder: 2},
				{ID: 3, Status: entity.ApprovalPending, SequenceOrder: 3},
			}, nil
		},
		resolveIfPendingFunc: func(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error) {
			resolutions[id] = status
			if id == 2 && comments != "returned to creator: terms need rework" {
				t.Errorf("unexpected rejection comment %q", comments)
			}
			return true, nil
		},
	}

	svc := newApprovalService(approvalRepo, nil, nil)
	if err := svc.ReturnToCreator(context.Background(), entity.ContextAgreement, 7, "terms need rework"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, touched := resolutions[1]; touched {
		t.Errorf("already-resolved approval must not be touched")
	}
	if resolutions[2] != entity.ApprovalRejected {
		t.Errorf("current pending approval should be rejected, got %s", resolutions[2])
	}
	if resolutions[3] != entity.ApprovalSkipped {
		t.Errorf("later pending approvals should be skipped, got %s", resolutions[3])
	}
}

func TestApprovalService_AreAllCompleted(t *testing.T) {
	tests := []struct {
		name      string
		approvals []*entity.Approval
		want      bool
	}{
		{
			name: "pending mandatory blocks completion",
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalApproved, IsMandatory: true},
				{ID: 2, Status: entity.ApprovalPending, IsMandatory: true},
			},
			want: false,
		},
		{
			name: "pending optional does not block",
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalApproved, IsMandatory: true},
				{ID: 2, Status: entity.ApprovalPending},
			},
			want: true,
		},
		{
			name: "skipped mandatory counts as done",
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalSkipped, IsMandatory: true},
				{ID: 2, Status: entity.ApprovalApproved, IsMandatory: true},
			},
			want: true,
		},
		{
			name: "rejected mandatory blocks completion",
			approvals: []*entity.Approval{
				{ID: 1, Status: entity.ApprovalRejected, IsMandatory: true},
			},
			want: false,
		},
		{
			name:      "empty round is trivially complete",
			approvals: []*entity.Approval{},
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approvalRepo := &mockApprovalRepo{
				getByEntityFunc: func(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
					return tt.approvals, nil
				},
			}
			svc := newApprovalService(approvalRepo, nil, nil)
			got, err := svc.AreAllCompleted(context.Background(), entity.ContextAgreement, 7)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApprovalService_NextPending(t *testing.T) {
	approvalRepo := &mockApprovalRepo{
		getByEntityFunc: func(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
			return []*entity.Approval{
				{ID: 1, Status: entity.ApprovalApproved, SequenceOrder: 1},
				{ID: 2, Status: entity.ApprovalPending, SequenceOrder: 2},
				{ID: 3, Status: entity.ApprovalPending, SequenceOrder: 3},
			}, nil
		},
	}

	svc := newApprovalService(approvalRepo, nil, nil)
	next, err := svc.NextPending(context.Background(), entity.ContextAgreement, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next == nil || next.ID != 2 {
		t.Fatalf("expected approval 2 as next pending, got %+v", next)
	}
}

func TestApprovalService_NextPending_NoneLeft(t *testing.T) {
	approvalRepo := &mockApprovalRepo{
		getByEntityFunc: func(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
			return []*entity.Approval{{ID: 1, Status: entity.ApprovalApproved}}, nil
		},
	}

	svc := newApprovalService(approvalRepo, nil, nil)
	next, err := svc.NextPending(context.Background(), entity.ContextAgreement, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != nil {
		t.Fatalf("expected nil, got %+v", next)
	}
}
