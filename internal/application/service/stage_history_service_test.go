package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

func TestStageHistoryService_DwellTime(t *testing.T) {
	now := time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)

	t.Run("measured from the newest entry", func(t *testing.T) {
		historyRepo := &mockHistoryRepo{
			getLatestFunc: func(ctx context.Context, agreementID int64) (*entity.StageHistory, error) {
				return &entity.StageHistory{
					AgreementID: agreementID,
					ToStage:     stage.FinanceReview,
					ChangedAt:   now.Add(-36 * time.Hour),
				}, nil
			},
		}
		svc := NewStageHistoryService(historyRepo, &mockLogger{})
		dwell, err := svc.DwellTime(context.Background(), 1, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dwell != 36*time.Hour {
			t.Errorf("expected 36h, got %s", dwell)
		}
	})

	t.Run("missing history", func(t *testing.T) {
		historyRepo := &mockHistoryRepo{
			getLatestFunc: func(ctx context.Context, agreementID int64) (*entity.StageHistory, error) {
				return nil, nil
			},
		}
		svc := NewStageHistoryService(historyRepo, &mockLogger{})
		_, err := svc.DwellTime(context.Background(), 1, now)
		if !errors.Is(err, entity.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestLeadService_Create(t *testing.T) {
	tests := []struct {
		name     string
		lead     *entity.Lead
		userRepo *mockUserRepo
		wantErr  error
	}{
		{
			name:    "company is required",
			lead:    &entity.Lead{AccountOwnerID: 10},
			wantErr: entity.ErrValidation,
		},
		{
			name:    "contact email must be well formed",
			lead:    &entity.Lead{Company: "Acme", ContactEmail: "not-an-email", AccountOwnerID: 10},
			wantErr: entity.ErrValidation,
		},
		{
			name: "account owner must exist",
			lead: &entity.Lead{Company: "Acme", AccountOwnerID: 10},
			userRepo: &mockUserRepo{
				getByIDFunc: func(ctx context.Context, id int64) (*entity.User, error) {
					return nil, nil
				},
			},
			wantErr: entity.ErrNotFound,
		},
		{
			name: "valid lead",
			lead: &entity.Lead{Company: "Acme", ContactEmail: "jane@acme.example", AccountOwnerID: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := tt.userRepo
			if userRepo == nil {
				userRepo = &mockUserRepo{}
			}
			svc := NewLeadService(&mockLeadRepo{}, userRepo, &mockLogger{})
			lead, err := svc.Create(context.Background(), tt.lead)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if lead.ID == 0 {
				t.Errorf("lead id not assigned")
			}
		})
	}
}
