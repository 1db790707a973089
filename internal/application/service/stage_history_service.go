package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// StageHistoryService exposes the audit trail and current-stage dwell time
type StageHistoryService interface {
	ListByAgreement(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error)
	DwellTime(ctx context.Context, agreementID int64, now time.Time) (time.Duration, error)
}

type stageHistoryServiceImpl struct {
	historyRepo port.StageHistoryRepository
	logger      Logger
}

// NewStageHistoryService creates a new StageHistoryService
func NewStageHistoryService(historyRepo port.StageHistoryRepository, logger Logger) StageHistoryService {
	return &stageHistoryServiceImpl{
		historyRepo: historyRepo,
		logger:      logger,
	}
}

// ListByAgreement returns the audit trail, newest first
func (s *stageHistoryServiceImpl) ListByAgreement(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error) {
	return s.historyRepo.GetByAgreementID(ctx, agreementID)
}

// DwellTime returns how long the agreement has sat in its current stage,
// measured from its newest history entry
func (s *stageHistoryServiceImpl) DwellTime(ctx context.Context, agreementID int64, now time.Time) (time.Duration, error) {
	latest, err := s.historyRepo.GetLatest(ctx, agreementID)
	if err != nil {
		return 0, fmt.Errorf("get latest history: %w", err)
	}
	if latest == nil {
		return 0, fmt.Errorf("%w: agreement %d has no stage history", entity.ErrNotFound, agreementID)
	}
	return now.Sub(latest.ChangedAt), nil
}
