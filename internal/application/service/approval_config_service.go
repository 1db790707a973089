package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// FlowEntry is one approver specification of a custom approval flow
type FlowEntry struct {
	SequenceOrder int
	ApprovalType  entity.ApprovalType
	ApproverID    *int64
	ApproverRole  string
	DepartmentID  *int64
	IsMandatory   bool
}

// ApprovalConfigService manages the custom approval flow attached to an
// agreement. Redefining a flow replaces the whole ordered list atomically.
type ApprovalConfigService interface {
	DefineFlow(ctx context.Context, agreementID int64, entries []FlowEntry) ([]*entity.ApprovalConfig, error)
	GetFlow(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error)
}

type approvalConfigServiceImpl struct {
	configRepo    port.ApprovalConfigRepository
	agreementRepo port.AgreementRepository
	txManager     port.TransactionManager
	logger        Logger
}

// NewApprovalConfigService creates a new ApprovalConfigService
func NewApprovalConfigService(
	configRepo port.ApprovalConfigRepository,
	agreementRepo port.AgreementRepository,
	txManager port.TransactionManager,
	logger Logger,
) ApprovalConfigService {
	return &approvalConfigServiceImpl{
		configRepo:    configRepo,
		agreementRepo: agreementRepo,
		txManager:     txManager,
		logger:        logger,
	}
}

// DefineFlow validates the entries and replaces the agreement's flow
func (s *approvalConfigServiceImpl) DefineFlow(ctx context.Context, agreementID int64, entries []FlowEntry) ([]*entity.ApprovalConfig, error) {
	agreement, err := s.agreementRepo.GetByID(ctx, agreementID)
	if err != nil {
		return nil, fmt.Errorf("get agreement: %w", err)
	}
	if agreement == nil {
		return nil, fmt.Errorf("%w: agreement %d", entity.ErrNotFound, agreementID)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: approval flow needs at least one entry", entity.ErrValidation)
	}
	if agreement.ApprovalInProgress {
		return nil, fmt.Errorf("%w: agreement %d has an approval round in progress", entity.ErrConflict, agreementID)
	}

	now := time.Now()
	seen := make(map[int]bool, len(entries))
	configs := make([]*entity.ApprovalConfig, 0, len(entries))
	for _, e := range entries {
		if e.SequenceOrder <= 0 {
			return nil, fmt.Errorf("%w: sequence order must be positive", entity.ErrValidation)
		}
		if seen[e.SequenceOrder] {
			return nil, fmt.Errorf("%w: duplicate sequence order %d", entity.ErrValidation, e.SequenceOrder)
		}
		seen[e.SequenceOrder] = true

		if !e.ApprovalType.IsValid() {
			return nil, fmt.Errorf("%w: unknown approval type %q", entity.ErrValidation, e.ApprovalType)
		}
		switch e.ApprovalType {
		case entity.ApprovalTypeUser:
			if e.ApproverID == nil {
				return nil, fmt.Errorf("%w: entry %d names no approver", entity.ErrValidation, e.SequenceOrder)
			}
		case entity.ApprovalTypeRole:
			if e.ApproverRole == "" {
				return nil, fmt.Errorf("%w: entry %d names no role", entity.ErrValidation, e.SequenceOrder)
			}
		case entity.ApprovalTypeDepartment:
			if e.DepartmentID == nil {
				return nil, fmt.Errorf("%w: entry %d names no department", entity.ErrValidation, e.SequenceOrder)
			}
		}

		configs = append(configs, &entity.ApprovalConfig{
			AgreementID:   agreementID,
			SequenceOrder: e.SequenceOrder,
			ApprovalType:  e.ApprovalType,
			ApproverID:    e.ApproverID,
			ApproverRole:  e.ApproverRole,
			DepartmentID:  e.DepartmentID,
			IsMandatory:   e.IsMandatory,
			CreatedAt:     now,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.configRepo.ReplaceForAgreement(txCtx, agreementID, configs); err != nil {
			return fmt.Errorf("replace approval flow: %w", err)
		}
		if !agreement.HasCustomApprovalFlow {
			agreement.HasCustomApprovalFlow = true
			agreement.UpdatedAt = now
			if err := s.agreementRepo.Update(txCtx, agreement); err != nil {
				return fmt.Errorf("flag custom flow: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to define approval flow", "error", err, "agreement_id", agreementID)
		return nil, err
	}

	s.logger.Info("Approval flow defined", "agreement_id", agreementID, "entries", len(configs))
	return configs, nil
}

// GetFlow returns the agreement's flow ordered by sequence
func (s *approvalConfigServiceImpl) GetFlow(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error) {
	return s.configRepo.GetByAgreementID(ctx, agreementID)
}
