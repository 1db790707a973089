package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
	"github.com/dealdesk/dealdesk/pkg/utils"
)

// CreateAgreementParams carries the inputs for a new agreement
type CreateAgreementParams struct {
	LeadID        int64
	Title         string
	ContractValue float64
	EndDate       *time.Time
	CreatedBy     int64
}

// AgreementService is the lifecycle coordinator. It validates every stage
// change against the transition table, writes the audit trail in the same
// transaction as the mutation, and drives the approval engine for custom
// sign-off rounds.
type AgreementService interface {
	Create(ctx context.Context, params CreateAgreementParams) (*entity.Agreement, error)
	GetByID(ctx context.Context, id int64) (*entity.Agreement, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Agreement, error)

	ChangeStage(ctx context.Context, id int64, newStage stage.Stage, notes string, actorID int64) (*entity.Agreement, error)

	ReviewByDelivery(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)
	ReviewByProcurement(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)
	ReviewByFinance(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)
	ReviewByClient(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)
	ApproveByCEO(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)
	ApproveByULCCS(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error)

	SignByClient(ctx context.Context, id int64, signerName string, actorID int64) (*entity.Agreement, error)
	SignByCompany(ctx context.Context, id, signerID int64) (*entity.Agreement, error)

	Terminate(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error)
	Cancel(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error)
	Remove(ctx context.Context, id int64) error

	SendForApproval(ctx context.Context, id, actorID int64) ([]*entity.Approval, error)
	UpdateStageAfterApproval(ctx context.Context, id, actorID int64) (*entity.Agreement, error)
	ReturnToCreator(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error)
}

type agreementServiceImpl struct {
	agreementRepo port.AgreementRepository
	historyRepo   port.StageHistoryRepository
	approvalRepo  port.ApprovalRepository
	configRepo    port.ApprovalConfigRepository
	leadRepo      port.LeadRepository
	approvalSvc   ApprovalService
	txManager     port.TransactionManager
	logger        Logger
}

// NewAgreementService creates a new AgreementService
func NewAgreementService(
	agreementRepo port.AgreementRepository,
	historyRepo port.StageHistoryRepository,
	approvalRepo port.ApprovalRepository,
	configRepo port.ApprovalConfigRepository,
	leadRepo port.LeadRepository,
	approvalSvc ApprovalService,
	txManager port.TransactionManager,
	logger Logger,
) AgreementService {
	return &agreementServiceImpl{
		agreementRepo: agreementRepo,
		historyRepo:   historyRepo,
		approvalRepo:  approvalRepo,
		configRepo:    configRepo,
		leadRepo:      leadRepo,
		approvalSvc:   approvalSvc,
		txManager:     txManager,
		logger:        logger,
	}
}

// Create opens a new agreement in Draft and seeds its baseline history row
func (s *agreementServiceImpl) Create(ctx context.Context, params CreateAgreementParams) (*entity.Agreement, error) {
	if params.Title == "" {
		return nil, fmt.Errorf("%w: title is required", entity.ErrValidation)
	}
	if err := utils.ValidateContractValue(params.ContractValue); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
	}
	lead, err := s.leadRepo.GetByID(ctx, params.LeadID)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if lead == nil {
		return nil, fmt.Errorf("%w: lead %d", entity.ErrNotFound, params.LeadID)
	}

	now := time.Now()
	agreement := &entity.Agreement{
		LeadID:        params.LeadID,
		Title:         params.Title,
		ContractValue: params.ContractValue,
		Stage:         stage.Draft,
		EndDate:       params.EndDate,
		CreatedBy:     params.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.agreementRepo.Create(txCtx, agreement); err != nil {
			return fmt.Errorf("create agreement: %w", err)
		}
		history := &entity.StageHistory{
			AgreementID: agreement.ID,
			FromStage:   stage.Draft,
			ToStage:     stage.Draft,
			Notes:       "Agreement created",
			ChangedBy:   params.CreatedBy,
			ChangedAt:   now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create agreement", "error", err, "lead_id", params.LeadID)
		return nil, err
	}

	s.logger.Info("Agreement created", "id", agreement.ID, "lead_id", params.LeadID)
	return agreement, nil
}

// GetByID retrieves an agreement
func (s *agreementServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Agreement, error) {
	return s.get(ctx, id)
}

// List retrieves agreements with pagination
func (s *agreementServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Agreement, error) {
	return s.agreementRepo.List(ctx, limit, offset)
}

func (s *agreementServiceImpl) get(ctx context.Context, id int64) (*entity.Agreement, error) {
	agreement, err := s.agreementRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get agreement: %w", err)
	}
	if agreement == nil {
		return nil, fmt.Errorf("%w: agreement %d", entity.ErrNotFound, id)
	}
	return agreement, nil
}

// transition mutates the stage and appends the matching history row. Callers
// run it inside a transaction; partial application would break the
// time-in-stage invariant the scheduler depends on.
func (s *agreementServiceImpl) transition(txCtx context.Context, agreement *entity.Agreement, to stage.Stage, notes string, actorID int64) error {
	if err := stage.Validate(agreement.Stage, to); err != nil {
		return err
	}

	from := agreement.Stage
	now := time.Now()
	agreement.Stage = to
	if to == stage.Active && agreement.StartDate == nil {
		agreement.StartDate = &now
	}
	agreement.UpdatedAt = now

	if err := s.agreementRepo.Update(txCtx, agreement); err != nil {
		return fmt.Errorf("update agreement: %w", err)
	}

	history := &entity.StageHistory{
		AgreementID: agreement.ID,
		FromStage:   from,
		ToStage:     to,
		Notes:       notes,
		ChangedBy:   actorID,
		ChangedAt:   now,
	}
	if err := s.historyRepo.Create(txCtx, history); err != nil {
		return fmt.Errorf("create history: %w", err)
	}
	return nil
}

// ChangeStage applies a caller-requested stage change after table validation
func (s *agreementServiceImpl) ChangeStage(ctx context.Context, id int64, newStage stage.Stage, notes string, actorID int64) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, newStage, notes, actorID)
	})
	if err != nil {
		s.logger.Error("Failed to change stage", "error", err, "agreement_id", id, "new_stage", newStage)
		return nil, err
	}

	s.logger.Info("Stage changed", "agreement_id", id, "stage", newStage)
	return agreement, nil
}

func (s *agreementServiceImpl) reviewOutcomeFor(agreement *entity.Agreement, reviewStage stage.Stage) *entity.ReviewOutcome {
	switch reviewStage {
	case stage.DeliveryReview:
		return &agreement.DeliveryReview
	case stage.ProcurementReview:
		return &agreement.ProcurementReview
	case stage.FinanceReview:
		return &agreement.FinanceReview
	case stage.ClientReview:
		return &agreement.ClientReview
	case stage.CEOApproval:
		return &agreement.CEOReview
	case stage.ULCCSApproval:
		return &agreement.ULCCSReview
	}
	return nil
}

// reviewDepartment records the review outcome and moves the agreement along
// the declarative pipeline: approve advances, reject steps back one stage.
func (s *agreementServiceImpl) reviewDepartment(ctx context.Context, id, actorID int64, reviewStage stage.Stage, approved bool, comments string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Stage != reviewStage {
		return nil, fmt.Errorf("%w: agreement %d is in %s, expected %s", entity.ErrInvalidState, id, agreement.Stage, reviewStage)
	}

	targets, ok := stage.ReviewTargets(reviewStage)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a review stage", entity.ErrInvalidState, reviewStage)
	}

	now := time.Now()
	outcome := s.reviewOutcomeFor(agreement, reviewStage)
	outcome.ReviewedBy = &actorID
	outcome.ReviewedAt = &now
	outcome.Comments = comments
	outcome.Approved = &approved

	next := targets.OnApprove
	notes := fmt.Sprintf("%s approved", reviewStage)
	if !approved {
		next = targets.OnReject
		notes = fmt.Sprintf("%s rejected", reviewStage)
	}
	if comments != "" {
		notes = fmt.Sprintf("%s: %s", notes, comments)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, next, notes, actorID)
	})
	if err != nil {
		s.logger.Error("Failed to record review", "error", err, "agreement_id", id, "review_stage", reviewStage)
		return nil, err
	}

	s.logger.Info("Review recorded", "agreement_id", id, "review_stage", reviewStage, "approved", approved)
	return agreement, nil
}

// ReviewByDelivery records the delivery department review
func (s *agreementServiceImpl) ReviewByDelivery(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	return s.reviewDepartment(ctx, id, actorID, stage.DeliveryReview, approved, comments)
}

// ReviewByProcurement records the procurement department review
func (s *agreementServiceImpl) ReviewByProcurement(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	return s.reviewDepartment(ctx, id, actorID, stage.ProcurementReview, approved, comments)
}

// ReviewByFinance records the finance department review
func (s *agreementServiceImpl) ReviewByFinance(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	return s.reviewDepartment(ctx, id, actorID, stage.FinanceReview, approved, comments)
}

// ReviewByClient records the client review
func (s *agreementServiceImpl) ReviewByClient(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	return s.reviewDepartment(ctx, id, actorID, stage.ClientReview, approved, comments)
}

// ApproveByCEO records the CEO decision. Approval branches on the owning
// lead's compliance flag: ULCCS projects go through the extra compliance
// gate, everything else moves straight to signature.
func (s *agreementServiceImpl) ApproveByCEO(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Stage != stage.CEOApproval {
		return nil, fmt.Errorf("%w: agreement %d is in %s, expected %s", entity.ErrInvalidState, id, agreement.Stage, stage.CEOApproval)
	}

	now := time.Now()
	agreement.CEOReview = entity.ReviewOutcome{
		ReviewedBy: &actorID,
		ReviewedAt: &now,
		Comments:   comments,
		Approved:   &approved,
	}

	var next stage.Stage
	var notes string
	switch {
	case !approved:
		next, notes = stage.FinanceReview, "CEO approval rejected"
	default:
		lead, err := s.leadRepo.GetByID(ctx, agreement.LeadID)
		if err != nil {
			return nil, fmt.Errorf("get lead: %w", err)
		}
		if lead == nil {
			return nil, fmt.Errorf("%w: lead %d", entity.ErrNotFound, agreement.LeadID)
		}
		if lead.IsULCCSProject {
			agreement.RequiresULCCSApproval = true
			next, notes = stage.ULCCSApproval, "CEO approved, ULCCS compliance review required"
		} else {
			next, notes = stage.PendingSignature, "CEO approved"
		}
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, next, notes, actorID)
	})
	if err != nil {
		s.logger.Error("Failed to record CEO decision", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("CEO decision recorded", "agreement_id", id, "approved", approved, "next_stage", next)
	return agreement, nil
}

// ApproveByULCCS records the compliance gate decision
func (s *agreementServiceImpl) ApproveByULCCS(ctx context.Context, id, actorID int64, approved bool, comments string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.RequiresULCCSApproval || agreement.Stage != stage.ULCCSApproval {
		return nil, fmt.Errorf("%w: agreement %d does not await ULCCS approval", entity.ErrInvalidState, id)
	}

	now := time.Now()
	agreement.ULCCSReview = entity.ReviewOutcome{
		ReviewedBy: &actorID,
		ReviewedAt: &now,
		Comments:   comments,
		Approved:   &approved,
	}

	next, notes := stage.PendingSignature, "ULCCS compliance approved"
	if !approved {
		next, notes = stage.CEOApproval, "ULCCS compliance rejected"
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, next, notes, actorID)
	})
	if err != nil {
		s.logger.Error("Failed to record ULCCS decision", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("ULCCS decision recorded", "agreement_id", id, "approved", approved)
	return agreement, nil
}

// recordSignature persists a signature and performs whichever transition the
// pair completion calls for. Whichever signature completes the pair triggers
// Signed, order-independent, with exactly one history row.
func (s *agreementServiceImpl) recordSignature(ctx context.Context, agreement *entity.Agreement, actorID int64, notes string) error {
	return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if agreement.FullySigned() {
			return s.transition(txCtx, agreement, stage.Signed, notes, actorID)
		}
		if agreement.Stage == stage.Draft {
			return s.transition(txCtx, agreement, stage.PendingSignature, notes, actorID)
		}
		agreement.UpdatedAt = time.Now()
		return s.agreementRepo.Update(txCtx, agreement)
	})
}

// SignByClient records the client signature
func (s *agreementServiceImpl) SignByClient(ctx context.Context, id int64, signerName string, actorID int64) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Stage != stage.Draft && agreement.Stage != stage.PendingSignature {
		return nil, fmt.Errorf("%w: agreement %d is in %s, signatures require DRAFT or PENDING_SIGNATURE", entity.ErrInvalidState, id, agreement.Stage)
	}
	if agreement.ClientSignedAt != nil {
		return nil, fmt.Errorf("%w: agreement %d already client-signed", entity.ErrConflict, id)
	}

	now := time.Now()
	agreement.ClientSignedBy = &signerName
	agreement.ClientSignedAt = &now

	if err := s.recordSignature(ctx, agreement, actorID, fmt.Sprintf("Client signature recorded (%s)", signerName)); err != nil {
		s.logger.Error("Failed to record client signature", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Client signature recorded", "agreement_id", id, "stage", agreement.Stage)
	return agreement, nil
}

// SignByCompany records the company-side signature
func (s *agreementServiceImpl) SignByCompany(ctx context.Context, id, signerID int64) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Stage != stage.Draft && agreement.Stage != stage.PendingSignature {
		return nil, fmt.Errorf("%w: agreement %d is in %s, signatures require DRAFT or PENDING_SIGNATURE", entity.ErrInvalidState, id, agreement.Stage)
	}
	if agreement.CompanySignedAt != nil {
		return nil, fmt.Errorf("%w: agreement %d already company-signed", entity.ErrConflict, id)
	}

	now := time.Now()
	agreement.CompanySignedBy = &signerID
	agreement.CompanySignedAt = &now

	if err := s.recordSignature(ctx, agreement, signerID, "Company signature recorded"); err != nil {
		s.logger.Error("Failed to record company signature", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Company signature recorded", "agreement_id", id, "stage", agreement.Stage)
	return agreement, nil
}

// Terminate ends a Signed or Active agreement permanently
func (s *agreementServiceImpl) Terminate(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	agreement.TerminatedBy = &actorID
	agreement.TerminatedAt = &now
	agreement.TerminationReason = reason

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, stage.Terminated, fmt.Sprintf("Terminated: %s", reason), actorID)
	})
	if err != nil {
		s.logger.Error("Failed to terminate agreement", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Agreement terminated", "agreement_id", id)
	return agreement, nil
}

// Cancel abandons an in-flight agreement; the transition table rejects
// cancellation of signed, active and terminal agreements
func (s *agreementServiceImpl) Cancel(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.transition(txCtx, agreement, stage.Cancelled, fmt.Sprintf("Cancelled: %s", reason), actorID)
	})
	if err != nil {
		s.logger.Error("Failed to cancel agreement", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Agreement cancelled", "agreement_id", id)
	return agreement, nil
}

// Remove hard-deletes an agreement with its history, configs and approvals.
// Permitted only while Draft or Cancelled.
func (s *agreementServiceImpl) Remove(ctx context.Context, id int64) error {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !agreement.Removable() {
		return fmt.Errorf("%w: agreement %d in %s cannot be removed", entity.ErrInvalidState, id, agreement.Stage)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.approvalRepo.DeleteByEntity(txCtx, entity.ContextAgreement, id); err != nil {
			return fmt.Errorf("delete approvals: %w", err)
		}
		if err := s.configRepo.DeleteByAgreementID(txCtx, id); err != nil {
			return fmt.Errorf("delete approval configs: %w", err)
		}
		if err := s.historyRepo.DeleteByAgreementID(txCtx, id); err != nil {
			return fmt.Errorf("delete history: %w", err)
		}
		if err := s.agreementRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("delete agreement: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to remove agreement", "error", err, "agreement_id", id)
		return err
	}

	s.logger.Info("Agreement removed", "agreement_id", id)
	return nil
}

// SendForApproval starts the custom sign-off round defined by the agreement's
// approval flow. The stage stays Draft while the round runs; progress is
// tracked via the in-progress flag and the approval rows.
func (s *agreementServiceImpl) SendForApproval(ctx context.Context, id, actorID int64) ([]*entity.Approval, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if agreement.Stage != stage.Draft {
		return nil, fmt.Errorf("%w: agreement %d is in %s, approval rounds start from DRAFT", entity.ErrInvalidState, id, agreement.Stage)
	}
	if agreement.ApprovalInProgress {
		return nil, fmt.Errorf("%w: agreement %d already has an approval round in progress", entity.ErrConflict, id)
	}

	configs, err := s.configRepo.GetByAgreementID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get approval configs: %w", err)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("%w: agreement %d has no custom approval flow defined", entity.ErrValidation, id)
	}

	sort.Slice(configs, func(i, j int) bool {
		return configs[i].SequenceOrder < configs[j].SequenceOrder
	})

	specs := make([]StageSpec, 0, len(configs))
	for _, cfg := range configs {
		specs = append(specs, StageSpec{
			Name:          fmt.Sprintf("approval-%d", cfg.SequenceOrder),
			ApprovalType:  cfg.ApprovalType,
			ApproverID:    cfg.ApproverID,
			ApproverRole:  cfg.ApproverRole,
			DepartmentID:  cfg.DepartmentID,
			IsMandatory:   cfg.IsMandatory,
			SequenceOrder: cfg.SequenceOrder,
		})
	}

	var approvals []*entity.Approval
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		// purge stale rows from any earlier round before recreating
		if err := s.approvalRepo.DeleteByEntity(txCtx, entity.ContextAgreement, id); err != nil {
			return fmt.Errorf("purge stale approvals: %w", err)
		}
		approvals, err = s.approvalSvc.CreateWorkflow(txCtx, entity.ContextAgreement, id, agreement.LeadID, specs)
		if err != nil {
			return err
		}
		agreement.ApprovalInProgress = true
		agreement.UpdatedAt = time.Now()
		return s.agreementRepo.Update(txCtx, agreement)
	})
	if err != nil {
		s.logger.Error("Failed to send for approval", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Agreement sent for approval", "agreement_id", id, "approvers", len(approvals))
	return approvals, nil
}

// UpdateStageAfterApproval re-evaluates the round after a response. A single
// rejection sends the agreement back to Draft ownership; full completion
// advances to PendingSignature; otherwise the round is still in progress.
func (s *agreementServiceImpl) UpdateStageAfterApproval(ctx context.Context, id, actorID int64) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.ApprovalInProgress {
		return agreement, nil
	}

	approvals, err := s.approvalRepo.GetByEntity(ctx, entity.ContextAgreement, id)
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

	if rejected {
		err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			agreement.ApprovalInProgress = false
			agreement.UpdatedAt = time.Now()
			return s.agreementRepo.Update(txCtx, agreement)
		})
		if err != nil {
			return nil, err
		}
		s.logger.Info("Approval round rejected, agreement back in draft", "agreement_id", id)
		return agreement, nil
	}

	completed, err := s.approvalSvc.AreAllCompleted(ctx, entity.ContextAgreement, id)
	if err != nil {
		return nil, err
	}
	if !completed {
		return agreement, nil
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		agreement.ApprovalInProgress = false
		return s.transition(txCtx, agreement, stage.PendingSignature, "Custom approval round completed", actorID)
	})
	if err != nil {
		s.logger.Error("Failed to advance after approval", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Approval round completed", "agreement_id", id, "stage", agreement.Stage)
	return agreement, nil
}

// ReturnToCreator aborts the running round and hands the agreement back to
// its creator in Draft
func (s *agreementServiceImpl) ReturnToCreator(ctx context.Context, id, actorID int64, reason string) (*entity.Agreement, error) {
	agreement, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !agreement.ApprovalInProgress {
		return nil, fmt.Errorf("%w: agreement %d has no approval round in progress", entity.ErrInvalidState, id)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.approvalSvc.ReturnToCreator(txCtx, entity.ContextAgreement, id, reason); err != nil {
			return err
		}
		agreement.ApprovalInProgress = false
		agreement.UpdatedAt = time.Now()
		return s.agreementRepo.Update(txCtx, agreement)
	})
	if err != nil {
		s.logger.Error("Failed to return to creator", "error", err, "agreement_id", id)
		return nil, err
	}

	s.logger.Info("Approval round returned to creator", "agreement_id", id)
	return agreement, nil
}
