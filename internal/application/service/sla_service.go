package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// Tier is the escalation level produced by one SLA evaluation
type Tier string

const (
	TierNone       Tier = "NONE"
	TierWarning    Tier = "WARNING"
	TierCritical   Tier = "CRITICAL"
	TierEscalation Tier = "ESCALATION"
)

// EvaluateTier computes the escalation tier for an agreement that entered its
// current stage at changedAt. Thresholds are checked from highest to lowest
// so exactly one tier applies per evaluation.
func EvaluateTier(changedAt time.Time, cfg *entity.SLAConfig, now time.Time) Tier {
	if cfg == nil {
		return TierNone
	}
	days := now.Sub(changedAt).Hours() / 24
	switch {
	case days >= float64(cfg.EscalationThresholdDays):
		return TierEscalation
	case days >= float64(cfg.CriticalThresholdDays):
		return TierCritical
	case days >= float64(cfg.WarningThresholdDays):
		return TierWarning
	}
	return TierNone
}

// SLAService measures time-in-stage against configured thresholds and raises
// graduated notifications, and auto-expires active agreements past their end
// date. Scans isolate per-agreement failures: one bad record never blocks the
// rest of the portfolio.
type SLAService interface {
	ScanOnce(ctx context.Context, now time.Time) error
	ExpireOverdue(ctx context.Context, now time.Time) error
}

type slaServiceImpl struct {
	agreementRepo port.AgreementRepository
	historyRepo   port.StageHistoryRepository
	slaRepo       port.SLAConfigRepository
	leadRepo      port.LeadRepository
	userRepo      port.UserRepository
	agreementSvc  AgreementService
	notifier      port.Notifier
	logger        Logger
}

// NewSLAService creates a new SLAService
func NewSLAService(
	agreementRepo port.AgreementRepository,
	historyRepo port.StageHistoryRepository,
	slaRepo port.SLAConfigRepository,
	leadRepo port.LeadRepository,
	userRepo port.UserRepository,
	agreementSvc AgreementService,
	notifier port.Notifier,
	logger Logger,
) SLAService {
	return &slaServiceImpl{
		agreementRepo: agreementRepo,
		historyRepo:   historyRepo,
		slaRepo:       slaRepo,
		leadRepo:      leadRepo,
		userRepo:      userRepo,
		agreementSvc:  agreementSvc,
		notifier:      notifier,
		logger:        logger,
	}
}

// monitoredStages are the pipeline stages with SLA thresholds. Signed,
// active and terminal agreements are not time-bound.
var monitoredStages = []stage.Stage{
	stage.Draft, stage.LegalReview, stage.DeliveryReview, stage.ProcurementReview,
	stage.FinanceReview, stage.ClientReview, stage.CEOApproval,
	stage.ULCCSApproval, stage.PendingSignature,
}

// ScanOnce runs one full SLA pass over every monitored agreement
func (s *slaServiceImpl) ScanOnce(ctx context.Context, now time.Time) error {
	agreements, err := s.agreementRepo.ListInStages(ctx, monitoredStages)
	if err != nil {
		return fmt.Errorf("list monitored agreements: %w", err)
	}

	for _, agreement := range agreements {
		if err := s.checkAgreement(ctx, agreement, now); err != nil {
			s.logger.Error("SLA check failed, continuing scan", "error", err, "agreement_id", agreement.ID)
		}
	}
	return nil
}

func (s *slaServiceImpl) checkAgreement(ctx context.Context, agreement *entity.Agreement, now time.Time) error {
	latest, err := s.historyRepo.GetLatest(ctx, agreement.ID)
	if err != nil {
		return fmt.Errorf("get latest history: %w", err)
	}
	if latest == nil {
		return fmt.Errorf("agreement %d has no stage history", agreement.ID)
	}

	cfg, err := s.slaRepo.GetByStage(ctx, agreement.Stage)
	if err != nil {
		return fmt.Errorf("get sla config: %w", err)
	}

	tier := EvaluateTier(latest.ChangedAt, cfg, now)
	if tier == TierNone {
		return nil
	}

	lead, err := s.leadRepo.GetByID(ctx, agreement.LeadID)
	if err != nil {
		return fmt.Errorf("get lead: %w", err)
	}
	if lead == nil {
		return fmt.Errorf("lead %d not found", agreement.LeadID)
	}

	days := int(now.Sub(latest.ChangedAt).Hours() / 24)
	switch tier {
	case TierEscalation:
		return s.escalate(ctx, agreement, lead, days, now)
	case TierCritical:
		s.send(ctx, lead.AccountOwnerID, entity.NotificationSLACritical,
			fmt.Sprintf("Agreement %q has breached its critical SLA", agreement.Title),
			fmt.Sprintf("Agreement %d has been in %s for %d days.", agreement.ID, agreement.Stage, days),
			dedupeKey(agreement.ID, entity.NotificationSLACritical, now))
	case TierWarning:
		s.send(ctx, lead.AccountOwnerID, entity.NotificationSLAWarning,
			fmt.Sprintf("Agreement %q is approaching its SLA limit", agreement.Title),
			fmt.Sprintf("Agreement %d has been in %s for %d days.", agreement.ID, agreement.Stage, days),
			dedupeKey(agreement.ID, entity.NotificationSLAWarning, now))
	}
	return nil
}

// escalate notifies the account owner's manager and routes the extra
// stage-specific notifications: the CEO for stuck CEO approvals, the owner
// follow-up for stuck client reviews.
func (s *slaServiceImpl) escalate(ctx context.Context, agreement *entity.Agreement, lead *entity.Lead, days int, now time.Time) error {
	recipient := lead.AccountOwnerID
	owner, err := s.userRepo.GetByID(ctx, lead.AccountOwnerID)
	if err != nil {
		return fmt.Errorf("get account owner: %w", err)
	}
	if owner != nil && owner.ManagerID != nil {
		recipient = *owner.ManagerID
	}

	subject := fmt.Sprintf("Escalation: agreement %q stuck in %s", agreement.Title, agreement.Stage)
	body := fmt.Sprintf("Agreement %d has been in %s for %d days, past the escalation threshold.", agreement.ID, agreement.Stage, days)
	s.send(ctx, recipient, entity.NotificationSLAEscalation, subject, body,
		dedupeKey(agreement.ID, entity.NotificationSLAEscalation, now))

	switch agreement.Stage {
	case stage.CEOApproval:
		ceos, err := s.userRepo.FindByRole(ctx, entity.RoleCEO)
		if err != nil {
			return fmt.Errorf("find CEO: %w", err)
		}
		if len(ceos) > 0 {
			s.send(ctx, ceos[0].ID, entity.NotificationSLAEscalation, subject, body,
				dedupeKey(agreement.ID, "SLA_ESCALATION_CEO", now))
		}
	case stage.ClientReview:
		s.send(ctx, lead.AccountOwnerID, entity.NotificationClientFollowUp,
			fmt.Sprintf("Client follow-up needed for agreement %q", agreement.Title),
			fmt.Sprintf("The client review for agreement %d has been open for %d days. Please follow up with %s.", agreement.ID, days, lead.Company),
			dedupeKey(agreement.ID, entity.NotificationClientFollowUp, now))
	}
	return nil
}

// send dispatches fire-and-forget: failures are logged, never propagated
func (s *slaServiceImpl) send(ctx context.Context, recipientID int64, kind, subject, body, key string) {
	n := &entity.Notification{
		RecipientID: recipientID,
		Kind:        kind,
		Subject:     subject,
		Body:        body,
		DedupeKey:   key,
		CreatedAt:   time.Now(),
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		s.logger.Error("Failed to send notification", "error", err, "recipient_id", recipientID, "kind", kind)
	}
}

// one notification per (agreement, kind, day)
func dedupeKey(agreementID int64, kind string, now time.Time) string {
	return fmt.Sprintf("sla:%d:%s:%s", agreementID, kind, now.Format("2006-01-02"))
}

// ExpireOverdue transitions Active agreements past their end date to Expired
// through the coordinator so the audit trail stays intact
func (s *slaServiceImpl) ExpireOverdue(ctx context.Context, now time.Time) error {
	agreements, err := s.agreementRepo.ListActivePastEndDate(ctx, now)
	if err != nil {
		return fmt.Errorf("list overdue agreements: %w", err)
	}

	for _, agreement := range agreements {
		if _, err := s.agreementSvc.ChangeStage(ctx, agreement.ID, stage.Expired, "Auto-expired past end date", 0); err != nil {
			s.logger.Error("Failed to auto-expire agreement, continuing", "error", err, "agreement_id", agreement.ID)
			continue
		}
		s.logger.Info("Agreement auto-expired", "agreement_id", agreement.ID)
	}
	return nil
}
