package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// AgreementRepository implements port.AgreementRepository
type AgreementRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAgreementRepository creates a new agreement repository
func NewAgreementRepository(db *sql.DB, logger *zap.Logger) port.AgreementRepository {
	return &AgreementRepository{
		db:     db,
		logger: logger,
	}
}

const agreementColumns = `
	id, lead_id, title, contract_value, stage,
	has_custom_approval_flow, approval_in_progress, requires_ulccs_approval,
	delivery_reviewed_by, delivery_reviewed_at, delivery_comments, delivery_approved,
	procurement_reviewed_by, procurement_reviewed_at, procurement_comments, procurement_approved,
	finance_reviewed_by, finance_reviewed_at, finance_comments, finance_approved,
	client_reviewed_by, client_reviewed_at, client_comments, client_approved,
	ceo_reviewed_by, ceo_reviewed_at, ceo_comments, ceo_approved,
	ulccs_reviewed_by, ulccs_reviewed_at, ulccs_comments, ulccs_approved,
	client_signed_by, client_signed_at, company_signed_by, company_signed_at,
	start_date, end_date,
	terminated_by, terminated_at, termination_reason,
	created_by, created_at, updated_at`

// reviewCols buffers one review block's nullable columns during a scan
type reviewCols struct {
	by       sql.NullInt64
	at       sql.NullTime
	comments sql.NullString
	approved sql.NullBool
}

func (c *reviewCols) outcome() entity.ReviewOutcome {
	out := entity.ReviewOutcome{Comments: c.comments.String}
	if c.by.Valid {
		out.ReviewedBy = &c.by.Int64
	}
	if c.at.Valid {
		t := c.at.Time
		out.ReviewedAt = &t
	}
	if c.approved.Valid {
		b := c.approved.Bool
		out.Approved = &b
	}
	return out
}

func reviewArgs(o entity.ReviewOutcome) []interface{} {
	return []interface{}{o.ReviewedBy, o.ReviewedAt, o.Comments, o.Approved}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAgreement(row rowScanner) (*entity.Agreement, error) {
	var (
		a             entity.Agreement
		stageStr      string
		delivery      reviewCols
		procurement   reviewCols
		finance       reviewCols
		client        reviewCols
		ceo           reviewCols
		ulccs         reviewCols
		clientSigner  sql.NullString
		clientSigned  sql.NullTime
		companySigner sql.NullInt64
		companySigned sql.NullTime
		startDate     sql.NullTime
		endDate       sql.NullTime
		terminatedBy  sql.NullInt64
		terminatedAt  sql.NullTime
		termReason    sql.NullString
	)

	err := row.Scan(
		&a.ID, &a.LeadID, &a.Title, &a.ContractValue, &stageStr,
		&a.HasCustomApprovalFlow, &a.ApprovalInProgress, &a.RequiresULCCSApproval,
		&delivery.by, &delivery.at, &delivery.comments, &delivery.approved,
		&procurement.by, &procurement.at, &procurement.comments, &procurement.approved,
		&finance.by, &finance.at, &finance.comments, &finance.approved,
		&client.by, &client.at, &client.comments, &client.approved,
		&ceo.by, &ceo.at, &ceo.comments, &ceo.approved,
		&ulccs.by, &ulccs.at, &ulccs.comments, &ulccs.approved,
		&clientSigner, &clientSigned, &companySigner, &companySigned,
		&startDate, &endDate,
		&terminatedBy, &terminatedAt, &termReason,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Stage = stage.Stage(stageStr)
	a.DeliveryReview = delivery.outcome()
	a.ProcurementReview = procurement.outcome()
	a.FinanceReview = finance.outcome()
	a.ClientReview = client.outcome()
	a.CEOReview = ceo.outcome()
	a.ULCCSReview = ulccs.outcome()

	if clientSigner.Valid {
		a.ClientSignedBy = &clientSigner.String
	}
	if clientSigned.Valid {
		t := clientSigned.Time
		a.ClientSignedAt = &t
	}
	if companySigner.Valid {
		a.CompanySignedBy = &companySigner.Int64
	}
	if companySigned.Valid {
		t := companySigned.Time
		a.CompanySignedAt = &t
	}
	if startDate.Valid {
		t := startDate.Time
		a.StartDate = &t
	}
	if endDate.Valid {
		t := endDate.Time
		a.EndDate = &t
	}
	if terminatedBy.Valid {
		a.TerminatedBy = &terminatedBy.Int64
	}
	if terminatedAt.Valid {
		t := terminatedAt.Time
		a.TerminatedAt = &t
	}
	a.TerminationReason = termReason.String

	return &a, nil
}

// Create inserts a new agreement
func (r *AgreementRepository) Create(ctx context.Context, a *entity.Agreement) error {
	query := `
		INSERT INTO agreements (
			lead_id, title, contract_value, stage,
			has_custom_approval_flow, approval_in_progress, requires_ulccs_approval,
			end_date, created_by, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		a.LeadID, a.Title, a.ContractValue, a.Stage.String(),
		a.HasCustomApprovalFlow, a.ApprovalInProgress, a.RequiresULCCSApproval,
		a.EndDate, a.CreatedBy, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create agreement", zap.Error(err))
		return fmt.Errorf("failed to create agreement: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	return nil
}

// GetByID retrieves an agreement by ID; nil when absent
func (r *AgreementRepository) GetByID(ctx context.Context, id int64) (*entity.Agreement, error) {
	query := `SELECT ` + agreementColumns + ` FROM agreements WHERE id = ?`

	a, err := scanAgreement(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get agreement", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get agreement: %w", err)
	}
	return a, nil
}

// Update writes the full agreement row
func (r *AgreementRepository) Update(ctx context.Context, a *entity.Agreement) error {
	query := `
		UPDATE agreements SET
			lead_id = ?, title = ?, contract_value = ?, stage = ?,
			has_custom_approval_flow = ?, approval_in_progress = ?, requires_ulccs_approval = ?,
			delivery_reviewed_by = ?, delivery_reviewed_at = ?, delivery_comments = ?, delivery_approved = ?,
			procurement_reviewed_by = ?, procurement_reviewed_at = ?, procurement_comments = ?, procurement_approved = ?,
			finance_reviewed_by = ?, finance_reviewed_at = ?, finance_comments = ?, finance_approved = ?,
			client_reviewed_by = ?, client_reviewed_at = ?, client_comments = ?, client_approved = ?,
			ceo_reviewed_by = ?, ceo_reviewed_at = ?, ceo_comments = ?, ceo_approved = ?,
			ulccs_reviewed_by = ?, ulccs_reviewed_at = ?, ulccs_comments = ?, ulccs_approved = ?,
			client_signed_by = ?, client_signed_at = ?, company_signed_by = ?, company_signed_at = ?,
			start_date = ?, end_date = ?,
			terminated_by = ?, terminated_at = ?, termination_reason = ?,
			updated_at = ?
		WHERE id = ?
	`

	args := []interface{}{
		a.LeadID, a.Title, a.ContractValue, a.Stage.String(),
		a.HasCustomApprovalFlow, a.ApprovalInProgress, a.RequiresULCCSApproval,
	}
	args = append(args, reviewArgs(a.DeliveryReview)...)
	args = append(args, reviewArgs(a.ProcurementReview)...)
	args = append(args, reviewArgs(a.FinanceReview)...)
	args = append(args, reviewArgs(a.ClientReview)...)
	args = append(args, reviewArgs(a.CEOReview)...)
	args = append(args, reviewArgs(a.ULCCSReview)...)
	args = append(args,
		a.ClientSignedBy, a.ClientSignedAt, a.CompanySignedBy, a.CompanySignedAt,
		a.StartDate, a.EndDate,
		a.TerminatedBy, a.TerminatedAt, a.TerminationReason,
		a.UpdatedAt, a.ID,
	)

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update agreement", zap.Int64("id", a.ID), zap.Error(err))
		return fmt.Errorf("failed to update agreement: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("agreement %d not found", a.ID)
	}
	return nil
}

// Delete removes an agreement row
func (r *AgreementRepository) Delete(ctx context.Context, id int64) error {
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM agreements WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete agreement", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete agreement: %w", err)
	}
	return nil
}

// List retrieves agreements with pagination
func (r *AgreementRepository) List(ctx context.Context, limit, offset int) ([]*entity.Agreement, error) {
	query := `SELECT ` + agreementColumns + ` FROM agreements ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list agreements", zap.Error(err))
		return nil, fmt.Errorf("failed to list agreements: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// ListInStages returns agreements sitting in any of the given stages
func (r *AgreementRepository) ListInStages(ctx context.Context, stages []stage.Stage) ([]*entity.Agreement, error) {
	if len(stages) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(stages))
	placeholders = placeholders[:len(placeholders)-1]
	query := `SELECT ` + agreementColumns + ` FROM agreements WHERE stage IN (` + placeholders + `) ORDER BY id`

	args := make([]interface{}, len(stages))
	for i, s := range stages {
		args[i] = s.String()
	}

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list agreements by stage", zap.Error(err))
		return nil, fmt.Errorf("failed to list agreements by stage: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

// ListActivePastEndDate returns Active agreements whose end date passed
func (r *AgreementRepository) ListActivePastEndDate(ctx context.Context, cutoff time.Time) ([]*entity.Agreement, error) {
	query := `SELECT ` + agreementColumns + ` FROM agreements WHERE stage = ? AND end_date IS NOT NULL AND end_date < ? ORDER BY id`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, stage.Active.String(), cutoff)
	if err != nil {
		r.logger.Error("Failed to list overdue agreements", zap.Error(err))
		return nil, fmt.Errorf("failed to list overdue agreements: %w", err)
	}
	defer rows.Close()

	return collectAgreements(rows)
}

func collectAgreements(rows *sql.Rows) ([]*entity.Agreement, error) {
	var agreements []*entity.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agreement: %w", err)
		}
		agreements = append(agreements, a)
	}
	return agreements, rows.Err()
}

// Verify interface compliance
var _ port.AgreementRepository = (*AgreementRepository)(nil)
