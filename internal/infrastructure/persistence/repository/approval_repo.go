package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// ApprovalRepository implements port.ApprovalRepository
type ApprovalRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(db *sql.DB, logger *zap.Logger) port.ApprovalRepository {
	return &ApprovalRepository{
		db:     db,
		logger: logger,
	}
}

const approvalColumns = `
	id, context, entity_id, lead_id, stage_name, approver_role, approver_id,
	is_mandatory, sequence_order, status, comments, requested_at, responded_at`

// Create inserts one approval instance
func (r *ApprovalRepository) Create(ctx context.Context, a *entity.Approval) error {
	query := `
		INSERT INTO approvals (
			context, entity_id, lead_id, stage_name, approver_role, approver_id,
			is_mandatory, sequence_order, status, comments, requested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		a.Context, a.EntityID, a.LeadID, a.StageName, a.ApproverRole, a.ApproverID,
		a.IsMandatory, a.SequenceOrder, string(a.Status), a.Comments, a.RequestedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create approval", zap.Error(err))
		return fmt.Errorf("failed to create approval: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	return nil
}

func scanApproval(row rowScanner) (*entity.Approval, error) {
	var (
		a           entity.Approval
		status      string
		role        sql.NullString
		approverID  sql.NullInt64
		comments    sql.NullString
		respondedAt sql.NullTime
	)
	err := row.Scan(
		&a.ID, &a.Context, &a.EntityID, &a.LeadID, &a.StageName, &role, &approverID,
		&a.IsMandatory, &a.SequenceOrder, &status, &comments, &a.RequestedAt, &respondedAt,
	)
	if err != nil {
		return nil, err
	}
	a.Status = entity.ApprovalStatus(status)
	a.ApproverRole = role.String
	a.Comments = comments.String
	if approverID.Valid {
		a.ApproverID = &approverID.Int64
	}
	if respondedAt.Valid {
		t := respondedAt.Time
		a.RespondedAt = &t
	}
	return &a, nil
}

// GetByID retrieves one approval; nil when absent
func (r *ApprovalRepository) GetByID(ctx context.Context, id int64) (*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE id = ?`

	a, err := scanApproval(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get approval", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return a, nil
}

// GetByEntity returns the round for (context, entity) ordered by sequence
func (r *ApprovalRepository) GetByEntity(ctx context.Context, workflowContext string, entityID int64) ([]*entity.Approval, error) {
	query := `SELECT ` + approvalColumns + ` FROM approvals WHERE context = ? AND entity_id = ? ORDER BY sequence_order`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, workflowContext, entityID)
	if err != nil {
		r.logger.Error("Failed to get approvals", zap.String("context", workflowContext), zap.Int64("entity_id", entityID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approvals: %w", err)
	}
	defer rows.Close()

	var approvals []*entity.Approval
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// ResolveIfPending is the conditional update guaranteeing at-most-once
// resolution: the WHERE clause only matches a still-pending row and the
// affected-row count reports whether this caller won.
func (r *ApprovalRepository) ResolveIfPending(ctx context.Context, id int64, status entity.ApprovalStatus, approverID *int64, comments string, respondedAt time.Time) (bool, error) {
	query := `
		UPDATE approvals
		SET status = ?, approver_id = ?, comments = ?, responded_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		string(status), approverID, comments, respondedAt, id, string(entity.ApprovalPending),
	)
	if err != nil {
		r.logger.Error("Failed to resolve approval", zap.Int64("id", id), zap.Error(err))
		return false, fmt.Errorf("failed to resolve approval: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return rows == 1, nil
}

// DeleteByEntity purges the round for (context, entity)
func (r *ApprovalRepository) DeleteByEntity(ctx context.Context, workflowContext string, entityID int64) error {
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM approvals WHERE context = ? AND entity_id = ?`, workflowContext, entityID)
	if err != nil {
		r.logger.Error("Failed to delete approvals", zap.String("context", workflowContext), zap.Int64("entity_id", entityID), zap.Error(err))
		return fmt.Errorf("failed to delete approvals: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ApprovalRepository = (*ApprovalRepository)(nil)
