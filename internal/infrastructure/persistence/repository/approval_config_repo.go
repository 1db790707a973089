package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// ApprovalConfigRepository implements port.ApprovalConfigRepository
type ApprovalConfigRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewApprovalConfigRepository creates a new approval config repository
func NewApprovalConfigRepository(db *sql.DB, logger *zap.Logger) port.ApprovalConfigRepository {
	return &ApprovalConfigRepository{
		db:     db,
		logger: logger,
	}
}

// ReplaceForAgreement deletes the old flow and inserts the new one. Run it
// inside a transaction so the redefinition is atomic.
func (r *ApprovalConfigRepository) ReplaceForAgreement(ctx context.Context, agreementID int64, configs []*entity.ApprovalConfig) error {
	ex := executorFrom(ctx, r.db)

	if _, err := ex.ExecContext(ctx, `DELETE FROM agreement_approval_configs WHERE agreement_id = ?`, agreementID); err != nil {
		r.logger.Error("Failed to clear approval configs", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return fmt.Errorf("failed to clear approval configs: %w", err)
	}

	query := `
		INSERT INTO agreement_approval_configs (
			agreement_id, sequence_order, approval_type, approver_id, approver_role, department_id, is_mandatory, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, cfg := range configs {
		result, err := ex.ExecContext(ctx, query,
			agreementID, cfg.SequenceOrder, string(cfg.ApprovalType),
			cfg.ApproverID, cfg.ApproverRole, cfg.DepartmentID, cfg.IsMandatory, cfg.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to insert approval config", zap.Int64("agreement_id", agreementID), zap.Error(err))
			return fmt.Errorf("failed to insert approval config: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		cfg.ID = id
		cfg.AgreementID = agreementID
	}
	return nil
}

// GetByAgreementID returns the flow ordered by sequence
func (r *ApprovalConfigRepository) GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.ApprovalConfig, error) {
	query := `
		SELECT id, agreement_id, sequence_order, approval_type, approver_id, approver_role, department_id, is_mandatory, created_at
		FROM agreement_approval_configs
		WHERE agreement_id = ?
		ORDER BY sequence_order
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, agreementID)
	if err != nil {
		r.logger.Error("Failed to get approval configs", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get approval configs: %w", err)
	}
	defer rows.Close()

	var configs []*entity.ApprovalConfig
	for rows.Next() {
		var (
			cfg          entity.ApprovalConfig
			approvalType string
			approverID   sql.NullInt64
			role         sql.NullString
			departmentID sql.NullInt64
		)
		err := rows.Scan(&cfg.ID, &cfg.AgreementID, &cfg.SequenceOrder, &approvalType,
			&approverID, &role, &departmentID, &cfg.IsMandatory, &cfg.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan approval config: %w", err)
		}
		cfg.ApprovalType = entity.ApprovalType(approvalType)
		cfg.ApproverRole = role.String
		if approverID.Valid {
			cfg.ApproverID = &approverID.Int64
		}
		if departmentID.Valid {
			cfg.DepartmentID = &departmentID.Int64
		}
		configs = append(configs, &cfg)
	}
	return configs, rows.Err()
}

// DeleteByAgreementID removes the flow with its agreement
func (r *ApprovalConfigRepository) DeleteByAgreementID(ctx context.Context, agreementID int64) error {
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM agreement_approval_configs WHERE agreement_id = ?`, agreementID)
	if err != nil {
		r.logger.Error("Failed to delete approval configs", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return fmt.Errorf("failed to delete approval configs: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.ApprovalConfigRepository = (*ApprovalConfigRepository)(nil)
