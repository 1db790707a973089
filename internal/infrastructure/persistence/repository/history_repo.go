package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/internal/domain/stage"
)

// StageHistoryRepository implements port.StageHistoryRepository
type StageHistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStageHistoryRepository creates a new stage history repository
func NewStageHistoryRepository(db *sql.DB, logger *zap.Logger) port.StageHistoryRepository {
	return &StageHistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends one audit entry
func (r *StageHistoryRepository) Create(ctx context.Context, h *entity.StageHistory) error {
	query := `
		INSERT INTO agreement_stage_history (agreement_id, from_stage, to_stage, notes, changed_by, changed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		h.AgreementID, h.FromStage.String(), h.ToStage.String(), h.Notes, h.ChangedBy, h.ChangedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create stage history", zap.Error(err))
		return fmt.Errorf("failed to create stage history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = id
	return nil
}

func scanHistory(row rowScanner) (*entity.StageHistory, error) {
	var (
		h        entity.StageHistory
		from, to string
		notes    sql.NullString
	)
	if err := row.Scan(&h.ID, &h.AgreementID, &from, &to, &notes, &h.ChangedBy, &h.ChangedAt); err != nil {
		return nil, err
	}
	h.FromStage = stage.Stage(from)
	h.ToStage = stage.Stage(to)
	h.Notes = notes.String
	return &h, nil
}

// GetByAgreementID returns the full trail, newest first
func (r *StageHistoryRepository) GetByAgreementID(ctx context.Context, agreementID int64) ([]*entity.StageHistory, error) {
	query := `
		SELECT id, agreement_id, from_stage, to_stage, notes, changed_by, changed_at
		FROM agreement_stage_history
		WHERE agreement_id = ?
		ORDER BY changed_at DESC, id DESC
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, agreementID)
	if err != nil {
		r.logger.Error("Failed to get stage history", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get stage history: %w", err)
	}
	defer rows.Close()

	var entries []*entity.StageHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stage history: %w", err)
		}
		entries = append(entries, h)
	}
	return entries, rows.Err()
}

// GetLatest returns the newest entry, nil when the trail is empty
func (r *StageHistoryRepository) GetLatest(ctx context.Context, agreementID int64) (*entity.StageHistory, error) {
	query := `
		SELECT id, agreement_id, from_stage, to_stage, notes, changed_by, changed_at
		FROM agreement_stage_history
		WHERE agreement_id = ?
		ORDER BY changed_at DESC, id DESC
		LIMIT 1
	`

	h, err := scanHistory(executorFrom(ctx, r.db).QueryRowContext(ctx, query, agreementID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get latest stage history", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return nil, fmt.Errorf("failed to get latest stage history: %w", err)
	}
	return h, nil
}

// DeleteByAgreementID removes the trail with its agreement
func (r *StageHistoryRepository) DeleteByAgreementID(ctx context.Context, agreementID int64) error {
	_, err := executorFrom(ctx, r.db).ExecContext(ctx, `DELETE FROM agreement_stage_history WHERE agreement_id = ?`, agreementID)
	if err != nil {
		r.logger.Error("Failed to delete stage history", zap.Int64("agreement_id", agreementID), zap.Error(err))
		return fmt.Errorf("failed to delete stage history: %w", err)
	}
	return nil
}

// Verify interface compliance
var _ port.StageHistoryRepository = (*StageHistoryRepository)(nil)
