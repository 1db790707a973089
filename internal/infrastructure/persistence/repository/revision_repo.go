package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

const revisionColumns = `id, lead_id, title, body, status, submitted_by, created_at, updated_at, resolved_at`

// RevisionRepository implements port.RevisionRepository
type RevisionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(db *sql.DB, logger *zap.Logger) port.RevisionRepository {
	return &RevisionRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new negotiation revision
func (r *RevisionRepository) Create(ctx context.Context, revision *entity.NegotiationRevision) error {
	query := `
		INSERT INTO negotiation_revisions (lead_id, title, body, status, submitted_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		revision.LeadID, revision.Title, revision.Body, revision.Status,
		revision.SubmittedBy, revision.CreatedAt, revision.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create revision", zap.Int64("lead_id", revision.LeadID), zap.Error(err))
		return fmt.Errorf("failed to create revision: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get revision id: %w", err)
	}
	revision.ID = id
	return nil
}

// GetByID returns the revision with the given id, nil when absent
func (r *RevisionRepository) GetByID(ctx context.Context, id int64) (*entity.NegotiationRevision, error) {
	query := `SELECT ` + revisionColumns + ` FROM negotiation_revisions WHERE id = ?`

	revision, err := scanRevision(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get revision", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get revision: %w", err)
	}
	return revision, nil
}

// Update persists revision status changes
func (r *RevisionRepository) Update(ctx context.Context, revision *entity.NegotiationRevision) error {
	query := `
		UPDATE negotiation_revisions
		SET title = ?, body = ?, status = ?, updated_at = ?, resolved_at = ?
		WHERE id = ?
	`

	resolvedAt := sql.NullTime{}
	if revision.ResolvedAt != nil {
		resolvedAt = sql.NullTime{Time: *revision.ResolvedAt, Valid: true}
	}
	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		revision.Title, revision.Body, revision.Status, revision.UpdatedAt, resolvedAt, revision.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update revision", zap.Int64("id", revision.ID), zap.Error(err))
		return fmt.Errorf("failed to update revision: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("revision %d not found", revision.ID)
	}
	return nil
}

// ListByLead returns a lead's revisions, newest first
func (r *RevisionRepository) ListByLead(ctx context.Context, leadID int64) ([]*entity.NegotiationRevision, error) {
	query := `SELECT ` + revisionColumns + ` FROM negotiation_revisions WHERE lead_id = ? ORDER BY created_at DESC, id DESC`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, leadID)
	if err != nil {
		r.logger.Error("Failed to list revisions", zap.Int64("lead_id", leadID), zap.Error(err))
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []*entity.NegotiationRevision
	for rows.Next() {
		revision, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, revision)
	}
	return revisions, rows.Err()
}

func scanRevision(row rowScanner) (*entity.NegotiationRevision, error) {
	var (
		revision   entity.NegotiationRevision
		body       sql.NullString
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(
		&revision.ID, &revision.LeadID, &revision.Title, &body, &status,
		&revision.SubmittedBy, &revision.CreatedAt, &revision.UpdatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}
	revision.Body = body.String
	revision.Status = entity.RevisionStatus(status)
	if resolvedAt.Valid {
		revision.ResolvedAt = &resolvedAt.Time
	}
	return &revision, nil
}

// Verify interface compliance
var _ port.RevisionRepository = (*RevisionRepository)(nil)
