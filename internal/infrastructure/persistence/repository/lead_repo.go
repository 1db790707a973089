package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// LeadRepository implements port.LeadRepository
type LeadRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *sql.DB, logger *zap.Logger) port.LeadRepository {
	return &LeadRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new lead
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	query := `
		INSERT INTO leads (company, contact_name, contact_email, account_owner_id, is_ulccs_project, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := executorFrom(ctx, r.db).ExecContext(ctx, query,
		lead.Company, lead.ContactName, lead.ContactEmail, lead.AccountOwnerID, lead.IsULCCSProject, lead.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create lead", zap.String("company", lead.Company), zap.Error(err))
		return fmt.Errorf("failed to create lead: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get lead id: %w", err)
	}
	lead.ID = id
	return nil
}

// GetByID returns the lead with the given id, nil when absent
func (r *LeadRepository) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	query := `
		SELECT id, company, contact_name, contact_email, account_owner_id, is_ulccs_project, created_at
		FROM leads
		WHERE id = ?
	`

	lead, err := scanLead(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get lead", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}

// List returns leads ordered by creation time, newest first
func (r *LeadRepository) List(ctx context.Context, limit, offset int) ([]*entity.Lead, error) {
	query := `
		SELECT id, company, contact_name, contact_email, account_owner_id, is_ulccs_project, created_at
		FROM leads
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list leads", zap.Error(err))
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	defer rows.Close()

	var leads []*entity.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(row rowScanner) (*entity.Lead, error) {
	var (
		lead         entity.Lead
		contactName  sql.NullString
		contactEmail sql.NullString
	)
	err := row.Scan(
		&lead.ID, &lead.Company, &contactName, &contactEmail,
		&lead.AccountOwnerID, &lead.IsULCCSProject, &lead.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	lead.ContactName = contactName.String
	lead.ContactEmail = contactEmail.String
	return &lead, nil
}

// Verify interface compliance
var _ port.LeadRepository = (*LeadRepository)(nil)
