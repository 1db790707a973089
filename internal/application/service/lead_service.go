package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
	"github.com/dealdesk/dealdesk/pkg/utils"
)

// LeadService is the thin collaborator boundary for lead records
type LeadService interface {
	Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error)
	GetByID(ctx context.Context, id int64) (*entity.Lead, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Lead, error)
}

type leadServiceImpl struct {
	leadRepo port.LeadRepository
	userRepo port.UserRepository
	logger   Logger
}

// NewLeadService creates a new LeadService
func NewLeadService(leadRepo port.LeadRepository, userRepo port.UserRepository, logger Logger) LeadService {
	return &leadServiceImpl{
		leadRepo: leadRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// Create records a new lead
func (s *leadServiceImpl) Create(ctx context.Context, lead *entity.Lead) (*entity.Lead, error) {
	if lead.Company == "" {
		return nil, fmt.Errorf("%w: company is required", entity.ErrValidation)
	}
	lead.Company = utils.SanitizeString(lead.Company)
	if lead.ContactEmail != "" {
		if err := utils.ValidateEmail(lead.ContactEmail); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrValidation, err)
		}
	}
	owner, err := s.userRepo.GetByID(ctx, lead.AccountOwnerID)
	if err != nil {
		return nil, fmt.Errorf("get account owner: %w", err)
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: account owner %d", entity.ErrNotFound, lead.AccountOwnerID)
	}

	lead.CreatedAt = time.Now()
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		s.logger.Error("Failed to create lead", "error", err)
		return nil, err
	}
	s.logger.Info("Lead created", "lead_id", lead.ID, "company", lead.Company)
	return lead, nil
}

// GetByID retrieves one lead
func (s *leadServiceImpl) GetByID(ctx context.Context, id int64) (*entity.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("%w: lead %d", entity.ErrNotFound, id)
	}
	return lead, nil
}

// List retrieves leads with pagination
func (s *leadServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Lead, error) {
	return s.leadRepo.List(ctx, limit, offset)
}
