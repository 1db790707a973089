package service

import (
	"context"
	"fmt"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

// directoryResolver resolves approval-stage specifications against the user
// directory. For role and department specs the policy is deterministic: the
// active member with the lowest user id wins. The policy lives behind
// port.ApproverResolver so a round-robin or least-loaded variant can replace
// it without touching the approval engine.
type directoryResolver struct {
	userRepo port.UserRepository
	logger   Logger
}

// NewApproverResolver creates a directory-backed approver resolver
func NewApproverResolver(userRepo port.UserRepository, logger Logger) port.ApproverResolver {
	return &directoryResolver{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Resolve returns the concrete approver id for one approval-stage spec
func (r *directoryResolver) Resolve(ctx context.Context, approvalType entity.ApprovalType, approverID *int64, approverRole string, departmentID *int64) (int64, error) {
	switch approvalType {
	case entity.ApprovalTypeUser:
		if approverID == nil {
			return 0, fmt.Errorf("%w: specific-user approval without approver id", entity.ErrValidation)
		}
		user, err := r.userRepo.GetByID(ctx, *approverID)
		if err != nil {
			return 0, fmt.Errorf("resolve approver %d: %w", *approverID, err)
		}
		if user == nil {
			return 0, fmt.Errorf("%w: approver %d", entity.ErrNotFound, *approverID)
		}
		return user.ID, nil

	case entity.ApprovalTypeRole:
		if approverRole == "" {
			return 0, fmt.Errorf("%w: role approval without role", entity.ErrValidation)
		}
		users, err := r.userRepo.FindByRole(ctx, approverRole)
		if err != nil {
			return 0, fmt.Errorf("resolve role %s: %w", approverRole, err)
		}
		if len(users) == 0 {
			return 0, fmt.Errorf("%w: no active user holds role %s", entity.ErrNotFound, approverRole)
		}
		// users are ordered by id, so the head is the deterministic pick
		return users[0].ID, nil

	case entity.ApprovalTypeDepartment:
		if departmentID == nil {
			return 0, fmt.Errorf("%w: department approval without department id", entity.ErrValidation)
		}
		users, err := r.userRepo.FindByDepartment(ctx, *departmentID)
		if err != nil {
			return 0, fmt.Errorf("resolve department %d: %w", *departmentID, err)
		}
		if len(users) == 0 {
			return 0, fmt.Errorf("%w: no active user in department %d", entity.ErrNotFound, *departmentID)
		}
		return users[0].ID, nil

	default:
		return 0, fmt.Errorf("%w: unknown approval type %q", entity.ErrValidation, approvalType)
	}
}
