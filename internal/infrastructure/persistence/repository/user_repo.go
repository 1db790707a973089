package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/dealdesk/dealdesk/internal/application/port"
	"github.com/dealdesk/dealdesk/internal/domain/entity"
)

const userColumns = `id, name, email, role, department_id, manager_id, is_active, created_at`

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID returns the user with the given id, nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`

	user, err := scanUser(executorFrom(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// FindByRole returns active users holding the role, ordered by id
func (r *UserRepository) FindByRole(ctx context.Context, role string) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? AND is_active = 1 ORDER BY id`
	return r.collect(ctx, query, role)
}

// FindByDepartment returns active users in the department, ordered by id
func (r *UserRepository) FindByDepartment(ctx context.Context, departmentID int64) ([]*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE department_id = ? AND is_active = 1 ORDER BY id`
	return r.collect(ctx, query, departmentID)
}

func (r *UserRepository) collect(ctx context.Context, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := executorFrom(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query users", zap.Error(err))
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		user         entity.User
		departmentID sql.NullInt64
		managerID    sql.NullInt64
	)
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.Role,
		&departmentID, &managerID, &user.IsActive, &user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if departmentID.Valid {
		user.DepartmentID = &departmentID.Int64
	}
	if managerID.Valid {
		user.ManagerID = &managerID.Int64
	}
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
