package entity

import "time"

// Well-known directory roles referenced by the lifecycle core
const (
	RoleCEO            = "CEO"
	RoleAccountManager = "ACCOUNT_MANAGER"
	RoleFinance        = "FINANCE"
	RoleLegal          = "LEGAL"
)

// User is a directory member able to own leads, review stages and respond
// to approvals.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}
