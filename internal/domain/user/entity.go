package user

import "time"

type Role string

const (
	RoleAdmin    Role = "ADMIN"    // Company admin - full access
	RoleManager  Role = "MANAGER"  // Can approve expenses
	RoleEmployee Role = "EMPLOYEE" // Submits expenses
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

type User struct {
	ID           string
	CompanyID    *string
	Name         string
	Email        string
	PasswordHash *string
	Role         Role
	ManagerID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Join
	Manager *Ref
}

// Ref is a lightweight user reference embedded in responses
// (manager of an employee, approver of a step).
type Ref struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role,omitempty"`
}

// IsAdmin checks if user is company admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanApprove checks if user can act on approval steps
func (u *User) CanApprove() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
