package user

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound                = errors.New("user not found")
	ErrUserEmailExists             = errors.New("user with this email already exists")
	ErrInvalidRole                 = errors.New("invalid role, must be EMPLOYEE, MANAGER, or ADMIN")
	ErrManagerNotFound             = errors.New("manager not found or not in the same company")
	ErrManagerRoleRequired         = errors.New("selected manager must have MANAGER or ADMIN role")
	ErrSelfManager                 = errors.New("user cannot be their own manager")
	ErrCircularManagerRelationship = errors.New("circular manager relationship detected")
	ErrCompanyAdminUndeletable     = errors.New("cannot delete the company admin, transfer admin rights to another user first")
	ErrAdminPrivilegeRequired      = errors.New("admin privilege required")
	ErrManagerAccessRequired       = errors.New("manager access required")
)

// DependencyError blocks user deletion while other records still reference
// the user. The message names the dependency and count so the caller knows
// what to clean up first.
type DependencyError struct {
	Dependency string
	Count      int
	Hint       string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("cannot delete user with %d %s, %s", e.Count, e.Dependency, e.Hint)
}
