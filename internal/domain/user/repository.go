package user

import "context"

// Dependencies holds the counts of records still referencing a user.
// All of them must be zero before the user can be deleted.
type Dependencies struct {
	Expenses      int
	ApprovalSteps int
	Subordinates  int
	RuleMentions  int
}

// UserRepository - interface for users table
type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByIDInCompany(ctx context.Context, id, companyID string) (User, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]User, error)
	ListApprovers(ctx context.Context, companyID string) ([]User, error)
	Update(ctx context.Context, updated User) (User, error)
	Delete(ctx context.Context, id string) error
	CountByCompanyID(ctx context.Context, companyID string) (int64, error)
	GetDependencies(ctx context.Context, id string) (Dependencies, error)
	IsSubordinate(ctx context.Context, employeeID, managerID string) (bool, error)
}
