package user

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// maxManagerChainDepth bounds the ancestor walk so already-corrupt data
// cannot loop the request forever.
const maxManagerChainDepth = 1000

type UserService struct {
	db *database.DB
	user.UserRepository
	company.CompanyRepository
}

func NewUserService(db *database.DB, userRepository user.UserRepository, companyRepository company.CompanyRepository) *UserService {
	return &UserService{
		db:                db,
		UserRepository:    userRepository,
		CompanyRepository: companyRepository,
	}
}

// Create adds a user to the admin's company with a generated temporary
// password. The password is returned once and never again.
func (s *UserService) Create(ctx context.Context, companyID string, req user.CreateUserRequest) (user.CreatedUserResponse, error) {
	_, err := s.UserRepository.GetByEmail(ctx, req.Email)
	if err == nil {
		return user.CreatedUserResponse{}, user.ErrUserEmailExists
	}
	if err != pgx.ErrNoRows {
		return user.CreatedUserResponse{}, fmt.Errorf("failed to check existing email: %w", err)
	}

	if req.ManagerID != nil {
		if err := s.validateManager(ctx, *req.ManagerID, companyID); err != nil {
			return user.CreatedUserResponse{}, err
		}
	}

	tempPassword, err := generateTemporaryPassword()
	if err != nil {
		return user.CreatedUserResponse{}, fmt.Errorf("failed to generate temporary password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), bcrypt.DefaultCost)
	if err != nil {
		return user.CreatedUserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}
	passwordHash := string(hash)

	created, err := s.UserRepository.Create(ctx, user.User{
		CompanyID:    &companyID,
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: &passwordHash,
		Role:         user.Role(req.Role),
		ManagerID:    req.ManagerID,
	})
	if err != nil {
		return user.CreatedUserResponse{}, fmt.Errorf("failed to create user: %w", err)
	}

	return user.CreatedUserResponse{
		User:              user.ToResponse(created),
		TemporaryPassword: tempPassword,
	}, nil
}

// List returns all users in the company with their manager references.
func (s *UserService) List(ctx context.Context, companyID string) ([]user.UserResponse, error) {
	users, err := s.UserRepository.GetByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list company users: %w", err)
	}

	responses := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, user.ToResponse(u))
	}
	return responses, nil
}

func (s *UserService) Get(ctx context.Context, id, companyID string) (user.UserResponse, error) {
	u, err := s.UserRepository.GetByIDInCompany(ctx, id, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.UserResponse{}, user.ErrUserNotFound
		}
		return user.UserResponse{}, fmt.Errorf("failed to get user: %w", err)
	}
	return user.ToResponse(u), nil
}

// ListApprovers returns the company members eligible to appear in
// approval rules or steps, i.e. managers and admins.
func (s *UserService) ListApprovers(ctx context.Context, companyID string) ([]user.UserResponse, error) {
	users, err := s.UserRepository.ListApprovers(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approvers: %w", err)
	}

	responses := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, user.ToResponse(u))
	}
	return responses, nil
}

// Update patches name, role, and manager. Reassigning the manager runs
// the cycle check first so the manager tree stays acyclic.
func (s *UserService) Update(ctx context.Context, companyID string, req user.UpdateUserRequest) (user.UserResponse, error) {
	existing, err := s.UserRepository.GetByIDInCompany(ctx, req.ID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.UserResponse{}, user.ErrUserNotFound
		}
		return user.UserResponse{}, fmt.Errorf("failed to get user: %w", err)
	}

	if req.ManagerID != nil {
		if *req.ManagerID == req.ID {
			return user.UserResponse{}, user.ErrSelfManager
		}
		if err := s.validateManager(ctx, *req.ManagerID, companyID); err != nil {
			return user.UserResponse{}, err
		}
		if err := s.wouldCreateCycle(ctx, *req.ManagerID, req.ID); err != nil {
			return user.UserResponse{}, err
		}
		existing.ManagerID = req.ManagerID
	}
	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.Role != nil {
		existing.Role = user.Role(*req.Role)
	}

	updated, err := s.UserRepository.Update(ctx, existing)
	if err != nil {
		return user.UserResponse{}, fmt.Errorf("failed to update user: %w", err)
	}

	// Reload for the manager join.
	reloaded, err := s.UserRepository.GetByIDInCompany(ctx, updated.ID, companyID)
	if err != nil {
		return user.ToResponse(updated), nil
	}
	return user.ToResponse(reloaded), nil
}

// Delete removes a user once nothing references them anymore. The
// company admin can never be deleted.
func (s *UserService) Delete(ctx context.Context, id, companyID string) error {
	_, err := s.UserRepository.GetByIDInCompany(ctx, id, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return fmt.Errorf("failed to get company: %w", err)
	}
	if comp.AdminUserID != nil && *comp.AdminUserID == id {
		return user.ErrCompanyAdminUndeletable
	}

	deps, err := s.UserRepository.GetDependencies(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check user dependencies: %w", err)
	}

	switch {
	case deps.Expenses > 0:
		return &user.DependencyError{
			Dependency: "existing expense(s)",
			Count:      deps.Expenses,
			Hint:       "please delete the expenses first",
		}
	case deps.ApprovalSteps > 0:
		return &user.DependencyError{
			Dependency: "pending approval(s) as approver",
			Count:      deps.ApprovalSteps,
			Hint:       "please complete or reassign the approvals first",
		}
	case deps.Subordinates > 0:
		return &user.DependencyError{
			Dependency: "managed employee(s)",
			Count:      deps.Subordinates,
			Hint:       "please reassign their manager first",
		}
	case deps.RuleMentions > 0:
		return &user.DependencyError{
			Dependency: "approval rule mention(s)",
			Count:      deps.RuleMentions,
			Hint:       "please update the rules first",
		}
	}

	if err := s.UserRepository.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) validateManager(ctx context.Context, managerID, companyID string) error {
	manager, err := s.UserRepository.GetByIDInCompany(ctx, managerID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.ErrManagerNotFound
		}
		return fmt.Errorf("failed to get manager: %w", err)
	}
	if !manager.CanApprove() {
		return user.ErrManagerRoleRequired
	}
	return nil
}

// wouldCreateCycle walks the candidate manager's chain upwards and fails
// if it reaches the employee or revisits a node.
func (s *UserService) wouldCreateCycle(ctx context.Context, candidateManagerID, employeeID string) error {
	visited := make(map[string]bool)
	current := candidateManagerID

	for depth := 0; depth < maxManagerChainDepth; depth++ {
		if current == employeeID || visited[current] {
			return user.ErrCircularManagerRelationship
		}
		visited[current] = true

		manager, err := s.UserRepository.GetByID(ctx, current)
		if err != nil {
			if err == pgx.ErrNoRows {
				return nil
			}
			return fmt.Errorf("failed to walk manager chain: %w", err)
		}
		if manager.ManagerID == nil {
			return nil
		}
		current = *manager.ManagerID
	}

	return user.ErrCircularManagerRelationship
}

func generateTemporaryPassword() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
