package postgresql

import (
	"context"

	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
)

type userRepositoryImpl struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepositoryImpl{db: db}
}

const userColumns = `id, company_id, name, email, password_hash, role, manager_id, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.CompanyID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.ManagerID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// Create implements user.UserRepository.
func (r *userRepositoryImpl) Create(ctx context.Context, newUser user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO users (company_id, name, email, password_hash, role, manager_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING ` + userColumns

	return scanUser(q.QueryRow(ctx, query,
		newUser.CompanyID,
		newUser.Name,
		newUser.Email,
		newUser.PasswordHash,
		newUser.Role,
		newUser.ManagerID,
	))
}

// GetByID implements user.UserRepository.
func (r *userRepositoryImpl) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(q.QueryRow(ctx, query, id))
}

// GetByEmail implements user.UserRepository.
func (r *userRepositoryImpl) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(q.QueryRow(ctx, query, email))
}

// GetByIDInCompany implements user.UserRepository.
func (r *userRepositoryImpl) GetByIDInCompany(ctx context.Context, id, companyID string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND company_id = $2`
	return scanUser(q.QueryRow(ctx, query, id, companyID))
}

// GetByCompanyID implements user.UserRepository.
func (r *userRepositoryImpl) GetByCompanyID(ctx context.Context, companyID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT u.id, u.company_id, u.name, u.email, u.password_hash, u.role, u.manager_id,
			   u.created_at, u.updated_at,
			   m.id, m.name, m.email
		FROM users u
		LEFT JOIN users m ON m.id = u.manager_id
		WHERE u.company_id = $1
		ORDER BY u.created_at DESC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		var u user.User
		var managerID, managerName, managerEmail *string
		if err := rows.Scan(
			&u.ID,
			&u.CompanyID,
			&u.Name,
			&u.Email,
			&u.PasswordHash,
			&u.Role,
			&u.ManagerID,
			&u.CreatedAt,
			&u.UpdatedAt,
			&managerID,
			&managerName,
			&managerEmail,
		); err != nil {
			return nil, err
		}
		if managerID != nil {
			u.Manager = &user.Ref{ID: *managerID, Name: *managerName, Email: *managerEmail}
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ListApprovers implements user.UserRepository.
func (r *userRepositoryImpl) ListApprovers(ctx context.Context, companyID string) ([]user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE company_id = $1 AND role IN ('MANAGER', 'ADMIN')
		ORDER BY name ASC
	`

	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update implements user.UserRepository.
func (r *userRepositoryImpl) Update(ctx context.Context, updated user.User) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE users
		SET name = $1, role = $2, manager_id = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + userColumns

	return scanUser(q.QueryRow(ctx, query,
		updated.Name,
		updated.Role,
		updated.ManagerID,
		updated.ID,
	))
}

// Delete implements user.UserRepository.
func (r *userRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

// CountByCompanyID implements user.UserRepository.
func (r *userRepositoryImpl) CountByCompanyID(ctx context.Context, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE company_id = $1`, companyID).Scan(&count)
	return count, err
}

// GetDependencies implements user.UserRepository.
func (r *userRepositoryImpl) GetDependencies(ctx context.Context, id string) (user.Dependencies, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			(SELECT COUNT(*) FROM expenses WHERE employee_id = $1),
			(SELECT COUNT(*) FROM approval_steps WHERE approver_id = $1),
			(SELECT COUNT(*) FROM users WHERE manager_id = $1),
			(SELECT COUNT(*) FROM approval_rules WHERE specific_approver_id = $1) +
			(SELECT COUNT(*) FROM rule_approvers WHERE approver_id = $1)
	`

	var deps user.Dependencies
	err := q.QueryRow(ctx, query, id).Scan(
		&deps.Expenses,
		&deps.ApprovalSteps,
		&deps.Subordinates,
		&deps.RuleMentions,
	)
	return deps, err
}

// IsSubordinate implements user.UserRepository.
func (r *userRepositoryImpl) IsSubordinate(ctx context.Context, employeeID, managerID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1 AND manager_id = $2)`,
		employeeID, managerID,
	).Scan(&exists)
	return exists, err
}
