package postgresql

import (
	"context"

	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

const companyColumns = `id, name, country, base_currency, admin_user_id, created_at, updated_at`

func scanCompany(row interface{ Scan(...interface{}) error }) (company.Company, error) {
	var c company.Company
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.Country,
		&c.BaseCurrency,
		&c.AdminUserID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// Create implements company.CompanyRepository.
func (r *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO companies (name, country, base_currency, admin_user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING ` + companyColumns

	return scanCompany(q.QueryRow(ctx, query,
		newCompany.Name,
		newCompany.Country,
		newCompany.BaseCurrency,
		newCompany.AdminUserID,
	))
}

// GetByID implements company.CompanyRepository.
func (r *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(q.QueryRow(ctx, query, id))
}

// GetByAdminUserID implements company.CompanyRepository.
func (r *companyRepositoryImpl) GetByAdminUserID(ctx context.Context, adminUserID string) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + companyColumns + ` FROM companies WHERE admin_user_id = $1`
	return scanCompany(q.QueryRow(ctx, query, adminUserID))
}

// Update implements company.CompanyRepository.
func (r *companyRepositoryImpl) Update(ctx context.Context, updated company.Company) (company.Company, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE companies
		SET name = $1, country = $2, base_currency = $3, admin_user_id = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + companyColumns

	return scanCompany(q.QueryRow(ctx, query,
		updated.Name,
		updated.Country,
		updated.BaseCurrency,
		updated.AdminUserID,
		updated.ID,
	))
}
