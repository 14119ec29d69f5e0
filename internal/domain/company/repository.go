package company

import "context"

// CompanyRepository - interface for companies table
type CompanyRepository interface {
	Create(ctx context.Context, newCompany Company) (Company, error)
	GetByID(ctx context.Context, id string) (Company, error)
	GetByAdminUserID(ctx context.Context, adminUserID string) (Company, error)
	Update(ctx context.Context, updated Company) (Company, error)
}
