package postgresql

import (
	"context"

	"github.com/expensehub/expense-backend-go/internal/domain/dashboard"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
)

type dashboardRepositoryImpl struct {
	db *database.DB
}

func NewDashboardRepository(db *database.DB) dashboard.DashboardRepository {
	return &dashboardRepositoryImpl{db: db}
}

// ExpenseCountsByStatus implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) ExpenseCountsByStatus(ctx context.Context, employeeID, companyID string) (dashboard.StatusCounts, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'PENDING'),
			COUNT(*) FILTER (WHERE status = 'APPROVED'),
			COUNT(*) FILTER (WHERE status = 'REJECTED')
		FROM expenses
		WHERE employee_id = $1 AND company_id = $2
	`

	var counts dashboard.StatusCounts
	err := q.QueryRow(ctx, query, employeeID, companyID).Scan(
		&counts.Pending,
		&counts.Approved,
		&counts.Rejected,
	)
	return counts, err
}

// CountPendingApprovals implements dashboard.DashboardRepository.
func (r *dashboardRepositoryImpl) CountPendingApprovals(ctx context.Context, approverID, companyID string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT COUNT(*)
		FROM approval_steps s
		JOIN expenses e ON e.id = s.expense_id
		WHERE s.approver_id = $1
		  AND s.status = 'PENDING'
		  AND e.status = 'PENDING'
		  AND e.company_id = $2
	`

	var count int64
	err := q.QueryRow(ctx, query, approverID, companyID).Scan(&count)
	return count, err
}
