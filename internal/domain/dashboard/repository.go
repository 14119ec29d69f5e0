package dashboard

import "context"

// StatusCounts groups an employee's expenses by status.
type StatusCounts struct {
	Pending  int64
	Approved int64
	Rejected int64
}

// DashboardRepository - aggregate queries backing the dashboard
type DashboardRepository interface {
	ExpenseCountsByStatus(ctx context.Context, employeeID, companyID string) (StatusCounts, error)
	CountPendingApprovals(ctx context.Context, approverID, companyID string) (int64, error)
}
