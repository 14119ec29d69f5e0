package dashboard

import (
	"context"
	"fmt"

	"github.com/expensehub/expense-backend-go/internal/domain/dashboard"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
)

type DashboardService struct {
	dashboard.DashboardRepository
	user.UserRepository
}

func NewDashboardService(dashboardRepository dashboard.DashboardRepository, userRepository user.UserRepository) *DashboardService {
	return &DashboardService{
		DashboardRepository: dashboardRepository,
		UserRepository:      userRepository,
	}
}

// Stats aggregates the caller's expense counts, plus their approval
// queue for managers and the company headcount for admins.
func (s *DashboardService) Stats(ctx context.Context, userID, companyID string, role user.Role) (dashboard.Stats, error) {
	counts, err := s.DashboardRepository.ExpenseCountsByStatus(ctx, userID, companyID)
	if err != nil {
		return dashboard.Stats{}, fmt.Errorf("failed to count expenses by status: %w", err)
	}

	stats := dashboard.Stats{
		TotalExpenses:    counts.Pending + counts.Approved + counts.Rejected,
		PendingExpenses:  counts.Pending,
		ApprovedExpenses: counts.Approved,
		RejectedExpenses: counts.Rejected,
	}

	if role == user.RoleManager || role == user.RoleAdmin {
		pendingApprovals, err := s.DashboardRepository.CountPendingApprovals(ctx, userID, companyID)
		if err != nil {
			return dashboard.Stats{}, fmt.Errorf("failed to count pending approvals: %w", err)
		}
		stats.PendingApprovals = pendingApprovals
	}

	if role == user.RoleAdmin {
		teamMembers, err := s.UserRepository.CountByCompanyID(ctx, companyID)
		if err != nil {
			return dashboard.Stats{}, fmt.Errorf("failed to count company users: %w", err)
		}
		stats.TeamMembers = teamMembers
	}

	return stats, nil
}
