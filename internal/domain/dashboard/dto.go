package dashboard

// Stats is the per-user dashboard summary. PendingApprovals is only
// populated for managers and admins, TeamMembers only for admins.
type Stats struct {
	TotalExpenses    int64 `json:"total_expenses"`
	PendingExpenses  int64 `json:"pending_expenses"`
	ApprovedExpenses int64 `json:"approved_expenses"`
	RejectedExpenses int64 `json:"rejected_expenses"`
	PendingApprovals int64 `json:"pending_approvals"`
	TeamMembers      int64 `json:"team_members"`
}
