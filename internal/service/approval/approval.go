package approval

import (
	"context"
	"fmt"
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/dashboard"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/expensehub/expense-backend-go/internal/repository/postgresql"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

type ApprovalService struct {
	db *database.DB
	approval.ApprovalRuleRepository
	expense.ExpenseRepository
	expense.ApprovalStepRepository
	user.UserRepository
	company.CompanyRepository
	dashboard.DashboardRepository
	currencyService *currency.CurrencyService
}

func NewApprovalService(
	db *database.DB,
	ruleRepository approval.ApprovalRuleRepository,
	expenseRepository expense.ExpenseRepository,
	stepRepository expense.ApprovalStepRepository,
	userRepository user.UserRepository,
	companyRepository company.CompanyRepository,
	dashboardRepository dashboard.DashboardRepository,
	currencyService *currency.CurrencyService,
) *ApprovalService {
	return &ApprovalService{
		db:                     db,
		ApprovalRuleRepository: ruleRepository,
		ExpenseRepository:      expenseRepository,
		ApprovalStepRepository: stepRepository,
		UserRepository:         userRepository,
		CompanyRepository:      companyRepository,
		DashboardRepository:    dashboardRepository,
		currencyService:        currencyService,
	}
}

// ApplyAction runs one approve/reject against an approval step. The
// precondition checks and both status writes happen inside a single
// transaction so two approvers racing on the same step cannot
// double-advance the pointer.
func (s *ApprovalService) ApplyAction(ctx context.Context, stepID, actorID, companyID string, action Action, comments string) (approval.ActionResult, error) {
	if action == ActionReject && comments == "" {
		return approval.ActionResult{}, approval.ErrCommentsRequired
	}

	var result approval.ActionResult
	err := postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		var err error
		result, err = s.applyAction(txCtx, stepID, actorID, companyID, action, comments)
		return err
	})
	if err != nil {
		return approval.ActionResult{}, err
	}

	return result, nil
}

func (s *ApprovalService) applyAction(ctx context.Context, stepID, actorID, companyID string, action Action, comments string) (approval.ActionResult, error) {
	step, err := s.ApprovalStepRepository.GetByID(ctx, stepID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.ActionResult{}, approval.ErrStepNotFound
		}
		return approval.ActionResult{}, fmt.Errorf("failed to get approval step: %w", err)
	}

	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, step.ExpenseID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.ActionResult{}, approval.ErrStepNotFound
		}
		return approval.ActionResult{}, fmt.Errorf("failed to get expense for approval step: %w", err)
	}

	if step.ApproverID != actorID {
		return approval.ActionResult{}, approval.ErrNotAssignedApprover
	}
	if step.Status != expense.StatusPending {
		return approval.ActionResult{}, approval.ErrStepAlreadyProcessed
	}
	if step.Sequence != exp.CurrentApprovalStep {
		return approval.ActionResult{}, approval.ErrNotCurrentStep
	}

	now := time.Now()
	var commentsPtr *string
	if comments != "" {
		commentsPtr = &comments
	}

	if action == ActionReject {
		if err := s.ApprovalStepRepository.UpdateStatus(ctx, step.ID, expense.StatusRejected, commentsPtr, now); err != nil {
			return approval.ActionResult{}, fmt.Errorf("failed to reject approval step: %w", err)
		}
		// A single rejection vetoes the whole expense.
		if err := s.ExpenseRepository.UpdateStatus(ctx, exp.ID, expense.StatusRejected); err != nil {
			return approval.ActionResult{}, fmt.Errorf("failed to reject expense: %w", err)
		}

		return approval.ActionResult{
			Message:       "Expense rejected",
			ExpenseStatus: expense.StatusRejected,
		}, nil
	}

	if err := s.ApprovalStepRepository.UpdateStatus(ctx, step.ID, expense.StatusApproved, commentsPtr, now); err != nil {
		return approval.ActionResult{}, fmt.Errorf("failed to approve approval step: %w", err)
	}

	var nextStep *expense.ApprovalStep
	for i := range exp.Steps {
		if exp.Steps[i].Sequence == step.Sequence+1 {
			nextStep = &exp.Steps[i]
			break
		}
	}

	if nextStep != nil {
		if err := s.ExpenseRepository.AdvanceCurrentStep(ctx, exp.ID, nextStep.Sequence); err != nil {
			return approval.ActionResult{}, fmt.Errorf("failed to advance approval step pointer: %w", err)
		}

		nextApprover := nextStep.ApproverID
		if nextStep.Approver != nil {
			nextApprover = nextStep.Approver.Name
		}
		currentStep := nextStep.Sequence
		totalSteps := len(exp.Steps)
		return approval.ActionResult{
			Message:       "Expense approved. Moved to next approver.",
			ExpenseStatus: expense.StatusPending,
			NextApprover:  &nextApprover,
			CurrentStep:   &currentStep,
			TotalSteps:    &totalSteps,
		}, nil
	}

	// Last explicit step: consult the conditional rules.
	rules, err := s.ApprovalRuleRepository.ListApplicable(ctx, exp.CompanyID, exp.Amount)
	if err != nil {
		return approval.ActionResult{}, fmt.Errorf("failed to list applicable approval rules: %w", err)
	}

	steps := make([]expense.ApprovalStep, len(exp.Steps))
	copy(steps, exp.Steps)
	for i := range steps {
		if steps[i].ID == step.ID {
			steps[i].Status = expense.StatusApproved
		}
	}

	if evaluateRules(rules, steps) {
		if err := s.ExpenseRepository.UpdateStatus(ctx, exp.ID, expense.StatusApproved); err != nil {
			return approval.ActionResult{}, fmt.Errorf("failed to approve expense: %w", err)
		}
		return approval.ActionResult{
			Message:       "Expense fully approved!",
			ExpenseStatus: expense.StatusApproved,
		}, nil
	}

	return approval.ActionResult{
		Message:       "Expense approved by you. Waiting for conditional rules.",
		ExpenseStatus: expense.StatusPending,
	}, nil
}

// EvaluateConditionalApproval re-runs the rule evaluation against the
// expense's current step states. Calling it twice with unchanged state
// yields the same answer; it performs no writes.
func (s *ApprovalService) EvaluateConditionalApproval(ctx context.Context, expenseID, companyID string) (bool, error) {
	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, expenseID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, expense.ErrExpenseNotFound
		}
		return false, fmt.Errorf("failed to get expense: %w", err)
	}

	rules, err := s.ApprovalRuleRepository.ListApplicable(ctx, companyID, exp.Amount)
	if err != nil {
		return false, fmt.Errorf("failed to list applicable approval rules: %w", err)
	}

	return evaluateRules(rules, exp.Steps), nil
}

// ListPending returns the approvals waiting on the given approver,
// limited to steps that are the expense's current step.
func (s *ApprovalService) ListPending(ctx context.Context, approverID, companyID string) ([]approval.PendingApproval, error) {
	steps, err := s.ApprovalStepRepository.ListPendingForApprover(ctx, approverID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approval steps: %w", err)
	}

	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	pending := make([]approval.PendingApproval, 0, len(steps))
	for _, step := range steps {
		exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, step.ExpenseID, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get expense %s: %w", step.ExpenseID, err)
		}

		if step.Sequence != exp.CurrentApprovalStep {
			continue
		}

		pending = append(pending, approval.PendingApproval{
			ApprovalStepID: step.ID,
			Expense:        s.renderExpense(ctx, exp, comp.BaseCurrency),
			CurrentStep:    step.Sequence,
			TotalSteps:     len(exp.Steps),
		})
	}
	return pending, nil
}

// renderExpense converts the amount into the company currency; on a
// conversion failure the raw amount is shown with rate 1 instead of
// failing the listing.
func (s *ApprovalService) renderExpense(ctx context.Context, exp expense.Expense, baseCurrency string) expense.ExpenseResponse {
	converted, rate, err := s.currencyService.Convert(ctx, exp.Amount, exp.Currency, baseCurrency)
	if err != nil {
		converted = exp.Amount
		rate = decimal.NewFromInt(1)
	}
	return expense.ToExpenseResponse(exp, baseCurrency, converted, rate)
}

// History returns the full approval trail for an expense. Employees see
// only their own expenses; managers their own and their reports'.
func (s *ApprovalService) History(ctx context.Context, expenseID, actorID, companyID string, role user.Role) (approval.HistoryResponse, error) {
	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, expenseID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.HistoryResponse{}, expense.ErrExpenseNotFound
		}
		return approval.HistoryResponse{}, fmt.Errorf("failed to get expense: %w", err)
	}

	switch role {
	case user.RoleEmployee:
		if exp.EmployeeID != actorID {
			return approval.HistoryResponse{}, expense.ErrNotExpenseOwner
		}
	case user.RoleManager:
		if exp.EmployeeID != actorID {
			isSubordinate, err := s.UserRepository.IsSubordinate(ctx, exp.EmployeeID, actorID)
			if err != nil {
				return approval.HistoryResponse{}, fmt.Errorf("failed to check manager relationship: %w", err)
			}
			if !isSubordinate {
				return approval.HistoryResponse{}, expense.ErrNotTeamExpense
			}
		}
	}

	return approval.HistoryResponse{
		ExpenseID:   exp.ID,
		Amount:      exp.Amount,
		Currency:    exp.Currency,
		Category:    exp.Category,
		Status:      exp.Status,
		Employee:    exp.Employee,
		CurrentStep: exp.CurrentApprovalStep,
		History:     expense.ToStepResponses(exp.Steps),
	}, nil
}

// Stats summarizes the approver's queue and this month's decisions.
func (s *ApprovalService) Stats(ctx context.Context, approverID, companyID string) (approval.StatsResponse, error) {
	pending, err := s.DashboardRepository.CountPendingApprovals(ctx, approverID, companyID)
	if err != nil {
		return approval.StatsResponse{}, fmt.Errorf("failed to count pending approvals: %w", err)
	}

	now := time.Now()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	approved, err := s.ApprovalStepRepository.CountForApproverSince(ctx, approverID, expense.StatusApproved, startOfMonth)
	if err != nil {
		return approval.StatsResponse{}, fmt.Errorf("failed to count approved steps: %w", err)
	}

	rejected, err := s.ApprovalStepRepository.CountForApproverSince(ctx, approverID, expense.StatusRejected, startOfMonth)
	if err != nil {
		return approval.StatsResponse{}, fmt.Errorf("failed to count rejected steps: %w", err)
	}

	return approval.StatsResponse{
		Pending:                 pending,
		ApprovedThisMonth:       approved,
		RejectedThisMonth:       rejected,
		TotalProcessedThisMonth: approved + rejected,
	}, nil
}
