package expense

import (
	"context"
	"fmt"
	"strings"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	"github.com/expensehub/expense-backend-go/internal/repository/postgresql"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type ExpenseService struct {
	db *database.DB
	expense.ExpenseRepository
	expense.ApprovalStepRepository
	approval.ApprovalRuleRepository
	user.UserRepository
	company.CompanyRepository
	currencyService *currency.CurrencyService
}

func NewExpenseService(
	db *database.DB,
	expenseRepository expense.ExpenseRepository,
	stepRepository expense.ApprovalStepRepository,
	ruleRepository approval.ApprovalRuleRepository,
	userRepository user.UserRepository,
	companyRepository company.CompanyRepository,
	currencyService *currency.CurrencyService,
) *ExpenseService {
	return &ExpenseService{
		db:                     db,
		ExpenseRepository:      expenseRepository,
		ApprovalStepRepository: stepRepository,
		ApprovalRuleRepository: ruleRepository,
		UserRepository:         userRepository,
		CompanyRepository:      companyRepository,
		currencyService:        currencyService,
	}
}

// Submit creates the expense and its approval steps in one transaction.
func (s *ExpenseService) Submit(ctx context.Context, employeeID, companyID string, req expense.SubmitExpenseRequest) (expense.ExpenseResponse, error) {
	date, ok := validator.IsValidDate(req.Date)
	if !ok {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to parse expense date %q", req.Date)
	}

	var created expense.Expense
	err := postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		var err error
		created, err = s.ExpenseRepository.Create(txCtx, expense.Expense{
			CompanyID:   companyID,
			EmployeeID:  employeeID,
			Amount:      req.Amount,
			Currency:    strings.ToUpper(req.Currency),
			Category:    req.Category,
			Description: req.Description,
			Date:        date,
			Status:      expense.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}

		steps, currentStep, err := s.generateApprovalSteps(txCtx, created.ID, created.Amount, employeeID, companyID)
		if err != nil {
			return fmt.Errorf("failed to generate approval steps: %w", err)
		}

		if len(steps) > 0 {
			if _, err := s.ApprovalStepRepository.CreateBatch(txCtx, steps); err != nil {
				return fmt.Errorf("failed to create approval steps: %w", err)
			}
		}
		if currentStep > 0 {
			if err := s.ExpenseRepository.AdvanceCurrentStep(txCtx, created.ID, currentStep); err != nil {
				return fmt.Errorf("failed to set current approval step: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return expense.ExpenseResponse{}, err
	}

	full, err := s.ExpenseRepository.GetByIDWithSteps(ctx, created.ID, companyID)
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to reload expense: %w", err)
	}

	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to get company: %w", err)
	}
	return s.renderExpense(ctx, full, comp.BaseCurrency), nil
}

// generateApprovalSteps builds the ordered step list for a freshly
// submitted expense and returns it with the expense's initial current
// step (0 when no approval is required).
//
// With no applicable rules the fallback is a single manager step, or no
// steps at all for employees without a manager. Otherwise the first
// applicable rule generates: manager first when isManagerApprover, then
// the specific approver, then the rule's approver list in stored order,
// skipping anyone already present.
func (s *ExpenseService) generateApprovalSteps(ctx context.Context, expenseID string, amount decimal.Decimal, employeeID, companyID string) ([]expense.ApprovalStep, int, error) {
	var managerID *string
	employee, err := s.UserRepository.GetByIDInCompany(ctx, employeeID, companyID)
	if err != nil {
		if err != pgx.ErrNoRows {
			return nil, 0, fmt.Errorf("failed to get employee: %w", err)
		}
		// Missing employee record degrades to a zero-approval expense.
	} else {
		managerID = employee.ManagerID
	}

	rules, err := s.ApprovalRuleRepository.ListApplicable(ctx, companyID, amount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list applicable rules: %w", err)
	}

	if len(rules) == 0 {
		if managerID != nil {
			step := expense.ApprovalStep{
				ExpenseID:  expenseID,
				ApproverID: *managerID,
				Sequence:   1,
				Status:     expense.StatusPending,
			}
			return []expense.ApprovalStep{step}, 1, nil
		}
		return nil, 0, nil
	}

	// The lowest-sequence applicable rule generates the steps.
	rule := rules[0]

	var steps []expense.ApprovalStep
	seen := make(map[string]bool)
	sequence := 1
	add := func(approverID string) {
		if seen[approverID] {
			return
		}
		seen[approverID] = true
		steps = append(steps, expense.ApprovalStep{
			ExpenseID:  expenseID,
			ApproverID: approverID,
			Sequence:   sequence,
			Status:     expense.StatusPending,
		})
		sequence++
	}

	if rule.IsManagerApprover && managerID != nil {
		add(*managerID)
	}
	if rule.RuleType == approval.RuleSpecific && rule.SpecificApproverID != nil {
		add(*rule.SpecificApproverID)
	}

	ruleApprovers, err := s.ApprovalRuleRepository.GetApprovers(ctx, rule.ID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get rule approvers: %w", err)
	}
	for _, a := range ruleApprovers {
		add(a.ApproverID)
	}

	if len(steps) == 0 {
		return nil, 0, nil
	}
	return steps, 1, nil
}

// ListMine returns the caller's own expenses, newest first.
func (s *ExpenseService) ListMine(ctx context.Context, employeeID, companyID string, filter expense.ListFilter) ([]expense.ExpenseResponse, error) {
	expenses, err := s.ExpenseRepository.ListByEmployee(ctx, employeeID, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return s.renderExpenses(ctx, companyID, expenses)
}

// ListCompany returns company expenses scoped by role: admins see all,
// managers see their reports' and their own.
func (s *ExpenseService) ListCompany(ctx context.Context, actorID, companyID string, role user.Role, filter expense.ListFilter) ([]expense.ExpenseResponse, error) {
	if role == user.RoleManager {
		members, err := s.UserRepository.GetByCompanyID(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to list company users: %w", err)
		}

		employeeIDs := []string{actorID}
		for _, m := range members {
			if m.ManagerID != nil && *m.ManagerID == actorID {
				employeeIDs = append(employeeIDs, m.ID)
			}
		}
		filter.EmployeeIDs = employeeIDs
	}

	expenses, err := s.ExpenseRepository.ListByCompany(ctx, companyID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list company expenses: %w", err)
	}
	return s.renderExpenses(ctx, companyID, expenses)
}

// GetByID returns one expense; employees see their own, managers their
// team's, admins everything in the company.
func (s *ExpenseService) GetByID(ctx context.Context, expenseID, actorID, companyID string, role user.Role) (expense.ExpenseResponse, error) {
	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, expenseID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return expense.ExpenseResponse{}, expense.ErrExpenseNotFound
		}
		return expense.ExpenseResponse{}, fmt.Errorf("failed to get expense: %w", err)
	}

	switch role {
	case user.RoleEmployee:
		if exp.EmployeeID != actorID {
			return expense.ExpenseResponse{}, expense.ErrNotExpenseOwner
		}
	case user.RoleManager:
		if exp.EmployeeID != actorID {
			isSubordinate, err := s.UserRepository.IsSubordinate(ctx, exp.EmployeeID, actorID)
			if err != nil {
				return expense.ExpenseResponse{}, fmt.Errorf("failed to check manager relationship: %w", err)
			}
			if !isSubordinate {
				return expense.ExpenseResponse{}, expense.ErrNotTeamExpense
			}
		}
	}

	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to get company: %w", err)
	}
	return s.renderExpense(ctx, exp, comp.BaseCurrency), nil
}

// Update patches a pending expense. Only the owner may update, and only
// while the expense is still PENDING.
func (s *ExpenseService) Update(ctx context.Context, actorID, companyID string, req expense.UpdateExpenseRequest) (expense.ExpenseResponse, error) {
	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, req.ID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return expense.ExpenseResponse{}, expense.ErrExpenseNotFound
		}
		return expense.ExpenseResponse{}, fmt.Errorf("failed to get expense: %w", err)
	}

	if exp.EmployeeID != actorID {
		return expense.ExpenseResponse{}, expense.ErrNotExpenseOwner
	}
	if exp.Status != expense.StatusPending {
		return expense.ExpenseResponse{}, expense.ErrExpenseNotPending
	}

	if req.Amount != nil {
		exp.Amount = *req.Amount
	}
	if req.Currency != nil {
		exp.Currency = strings.ToUpper(*req.Currency)
	}
	if req.Category != nil {
		exp.Category = *req.Category
	}
	if req.Description != nil {
		exp.Description = *req.Description
	}
	if req.Date != nil {
		date, ok := validator.IsValidDate(*req.Date)
		if !ok {
			return expense.ExpenseResponse{}, fmt.Errorf("failed to parse expense date %q", *req.Date)
		}
		exp.Date = date
	}

	updated, err := s.ExpenseRepository.Update(ctx, exp)
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to update expense: %w", err)
	}
	updated.Steps = exp.Steps
	updated.Employee = exp.Employee

	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return expense.ExpenseResponse{}, fmt.Errorf("failed to get company: %w", err)
	}
	return s.renderExpense(ctx, updated, comp.BaseCurrency), nil
}

// Delete removes an expense and its steps. Admins may delete anything
// in the company; everyone else only their own pending expenses.
func (s *ExpenseService) Delete(ctx context.Context, expenseID, actorID, companyID string, role user.Role) error {
	exp, err := s.ExpenseRepository.GetByIDWithSteps(ctx, expenseID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return expense.ErrExpenseNotFound
		}
		return fmt.Errorf("failed to get expense: %w", err)
	}

	if role != user.RoleAdmin {
		if exp.EmployeeID != actorID {
			return expense.ErrNotExpenseOwner
		}
		if exp.Status != expense.StatusPending {
			return expense.ErrExpenseNotPending
		}
	}

	if err := s.ExpenseRepository.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

func (s *ExpenseService) renderExpenses(ctx context.Context, companyID string, expenses []expense.Expense) ([]expense.ExpenseResponse, error) {
	comp, err := s.CompanyRepository.GetByID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	responses := make([]expense.ExpenseResponse, 0, len(expenses))
	for _, exp := range expenses {
		responses = append(responses, s.renderExpense(ctx, exp, comp.BaseCurrency))
	}
	return responses, nil
}

// renderExpense keeps the raw amount with rate 1 when conversion fails;
// listings must not break because the rate API is down.
func (s *ExpenseService) renderExpense(ctx context.Context, exp expense.Expense, baseCurrency string) expense.ExpenseResponse {
	converted, rate, err := s.currencyService.Convert(ctx, exp.Amount, exp.Currency, baseCurrency)
	if err != nil {
		converted = exp.Amount
		rate = decimal.NewFromInt(1)
	}
	return expense.ToExpenseResponse(exp, baseCurrency, converted, rate)
}
