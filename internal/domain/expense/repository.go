package expense

import (
	"context"
	"time"
)

// ListFilter narrows expense listings. Zero values mean "no filter".
type ListFilter struct {
	Status      Status
	EmployeeIDs []string
	StartDate   *time.Time
	EndDate     *time.Time
}

// ExpenseRepository - interface for expenses table
type ExpenseRepository interface {
	Create(ctx context.Context, newExpense Expense) (Expense, error)
	// GetByIDWithSteps returns the expense with its approval steps
	// ordered by sequence ascending.
	GetByIDWithSteps(ctx context.Context, id, companyID string) (Expense, error)
	ListByEmployee(ctx context.Context, employeeID, companyID string, filter ListFilter) ([]Expense, error)
	ListByCompany(ctx context.Context, companyID string, filter ListFilter) ([]Expense, error)
	Update(ctx context.Context, updated Expense) (Expense, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
	AdvanceCurrentStep(ctx context.Context, id string, newSequence int) error
	Delete(ctx context.Context, id string) error
}

// ApprovalStepRepository - interface for approval_steps table
type ApprovalStepRepository interface {
	// CreateBatch inserts the full ordered step list for an expense.
	// Steps are only ever created in batch at submission time.
	CreateBatch(ctx context.Context, steps []ApprovalStep) ([]ApprovalStep, error)
	GetByID(ctx context.Context, id string) (ApprovalStep, error)
	UpdateStatus(ctx context.Context, id string, status Status, comments *string, actionDate time.Time) error
	// ListPendingForApprover returns steps assigned to the approver on
	// still-pending expenses in the company, newest expense first.
	ListPendingForApprover(ctx context.Context, approverID, companyID string) ([]ApprovalStep, error)
	CountForApproverSince(ctx context.Context, approverID string, status Status, since time.Time) (int64, error)
}
