package postgresql

import (
	"context"
	"fmt"

	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
)

type expenseRepositoryImpl struct {
	db *database.DB
}

func NewExpenseRepository(db *database.DB) expense.ExpenseRepository {
	return &expenseRepositoryImpl{db: db}
}

const expenseColumns = `id, company_id, employee_id, amount, currency, category, description,
		date, status, current_approval_step, created_at, updated_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (expense.Expense, error) {
	var e expense.Expense
	err := row.Scan(
		&e.ID,
		&e.CompanyID,
		&e.EmployeeID,
		&e.Amount,
		&e.Currency,
		&e.Category,
		&e.Description,
		&e.Date,
		&e.Status,
		&e.CurrentApprovalStep,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	return e, err
}

// Create implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) Create(ctx context.Context, newExpense expense.Expense) (expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO expenses (company_id, employee_id, amount, currency, category, description,
			date, status, current_approval_step, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING ` + expenseColumns

	return scanExpense(q.QueryRow(ctx, query,
		newExpense.CompanyID,
		newExpense.EmployeeID,
		newExpense.Amount,
		newExpense.Currency,
		newExpense.Category,
		newExpense.Description,
		newExpense.Date,
		newExpense.Status,
		newExpense.CurrentApprovalStep,
	))
}

// GetByIDWithSteps implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) GetByIDWithSteps(ctx context.Context, id, companyID string) (expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.company_id, e.employee_id, e.amount, e.currency, e.category, e.description,
			   e.date, e.status, e.current_approval_step, e.created_at, e.updated_at,
			   emp.name, emp.email
		FROM expenses e
		JOIN users emp ON emp.id = e.employee_id
		WHERE e.id = $1 AND e.company_id = $2
	`

	var e expense.Expense
	var employeeName, employeeEmail string
	err := q.QueryRow(ctx, query, id, companyID).Scan(
		&e.ID,
		&e.CompanyID,
		&e.EmployeeID,
		&e.Amount,
		&e.Currency,
		&e.Category,
		&e.Description,
		&e.Date,
		&e.Status,
		&e.CurrentApprovalStep,
		&e.CreatedAt,
		&e.UpdatedAt,
		&employeeName,
		&employeeEmail,
	)
	if err != nil {
		return expense.Expense{}, err
	}
	e.Employee = &user.Ref{ID: e.EmployeeID, Name: employeeName, Email: employeeEmail}

	steps, err := r.stepsForExpense(ctx, e.ID)
	if err != nil {
		return expense.Expense{}, err
	}
	e.Steps = steps
	return e, nil
}

func (r *expenseRepositoryImpl) stepsForExpense(ctx context.Context, expenseID string) ([]expense.ApprovalStep, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.id, s.expense_id, s.approver_id, s.sequence, s.status, s.comments, s.action_date,
			   s.created_at, a.name, a.email
		FROM approval_steps s
		JOIN users a ON a.id = s.approver_id
		WHERE s.expense_id = $1
		ORDER BY s.sequence ASC
	`

	rows, err := q.Query(ctx, query, expenseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []expense.ApprovalStep
	for rows.Next() {
		var s expense.ApprovalStep
		var approverName, approverEmail string
		if err := rows.Scan(
			&s.ID,
			&s.ExpenseID,
			&s.ApproverID,
			&s.Sequence,
			&s.Status,
			&s.Comments,
			&s.ActionDate,
			&s.CreatedAt,
			&approverName,
			&approverEmail,
		); err != nil {
			return nil, err
		}
		s.Approver = &user.Ref{ID: s.ApproverID, Name: approverName, Email: approverEmail}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *expenseRepositoryImpl) list(ctx context.Context, where string, args []interface{}) ([]expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT e.id, e.company_id, e.employee_id, e.amount, e.currency, e.category, e.description,
			   e.date, e.status, e.current_approval_step, e.created_at, e.updated_at,
			   emp.name, emp.email
		FROM expenses e
		JOIN users emp ON emp.id = e.employee_id
		WHERE ` + where + `
		ORDER BY e.created_at DESC
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expenses []expense.Expense
	for rows.Next() {
		var e expense.Expense
		var employeeName, employeeEmail string
		if err := rows.Scan(
			&e.ID,
			&e.CompanyID,
			&e.EmployeeID,
			&e.Amount,
			&e.Currency,
			&e.Category,
			&e.Description,
			&e.Date,
			&e.Status,
			&e.CurrentApprovalStep,
			&e.CreatedAt,
			&e.UpdatedAt,
			&employeeName,
			&employeeEmail,
		); err != nil {
			return nil, err
		}
		e.Employee = &user.Ref{ID: e.EmployeeID, Name: employeeName, Email: employeeEmail}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range expenses {
		steps, err := r.stepsForExpense(ctx, expenses[i].ID)
		if err != nil {
			return nil, err
		}
		expenses[i].Steps = steps
	}
	return expenses, nil
}

func appendFilter(where string, args []interface{}, filter expense.ListFilter) (string, []interface{}) {
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND e.status = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		where += fmt.Sprintf(" AND e.date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		where += fmt.Sprintf(" AND e.date <= $%d", len(args))
	}
	if len(filter.EmployeeIDs) > 0 {
		args = append(args, filter.EmployeeIDs)
		where += fmt.Sprintf(" AND e.employee_id = ANY($%d)", len(args))
	}
	return where, args
}

// ListByEmployee implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) ListByEmployee(ctx context.Context, employeeID, companyID string, filter expense.ListFilter) ([]expense.Expense, error) {
	where := "e.employee_id = $1 AND e.company_id = $2"
	args := []interface{}{employeeID, companyID}
	where, args = appendFilter(where, args, filter)
	return r.list(ctx, where, args)
}

// ListByCompany implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) ListByCompany(ctx context.Context, companyID string, filter expense.ListFilter) ([]expense.Expense, error) {
	where := "e.company_id = $1"
	args := []interface{}{companyID}
	where, args = appendFilter(where, args, filter)
	return r.list(ctx, where, args)
}

// Update implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) Update(ctx context.Context, updated expense.Expense) (expense.Expense, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE expenses
		SET amount = $1, currency = $2, category = $3, description = $4, date = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING ` + expenseColumns

	return scanExpense(q.QueryRow(ctx, query,
		updated.Amount,
		updated.Currency,
		updated.Category,
		updated.Description,
		updated.Date,
		updated.ID,
	))
}

// UpdateStatus implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) UpdateStatus(ctx context.Context, id string, status expense.Status) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx, `UPDATE expenses SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	return err
}

// AdvanceCurrentStep implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) AdvanceCurrentStep(ctx context.Context, id string, newSequence int) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx,
		`UPDATE expenses SET current_approval_step = $1, updated_at = NOW() WHERE id = $2`,
		newSequence, id,
	)
	return err
}

// Delete implements expense.ExpenseRepository.
func (r *expenseRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	// approval_steps rows go with it (ON DELETE CASCADE)
	_, err := q.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	return err
}
