package expense

import "errors"

var (
	ErrExpenseNotFound   = errors.New("expense not found")
	ErrNotExpenseOwner   = errors.New("you can only access your own expenses")
	ErrNotTeamExpense    = errors.New("you can only access your team's expenses")
	ErrExpenseNotPending = errors.New("expense is already approved or rejected")
	ErrInvalidAmount     = errors.New("amount must be greater than 0")
	ErrEmployeeNotFound  = errors.New("employee not found")
)
