package response

import (
	"errors"
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/auth"
	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var dependencyErr *user.DependencyError
	if errors.As(err, &dependencyErr) {
		Conflict(w, dependencyErr.Error())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, auth.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, auth.ErrEmailExists):
		Conflict(w, "Email already registered")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserEmailExists):
		Conflict(w, "Email already registered")
	case errors.Is(err, user.ErrManagerNotFound):
		NotFound(w, "Manager not found in this company")
	case errors.Is(err, user.ErrManagerRoleRequired),
		errors.Is(err, user.ErrSelfManager),
		errors.Is(err, user.ErrCircularManagerRelationship),
		errors.Is(err, user.ErrInvalidRole):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, user.ErrCompanyAdminUndeletable):
		Conflict(w, err.Error())
	case errors.Is(err, user.ErrAdminPrivilegeRequired),
		errors.Is(err, user.ErrManagerAccessRequired):
		Forbidden(w, err.Error())

	// Expense domain errors
	case errors.Is(err, expense.ErrExpenseNotFound):
		NotFound(w, "Expense not found")
	case errors.Is(err, expense.ErrNotExpenseOwner),
		errors.Is(err, expense.ErrNotTeamExpense):
		Forbidden(w, err.Error())
	case errors.Is(err, expense.ErrExpenseNotPending):
		Conflict(w, err.Error())
	case errors.Is(err, expense.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, expense.ErrInvalidAmount):
		BadRequest(w, err.Error(), nil)

	// Approval domain errors
	case errors.Is(err, approval.ErrStepNotFound):
		NotFound(w, "Approval step not found")
	case errors.Is(err, approval.ErrNotAssignedApprover):
		Forbidden(w, err.Error())
	case errors.Is(err, approval.ErrStepAlreadyProcessed),
		errors.Is(err, approval.ErrNotCurrentStep):
		Conflict(w, err.Error())
	case errors.Is(err, approval.ErrCommentsRequired):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, approval.ErrRuleNotFound):
		NotFound(w, "Approval rule not found")
	case errors.Is(err, approval.ErrApproverNotFound):
		NotFound(w, "Approver not found in this company")
	case errors.Is(err, approval.ErrApproverRoleRequired):
		BadRequest(w, err.Error(), nil)

	// Currency errors
	case errors.Is(err, currency.ErrRateUnavailable):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, currency.ErrCountryNotFound):
		NotFound(w, "Country not found")

	// Company domain errors
	case errors.Is(err, company.ErrCompanyNotFound):
		NotFound(w, "Company not found")
	case errors.Is(err, company.ErrNoCompany):
		Forbidden(w, err.Error())

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
