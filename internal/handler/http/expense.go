package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/handler/http/response"
	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	expenseService "github.com/expensehub/expense-backend-go/internal/service/expense"
	"github.com/go-chi/chi/v5"
)

type ExpenseHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListCompany(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type ExpenseHandlerImpl struct {
	expenseService *expenseService.ExpenseService
}

func NewExpenseHandler(svc *expenseService.ExpenseService) ExpenseHandler {
	return &ExpenseHandlerImpl{expenseService: svc}
}

// Submit implements ExpenseHandler.
func (h *ExpenseHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var submitReq expense.SubmitExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&submitReq); err != nil {
		slog.Error("Submit expense decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := submitReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	submitted, err := h.expenseService.Submit(r.Context(), c.UserID, c.CompanyID, submitReq)
	if err != nil {
		slog.Error("Submit expense service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Expense submitted", "expense_id", submitted.ID)
	response.Created(w, "Expense submitted successfully", submitted)
}

// ListMine implements ExpenseHandler.
func (h *ExpenseHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	expenses, err := h.expenseService.ListMine(r.Context(), c.UserID, c.CompanyID, filterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, expenses)
}

// ListCompany implements ExpenseHandler.
func (h *ExpenseHandlerImpl) ListCompany(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	expenses, err := h.expenseService.ListCompany(r.Context(), c.UserID, c.CompanyID, c.Role, filterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, expenses)
}

// Get implements ExpenseHandler.
func (h *ExpenseHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Expense ID is required", nil)
		return
	}

	exp, err := h.expenseService.GetByID(r.Context(), id, c.UserID, c.CompanyID, c.Role)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, exp)
}

// Update implements ExpenseHandler.
func (h *ExpenseHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var updateReq expense.UpdateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		slog.Error("Update expense decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	updateReq.ID = chi.URLParam(r, "id")

	if err := updateReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	updated, err := h.expenseService.Update(r.Context(), c.UserID, c.CompanyID, updateReq)
	if err != nil {
		slog.Error("Update expense service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Expense updated successfully", updated)
}

// Delete implements ExpenseHandler.
func (h *ExpenseHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Expense ID is required", nil)
		return
	}

	if err := h.expenseService.Delete(r.Context(), id, c.UserID, c.CompanyID, c.Role); err != nil {
		slog.Error("Delete expense service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Expense deleted successfully", nil)
}

// filterFromQuery reads the optional status/start_date/end_date query
// parameters. Unparseable dates are ignored rather than rejected.
func filterFromQuery(r *http.Request) expense.ListFilter {
	var filter expense.ListFilter

	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = expense.Status(status)
	}
	if start := r.URL.Query().Get("start_date"); start != "" {
		if date, ok := validator.IsValidDate(start); ok {
			filter.StartDate = &date
		}
	}
	if end := r.URL.Query().Get("end_date"); end != "" {
		if date, ok := validator.IsValidDate(end); ok {
			filter.EndDate = &date
		}
	}
	return filter
}
