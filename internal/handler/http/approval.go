package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/handler/http/response"
	approvalService "github.com/expensehub/expense-backend-go/internal/service/approval"
	"github.com/go-chi/chi/v5"
)

type ApprovalHandler interface {
	ListPending(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
	Stats(w http.ResponseWriter, r *http.Request)
}

type ApprovalHandlerImpl struct {
	approvalService *approvalService.ApprovalService
}

func NewApprovalHandler(svc *approvalService.ApprovalService) ApprovalHandler {
	return &ApprovalHandlerImpl{approvalService: svc}
}

// ListPending implements ApprovalHandler.
func (h *ApprovalHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	pending, err := h.approvalService.ListPending(r.Context(), c.UserID, c.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, pending)
}

// Approve implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.applyAction(w, r, approvalService.ActionApprove)
}

// Reject implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.applyAction(w, r, approvalService.ActionReject)
}

func (h *ApprovalHandlerImpl) applyAction(w http.ResponseWriter, r *http.Request, action approvalService.Action) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	stepID := chi.URLParam(r, "stepId")
	if stepID == "" {
		response.BadRequest(w, "Approval step ID is required", nil)
		return
	}

	// Comments are optional on approve, required on reject; the body
	// may be absent entirely.
	var actionReq approval.ActionRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&actionReq)
	}

	result, err := h.approvalService.ApplyAction(r.Context(), stepID, c.UserID, c.CompanyID, action, actionReq.Comments)
	if err != nil {
		slog.Error("Approval action service error", "action", string(action), "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Approval action applied", "action", string(action), "step_id", stepID)
	response.SuccessWithMessage(w, result.Message, result)
}

// History implements ApprovalHandler.
func (h *ApprovalHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	expenseID := chi.URLParam(r, "expenseId")
	if expenseID == "" {
		response.BadRequest(w, "Expense ID is required", nil)
		return
	}

	history, err := h.approvalService.History(r.Context(), expenseID, c.UserID, c.CompanyID, c.Role)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, history)
}

// Stats implements ApprovalHandler.
func (h *ApprovalHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	stats, err := h.approvalService.Stats(r.Context(), c.UserID, c.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}
