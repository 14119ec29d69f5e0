package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/handler/http/response"
	ruleService "github.com/expensehub/expense-backend-go/internal/service/approvalrule"
	"github.com/go-chi/chi/v5"
)

type ApprovalRuleHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Toggle(w http.ResponseWriter, r *http.Request)
}

type ApprovalRuleHandlerImpl struct {
	ruleService *ruleService.ApprovalRuleService
}

func NewApprovalRuleHandler(svc *ruleService.ApprovalRuleService) ApprovalRuleHandler {
	return &ApprovalRuleHandlerImpl{ruleService: svc}
}

// Create implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var createReq approval.CreateApprovalRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		slog.Error("Create approval rule decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	if err := createReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	created, err := h.ruleService.Create(r.Context(), c.CompanyID, createReq)
	if err != nil {
		slog.Error("Create approval rule service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Approval rule created", "rule_id", created.ID)
	response.Created(w, "Approval rule created successfully", created)
}

// List implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	rules, err := h.ruleService.List(r.Context(), c.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rules)
}

// Get implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Rule ID is required", nil)
		return
	}

	rule, err := h.ruleService.Get(r.Context(), id, c.CompanyID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rule)
}

// Update implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	var updateReq approval.UpdateApprovalRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&updateReq); err != nil {
		slog.Error("Update approval rule decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	updateReq.ID = chi.URLParam(r, "id")

	if err := updateReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	updated, err := h.ruleService.Update(r.Context(), c.CompanyID, updateReq)
	if err != nil {
		slog.Error("Update approval rule service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval rule updated successfully", updated)
}

// Delete implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Rule ID is required", nil)
		return
	}

	if err := h.ruleService.Delete(r.Context(), id, c.CompanyID); err != nil {
		slog.Error("Delete approval rule service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval rule deleted successfully", nil)
}

// Toggle implements ApprovalRuleHandler.
func (h *ApprovalRuleHandlerImpl) Toggle(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Rule ID is required", nil)
		return
	}

	toggled, err := h.ruleService.Toggle(r.Context(), id, c.CompanyID)
	if err != nil {
		slog.Error("Toggle approval rule service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approval rule toggled successfully", toggled)
}
