package http

import (
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/handler/http/response"
	dashboardService "github.com/expensehub/expense-backend-go/internal/service/dashboard"
)

type DashboardHandler interface {
	Stats(w http.ResponseWriter, r *http.Request)
}

type DashboardHandlerImpl struct {
	dashboardService *dashboardService.DashboardService
}

func NewDashboardHandler(svc *dashboardService.DashboardService) DashboardHandler {
	return &DashboardHandlerImpl{dashboardService: svc}
}

// Stats implements DashboardHandler.
func (h *DashboardHandlerImpl) Stats(w http.ResponseWriter, r *http.Request) {
	c, err := callerFromRequest(r)
	if err != nil {
		response.Unauthorized(w, err.Error())
		return
	}

	stats, err := h.dashboardService.Stats(r.Context(), c.UserID, c.CompanyID, c.Role)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, stats)
}
