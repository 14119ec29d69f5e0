package http

import (
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/handler/http/response"
	"github.com/expensehub/expense-backend-go/internal/service/currency"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CountryHandler interface {
	ListCountries(w http.ResponseWriter, r *http.Request)
	GetRates(w http.ResponseWriter, r *http.Request)
	Convert(w http.ResponseWriter, r *http.Request)
}

type CountryHandlerImpl struct {
	currencyService *currency.CurrencyService
}

func NewCountryHandler(svc *currency.CurrencyService) CountryHandler {
	return &CountryHandlerImpl{currencyService: svc}
}

// ListCountries implements CountryHandler. The list backs the signup
// form's country picker, so it is served without authentication.
func (h *CountryHandlerImpl) ListCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.currencyService.ListCountries(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, countries)
}

// GetRates implements CountryHandler.
func (h *CountryHandlerImpl) GetRates(w http.ResponseWriter, r *http.Request) {
	base := chi.URLParam(r, "base")
	if base == "" {
		response.BadRequest(w, "Base currency is required", nil)
		return
	}

	rates, err := h.currencyService.GetRates(r.Context(), base)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, rates)
}

// Convert implements CountryHandler. GET /currency/convert?amount=&from=&to=
func (h *CountryHandlerImpl) Convert(w http.ResponseWriter, r *http.Request) {
	amountParam := r.URL.Query().Get("amount")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if amountParam == "" || from == "" || to == "" {
		response.BadRequest(w, "amount, from, and to are required", nil)
		return
	}

	amount, err := decimal.NewFromString(amountParam)
	if err != nil {
		response.BadRequest(w, "amount must be a decimal number", nil)
		return
	}

	converted, rate, err := h.currencyService.Convert(r.Context(), amount, from, to)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, map[string]interface{}{
		"amount":           amount,
		"from":             from,
		"to":               to,
		"rate":             rate,
		"converted_amount": converted,
	})
}
