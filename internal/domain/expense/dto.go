package expense

import (
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SubmitExpenseRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (r *SubmitExpenseRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{
			Field:   "amount",
			Message: "amount must be greater than 0",
		})
	}
	if !validator.IsValidCurrencyCode(r.Currency) {
		errs = append(errs, validator.ValidationError{
			Field:   "currency",
			Message: "currency must be a 3-letter ISO code",
		})
	}
	if validator.IsEmpty(r.Category) {
		errs = append(errs, validator.ValidationError{
			Field:   "category",
			Message: "category is required",
		})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateExpenseRequest struct {
	ID          string           `json:"-"`
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Currency    *string          `json:"currency,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Description *string          `json:"description,omitempty"`
	Date        *string          `json:"date,omitempty"`
}

func (r *UpdateExpenseRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "expense_id",
			Message: "expense_id is required",
		})
	}
	if r.Amount != nil && !r.Amount.IsPositive() {
		errs = append(errs, validator.ValidationError{
			Field:   "amount",
			Message: "amount must be greater than 0",
		})
	}
	if r.Currency != nil && !validator.IsValidCurrencyCode(*r.Currency) {
		errs = append(errs, validator.ValidationError{
			Field:   "currency",
			Message: "currency must be a 3-letter ISO code",
		})
	}
	if r.Date != nil {
		if _, ok := validator.IsValidDate(*r.Date); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "date",
				Message: "date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ApprovalStepResponse struct {
	ID         string     `json:"id"`
	Sequence   int        `json:"sequence"`
	Approver   *user.Ref  `json:"approver,omitempty"`
	Status     Status     `json:"status"`
	Comments   *string    `json:"comments,omitempty"`
	ActionDate *time.Time `json:"action_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type ExpenseResponse struct {
	ID                  string                 `json:"id"`
	Amount              decimal.Decimal        `json:"amount"`
	Currency            string                 `json:"currency"`
	ConvertedAmount     decimal.Decimal        `json:"converted_amount"`
	CompanyCurrency     string                 `json:"company_currency"`
	ConversionRate      decimal.Decimal        `json:"conversion_rate"`
	Category            string                 `json:"category"`
	Description         string                 `json:"description"`
	Date                time.Time              `json:"date"`
	Status              Status                 `json:"status"`
	CurrentApprovalStep int                    `json:"current_approval_step"`
	Employee            *user.Ref              `json:"employee,omitempty"`
	ApprovalSteps       []ApprovalStepResponse `json:"approval_steps,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// ToExpenseResponse renders an expense with its amount converted to the
// company's base currency at the given rate.
func ToExpenseResponse(e Expense, companyCurrency string, convertedAmount, rate decimal.Decimal) ExpenseResponse {
	return ExpenseResponse{
		ID:                  e.ID,
		Amount:              e.Amount,
		Currency:            e.Currency,
		ConvertedAmount:     convertedAmount,
		CompanyCurrency:     companyCurrency,
		ConversionRate:      rate,
		Category:            e.Category,
		Description:         e.Description,
		Date:                e.Date,
		Status:              e.Status,
		CurrentApprovalStep: e.CurrentApprovalStep,
		Employee:            e.Employee,
		ApprovalSteps:       ToStepResponses(e.Steps),
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
}

func ToStepResponses(steps []ApprovalStep) []ApprovalStepResponse {
	out := make([]ApprovalStepResponse, 0, len(steps))
	for _, s := range steps {
		out = append(out, ApprovalStepResponse{
			ID:         s.ID,
			Sequence:   s.Sequence,
			Approver:   s.Approver,
			Status:     s.Status,
			Comments:   s.Comments,
			ActionDate: s.ActionDate,
			CreatedAt:  s.CreatedAt,
		})
	}
	return out
}
