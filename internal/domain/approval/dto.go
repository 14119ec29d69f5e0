package approval

import (
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type RuleApproverInput struct {
	ApproverID string `json:"approver_id"`
	Sequence   *int   `json:"sequence,omitempty"`
	IsRequired bool   `json:"is_required"`
}

// CreateApprovalRuleRequest carries one rule variant per RuleType.
// Validate enforces the fields each variant requires before anything
// reaches the evaluator.
type CreateApprovalRuleRequest struct {
	Name                     string              `json:"name"`
	RuleType                 string              `json:"rule_type"`
	ThresholdAmount          *decimal.Decimal    `json:"threshold_amount,omitempty"`
	ApprovalPercentage       *int                `json:"approval_percentage,omitempty"`
	SpecificApproverID       *string             `json:"specific_approver_id,omitempty"`
	IsManagerApprover        *bool               `json:"is_manager_approver,omitempty"`
	ApproversSequenceEnabled *bool               `json:"approvers_sequence_enabled,omitempty"`
	Sequence                 *int                `json:"sequence,omitempty"`
	Approvers                []RuleApproverInput `json:"approvers,omitempty"`
}

func (r *CreateApprovalRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	ruleType := RuleType(r.RuleType)
	if !ruleType.IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "rule_type",
			Message: "rule_type must be SEQUENTIAL, PERCENTAGE, SPECIFIC, or HYBRID",
		})
		return errs
	}

	if ruleType == RulePercentage || ruleType == RuleHybrid {
		if r.ApprovalPercentage == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "approval_percentage",
				Message: "approval_percentage is required for PERCENTAGE or HYBRID rules",
			})
		}
	}
	if r.ApprovalPercentage != nil && (*r.ApprovalPercentage < 0 || *r.ApprovalPercentage > 100) {
		errs = append(errs, validator.ValidationError{
			Field:   "approval_percentage",
			Message: "approval_percentage must be between 0 and 100",
		})
	}

	if ruleType == RuleSpecific || ruleType == RuleHybrid {
		if r.SpecificApproverID == nil && len(r.Approvers) == 0 {
			errs = append(errs, validator.ValidationError{
				Field:   "specific_approver_id",
				Message: "a specific approver or approvers list is required for SPECIFIC or HYBRID rules",
			})
		}
	}

	for _, a := range r.Approvers {
		if validator.IsEmpty(a.ApproverID) {
			errs = append(errs, validator.ValidationError{
				Field:   "approvers",
				Message: "each approver must have an approver_id",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateApprovalRuleRequest struct {
	ID                       string              `json:"-"`
	Name                     *string             `json:"name,omitempty"`
	RuleType                 *string             `json:"rule_type,omitempty"`
	ThresholdAmount          *decimal.Decimal    `json:"threshold_amount,omitempty"`
	ApprovalPercentage       *int                `json:"approval_percentage,omitempty"`
	SpecificApproverID       *string             `json:"specific_approver_id,omitempty"`
	IsManagerApprover        *bool               `json:"is_manager_approver,omitempty"`
	ApproversSequenceEnabled *bool               `json:"approvers_sequence_enabled,omitempty"`
	Sequence                 *int                `json:"sequence,omitempty"`
	Approvers                []RuleApproverInput `json:"approvers,omitempty"`
	// ReplaceApprovers distinguishes "leave the list alone" from
	// "replace it with Approvers" (possibly empty).
	ReplaceApprovers bool `json:"replace_approvers,omitempty"`
}

func (r *UpdateApprovalRuleRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "rule_id",
			Message: "rule_id is required",
		})
	}
	if r.RuleType != nil && !RuleType(*r.RuleType).IsValid() {
		errs = append(errs, validator.ValidationError{
			Field:   "rule_type",
			Message: "rule_type must be SEQUENTIAL, PERCENTAGE, SPECIFIC, or HYBRID",
		})
	}
	if r.ApprovalPercentage != nil && (*r.ApprovalPercentage < 0 || *r.ApprovalPercentage > 100) {
		errs = append(errs, validator.ValidationError{
			Field:   "approval_percentage",
			Message: "approval_percentage must be between 0 and 100",
		})
	}
	for _, a := range r.Approvers {
		if validator.IsEmpty(a.ApproverID) {
			errs = append(errs, validator.ValidationError{
				Field:   "approvers",
				Message: "each approver must have an approver_id",
			})
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ActionRequest struct {
	Comments string `json:"comments"`
}

// ActionResult is the wire format for an approve/reject outcome. It
// carries exactly the fields the state machine's branch produced:
// REJECTED, APPROVED, or PENDING with next-approver metadata.
type ActionResult struct {
	Message       string         `json:"message"`
	ExpenseStatus expense.Status `json:"expense_status"`
	NextApprover  *string        `json:"next_approver,omitempty"`
	CurrentStep   *int           `json:"current_step,omitempty"`
	TotalSteps    *int           `json:"total_steps,omitempty"`
}

type PendingApproval struct {
	ApprovalStepID string                  `json:"approval_step_id"`
	Expense        expense.ExpenseResponse `json:"expense"`
	CurrentStep    int                     `json:"current_step"`
	TotalSteps     int                     `json:"total_steps"`
}

type HistoryResponse struct {
	ExpenseID   string                         `json:"expense_id"`
	Amount      decimal.Decimal                `json:"amount"`
	Currency    string                         `json:"currency"`
	Category    string                         `json:"category"`
	Status      expense.Status                 `json:"status"`
	Employee    *user.Ref                      `json:"employee,omitempty"`
	CurrentStep int                            `json:"current_step"`
	History     []expense.ApprovalStepResponse `json:"approval_history"`
}

type StatsResponse struct {
	Pending                 int64 `json:"pending"`
	ApprovedThisMonth       int64 `json:"approved_this_month"`
	RejectedThisMonth       int64 `json:"rejected_this_month"`
	TotalProcessedThisMonth int64 `json:"total_processed_this_month"`
}

type RuleApproverResponse struct {
	ID         string    `json:"id"`
	Approver   *user.Ref `json:"approver,omitempty"`
	Sequence   int       `json:"sequence"`
	IsRequired bool      `json:"is_required"`
}

type RuleResponse struct {
	ID                       string                 `json:"id"`
	Name                     string                 `json:"name"`
	RuleType                 RuleType               `json:"rule_type"`
	ThresholdAmount          *decimal.Decimal       `json:"threshold_amount,omitempty"`
	ApprovalPercentage       *int                   `json:"approval_percentage,omitempty"`
	SpecificApprover         *user.Ref              `json:"specific_approver,omitempty"`
	IsManagerApprover        bool                   `json:"is_manager_approver"`
	ApproversSequenceEnabled bool                   `json:"approvers_sequence_enabled"`
	Sequence                 int                    `json:"sequence"`
	IsActive                 bool                   `json:"is_active"`
	Approvers                []RuleApproverResponse `json:"approvers,omitempty"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
}

func ToRuleResponse(r ApprovalRule) RuleResponse {
	approvers := make([]RuleApproverResponse, 0, len(r.Approvers))
	for _, a := range r.Approvers {
		approvers = append(approvers, RuleApproverResponse{
			ID:         a.ID,
			Approver:   a.Approver,
			Sequence:   a.Sequence,
			IsRequired: a.IsRequired,
		})
	}
	return RuleResponse{
		ID:                       r.ID,
		Name:                     r.Name,
		RuleType:                 r.RuleType,
		ThresholdAmount:          r.ThresholdAmount,
		ApprovalPercentage:       r.ApprovalPercentage,
		SpecificApprover:         r.SpecificApprover,
		IsManagerApprover:        r.IsManagerApprover,
		ApproversSequenceEnabled: r.ApproversSequenceEnabled,
		Sequence:                 r.Sequence,
		IsActive:                 r.IsActive,
		Approvers:                approvers,
		CreatedAt:                r.CreatedAt,
		UpdatedAt:                r.UpdatedAt,
	}
}
