package approval

import (
	"context"

	"github.com/shopspring/decimal"
)

// ApprovalRuleRepository - interface for approval_rules and
// rule_approvers tables
type ApprovalRuleRepository interface {
	Create(ctx context.Context, rule ApprovalRule) (ApprovalRule, error)
	GetByID(ctx context.Context, id, companyID string) (ApprovalRule, error)
	// ListByCompany returns all rules with their approver lists,
	// ordered by sequence ascending.
	ListByCompany(ctx context.Context, companyID string) ([]ApprovalRule, error)
	// ListApplicable returns rules whose threshold is null or <= amount,
	// ordered by sequence ascending.
	ListApplicable(ctx context.Context, companyID string, amount decimal.Decimal) ([]ApprovalRule, error)
	Update(ctx context.Context, rule ApprovalRule) (ApprovalRule, error)
	SetActive(ctx context.Context, id string, active bool) (ApprovalRule, error)
	Delete(ctx context.Context, id string) error
	MaxSequence(ctx context.Context, companyID string) (int, error)
	// ReplaceApprovers deletes the rule's approver list and inserts the
	// new one. Callers must run it inside a transaction so a partial
	// list is never visible to a concurrent evaluator read.
	ReplaceApprovers(ctx context.Context, ruleID string, approvers []RuleApprover) error
	GetApprovers(ctx context.Context, ruleID string) ([]RuleApprover, error)
}
