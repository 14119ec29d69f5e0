package approval

import (
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

type RuleType string

const (
	RuleSequential RuleType = "SEQUENTIAL" // all designated approvers, in order
	RulePercentage RuleType = "PERCENTAGE" // a minimum fraction of approvers
	RuleSpecific   RuleType = "SPECIFIC"   // one designated approver suffices
	RuleHybrid     RuleType = "HYBRID"     // percentage OR specific, either suffices
)

func (t RuleType) IsValid() bool {
	switch t {
	case RuleSequential, RulePercentage, RuleSpecific, RuleHybrid:
		return true
	}
	return false
}

// ApprovalRule is a company-level policy describing when an expense is
// considered approved. Rules are evaluated in ascending Sequence order
// and combined with OR semantics: the first satisfied rule wins.
type ApprovalRule struct {
	ID        string
	CompanyID string
	Name      string
	RuleType  RuleType
	// ThresholdAmount is the minimum expense amount for the rule to
	// apply. Nil applies to all amounts.
	ThresholdAmount          *decimal.Decimal
	ApprovalPercentage       *int
	SpecificApproverID       *string
	IsManagerApprover        bool
	ApproversSequenceEnabled bool
	Sequence                 int
	IsActive                 bool
	CreatedAt                time.Time
	UpdatedAt                time.Time

	// Joins
	SpecificApprover *user.Ref
	Approvers        []RuleApprover
}

// RuleApprover is owned by its rule; the list is replaced wholesale on
// rule update, never diffed.
type RuleApprover struct {
	ID         string
	RuleID     string
	ApproverID string
	Sequence   int
	IsRequired bool

	// Join
	Approver *user.Ref
}

// AppliesTo reports whether the rule covers the given expense amount.
func (r *ApprovalRule) AppliesTo(amount decimal.Decimal) bool {
	return r.ThresholdAmount == nil || r.ThresholdAmount.LessThanOrEqual(amount)
}
