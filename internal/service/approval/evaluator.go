package approval

import (
	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
)

// evaluateRules decides whether an expense should be auto-approved given
// its generated steps and the rules applicable to its amount. Rules must
// arrive ordered by sequence ascending; they combine with OR semantics
// and the first satisfied rule short-circuits.
//
// With no applicable rules the fallback is unanimous consent: every
// generated step must be APPROVED. The same fallback also applies when
// rules exist but none is satisfied, so the evaluator never blocks an
// expense whose steps are all approved.
func evaluateRules(rules []approval.ApprovalRule, steps []expense.ApprovalStep) bool {
	if len(rules) == 0 {
		return allStepsApproved(steps)
	}

	for _, rule := range rules {
		switch rule.RuleType {
		case approval.RulePercentage:
			if rule.ApprovalPercentage != nil && percentageSatisfied(steps, *rule.ApprovalPercentage) {
				return true
			}
		case approval.RuleSpecific:
			if rule.SpecificApproverID != nil && approverApproved(steps, *rule.SpecificApproverID) {
				return true
			}
		case approval.RuleHybrid:
			percentageOK := rule.ApprovalPercentage != nil && percentageSatisfied(steps, *rule.ApprovalPercentage)
			specificOK := rule.SpecificApproverID != nil && approverApproved(steps, *rule.SpecificApproverID)
			if percentageOK || specificOK {
				return true
			}
		case approval.RuleSequential:
			if allStepsApproved(steps) {
				return true
			}
		}
	}

	return allStepsApproved(steps)
}

// allStepsApproved is vacuously true for an empty step list; an expense
// that generated no steps needs nobody's consent.
func allStepsApproved(steps []expense.ApprovalStep) bool {
	for _, s := range steps {
		if s.Status != expense.StatusApproved {
			return false
		}
	}
	return true
}

// percentageSatisfied computes approved/total over the steps that were
// actually generated for the expense. Zero steps means not satisfied,
// never a division by zero.
func percentageSatisfied(steps []expense.ApprovalStep, required int) bool {
	total := len(steps)
	if total == 0 {
		return false
	}

	approved := 0
	for _, s := range steps {
		if s.Status == expense.StatusApproved {
			approved++
		}
	}

	return float64(approved)/float64(total)*100 >= float64(required)
}

func approverApproved(steps []expense.ApprovalStep, approverID string) bool {
	for _, s := range steps {
		if s.ApproverID == approverID && s.Status == expense.StatusApproved {
			return true
		}
	}
	return false
}
