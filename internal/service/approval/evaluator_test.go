package approval

import (
	"testing"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func steps(statuses ...expense.Status) []expense.ApprovalStep {
	out := make([]expense.ApprovalStep, 0, len(statuses))
	for i, status := range statuses {
		out = append(out, expense.ApprovalStep{
			ID:         string(rune('a' + i)),
			ApproverID: string(rune('A' + i)),
			Sequence:   i + 1,
			Status:     status,
		})
	}
	return out
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func percentageRule(percentage, sequence int) approval.ApprovalRule {
	return approval.ApprovalRule{
		RuleType:           approval.RulePercentage,
		ApprovalPercentage: intPtr(percentage),
		Sequence:           sequence,
	}
}

func TestEvaluateRules_NoRulesUnanimousFallback(t *testing.T) {
	assert.True(t, evaluateRules(nil, steps(expense.StatusApproved, expense.StatusApproved)))
	assert.False(t, evaluateRules(nil, steps(expense.StatusApproved, expense.StatusPending)))
}

func TestEvaluateRules_Percentage(t *testing.T) {
	tests := []struct {
		name       string
		percentage int
		steps      []expense.ApprovalStep
		want       bool
	}{
		{"2 of 3 approved meets 60%", 60, steps(expense.StatusApproved, expense.StatusApproved, expense.StatusPending), true},
		{"1 of 3 approved misses 60%", 60, steps(expense.StatusApproved, expense.StatusPending, expense.StatusPending), false},
		{"exact boundary 50%", 50, steps(expense.StatusApproved, expense.StatusPending), true},
		{"100% requires all", 100, steps(expense.StatusApproved, expense.StatusApproved, expense.StatusApproved), true},
		{"zero steps never satisfied", 1, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := percentageSatisfied(tt.steps, tt.percentage)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluateRules_PercentageZeroStepsDoesNotPanic(t *testing.T) {
	rules := []approval.ApprovalRule{percentageRule(60, 1)}

	assert.NotPanics(t, func() {
		assert.False(t, evaluateRules(rules, nil))
	})
}

func TestEvaluateRules_Specific(t *testing.T) {
	rule := approval.ApprovalRule{
		RuleType:           approval.RuleSpecific,
		SpecificApproverID: strPtr("cfo"),
		Sequence:           1,
	}

	approved := []expense.ApprovalStep{
		{ApproverID: "manager", Sequence: 1, Status: expense.StatusApproved},
		{ApproverID: "cfo", Sequence: 2, Status: expense.StatusApproved},
		{ApproverID: "director", Sequence: 3, Status: expense.StatusPending},
	}
	assert.True(t, evaluateRules([]approval.ApprovalRule{rule}, approved))

	notYet := []expense.ApprovalStep{
		{ApproverID: "manager", Sequence: 1, Status: expense.StatusApproved},
		{ApproverID: "cfo", Sequence: 2, Status: expense.StatusPending},
	}
	assert.False(t, evaluateRules([]approval.ApprovalRule{rule}, notYet))
}

func TestEvaluateRules_HybridEitherConditionSuffices(t *testing.T) {
	rule := approval.ApprovalRule{
		RuleType:           approval.RuleHybrid,
		ApprovalPercentage: intPtr(60),
		SpecificApproverID: strPtr("cfo"),
		Sequence:           1,
	}

	// Specific approved, percentage not met.
	bySpecific := []expense.ApprovalStep{
		{ApproverID: "cfo", Sequence: 1, Status: expense.StatusApproved},
		{ApproverID: "a", Sequence: 2, Status: expense.StatusPending},
		{ApproverID: "b", Sequence: 3, Status: expense.StatusPending},
	}
	assert.True(t, evaluateRules([]approval.ApprovalRule{rule}, bySpecific))

	// Percentage met, specific approver still pending.
	byPercentage := []expense.ApprovalStep{
		{ApproverID: "a", Sequence: 1, Status: expense.StatusApproved},
		{ApproverID: "b", Sequence: 2, Status: expense.StatusApproved},
		{ApproverID: "cfo", Sequence: 3, Status: expense.StatusPending},
	}
	assert.True(t, evaluateRules([]approval.ApprovalRule{rule}, byPercentage))

	// Neither condition met.
	neither := []expense.ApprovalStep{
		{ApproverID: "a", Sequence: 1, Status: expense.StatusApproved},
		{ApproverID: "b", Sequence: 2, Status: expense.StatusPending},
		{ApproverID: "cfo", Sequence: 3, Status: expense.StatusPending},
	}
	assert.False(t, evaluateRules([]approval.ApprovalRule{rule}, neither))
}

func TestEvaluateRules_Sequential(t *testing.T) {
	rule := approval.ApprovalRule{RuleType: approval.RuleSequential, Sequence: 1}

	assert.True(t, evaluateRules([]approval.ApprovalRule{rule}, steps(expense.StatusApproved, expense.StatusApproved)))
	assert.False(t, evaluateRules([]approval.ApprovalRule{rule}, steps(expense.StatusApproved, expense.StatusPending)))
}

func TestEvaluateRules_FirstSatisfiedRuleShortCircuits(t *testing.T) {
	// The lower-sequence percentage rule is satisfied before the
	// sequential rule would fail the evaluation.
	rules := []approval.ApprovalRule{
		percentageRule(50, 1),
		{RuleType: approval.RuleSequential, Sequence: 2},
	}

	partial := steps(expense.StatusApproved, expense.StatusPending)
	assert.True(t, evaluateRules(rules, partial))
}

func TestEvaluateRules_UnsatisfiedRulesFallBackToUnanimous(t *testing.T) {
	// A specific-approver rule that nobody in the step list matches must
	// not block an expense every approver already signed off on.
	rules := []approval.ApprovalRule{{
		RuleType:           approval.RuleSpecific,
		SpecificApproverID: strPtr("someone-else"),
		Sequence:           1,
	}}

	assert.True(t, evaluateRules(rules, steps(expense.StatusApproved, expense.StatusApproved)))
	assert.False(t, evaluateRules(rules, steps(expense.StatusApproved, expense.StatusPending)))
}

func TestEvaluateRules_RejectedStepBlocksUnanimousPaths(t *testing.T) {
	rules := []approval.ApprovalRule{{RuleType: approval.RuleSequential, Sequence: 1}}

	assert.False(t, evaluateRules(rules, steps(expense.StatusApproved, expense.StatusRejected)))
}

func TestAppliesTo(t *testing.T) {
	threshold := decimal.NewFromInt(500)
	rule := approval.ApprovalRule{ThresholdAmount: &threshold}

	assert.True(t, rule.AppliesTo(decimal.NewFromInt(500)))
	assert.True(t, rule.AppliesTo(decimal.NewFromInt(501)))
	assert.False(t, rule.AppliesTo(decimal.NewFromInt(499)))

	unbounded := approval.ApprovalRule{}
	assert.True(t, unbounded.AppliesTo(decimal.NewFromInt(1)))
}
