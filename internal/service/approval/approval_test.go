package approval

import (
	"context"
	"testing"
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store is the in-memory backing state shared by the repository fakes.
type store struct {
	exp   expense.Expense
	rules []approval.ApprovalRule
}

type fakeStepRepo struct{ s *store }

func (f *fakeStepRepo) CreateBatch(_ context.Context, steps []expense.ApprovalStep) ([]expense.ApprovalStep, error) {
	f.s.exp.Steps = append(f.s.exp.Steps, steps...)
	return steps, nil
}

func (f *fakeStepRepo) GetByID(_ context.Context, id string) (expense.ApprovalStep, error) {
	for _, step := range f.s.exp.Steps {
		if step.ID == id {
			return step, nil
		}
	}
	return expense.ApprovalStep{}, pgx.ErrNoRows
}

func (f *fakeStepRepo) UpdateStatus(_ context.Context, id string, status expense.Status, comments *string, actionDate time.Time) error {
	for i := range f.s.exp.Steps {
		if f.s.exp.Steps[i].ID == id {
			f.s.exp.Steps[i].Status = status
			f.s.exp.Steps[i].Comments = comments
			f.s.exp.Steps[i].ActionDate = &actionDate
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeStepRepo) ListPendingForApprover(_ context.Context, approverID, _ string) ([]expense.ApprovalStep, error) {
	var out []expense.ApprovalStep
	for _, step := range f.s.exp.Steps {
		if step.ApproverID == approverID && step.Status == expense.StatusPending {
			out = append(out, step)
		}
	}
	return out, nil
}

func (f *fakeStepRepo) CountForApproverSince(_ context.Context, _ string, _ expense.Status, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeExpenseRepo struct{ s *store }

func (f *fakeExpenseRepo) Create(_ context.Context, newExpense expense.Expense) (expense.Expense, error) {
	f.s.exp = newExpense
	return newExpense, nil
}

func (f *fakeExpenseRepo) GetByIDWithSteps(_ context.Context, id, companyID string) (expense.Expense, error) {
	if f.s.exp.ID != id || f.s.exp.CompanyID != companyID {
		return expense.Expense{}, pgx.ErrNoRows
	}
	exp := f.s.exp
	exp.Steps = make([]expense.ApprovalStep, len(f.s.exp.Steps))
	copy(exp.Steps, f.s.exp.Steps)
	return exp, nil
}

func (f *fakeExpenseRepo) ListByEmployee(_ context.Context, _, _ string, _ expense.ListFilter) ([]expense.Expense, error) {
	return nil, nil
}

func (f *fakeExpenseRepo) ListByCompany(_ context.Context, _ string, _ expense.ListFilter) ([]expense.Expense, error) {
	return nil, nil
}

func (f *fakeExpenseRepo) Update(_ context.Context, updated expense.Expense) (expense.Expense, error) {
	return updated, nil
}

func (f *fakeExpenseRepo) UpdateStatus(_ context.Context, id string, status expense.Status) error {
	if f.s.exp.ID != id {
		return pgx.ErrNoRows
	}
	f.s.exp.Status = status
	return nil
}

func (f *fakeExpenseRepo) AdvanceCurrentStep(_ context.Context, id string, newSequence int) error {
	if f.s.exp.ID != id {
		return pgx.ErrNoRows
	}
	f.s.exp.CurrentApprovalStep = newSequence
	return nil
}

func (f *fakeExpenseRepo) Delete(_ context.Context, _ string) error { return nil }

type fakeRuleRepo struct{ s *store }

func (f *fakeRuleRepo) Create(_ context.Context, rule approval.ApprovalRule) (approval.ApprovalRule, error) {
	f.s.rules = append(f.s.rules, rule)
	return rule, nil
}

func (f *fakeRuleRepo) GetByID(_ context.Context, id, _ string) (approval.ApprovalRule, error) {
	for _, rule := range f.s.rules {
		if rule.ID == id {
			return rule, nil
		}
	}
	return approval.ApprovalRule{}, pgx.ErrNoRows
}

func (f *fakeRuleRepo) ListByCompany(_ context.Context, _ string) ([]approval.ApprovalRule, error) {
	return f.s.rules, nil
}

func (f *fakeRuleRepo) ListApplicable(_ context.Context, _ string, amount decimal.Decimal) ([]approval.ApprovalRule, error) {
	var out []approval.ApprovalRule
	for _, rule := range f.s.rules {
		if rule.AppliesTo(amount) {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeRuleRepo) Update(_ context.Context, rule approval.ApprovalRule) (approval.ApprovalRule, error) {
	return rule, nil
}

func (f *fakeRuleRepo) SetActive(_ context.Context, _ string, _ bool) (approval.ApprovalRule, error) {
	return approval.ApprovalRule{}, nil
}

func (f *fakeRuleRepo) Delete(_ context.Context, _ string) error { return nil }

func (f *fakeRuleRepo) MaxSequence(_ context.Context, _ string) (int, error) { return 0, nil }

func (f *fakeRuleRepo) ReplaceApprovers(_ context.Context, _ string, _ []approval.RuleApprover) error {
	return nil
}

func (f *fakeRuleRepo) GetApprovers(_ context.Context, _ string) ([]approval.RuleApprover, error) {
	return nil, nil
}

const testCompany = "company-1"

func newTestService(s *store) *ApprovalService {
	return NewApprovalService(nil, &fakeRuleRepo{s: s}, &fakeExpenseRepo{s: s}, &fakeStepRepo{s: s}, nil, nil, nil, nil)
}

func threeStepExpense() expense.Expense {
	return expense.Expense{
		ID:                  "exp-1",
		CompanyID:           testCompany,
		EmployeeID:          "emp-1",
		Amount:              decimal.NewFromInt(1000),
		Currency:            "USD",
		Status:              expense.StatusPending,
		CurrentApprovalStep: 1,
		Steps: []expense.ApprovalStep{
			{ID: "step-1", ExpenseID: "exp-1", ApproverID: "mgr", Sequence: 1, Status: expense.StatusPending, Approver: &user.Ref{ID: "mgr", Name: "Maya"}},
			{ID: "step-2", ExpenseID: "exp-1", ApproverID: "dir", Sequence: 2, Status: expense.StatusPending, Approver: &user.Ref{ID: "dir", Name: "Dana"}},
			{ID: "step-3", ExpenseID: "exp-1", ApproverID: "cfo", Sequence: 3, Status: expense.StatusPending, Approver: &user.Ref{ID: "cfo", Name: "Chris"}},
		},
	}
}

func TestApplyAction_ApproveAdvancesToNextStep(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	svc := newTestService(s)

	result, err := svc.applyAction(context.Background(), "step-1", "mgr", testCompany, ActionApprove, "looks fine")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusPending, result.ExpenseStatus)
	require.NotNil(t, result.NextApprover)
	assert.Equal(t, "Dana", *result.NextApprover)
	require.NotNil(t, result.CurrentStep)
	assert.Equal(t, 2, *result.CurrentStep)
	require.NotNil(t, result.TotalSteps)
	assert.Equal(t, 3, *result.TotalSteps)

	assert.Equal(t, 2, s.exp.CurrentApprovalStep)
	assert.Equal(t, expense.StatusApproved, s.exp.Steps[0].Status)
	assert.Equal(t, expense.StatusPending, s.exp.Status)
}

func TestApplyAction_LastStepApprovesExpense(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	s.exp.CurrentApprovalStep = 3
	s.exp.Steps[0].Status = expense.StatusApproved
	s.exp.Steps[1].Status = expense.StatusApproved
	svc := newTestService(s)

	result, err := svc.applyAction(context.Background(), "step-3", "cfo", testCompany, ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusApproved, result.ExpenseStatus)
	assert.Equal(t, expense.StatusApproved, s.exp.Status)
	assert.Nil(t, result.NextApprover)
}

func TestApplyAction_LastStepPercentageRuleSatisfied(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	s.exp.CurrentApprovalStep = 3
	s.exp.Steps[0].Status = expense.StatusApproved
	// Step 2 was skipped over out of band and is still pending; 2 of 3
	// approvals meet the 60% threshold.
	s.rules = []approval.ApprovalRule{{
		ID:                 "rule-1",
		RuleType:           approval.RulePercentage,
		ApprovalPercentage: intPtr(60),
		Sequence:           1,
	}}
	svc := newTestService(s)

	result, err := svc.applyAction(context.Background(), "step-3", "cfo", testCompany, ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusApproved, result.ExpenseStatus)
	assert.Equal(t, expense.StatusApproved, s.exp.Status)
}

func TestApplyAction_LastStepUnsatisfiedRuleLeavesExpensePending(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	s.exp.CurrentApprovalStep = 3
	// Only the final approval lands; 1 of 3 misses the 60% threshold and
	// the unanimous fallback fails too.
	s.rules = []approval.ApprovalRule{{
		ID:                 "rule-1",
		RuleType:           approval.RulePercentage,
		ApprovalPercentage: intPtr(60),
		Sequence:           1,
	}}
	svc := newTestService(s)

	result, err := svc.applyAction(context.Background(), "step-3", "cfo", testCompany, ActionApprove, "")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusPending, result.ExpenseStatus)
	assert.Equal(t, expense.StatusPending, s.exp.Status)
	assert.Equal(t, expense.StatusApproved, s.exp.Steps[2].Status)
}

func TestApplyAction_RejectVetoesWholeExpense(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	svc := newTestService(s)

	result, err := svc.applyAction(context.Background(), "step-1", "mgr", testCompany, ActionReject, "missing receipt")
	require.NoError(t, err)

	assert.Equal(t, expense.StatusRejected, result.ExpenseStatus)
	assert.Equal(t, expense.StatusRejected, s.exp.Status)
	assert.Equal(t, expense.StatusRejected, s.exp.Steps[0].Status)
	require.NotNil(t, s.exp.Steps[0].Comments)
	assert.Equal(t, "missing receipt", *s.exp.Steps[0].Comments)

	// Later steps are left untouched and can never act again: the
	// expense is terminal and their sequence is not current.
	assert.Equal(t, expense.StatusPending, s.exp.Steps[1].Status)
	_, err = svc.applyAction(context.Background(), "step-2", "dir", testCompany, ActionApprove, "")
	assert.ErrorIs(t, err, approval.ErrNotCurrentStep)
}

func TestApplyAction_RejectRequiresComments(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	svc := newTestService(s)

	_, err := svc.ApplyAction(context.Background(), "step-1", "mgr", testCompany, ActionReject, "")
	assert.ErrorIs(t, err, approval.ErrCommentsRequired)
	assert.Equal(t, expense.StatusPending, s.exp.Steps[0].Status)
}

func TestApplyAction_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *store)
		stepID  string
		actorID string
		wantErr error
	}{
		{
			name:    "unknown step",
			mutate:  func(s *store) {},
			stepID:  "step-404",
			actorID: "mgr",
			wantErr: approval.ErrStepNotFound,
		},
		{
			name:    "actor is not the assigned approver",
			mutate:  func(s *store) {},
			stepID:  "step-1",
			actorID: "dir",
			wantErr: approval.ErrNotAssignedApprover,
		},
		{
			name: "step already processed",
			mutate: func(s *store) {
				s.exp.Steps[0].Status = expense.StatusApproved
			},
			stepID:  "step-1",
			actorID: "mgr",
			wantErr: approval.ErrStepAlreadyProcessed,
		},
		{
			name:    "future step approved out of order",
			mutate:  func(s *store) {},
			stepID:  "step-2",
			actorID: "dir",
			wantErr: approval.ErrNotCurrentStep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &store{exp: threeStepExpense()}
			tt.mutate(s)
			svc := newTestService(s)

			_, err := svc.applyAction(context.Background(), tt.stepID, tt.actorID, testCompany, ActionApprove, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, expense.StatusPending, s.exp.Status)
		})
	}
}

func TestEvaluateConditionalApproval_Idempotent(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	s.exp.Steps[0].Status = expense.StatusApproved
	s.exp.Steps[1].Status = expense.StatusApproved
	s.rules = []approval.ApprovalRule{{
		ID:                 "rule-1",
		RuleType:           approval.RulePercentage,
		ApprovalPercentage: intPtr(60),
		Sequence:           1,
	}}
	svc := newTestService(s)

	first, err := svc.EvaluateConditionalApproval(context.Background(), "exp-1", testCompany)
	require.NoError(t, err)
	second, err := svc.EvaluateConditionalApproval(context.Background(), "exp-1", testCompany)
	require.NoError(t, err)

	assert.True(t, first)
	assert.Equal(t, first, second)
}

func TestEvaluateConditionalApproval_ThresholdFiltersRules(t *testing.T) {
	s := &store{exp: threeStepExpense()}
	s.exp.Steps[0].Status = expense.StatusApproved
	s.exp.Steps[1].Status = expense.StatusApproved

	// Threshold above the expense amount: the rule does not apply and
	// the unanimous fallback (one step still pending) decides.
	threshold := decimal.NewFromInt(5000)
	s.rules = []approval.ApprovalRule{{
		ID:                 "rule-1",
		RuleType:           approval.RulePercentage,
		ThresholdAmount:    &threshold,
		ApprovalPercentage: intPtr(60),
		Sequence:           1,
	}}
	svc := newTestService(s)

	satisfied, err := svc.EvaluateConditionalApproval(context.Background(), "exp-1", testCompany)
	require.NoError(t, err)
	assert.False(t, satisfied)
}
