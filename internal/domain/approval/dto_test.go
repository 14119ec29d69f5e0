package approval

import (
	"testing"

	"github.com/expensehub/expense-backend-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }

func fields(err error) []string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestCreateRuleValidate(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateApprovalRuleRequest
		badFields []string
	}{
		{
			name: "valid sequential",
			req: CreateApprovalRuleRequest{
				Name:     "Manager chain",
				RuleType: string(RuleSequential),
			},
		},
		{
			name: "valid percentage",
			req: CreateApprovalRuleRequest{
				Name:               "Majority",
				RuleType:           string(RulePercentage),
				ApprovalPercentage: intPtr(60),
			},
		},
		{
			name: "valid specific",
			req: CreateApprovalRuleRequest{
				Name:               "CFO sign-off",
				RuleType:           string(RuleSpecific),
				SpecificApproverID: strPtr("cfo-1"),
			},
		},
		{
			name: "specific satisfied by approvers list",
			req: CreateApprovalRuleRequest{
				Name:      "Finance team",
				RuleType:  string(RuleSpecific),
				Approvers: []RuleApproverInput{{ApproverID: "fin-1"}},
			},
		},
		{
			name:      "missing name",
			req:       CreateApprovalRuleRequest{RuleType: string(RuleSequential)},
			badFields: []string{"name"},
		},
		{
			name:      "unknown rule type",
			req:       CreateApprovalRuleRequest{Name: "x", RuleType: "MAJORITY"},
			badFields: []string{"rule_type"},
		},
		{
			name: "percentage rule without percentage",
			req: CreateApprovalRuleRequest{
				Name:     "Majority",
				RuleType: string(RulePercentage),
			},
			badFields: []string{"approval_percentage"},
		},
		{
			name: "percentage out of range",
			req: CreateApprovalRuleRequest{
				Name:               "Majority",
				RuleType:           string(RulePercentage),
				ApprovalPercentage: intPtr(140),
			},
			badFields: []string{"approval_percentage"},
		},
		{
			name: "hybrid needs both percentage and an approver",
			req: CreateApprovalRuleRequest{
				Name:     "Either way",
				RuleType: string(RuleHybrid),
			},
			badFields: []string{"approval_percentage", "specific_approver_id"},
		},
		{
			name: "approver entry without id",
			req: CreateApprovalRuleRequest{
				Name:      "Manager chain",
				RuleType:  string(RuleSequential),
				Approvers: []RuleApproverInput{{ApproverID: ""}},
			},
			badFields: []string{"approvers"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if len(tt.badFields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.badFields, fields(err))
		})
	}
}

func TestUpdateRuleValidate(t *testing.T) {
	valid := UpdateApprovalRuleRequest{ID: "rule-1", Name: strPtr("Renamed")}
	assert.NoError(t, valid.Validate())

	missingID := UpdateApprovalRuleRequest{Name: strPtr("Renamed")}
	err := missingID.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{"rule_id"}, fields(err))

	badType := UpdateApprovalRuleRequest{ID: "rule-1", RuleType: strPtr("MAJORITY")}
	err = badType.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{"rule_type"}, fields(err))

	badPercentage := UpdateApprovalRuleRequest{ID: "rule-1", ApprovalPercentage: intPtr(-5)}
	err = badPercentage.Validate()
	require.Error(t, err)
	assert.Equal(t, []string{"approval_percentage"}, fields(err))
}
