package approval

import "errors"

var (
	ErrStepNotFound         = errors.New("approval step not found")
	ErrNotAssignedApprover  = errors.New("you are not authorized to act on this approval step")
	ErrStepAlreadyProcessed = errors.New("this approval step has already been processed")
	ErrNotCurrentStep       = errors.New("this is not the current approval step")
	ErrCommentsRequired     = errors.New("comments are required when rejecting an expense")
	ErrRuleNotFound         = errors.New("approval rule not found")
	ErrApproverNotFound     = errors.New("approver not found or not in the same company")
	ErrApproverRoleRequired = errors.New("approver must have MANAGER or ADMIN role")
)
