package approvalrule

import (
	"context"
	"fmt"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/expensehub/expense-backend-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
)

type ApprovalRuleService struct {
	db *database.DB
	approval.ApprovalRuleRepository
	user.UserRepository
}

func NewApprovalRuleService(db *database.DB, ruleRepository approval.ApprovalRuleRepository, userRepository user.UserRepository) *ApprovalRuleService {
	return &ApprovalRuleService{
		db:                     db,
		ApprovalRuleRepository: ruleRepository,
		UserRepository:         userRepository,
	}
}

// Create stores a new rule together with its approver list in one
// transaction. Rules without an explicit sequence go to the end of the
// company's evaluation order.
func (s *ApprovalRuleService) Create(ctx context.Context, companyID string, req approval.CreateApprovalRuleRequest) (approval.RuleResponse, error) {
	if req.SpecificApproverID != nil {
		if err := s.validateApprover(ctx, *req.SpecificApproverID, companyID); err != nil {
			return approval.RuleResponse{}, err
		}
	}
	for _, a := range req.Approvers {
		if err := s.validateApprover(ctx, a.ApproverID, companyID); err != nil {
			return approval.RuleResponse{}, err
		}
	}

	sequence := 0
	if req.Sequence != nil {
		sequence = *req.Sequence
	} else {
		max, err := s.ApprovalRuleRepository.MaxSequence(ctx, companyID)
		if err != nil {
			return approval.RuleResponse{}, fmt.Errorf("failed to get max rule sequence: %w", err)
		}
		sequence = max + 1
	}

	rule := approval.ApprovalRule{
		CompanyID:                companyID,
		Name:                     req.Name,
		RuleType:                 approval.RuleType(req.RuleType),
		ThresholdAmount:          req.ThresholdAmount,
		ApprovalPercentage:       req.ApprovalPercentage,
		SpecificApproverID:       req.SpecificApproverID,
		ApproversSequenceEnabled: true,
		Sequence:                 sequence,
		IsActive:                 true,
	}
	if req.IsManagerApprover != nil {
		rule.IsManagerApprover = *req.IsManagerApprover
	}
	if req.ApproversSequenceEnabled != nil {
		rule.ApproversSequenceEnabled = *req.ApproversSequenceEnabled
	}

	var created approval.ApprovalRule
	err := postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		var err error
		created, err = s.ApprovalRuleRepository.Create(txCtx, rule)
		if err != nil {
			return fmt.Errorf("failed to create approval rule: %w", err)
		}

		if len(req.Approvers) > 0 {
			if err := s.ApprovalRuleRepository.ReplaceApprovers(txCtx, created.ID, toRuleApprovers(created.ID, req.Approvers)); err != nil {
				return fmt.Errorf("failed to create rule approvers: %w", err)
			}
		}

		created, err = s.ApprovalRuleRepository.GetByID(txCtx, created.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to reload approval rule: %w", err)
		}
		return nil
	})
	if err != nil {
		return approval.RuleResponse{}, err
	}

	return approval.ToRuleResponse(created), nil
}

func (s *ApprovalRuleService) List(ctx context.Context, companyID string) ([]approval.RuleResponse, error) {
	rules, err := s.ApprovalRuleRepository.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval rules: %w", err)
	}

	responses := make([]approval.RuleResponse, 0, len(rules))
	for _, rule := range rules {
		responses = append(responses, approval.ToRuleResponse(rule))
	}
	return responses, nil
}

func (s *ApprovalRuleService) Get(ctx context.Context, id, companyID string) (approval.RuleResponse, error) {
	rule, err := s.ApprovalRuleRepository.GetByID(ctx, id, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.RuleResponse{}, approval.ErrRuleNotFound
		}
		return approval.RuleResponse{}, fmt.Errorf("failed to get approval rule: %w", err)
	}
	return approval.ToRuleResponse(rule), nil
}

// Update patches the rule and, when requested, replaces the approver
// list wholesale. The delete-then-insert runs inside the same
// transaction as the rule update so a half-replaced list is never
// visible to a concurrent evaluation.
func (s *ApprovalRuleService) Update(ctx context.Context, companyID string, req approval.UpdateApprovalRuleRequest) (approval.RuleResponse, error) {
	existing, err := s.ApprovalRuleRepository.GetByID(ctx, req.ID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.RuleResponse{}, approval.ErrRuleNotFound
		}
		return approval.RuleResponse{}, fmt.Errorf("failed to get approval rule: %w", err)
	}

	if req.SpecificApproverID != nil {
		if err := s.validateApprover(ctx, *req.SpecificApproverID, companyID); err != nil {
			return approval.RuleResponse{}, err
		}
		existing.SpecificApproverID = req.SpecificApproverID
	}
	if req.ReplaceApprovers {
		for _, a := range req.Approvers {
			if err := s.validateApprover(ctx, a.ApproverID, companyID); err != nil {
				return approval.RuleResponse{}, err
			}
		}
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}
	if req.RuleType != nil {
		existing.RuleType = approval.RuleType(*req.RuleType)
	}
	if req.ThresholdAmount != nil {
		existing.ThresholdAmount = req.ThresholdAmount
	}
	if req.ApprovalPercentage != nil {
		existing.ApprovalPercentage = req.ApprovalPercentage
	}
	if req.IsManagerApprover != nil {
		existing.IsManagerApprover = *req.IsManagerApprover
	}
	if req.ApproversSequenceEnabled != nil {
		existing.ApproversSequenceEnabled = *req.ApproversSequenceEnabled
	}
	if req.Sequence != nil {
		existing.Sequence = *req.Sequence
	}

	var updated approval.ApprovalRule
	err = postgresql.WithTransaction(ctx, s.db, func(tx pgx.Tx) error {
		txCtx := postgresql.TxContext(ctx, tx)

		if _, err := s.ApprovalRuleRepository.Update(txCtx, existing); err != nil {
			return fmt.Errorf("failed to update approval rule: %w", err)
		}

		if req.ReplaceApprovers {
			if err := s.ApprovalRuleRepository.ReplaceApprovers(txCtx, existing.ID, toRuleApprovers(existing.ID, req.Approvers)); err != nil {
				return fmt.Errorf("failed to replace rule approvers: %w", err)
			}
		}

		var err error
		updated, err = s.ApprovalRuleRepository.GetByID(txCtx, existing.ID, companyID)
		if err != nil {
			return fmt.Errorf("failed to reload approval rule: %w", err)
		}
		return nil
	})
	if err != nil {
		return approval.RuleResponse{}, err
	}

	return approval.ToRuleResponse(updated), nil
}

func (s *ApprovalRuleService) Delete(ctx context.Context, id, companyID string) error {
	_, err := s.ApprovalRuleRepository.GetByID(ctx, id, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.ErrRuleNotFound
		}
		return fmt.Errorf("failed to get approval rule: %w", err)
	}

	if err := s.ApprovalRuleRepository.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete approval rule: %w", err)
	}
	return nil
}

// Toggle flips the rule's active flag and returns the new state.
func (s *ApprovalRuleService) Toggle(ctx context.Context, id, companyID string) (approval.RuleResponse, error) {
	existing, err := s.ApprovalRuleRepository.GetByID(ctx, id, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.RuleResponse{}, approval.ErrRuleNotFound
		}
		return approval.RuleResponse{}, fmt.Errorf("failed to get approval rule: %w", err)
	}

	toggled, err := s.ApprovalRuleRepository.SetActive(ctx, id, !existing.IsActive)
	if err != nil {
		return approval.RuleResponse{}, fmt.Errorf("failed to toggle approval rule: %w", err)
	}
	toggled.SpecificApprover = existing.SpecificApprover
	toggled.Approvers = existing.Approvers

	return approval.ToRuleResponse(toggled), nil
}

func (s *ApprovalRuleService) validateApprover(ctx context.Context, approverID, companyID string) error {
	approver, err := s.UserRepository.GetByIDInCompany(ctx, approverID, companyID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return approval.ErrApproverNotFound
		}
		return fmt.Errorf("failed to get approver: %w", err)
	}
	if !approver.CanApprove() {
		return approval.ErrApproverRoleRequired
	}
	return nil
}

// toRuleApprovers defaults each approver's sequence to its list
// position when not given explicitly.
func toRuleApprovers(ruleID string, inputs []approval.RuleApproverInput) []approval.RuleApprover {
	approvers := make([]approval.RuleApprover, 0, len(inputs))
	for i, in := range inputs {
		sequence := i + 1
		if in.Sequence != nil {
			sequence = *in.Sequence
		}
		approvers = append(approvers, approval.RuleApprover{
			RuleID:     ruleID,
			ApproverID: in.ApproverID,
			Sequence:   sequence,
			IsRequired: in.IsRequired,
		})
	}
	return approvers
}
