package postgresql

import (
	"context"

	"github.com/expensehub/expense-backend-go/internal/domain/approval"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type approvalRuleRepositoryImpl struct {
	db *database.DB
}

func NewApprovalRuleRepository(db *database.DB) approval.ApprovalRuleRepository {
	return &approvalRuleRepositoryImpl{db: db}
}

const ruleColumns = `id, company_id, name, rule_type, threshold_amount, approval_percentage,
		specific_approver_id, is_manager_approver, approvers_sequence_enabled, sequence,
		is_active, created_at, updated_at`

func scanRule(row interface{ Scan(...interface{}) error }) (approval.ApprovalRule, error) {
	var r approval.ApprovalRule
	err := row.Scan(
		&r.ID,
		&r.CompanyID,
		&r.Name,
		&r.RuleType,
		&r.ThresholdAmount,
		&r.ApprovalPercentage,
		&r.SpecificApproverID,
		&r.IsManagerApprover,
		&r.ApproversSequenceEnabled,
		&r.Sequence,
		&r.IsActive,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	return r, err
}

// Create implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) Create(ctx context.Context, rule approval.ApprovalRule) (approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approval_rules (company_id, name, rule_type, threshold_amount, approval_percentage,
			specific_approver_id, is_manager_approver, approvers_sequence_enabled, sequence,
			is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + ruleColumns

	return scanRule(q.QueryRow(ctx, query,
		rule.CompanyID,
		rule.Name,
		rule.RuleType,
		rule.ThresholdAmount,
		rule.ApprovalPercentage,
		rule.SpecificApproverID,
		rule.IsManagerApprover,
		rule.ApproversSequenceEnabled,
		rule.Sequence,
		rule.IsActive,
	))
}

// GetByID implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) GetByID(ctx context.Context, id, companyID string) (approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE id = $1 AND company_id = $2`
	rule, err := scanRule(q.QueryRow(ctx, query, id, companyID))
	if err != nil {
		return approval.ApprovalRule{}, err
	}

	if err := r.attachJoins(ctx, &rule); err != nil {
		return approval.ApprovalRule{}, err
	}
	return rule, nil
}

func (r *approvalRuleRepositoryImpl) attachJoins(ctx context.Context, rule *approval.ApprovalRule) error {
	q := GetQuerier(ctx, r.db)

	if rule.SpecificApproverID != nil {
		var ref user.Ref
		err := q.QueryRow(ctx,
			`SELECT id, name, email, role FROM users WHERE id = $1`,
			*rule.SpecificApproverID,
		).Scan(&ref.ID, &ref.Name, &ref.Email, &ref.Role)
		if err != nil {
			return err
		}
		rule.SpecificApprover = &ref
	}

	approvers, err := r.GetApprovers(ctx, rule.ID)
	if err != nil {
		return err
	}
	rule.Approvers = approvers
	return nil
}

// ListByCompany implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) ListByCompany(ctx context.Context, companyID string) ([]approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ruleColumns + ` FROM approval_rules WHERE company_id = $1 ORDER BY sequence ASC`
	rows, err := q.Query(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []approval.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rules {
		if err := r.attachJoins(ctx, &rules[i]); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// ListApplicable implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) ListApplicable(ctx context.Context, companyID string, amount decimal.Decimal) ([]approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + ruleColumns + `
		FROM approval_rules
		WHERE company_id = $1
		  AND (threshold_amount IS NULL OR threshold_amount <= $2)
		ORDER BY sequence ASC
	`

	rows, err := q.Query(ctx, query, companyID, amount)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []approval.ApprovalRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// Update implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) Update(ctx context.Context, rule approval.ApprovalRule) (approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE approval_rules
		SET name = $1, rule_type = $2, threshold_amount = $3, approval_percentage = $4,
			specific_approver_id = $5, is_manager_approver = $6, approvers_sequence_enabled = $7,
			sequence = $8, updated_at = NOW()
		WHERE id = $9
		RETURNING ` + ruleColumns

	return scanRule(q.QueryRow(ctx, query,
		rule.Name,
		rule.RuleType,
		rule.ThresholdAmount,
		rule.ApprovalPercentage,
		rule.SpecificApproverID,
		rule.IsManagerApprover,
		rule.ApproversSequenceEnabled,
		rule.Sequence,
		rule.ID,
	))
}

// SetActive implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) SetActive(ctx context.Context, id string, active bool) (approval.ApprovalRule, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE approval_rules
		SET is_active = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + ruleColumns

	return scanRule(q.QueryRow(ctx, query, active, id))
}

// Delete implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)

	// rule_approvers rows go with it (ON DELETE CASCADE)
	_, err := q.Exec(ctx, `DELETE FROM approval_rules WHERE id = $1`, id)
	return err
}

// MaxSequence implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) MaxSequence(ctx context.Context, companyID string) (int, error) {
	q := GetQuerier(ctx, r.db)

	var max int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM approval_rules WHERE company_id = $1`,
		companyID,
	).Scan(&max)
	return max, err
}

// ReplaceApprovers implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) ReplaceApprovers(ctx context.Context, ruleID string, approvers []approval.RuleApprover) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `DELETE FROM rule_approvers WHERE rule_id = $1`, ruleID); err != nil {
		return err
	}

	query := `
		INSERT INTO rule_approvers (rule_id, approver_id, sequence, is_required)
		VALUES ($1, $2, $3, $4)
	`
	for _, a := range approvers {
		if _, err := q.Exec(ctx, query, ruleID, a.ApproverID, a.Sequence, a.IsRequired); err != nil {
			return err
		}
	}
	return nil
}

// GetApprovers implements approval.ApprovalRuleRepository.
func (r *approvalRuleRepositoryImpl) GetApprovers(ctx context.Context, ruleID string) ([]approval.RuleApprover, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ra.id, ra.rule_id, ra.approver_id, ra.sequence, ra.is_required,
			   u.name, u.email, u.role
		FROM rule_approvers ra
		JOIN users u ON u.id = ra.approver_id
		WHERE ra.rule_id = $1
		ORDER BY ra.sequence ASC
	`

	rows, err := q.Query(ctx, query, ruleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var approvers []approval.RuleApprover
	for rows.Next() {
		var a approval.RuleApprover
		var name, email string
		var role user.Role
		if err := rows.Scan(&a.ID, &a.RuleID, &a.ApproverID, &a.Sequence, &a.IsRequired, &name, &email, &role); err != nil {
			return nil, err
		}
		a.Approver = &user.Ref{ID: a.ApproverID, Name: name, Email: email, Role: role}
		approvers = append(approvers, a)
	}
	return approvers, rows.Err()
}
