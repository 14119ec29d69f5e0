package postgresql

import (
	"context"
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/expense"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/expensehub/expense-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

type approvalStepRepositoryImpl struct {
	db *database.DB
}

func NewApprovalStepRepository(db *database.DB) expense.ApprovalStepRepository {
	return &approvalStepRepositoryImpl{db: db}
}

// CreateBatch implements expense.ApprovalStepRepository.
func (r *approvalStepRepositoryImpl) CreateBatch(ctx context.Context, steps []expense.ApprovalStep) ([]expense.ApprovalStep, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO approval_steps (id, expense_id, approver_id, sequence, status, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	created := make([]expense.ApprovalStep, 0, len(steps))
	for _, step := range steps {
		step.ID = uuid.New().String()
		err := q.QueryRow(ctx, query,
			step.ID,
			step.ExpenseID,
			step.ApproverID,
			step.Sequence,
			step.Status,
		).Scan(&step.CreatedAt)
		if err != nil {
			return nil, err
		}
		created = append(created, step)
	}
	return created, nil
}

// GetByID implements expense.ApprovalStepRepository.
func (r *approvalStepRepositoryImpl) GetByID(ctx context.Context, id string) (expense.ApprovalStep, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.id, s.expense_id, s.approver_id, s.sequence, s.status, s.comments, s.action_date,
			   s.created_at, a.name, a.email
		FROM approval_steps s
		JOIN users a ON a.id = s.approver_id
		WHERE s.id = $1
	`

	var s expense.ApprovalStep
	var approverName, approverEmail string
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.ExpenseID,
		&s.ApproverID,
		&s.Sequence,
		&s.Status,
		&s.Comments,
		&s.ActionDate,
		&s.CreatedAt,
		&approverName,
		&approverEmail,
	)
	if err != nil {
		return expense.ApprovalStep{}, err
	}
	s.Approver = &user.Ref{ID: s.ApproverID, Name: approverName, Email: approverEmail}
	return s, nil
}

// UpdateStatus implements expense.ApprovalStepRepository.
func (r *approvalStepRepositoryImpl) UpdateStatus(ctx context.Context, id string, status expense.Status, comments *string, actionDate time.Time) error {
	q := GetQuerier(ctx, r.db)

	_, err := q.Exec(ctx,
		`UPDATE approval_steps SET status = $1, comments = $2, action_date = $3 WHERE id = $4`,
		status, comments, actionDate, id,
	)
	return err
}

// ListPendingForApprover implements expense.ApprovalStepRepository.
func (r *approvalStepRepositoryImpl) ListPendingForApprover(ctx context.Context, approverID, companyID string) ([]expense.ApprovalStep, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT s.id, s.expense_id, s.approver_id, s.sequence, s.status, s.comments, s.action_date,
			   s.created_at, a.name, a.email
		FROM approval_steps s
		JOIN users a ON a.id = s.approver_id
		JOIN expenses e ON e.id = s.expense_id
		WHERE s.approver_id = $1
		  AND s.status = 'PENDING'
		  AND e.company_id = $2
		  AND e.status = 'PENDING'
		ORDER BY e.created_at DESC
	`

	rows, err := q.Query(ctx, query, approverID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []expense.ApprovalStep
	for rows.Next() {
		var s expense.ApprovalStep
		var approverName, approverEmail string
		if err := rows.Scan(
			&s.ID,
			&s.ExpenseID,
			&s.ApproverID,
			&s.Sequence,
			&s.Status,
			&s.Comments,
			&s.ActionDate,
			&s.CreatedAt,
			&approverName,
			&approverEmail,
		); err != nil {
			return nil, err
		}
		s.Approver = &user.Ref{ID: s.ApproverID, Name: approverName, Email: approverEmail}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

// CountForApproverSince implements expense.ApprovalStepRepository.
func (r *approvalStepRepositoryImpl) CountForApproverSince(ctx context.Context, approverID string, status expense.Status, since time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	var count int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM approval_steps WHERE approver_id = $1 AND status = $2 AND action_date >= $3`,
		approverID, status, since,
	).Scan(&count)
	return count, err
}
