package expense

import (
	"time"

	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// IsTerminal reports whether no further transitions are allowed.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Expense struct {
	ID          string
	CompanyID   string
	EmployeeID  string
	Amount      decimal.Decimal
	Currency    string
	Category    string
	Description string
	Date        time.Time
	Status      Status
	// CurrentApprovalStep points at the sequence of the single PENDING
	// step while the expense is PENDING. 0 means no approval required.
	CurrentApprovalStep int
	CreatedAt           time.Time
	UpdatedAt           time.Time

	// Joins
	Employee *user.Ref
	Steps    []ApprovalStep
}

// ApprovalStep is one approver's pending or decided action in an
// expense's approval sequence. Sequences are contiguous from 1 and
// unique per expense. A decided step is immutable.
type ApprovalStep struct {
	ID         string
	ExpenseID  string
	ApproverID string
	Sequence   int
	Status     Status
	Comments   *string
	ActionDate *time.Time
	CreatedAt  time.Time

	// Join
	Approver *user.Ref
}
