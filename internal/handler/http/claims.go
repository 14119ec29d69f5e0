package http

import (
	"net/http"

	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

// caller is the authenticated identity extracted from the access token.
type caller struct {
	UserID    string
	CompanyID string
	Role      user.Role
}

// callerFromRequest pulls user_id, company_id, and role out of the
// verified token claims. It assumes AuthRequired already ran.
func callerFromRequest(r *http.Request) (caller, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return caller{}, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return caller{}, user.ErrUserNotFound
	}
	companyID, ok := claims["company_id"].(string)
	if !ok || companyID == "" {
		return caller{}, company.ErrNoCompany
	}
	role, _ := claims["role"].(string)

	return caller{
		UserID:    userID,
		CompanyID: companyID,
		Role:      user.Role(role),
	}, nil
}
