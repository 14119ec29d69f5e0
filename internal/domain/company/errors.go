package company

import "errors"

var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrNoCompany       = errors.New("user not associated with a company")
)
