package user

import (
	"context"
	"testing"

	"github.com/expensehub/expense-backend-go/internal/domain/company"
	"github.com/expensehub/expense-backend-go/internal/domain/user"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCompany = "company-1"

type fakeUserRepo struct {
	users   map[string]user.User
	deps    map[string]user.Dependencies
	deleted []string
}

func (f *fakeUserRepo) Create(_ context.Context, newUser user.User) (user.User, error) {
	newUser.ID = "generated-id"
	return newUser, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, pgx.ErrNoRows
}

func (f *fakeUserRepo) GetByIDInCompany(_ context.Context, id, companyID string) (user.User, error) {
	u, ok := f.users[id]
	if !ok || u.CompanyID == nil || *u.CompanyID != companyID {
		return user.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (f *fakeUserRepo) GetByCompanyID(_ context.Context, _ string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) ListApprovers(_ context.Context, _ string) ([]user.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) Update(_ context.Context, updated user.User) (user.User, error) {
	f.users[updated.ID] = updated
	return updated, nil
}

func (f *fakeUserRepo) Delete(_ context.Context, id string) error {
	delete(f.users, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeUserRepo) CountByCompanyID(_ context.Context, _ string) (int64, error) { return 0, nil }

func (f *fakeUserRepo) GetDependencies(_ context.Context, id string) (user.Dependencies, error) {
	return f.deps[id], nil
}

func (f *fakeUserRepo) IsSubordinate(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

type fakeCompanyRepo struct {
	company company.Company
}

func (f *fakeCompanyRepo) Create(_ context.Context, newCompany company.Company) (company.Company, error) {
	return newCompany, nil
}

func (f *fakeCompanyRepo) GetByID(_ context.Context, _ string) (company.Company, error) {
	return f.company, nil
}

func (f *fakeCompanyRepo) GetByAdminUserID(_ context.Context, _ string) (company.Company, error) {
	return f.company, nil
}

func (f *fakeCompanyRepo) Update(_ context.Context, updated company.Company) (company.Company, error) {
	return updated, nil
}

func strPtr(v string) *string { return &v }

// chain builds users where each entry's manager is the next entry.
func chain(ids ...string) map[string]user.User {
	companyID := testCompany
	users := make(map[string]user.User, len(ids))
	for i, id := range ids {
		u := user.User{ID: id, CompanyID: &companyID, Role: user.RoleManager}
		if i+1 < len(ids) {
			u.ManagerID = strPtr(ids[i+1])
		}
		users[id] = u
	}
	return users
}

func newTestService(users map[string]user.User, deps map[string]user.Dependencies, comp company.Company) (*UserService, *fakeUserRepo) {
	repo := &fakeUserRepo{users: users, deps: deps}
	return NewUserService(nil, repo, &fakeCompanyRepo{company: comp}), repo
}

func TestCreate_DuplicateEmail(t *testing.T) {
	companyID := testCompany
	svc, _ := newTestService(map[string]user.User{
		"u-1": {ID: "u-1", CompanyID: &companyID, Email: "taken@example.com"},
	}, nil, company.Company{})

	_, err := svc.Create(context.Background(), testCompany, user.CreateUserRequest{
		Name:  "New Person",
		Email: "taken@example.com",
		Role:  string(user.RoleEmployee),
	})
	assert.ErrorIs(t, err, user.ErrUserEmailExists)
}

func TestCreate_ReturnsTemporaryPassword(t *testing.T) {
	svc, _ := newTestService(map[string]user.User{}, nil, company.Company{})

	created, err := svc.Create(context.Background(), testCompany, user.CreateUserRequest{
		Name:  "New Person",
		Email: "new@example.com",
		Role:  string(user.RoleEmployee),
	})
	require.NoError(t, err)

	assert.Len(t, created.TemporaryPassword, 16)
	assert.Equal(t, "new@example.com", created.User.Email)
}

func TestCreate_ManagerMustApprove(t *testing.T) {
	companyID := testCompany
	svc, _ := newTestService(map[string]user.User{
		"emp-1": {ID: "emp-1", CompanyID: &companyID, Role: user.RoleEmployee},
	}, nil, company.Company{})

	_, err := svc.Create(context.Background(), testCompany, user.CreateUserRequest{
		Name:      "New Person",
		Email:     "new@example.com",
		Role:      string(user.RoleEmployee),
		ManagerID: strPtr("emp-1"),
	})
	assert.ErrorIs(t, err, user.ErrManagerRoleRequired)

	_, err = svc.Create(context.Background(), testCompany, user.CreateUserRequest{
		Name:      "New Person",
		Email:     "new@example.com",
		Role:      string(user.RoleEmployee),
		ManagerID: strPtr("nobody"),
	})
	assert.ErrorIs(t, err, user.ErrManagerNotFound)
}

func TestUpdate_SelfManagerRejected(t *testing.T) {
	svc, _ := newTestService(chain("a"), nil, company.Company{})

	_, err := svc.Update(context.Background(), testCompany, user.UpdateUserRequest{
		ID:        "a",
		ManagerID: strPtr("a"),
	})
	assert.ErrorIs(t, err, user.ErrSelfManager)
}

func TestUpdate_CycleThroughAncestorRejected(t *testing.T) {
	// c reports to b reports to a. Making c the manager of a would close
	// the loop.
	svc, _ := newTestService(chain("c", "b", "a"), nil, company.Company{})

	_, err := svc.Update(context.Background(), testCompany, user.UpdateUserRequest{
		ID:        "a",
		ManagerID: strPtr("c"),
	})
	assert.ErrorIs(t, err, user.ErrCircularManagerRelationship)
}

func TestUpdate_AcyclicReassignmentSucceeds(t *testing.T) {
	users := chain("c", "b", "a")
	companyID := testCompany
	users["d"] = user.User{ID: "d", CompanyID: &companyID, Role: user.RoleManager}
	svc, repo := newTestService(users, nil, company.Company{})

	updated, err := svc.Update(context.Background(), testCompany, user.UpdateUserRequest{
		ID:        "c",
		ManagerID: strPtr("d"),
	})
	require.NoError(t, err)

	assert.Equal(t, "c", updated.ID)
	require.NotNil(t, repo.users["c"].ManagerID)
	assert.Equal(t, "d", *repo.users["c"].ManagerID)
}

func TestUpdate_SelfLoopInStoredChainDetected(t *testing.T) {
	// Pre-existing bad data: b and c manage each other. Walking from b
	// must terminate with an error rather than loop.
	companyID := testCompany
	users := map[string]user.User{
		"a": {ID: "a", CompanyID: &companyID, Role: user.RoleManager},
		"b": {ID: "b", CompanyID: &companyID, Role: user.RoleManager, ManagerID: strPtr("c")},
		"c": {ID: "c", CompanyID: &companyID, Role: user.RoleManager, ManagerID: strPtr("b")},
	}
	svc, _ := newTestService(users, nil, company.Company{})

	_, err := svc.Update(context.Background(), testCompany, user.UpdateUserRequest{
		ID:        "a",
		ManagerID: strPtr("b"),
	})
	assert.ErrorIs(t, err, user.ErrCircularManagerRelationship)
}

func TestDelete_CompanyAdminUndeletable(t *testing.T) {
	companyID := testCompany
	adminID := "admin-1"
	svc, _ := newTestService(map[string]user.User{
		adminID: {ID: adminID, CompanyID: &companyID, Role: user.RoleAdmin},
	}, nil, company.Company{ID: testCompany, AdminUserID: &adminID})

	err := svc.Delete(context.Background(), adminID, testCompany)
	assert.ErrorIs(t, err, user.ErrCompanyAdminUndeletable)
}

func TestDelete_BlockedByDependencies(t *testing.T) {
	tests := []struct {
		name       string
		deps       user.Dependencies
		dependency string
	}{
		{"expenses", user.Dependencies{Expenses: 3}, "existing expense(s)"},
		{"approval steps", user.Dependencies{ApprovalSteps: 2}, "pending approval(s) as approver"},
		{"subordinates", user.Dependencies{Subordinates: 4}, "managed employee(s)"},
		{"rule mentions", user.Dependencies{RuleMentions: 1}, "approval rule mention(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			companyID := testCompany
			svc, _ := newTestService(map[string]user.User{
				"u-1": {ID: "u-1", CompanyID: &companyID, Role: user.RoleEmployee},
			}, map[string]user.Dependencies{"u-1": tt.deps}, company.Company{ID: testCompany})

			err := svc.Delete(context.Background(), "u-1", testCompany)

			var depErr *user.DependencyError
			require.ErrorAs(t, err, &depErr)
			assert.Equal(t, tt.dependency, depErr.Dependency)
		})
	}
}

func TestDelete_CleanUserRemoved(t *testing.T) {
	companyID := testCompany
	svc, repo := newTestService(map[string]user.User{
		"u-1": {ID: "u-1", CompanyID: &companyID, Role: user.RoleEmployee},
	}, nil, company.Company{ID: testCompany})

	err := svc.Delete(context.Background(), "u-1", testCompany)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1"}, repo.deleted)
}
