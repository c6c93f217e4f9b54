package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/igorsal/iam-dashboard/internal/models"
	"github.com/igorsal/iam-dashboard/internal/session"
	"github.com/igorsal/iam-dashboard/internal/web"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
	"github.com/igorsal/iam-dashboard/pkg/logger"
)

// recordingRenderer keeps the last rendered page and still executes the real
// templates so every view model is checked against its page
type recordingRenderer struct {
	real   *web.Renderer
	name   string
	status int
	page   web.Page
}

func newRecordingRenderer(t *testing.T) *recordingRenderer {
	t.Helper()
	real, err := web.New(logger.NewNop())
	require.NoError(t, err)
	return &recordingRenderer{real: real}
}

func (r *recordingRenderer) Render(w http.ResponseWriter, status int, name string, page web.Page) {
	r.name = name
	r.status = status
	r.page = page
	r.real.Render(w, status, name, page)
}

func formRequest(method, target string, form url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func withOperator(req *http.Request) *http.Request {
	sess := &session.Session{
		User:  models.Identity{ID: "u-1", FirstName: "Ada", Username: "ada"},
		Token: "tok-123",
	}
	return req.WithContext(session.NewContext(req.Context(), sess))
}

type fakeDomains struct {
	domains []models.Domain
	err     error
	listErr error
	// refreshErr is returned after an accepted mutation
	refreshErr error
	created []models.DomainInput
	updated []string
	deleted []string
	lastQ   models.ListQuery
}

func (f *fakeDomains) page(q models.ListQuery) *models.DomainsPage {
	return &models.DomainsPage{
		Domains:    f.domains,
		Pagination: models.Pagination{Total: len(f.domains), Page: q.Page, Limit: q.Limit, TotalPages: 1},
	}
}

func (f *fakeDomains) List(_ context.Context, q models.ListQuery) (*models.DomainsPage, error) {
	f.lastQ = q
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page(q), nil
}

func (f *fakeDomains) ListAll(context.Context) ([]models.Domain, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.domains, nil
}

func (f *fakeDomains) Create(_ context.Context, q models.ListQuery, in models.DomainInput) (*models.DomainsPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	f.domains = append(f.domains, models.Domain{DomainID: "d-new", Name: in.Name, Domain: in.Domain})
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.page(q), nil
}

func (f *fakeDomains) Update(_ context.Context, q models.ListQuery, id string, in models.DomainInput) (*models.DomainsPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.updated = append(f.updated, id)
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.page(q), nil
}

func (f *fakeDomains) Delete(_ context.Context, q models.ListQuery, id string) (*models.DomainsPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.deleted = append(f.deleted, id)
	return f.page(q), nil
}

type fakeRoles struct {
	roles      []models.Role
	err        error
	refreshErr error
	created    []models.RoleInput
}

func (f *fakeRoles) List(_ context.Context, domainID string, q models.ListQuery) (*models.RolesPage, error) {
	if domainID == "" {
		return nil, nil
	}
	return &models.RolesPage{
		Roles:      f.roles,
		Pagination: models.Pagination{Total: len(f.roles), Page: q.Page, Limit: q.Limit, TotalPages: 1},
	}, nil
}

func (f *fakeRoles) Create(ctx context.Context, domainID string, q models.ListQuery, in models.RoleInput) (*models.RolesPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	f.roles = append(f.roles, models.Role{ID: "r-new", DomainID: domainID, RoleName: in.RoleName, RoleClaims: in.RoleClaims})
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.List(ctx, domainID, q)
}

type fakeUsers struct {
	users      []models.User
	err        error
	refreshErr error
	created    []models.UserInput
	resets     map[string]string
}

func (f *fakeUsers) List(_ context.Context, domainID string, q models.ListQuery) (*models.UsersPage, error) {
	if domainID == "" {
		return nil, nil
	}
	return &models.UsersPage{
		Users:      f.users,
		Pagination: models.Pagination{Total: len(f.users), Page: q.Page, Limit: q.Limit, TotalPages: 1},
	}, nil
}

func (f *fakeUsers) Create(ctx context.Context, q models.ListQuery, in models.UserInput) (*models.UsersPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	f.users = append(f.users, models.User{ID: "usr-new", DomainID: in.DomainID, Username: in.Username, Email: in.Email})
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.List(ctx, in.DomainID, q)
}

func (f *fakeUsers) ResetPassword(_ context.Context, userID string, in models.PasswordReset) error {
	if f.err != nil {
		return f.err
	}
	if f.resets == nil {
		f.resets = map[string]string{}
	}
	f.resets[userID] = in.NewPassword
	return nil
}

func remoteError(op string) error {
	return pkgerrors.NewRemoteError(op, http.StatusInternalServerError, "Internal Server Error")
}

func refreshError(op string) error {
	return pkgerrors.NewRefreshError(remoteError(op))
}
