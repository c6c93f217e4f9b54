package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/igorsal/iam-dashboard/internal/models"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
	"github.com/igorsal/iam-dashboard/pkg/logger"
)

func TestDomainListSelectsForEdit(t *testing.T) {
	domains := &fakeDomains{domains: []models.Domain{
		{DomainID: "d-1", Name: "Acme", Domain: "acme.io"},
		{DomainID: "d-2", Name: "Globex", Domain: "globex.com"},
	}}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, withOperator(httptest.NewRequest(http.MethodGet, "/domain?search=ac&page=2&edit=d-2", nil)))

	require.Equal(t, http.StatusOK, rec.Code)
	view := rr.page.Content.(DomainView)
	assert.Equal(t, models.ListQuery{Search: "ac", Page: 2, Limit: models.DefaultLimit}, domains.lastQ)
	assert.Equal(t, "edit", view.Mode)
	require.NotNil(t, view.Selected)
	assert.Equal(t, "Globex", view.Selected.Name)
	assert.Contains(t, rec.Body.String(), `action="/domain/d-2"`)
}

func TestDomainListLoadError(t *testing.T) {
	domains := &fakeDomains{listErr: pkgerrors.NewRemoteError("fetch domains", 503, "Service Unavailable")}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, withOperator(httptest.NewRequest(http.MethodGet, "/domain", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Failed to fetch domains: Service Unavailable")
}

func TestDomainCreateRendersRefetchedList(t *testing.T) {
	domains := &fakeDomains{}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/domain", url.Values{
		"name":   {" Acme "},
		"domain": {"acme.io"},
		"page":   {"1"},
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, domains.created, 1)
	assert.Equal(t, models.DomainInput{Name: "Acme", Domain: "acme.io"}, domains.created[0])
	assert.Equal(t, "Domain Acme added.", rr.page.Notice)
	assert.Contains(t, rec.Body.String(), "acme.io")
}

func TestDomainCreateFailureKeepsDraft(t *testing.T) {
	domains := &fakeDomains{err: pkgerrors.NewValidationError("Please fill in all required fields: domain")}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/domain", url.Values{"name": {"Acme"}})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please fill in all required fields: domain", rr.page.Error)
	assert.Equal(t, "Acme", rr.page.Content.(DomainView).Draft.Name)
}

func TestDomainCreateAcceptedDespiteFailedRefetch(t *testing.T) {
	domains := &fakeDomains{refreshErr: refreshError("fetch domains")}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/domain", url.Values{
		"name":   {"Acme"},
		"domain": {"acme.io"},
	})))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, domains.created, 1)
	assert.Equal(t, "Domain Acme added.", rr.page.Notice)
	assert.Empty(t, rr.page.Error)

	view := rr.page.Content.(DomainView)
	assert.Equal(t, models.DomainInput{}, view.Draft)
	assert.Equal(t, "Failed to fetch domains: Internal Server Error", view.LoadError)
	assert.Contains(t, rec.Body.String(), "Failed to fetch domains: Internal Server Error")
}

func TestDomainUpdateAcceptedDespiteFailedRefetch(t *testing.T) {
	domains := &fakeDomains{refreshErr: refreshError("fetch domains")}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	req := formRequest(http.MethodPost, "/domain/d-1", url.Values{"name": {"Acme"}, "domain": {"acme.io"}})
	rec := httptest.NewRecorder()
	h.Update(rec, withOperator(mux.SetURLVars(req, map[string]string{"id": "d-1"})))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Domain updated.", rr.page.Notice)
	view := rr.page.Content.(DomainView)
	assert.Empty(t, view.Mode)
	assert.Nil(t, view.Selected)
	assert.Equal(t, "Failed to fetch domains: Internal Server Error", view.LoadError)
}

func TestDomainUpdateAndDelete(t *testing.T) {
	domains := &fakeDomains{domains: []models.Domain{{DomainID: "d-1", Name: "Acme", Domain: "acme.io"}}}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	update := formRequest(http.MethodPost, "/domain/d-1", url.Values{"name": {"Acme Inc"}, "domain": {"acme.io"}})
	rec := httptest.NewRecorder()
	h.Update(rec, withOperator(mux.SetURLVars(update, map[string]string{"id": "d-1"})))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d-1"}, domains.updated)
	assert.Equal(t, "Domain updated.", rr.page.Notice)

	del := formRequest(http.MethodPost, "/domain/d-1/delete", url.Values{})
	rec = httptest.NewRecorder()
	h.Delete(rec, withOperator(mux.SetURLVars(del, map[string]string{"id": "d-1"})))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d-1"}, domains.deleted)
	assert.Equal(t, "Domain deleted.", rr.page.Notice)
}

func TestDomainUpdateFailureReopensEditor(t *testing.T) {
	domains := &fakeDomains{err: remoteError("update domain")}
	rr := newRecordingRenderer(t)
	h := NewDomainHandler(domains, rr, logger.NewNop())

	req := formRequest(http.MethodPost, "/domain/d-1", url.Values{"name": {"Acme"}, "domain": {"acme.io"}})
	rec := httptest.NewRecorder()
	h.Update(rec, withOperator(mux.SetURLVars(req, map[string]string{"id": "d-1"})))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to update domain: Internal Server Error", rr.page.Error)
	view := rr.page.Content.(DomainView)
	assert.Equal(t, "edit", view.Mode)
	require.NotNil(t, view.Selected)
	assert.Equal(t, "d-1", view.Selected.DomainID)
}

func TestRoleListWithoutDomainPrompts(t *testing.T) {
	rr := newRecordingRenderer(t)
	h := NewRoleHandler(&fakeRoles{}, &fakeDomains{domains: []models.Domain{{DomainID: "d-1", Name: "Acme"}}}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, withOperator(httptest.NewRequest(http.MethodGet, "/role", nil)))

	assert.Equal(t, http.StatusOK, rec.Code)
	view := rr.page.Content.(RoleView)
	assert.Nil(t, view.Page)
	assert.Len(t, view.Domains, 1)
	assert.Contains(t, rec.Body.String(), "Select a domain to manage its roles.")
}

func TestRoleCreateInvalidClaimsBlocksCall(t *testing.T) {
	roles := &fakeRoles{}
	rr := newRecordingRenderer(t)
	h := NewRoleHandler(roles, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/role", url.Values{
		"domain":      {"d-1"},
		"role_name":   {"admin"},
		"role_claims": {`{"users": [`},
	})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, roles.created)
	assert.Equal(t, "Invalid JSON format for role claims", rr.page.Error)
	assert.Equal(t, `{"users": [`, rr.page.Content.(RoleView).Draft.RoleClaims)
}

func TestRoleCreate(t *testing.T) {
	roles := &fakeRoles{}
	rr := newRecordingRenderer(t)
	h := NewRoleHandler(roles, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/role", url.Values{
		"domain":      {"d-1"},
		"role_name":   {"admin"},
		"role_claims": {`{"users": ["read", "write"]}`},
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, roles.created, 1)
	assert.Equal(t, map[string]interface{}{"users": []interface{}{"read", "write"}}, roles.created[0].RoleClaims)
	assert.Equal(t, "Role admin created.", rr.page.Notice)
	assert.Empty(t, rr.page.Content.(RoleView).Draft.RoleName)
	assert.Contains(t, rec.Body.String(), "admin")
}

func TestRoleCreateAcceptedDespiteFailedRefetch(t *testing.T) {
	roles := &fakeRoles{refreshErr: refreshError("fetch roles")}
	rr := newRecordingRenderer(t)
	h := NewRoleHandler(roles, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/role", url.Values{
		"domain":      {"d-1"},
		"role_name":   {"admin"},
		"role_claims": {`{"users": ["read"]}`},
	})))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, roles.created, 1)
	assert.Equal(t, "Role admin created.", rr.page.Notice)
	view := rr.page.Content.(RoleView)
	assert.Equal(t, RoleDraft{}, view.Draft)
	assert.Equal(t, "Failed to fetch roles: Internal Server Error", view.LoadError)
}

func TestParseClaims(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]interface{}
		wantErr bool
	}{
		{name: "empty", raw: "  ", want: map[string]interface{}{}},
		{name: "null", raw: "null", want: map[string]interface{}{}},
		{name: "object", raw: `{"a": true}`, want: map[string]interface{}{"a": true}},
		{name: "array", raw: `[1]`, wantErr: true},
		{name: "broken", raw: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClaims(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsType(err, pkgerrors.ErrorTypeMalformedInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserCreateFailureDropsPassword(t *testing.T) {
	users := &fakeUsers{err: remoteError("create user")}
	rr := newRecordingRenderer(t)
	h := NewUserHandler(users, &fakeRoles{}, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/user", url.Values{
		"domain":   {"d-1"},
		"email":    {"ada@example.com"},
		"username": {"ada"},
		"password": {"s3cret"},
	})))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to create user: Internal Server Error", rr.page.Error)
	draft := rr.page.Content.(UserView).Draft
	assert.Equal(t, "ada", draft.Username)
	assert.Empty(t, draft.Password)
	assert.NotContains(t, rec.Body.String(), "s3cret")
}

func TestUserCreate(t *testing.T) {
	users := &fakeUsers{}
	roles := &fakeRoles{roles: []models.Role{{ID: "r-1", RoleName: "viewer"}}}
	rr := newRecordingRenderer(t)
	h := NewUserHandler(users, roles, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/user", url.Values{
		"domain":   {"d-1"},
		"email":    {"ada@example.com"},
		"username": {"ada"},
		"password": {"s3cret"},
		"role_id":  {"r-1"},
	})))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, users.created, 1)
	assert.Equal(t, "d-1", users.created[0].DomainID)
	assert.Equal(t, "r-1", users.created[0].RoleID)
	assert.Equal(t, "User created successfully!", rr.page.Notice)

	view := rr.page.Content.(UserView)
	require.NotNil(t, view.Page)
	assert.Len(t, view.Page.Users, 1)
	assert.Len(t, view.Roles, 1)
}

func TestUserCreateAcceptedDespiteFailedRefetch(t *testing.T) {
	users := &fakeUsers{refreshErr: refreshError("fetch users")}
	rr := newRecordingRenderer(t)
	h := NewUserHandler(users, &fakeRoles{}, &fakeDomains{}, rr, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Create(rec, withOperator(formRequest(http.MethodPost, "/user", url.Values{
		"domain":   {"d-1"},
		"email":    {"ada@example.com"},
		"username": {"ada"},
		"password": {"s3cret"},
	})))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, users.created, 1)
	assert.Equal(t, "User created successfully!", rr.page.Notice)
	view := rr.page.Content.(UserView)
	assert.Equal(t, models.UserInput{}, view.Draft)
	assert.Equal(t, "Failed to fetch users: Internal Server Error", view.LoadError)
	assert.NotContains(t, rec.Body.String(), "s3cret")
}

func TestUserResetPassword(t *testing.T) {
	users := &fakeUsers{}
	rr := newRecordingRenderer(t)
	h := NewUserHandler(users, &fakeRoles{}, &fakeDomains{}, rr, logger.NewNop())

	req := formRequest(http.MethodPost, "/user/usr-1/reset-password", url.Values{
		"domain":       {"d-1"},
		"new_password": {"n3w"},
	})
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, withOperator(mux.SetURLVars(req, map[string]string{"id": "usr-1"})))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{"usr-1": "n3w"}, users.resets)
	assert.Equal(t, "Password reset successfully!", rr.page.Notice)
	assert.Empty(t, rr.page.Content.(UserView).ResetUserID)
}

func TestUserResetPasswordFailureKeepsForm(t *testing.T) {
	users := &fakeUsers{err: pkgerrors.NewValidationError("Please fill in all required fields: new password")}
	rr := newRecordingRenderer(t)
	h := NewUserHandler(users, &fakeRoles{}, &fakeDomains{}, rr, logger.NewNop())

	req := formRequest(http.MethodPost, "/user/usr-1/reset-password", url.Values{"domain": {"d-1"}})
	rec := httptest.NewRecorder()
	h.ResetPassword(rec, withOperator(mux.SetURLVars(req, map[string]string{"id": "usr-1"})))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "usr-1", rr.page.Content.(UserView).ResetUserID)
	assert.Contains(t, rec.Body.String(), `action="/user/usr-1/reset-password"`)
}
