package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type UserHandler struct {
	users    interfaces.UserService
	roles    interfaces.RoleService
	domains  interfaces.DomainService
	renderer Renderer
	logger   interfaces.Logger
}

type UserView struct {
	Domains      []models.Domain
	DomainsError string
	DomainID     string
	Roles        []models.Role
	Query        models.ListQuery
	Page         *models.UsersPage
	LoadError    string
	Draft        models.UserInput
	ResetUserID  string
	PagerBase    string
}

func NewUserHandler(users interfaces.UserService, roles interfaces.RoleService, domains interfaces.DomainService, renderer Renderer, logger interfaces.Logger) *UserHandler {
	return &UserHandler{users: users, roles: roles, domains: domains, renderer: renderer, logger: logger}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	view := h.newView(r)
	view.ResetUserID = strings.TrimSpace(r.FormValue("reset"))
	h.load(r, &view, true)
	h.render(w, r, http.StatusOK, view, "", "")
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)
	in := models.UserInput{
		DomainID:  view.DomainID,
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Password:  strings.TrimSpace(r.FormValue("password")),
		RoleID:    r.FormValue("role_id"),
		Username:  strings.TrimSpace(r.FormValue("username")),
	}

	page, err := h.users.Create(r.Context(), view.Query, in)
	loadErr, accepted := refreshFailure(h.logger, err)
	if err != nil && !accepted {
		in.Password = ""
		view.Draft = in
		h.fail(w, r, view, err)
		return
	}

	view.Page = page
	view.LoadError = loadErr
	h.load(r, &view, false)
	h.render(w, r, http.StatusOK, view, "User created successfully!", "")
}

func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)
	userID := mux.Vars(r)["id"]

	err := h.users.ResetPassword(r.Context(), userID, models.PasswordReset{
		NewPassword: strings.TrimSpace(r.FormValue("new_password")),
	})
	if err != nil {
		view.ResetUserID = userID
		h.fail(w, r, view, err)
		return
	}

	h.load(r, &view, true)
	h.render(w, r, http.StatusOK, view, "Password reset successfully!", "")
}

func (h *UserHandler) fail(w http.ResponseWriter, r *http.Request, view UserView, err error) {
	h.load(r, &view, true)
	h.render(w, r, statusFor(err), view, "", errorMessage(h.logger, err))
}

// load fills the pickers and, when withList is set, the user list
func (h *UserHandler) load(r *http.Request, view *UserView, withList bool) {
	ctx := r.Context()

	domains, err := h.domains.ListAll(ctx)
	if err != nil {
		view.DomainsError = errorMessage(h.logger, err)
	}
	view.Domains = domains

	roles, err := h.roles.List(ctx, view.DomainID, models.ListQuery{Page: 1, Limit: models.PickerLimit})
	if err != nil {
		h.logger.Warn("Failed to load roles for user form", "domain_id", view.DomainID, "error", err.Error())
	} else if roles != nil {
		view.Roles = roles.Roles
	}

	if !withList {
		return
	}
	page, err := h.users.List(ctx, view.DomainID, view.Query)
	if err != nil {
		view.LoadError = errorMessage(h.logger, err)
	}
	view.Page = page
}

func (h *UserHandler) newView(r *http.Request) UserView {
	domainID := strings.TrimSpace(r.FormValue("domain"))
	q := listQuery(r)
	return UserView{
		DomainID:  domainID,
		Query:     q,
		PagerBase: pagerBase("/user", map[string]string{"domain": domainID, "search": q.Search}),
	}
}

func (h *UserHandler) render(w http.ResponseWriter, r *http.Request, status int, view UserView, notice, errMsg string) {
	page := newPage(r, "Users", "user")
	page.Notice = notice
	page.Error = errMsg
	page.Content = view
	h.renderer.Render(w, status, "user", page)
}
