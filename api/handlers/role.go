package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

type RoleHandler struct {
	roles    interfaces.RoleService
	domains  interfaces.DomainService
	renderer Renderer
	logger   interfaces.Logger
}

// RoleDraft keeps the create form values across a failed submission
type RoleDraft struct {
	RoleName   string
	RoleClaims string
}

type RoleView struct {
	Domains      []models.Domain
	DomainsError string
	DomainID     string
	Query        models.ListQuery
	Page         *models.RolesPage
	LoadError    string
	Draft        RoleDraft
	PagerBase    string
}

func NewRoleHandler(roles interfaces.RoleService, domains interfaces.DomainService, renderer Renderer, logger interfaces.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, domains: domains, renderer: renderer, logger: logger}
}

func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	view := h.newView(r)
	h.load(r, &view)
	h.render(w, r, http.StatusOK, view, "", "")
}

// Create parses the claims JSON locally; an unparseable document blocks the
// call and is reported inline
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)
	view.Draft = RoleDraft{
		RoleName:   strings.TrimSpace(r.FormValue("role_name")),
		RoleClaims: r.FormValue("role_claims"),
	}

	claims, err := parseClaims(view.Draft.RoleClaims)
	if err != nil {
		h.fail(w, r, view, err)
		return
	}

	page, err := h.roles.Create(r.Context(), view.DomainID, view.Query, models.RoleInput{
		RoleName:   view.Draft.RoleName,
		RoleClaims: claims,
	})
	loadErr, accepted := refreshFailure(h.logger, err)
	if err != nil && !accepted {
		h.fail(w, r, view, err)
		return
	}

	notice := "Role " + view.Draft.RoleName + " created."
	view.Draft = RoleDraft{}
	view.Page = page
	view.LoadError = loadErr
	view.Domains, view.DomainsError = h.pickerDomains(r)
	h.render(w, r, http.StatusOK, view, notice, "")
}

// parseClaims accepts an empty string as no claims. Anything else must be a
// JSON object.
func parseClaims(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}
	var claims map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, pkgerrors.NewMalformedInputError("Invalid JSON format for role claims").WithCause(err)
	}
	if claims == nil {
		claims = map[string]interface{}{}
	}
	return claims, nil
}

func (h *RoleHandler) fail(w http.ResponseWriter, r *http.Request, view RoleView, err error) {
	h.load(r, &view)
	h.render(w, r, statusFor(err), view, "", errorMessage(h.logger, err))
}

// load fills the domain picker and the role list of the selected domain
func (h *RoleHandler) load(r *http.Request, view *RoleView) {
	view.Domains, view.DomainsError = h.pickerDomains(r)

	page, err := h.roles.List(r.Context(), view.DomainID, view.Query)
	if err != nil {
		view.LoadError = errorMessage(h.logger, err)
	}
	view.Page = page
}

func (h *RoleHandler) pickerDomains(r *http.Request) ([]models.Domain, string) {
	domains, err := h.domains.ListAll(r.Context())
	if err != nil {
		return nil, errorMessage(h.logger, err)
	}
	return domains, ""
}

func (h *RoleHandler) newView(r *http.Request) RoleView {
	domainID := strings.TrimSpace(r.FormValue("domain"))
	return RoleView{
		DomainID:  domainID,
		Query:     listQuery(r),
		PagerBase: pagerBase("/role", map[string]string{"domain": domainID}),
	}
}

func (h *RoleHandler) render(w http.ResponseWriter, r *http.Request, status int, view RoleView, notice, errMsg string) {
	page := newPage(r, "Roles", "role")
	page.Notice = notice
	page.Error = errMsg
	page.Content = view
	h.renderer.Render(w, status, "role", page)
}
