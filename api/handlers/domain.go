package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
)

type DomainHandler struct {
	domains  interfaces.DomainService
	renderer Renderer
	logger   interfaces.Logger
}

// DomainView is the content of the domain page
type DomainView struct {
	Query     models.ListQuery
	Page      *models.DomainsPage
	LoadError string
	Draft     models.DomainInput
	Selected  *models.Domain
	// Mode is "view" or "edit" when a domain is selected
	Mode      string
	PagerBase string
}

func NewDomainHandler(domains interfaces.DomainService, renderer Renderer, logger interfaces.Logger) *DomainHandler {
	return &DomainHandler{domains: domains, renderer: renderer, logger: logger}
}

// List renders one page of domains, optionally with one opened for viewing
// or editing
func (h *DomainHandler) List(w http.ResponseWriter, r *http.Request) {
	view := h.newView(r)
	page, err := h.domains.List(r.Context(), view.Query)
	if err != nil {
		view.LoadError = errorMessage(h.logger, err)
	}
	view.Page = page

	if id := r.FormValue("edit"); id != "" {
		view.Mode = "edit"
		view.Selected = findDomain(page, id)
	} else if id := r.FormValue("view"); id != "" {
		view.Mode = "view"
		view.Selected = findDomain(page, id)
	}

	h.render(w, r, http.StatusOK, view, "", "")
}

func (h *DomainHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)
	in := domainInput(r)

	page, err := h.domains.Create(r.Context(), view.Query, in)
	loadErr, accepted := refreshFailure(h.logger, err)
	if err != nil && !accepted {
		view.Draft = in
		h.fail(w, r, view, err)
		return
	}

	view.Page = page
	view.LoadError = loadErr
	h.render(w, r, http.StatusOK, view, "Domain "+in.Name+" added.", "")
}

func (h *DomainHandler) Update(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)
	id := mux.Vars(r)["id"]
	in := domainInput(r)

	page, err := h.domains.Update(r.Context(), view.Query, id, in)
	loadErr, accepted := refreshFailure(h.logger, err)
	if err != nil && !accepted {
		view.Mode = "edit"
		view.Selected = &models.Domain{DomainID: id, Name: in.Name, Domain: in.Domain}
		h.fail(w, r, view, err)
		return
	}

	view.Page = page
	view.LoadError = loadErr
	h.render(w, r, http.StatusOK, view, "Domain updated.", "")
}

func (h *DomainHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.fail(w, r, h.newView(r), err)
		return
	}
	view := h.newView(r)

	page, err := h.domains.Delete(r.Context(), view.Query, mux.Vars(r)["id"])
	loadErr, accepted := refreshFailure(h.logger, err)
	if err != nil && !accepted {
		h.fail(w, r, view, err)
		return
	}

	view.Page = page
	view.LoadError = loadErr
	h.render(w, r, http.StatusOK, view, "Domain deleted.", "")
}

// fail renders the alert for err above a freshly loaded list
func (h *DomainHandler) fail(w http.ResponseWriter, r *http.Request, view DomainView, err error) {
	page, listErr := h.domains.List(r.Context(), view.Query)
	if listErr != nil {
		view.LoadError = errorMessage(h.logger, listErr)
	}
	view.Page = page
	h.render(w, r, statusFor(err), view, "", errorMessage(h.logger, err))
}

func (h *DomainHandler) newView(r *http.Request) DomainView {
	q := listQuery(r)
	return DomainView{
		Query:     q,
		PagerBase: pagerBase("/domain", map[string]string{"search": q.Search}),
	}
}

func (h *DomainHandler) render(w http.ResponseWriter, r *http.Request, status int, view DomainView, notice, errMsg string) {
	page := newPage(r, "Domains", "domain")
	page.Notice = notice
	page.Error = errMsg
	page.Content = view
	h.renderer.Render(w, status, "domain", page)
}

func domainInput(r *http.Request) models.DomainInput {
	return models.DomainInput{
		Name:   strings.TrimSpace(r.FormValue("name")),
		Domain: strings.TrimSpace(r.FormValue("domain")),
	}
}

func findDomain(page *models.DomainsPage, id string) *models.Domain {
	if page == nil {
		return nil
	}
	for i := range page.Domains {
		if page.Domains[i].DomainID == id {
			return &page.Domains[i]
		}
	}
	return nil
}
