package handlers

import (
	"net/http"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
)

type DashboardHandler struct {
	catalog  interfaces.EndpointCatalog
	renderer Renderer
}

type DashboardView struct {
	BaseURL string
	// Tags lists the explorer sections
	Tags []string
}

func NewDashboardHandler(catalog interfaces.EndpointCatalog, renderer Renderer) *DashboardHandler {
	return &DashboardHandler{catalog: catalog, renderer: renderer}
}

func (h *DashboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	page := newPage(r, "Dashboard", "dashboard")
	page.Content = DashboardView{BaseURL: h.catalog.BaseURL(), Tags: h.catalog.Tags()}
	h.renderer.Render(w, http.StatusOK, "dashboard", page)
}
