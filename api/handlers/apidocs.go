package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-playground/validator/v10"

	"github.com/igorsal/iam-dashboard/api/middleware"
	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
	"github.com/igorsal/iam-dashboard/internal/tester"
	"github.com/igorsal/iam-dashboard/internal/web"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

// inputPrefix marks explorer form fields carrying parameter values
const inputPrefix = "in."

type APIDocsHandler struct {
	catalog   interfaces.EndpointCatalog
	tester    interfaces.RequestTester
	document  *openapi3.T
	renderer  Renderer
	logger    interfaces.Logger
	origin    string
	corsMode  bool
	validator *validator.Validate
}

type EndpointView struct {
	Endpoint models.EndpointDescriptor
	Key      string
	URL      string
	Inputs   map[string]string
	Result   *models.TestOutcome
	// Section is set on the first endpoint of each tag
	Section string
}

type APIDocsView struct {
	BaseURL   string
	Origin    string
	CORSMode  bool
	Endpoints []EndpointView
}

// RunRequest is the body of the JSON run endpoint. Inputs are merged into
// the workspace before the run, so the page shows them afterwards.
type RunRequest struct {
	Method string            `json:"method" validate:"required,oneof=GET POST PUT DELETE"`
	Path   string            `json:"path" validate:"required,startswith=/"`
	Inputs map[string]string `json:"inputs"`
}

type RunResponse struct {
	Key     string             `json:"key"`
	Outcome models.TestOutcome `json:"outcome"`
}

func NewAPIDocsHandler(catalog interfaces.EndpointCatalog, t interfaces.RequestTester, document *openapi3.T, renderer Renderer, logger interfaces.Logger, origin string, corsMode bool) *APIDocsHandler {
	return &APIDocsHandler{
		catalog:   catalog,
		tester:    t,
		document:  document,
		renderer:  renderer,
		logger:    logger,
		origin:    origin,
		corsMode:  corsMode,
		validator: validator.New(),
	}
}

// Page renders every catalog entry with the workspace's inputs and results
func (h *APIDocsHandler) Page(w http.ResponseWriter, r *http.Request) {
	ws, _ := middleware.WorkspaceFromContext(r.Context())
	h.renderPage(w, r, http.StatusOK, ws, "")
}

// Test stores the submitted inputs, runs the endpoint and redirects back to
// its card
func (h *APIDocsHandler) Test(w http.ResponseWriter, r *http.Request) {
	ws, ok := middleware.WorkspaceFromContext(r.Context())
	if !ok {
		h.renderPage(w, r, http.StatusInternalServerError, nil, "Explorer workspace unavailable")
		return
	}
	if err := parseForm(w, r); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, ws, errorMessage(h.logger, err))
		return
	}

	endpoint, found := h.catalog.Lookup(r.FormValue("method"), r.FormValue("path"))
	if !found {
		h.renderPage(w, r, http.StatusNotFound, ws, "Unknown endpoint "+r.FormValue("method")+" "+r.FormValue("path"))
		return
	}

	key := endpoint.Key()
	for _, p := range endpoint.Parameters {
		if values, present := r.PostForm[inputPrefix+p.InputName()]; present && len(values) > 0 {
			ws.SetInput(key, p.InputName(), values[0])
		}
	}

	ws.Run(r.Context(), h.tester, endpoint)

	http.Redirect(w, r, "/api-docs#"+web.Anchor(key), http.StatusSeeOther)
}

// Run is the JSON variant of Test
func (h *APIDocsHandler) Run(w http.ResponseWriter, r *http.Request) {
	ws, ok := middleware.WorkspaceFromContext(r.Context())
	if !ok {
		middleware.WriteJSONError(w, r, h.logger, pkgerrors.NewInternalError("explorer workspace unavailable"))
		return
	}

	var req RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodySize)).Decode(&req); err != nil {
		middleware.WriteJSONError(w, r, h.logger, pkgerrors.NewValidationError("invalid request body").WithCause(err))
		return
	}
	req.Method = strings.ToUpper(req.Method)
	if err := h.validator.Struct(req); err != nil {
		middleware.WriteJSONError(w, r, h.logger, pkgerrors.NewValidationError("validation failed: "+err.Error()))
		return
	}

	endpoint, found := h.catalog.Lookup(req.Method, req.Path)
	if !found {
		middleware.WriteJSONError(w, r, h.logger, pkgerrors.NewNotFoundError("endpoint not in catalog").
			WithContext("key", models.EndpointKey(req.Method, req.Path)))
		return
	}

	key := endpoint.Key()
	for name, value := range req.Inputs {
		ws.SetInput(key, name, value)
	}
	outcome := ws.Run(r.Context(), h.tester, endpoint)

	writeJSON(w, http.StatusOK, RunResponse{Key: key, Outcome: outcome}, h.logger)
}

// OpenAPI serves the catalog as an OpenAPI 3 document
func (h *APIDocsHandler) OpenAPI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.document, h.logger)
}

func (h *APIDocsHandler) renderPage(w http.ResponseWriter, r *http.Request, status int, ws *tester.Workspace, errMsg string) {
	view := APIDocsView{
		BaseURL:  h.catalog.BaseURL(),
		Origin:   h.origin,
		CORSMode: h.corsMode,
	}
	sections := make(map[string]bool)
	for _, e := range h.catalog.Endpoints() {
		ev := EndpointView{
			Endpoint: e,
			Key:      e.Key(),
			URL:      h.catalog.BaseURL() + e.Path,
			Inputs:   map[string]string{},
		}
		if len(e.Tags) > 0 && !sections[e.Tags[0]] {
			sections[e.Tags[0]] = true
			ev.Section = e.Tags[0]
		}
		if ws != nil {
			ev.Inputs = ws.Inputs(ev.Key)
			if outcome, ok := ws.Result(ev.Key); ok {
				ev.Result = &outcome
			}
		}
		view.Endpoints = append(view.Endpoints, ev)
	}

	page := newPage(r, "API Documentation", "api")
	page.Error = errMsg
	page.Content = view
	h.renderer.Render(w, status, "api", page)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}, logger interfaces.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", err)
	}
}
