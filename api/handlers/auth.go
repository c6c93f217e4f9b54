package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
	"github.com/igorsal/iam-dashboard/internal/session"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

type AuthHandler struct {
	client    interfaces.IAMClient
	store     *session.Store
	renderer  Renderer
	logger    interfaces.Logger
	metrics   interfaces.MetricsCollector
	validator *validator.Validate
}

// LoginForm is the sign-in form; the domain id travels as X-NRM-DID
type LoginForm struct {
	DomainID string `validate:"required"`
	Username string `validate:"required"`
	Password string `validate:"required"`
}

// LoginView refills the form after a failed attempt. The password is never
// echoed back.
type LoginView struct {
	DomainID string
	Username string
}

func NewAuthHandler(client interfaces.IAMClient, store *session.Store, renderer Renderer, logger interfaces.Logger, metrics interfaces.MetricsCollector) *AuthHandler {
	return &AuthHandler{
		client:    client,
		store:     store,
		renderer:  renderer,
		logger:    logger,
		metrics:   metrics,
		validator: validator.New(),
	}
}

// LoginPage shows the sign-in form, or sends signed-in operators home
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.store.CheckAuth(w, r); ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.render(w, r, http.StatusOK, LoginView{}, "")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		h.render(w, r, http.StatusBadRequest, LoginView{}, errorMessage(h.logger, err))
		return
	}

	form := LoginForm{
		DomainID: strings.TrimSpace(r.PostFormValue("domain_id")),
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
	view := LoginView{DomainID: form.DomainID, Username: form.Username}

	if err := h.validator.Struct(form); err != nil {
		h.render(w, r, http.StatusBadRequest, view, "Please fill in all required fields")
		return
	}

	result, err := h.client.Login(r.Context(), form.DomainID, models.Credentials{
		Username: form.Username,
		Password: form.Password,
	})
	if err != nil {
		h.metrics.IncrementCounter("logins_total", map[string]string{"status": "failure"})
		h.render(w, r, statusFor(err), view, errorMessage(h.logger, err))
		return
	}

	if err := h.store.Login(w, result.User, result.Token); err != nil {
		h.render(w, r, http.StatusInternalServerError, view, errorMessage(h.logger, pkgerrors.WrapError(err, "Failed to start session")))
		return
	}

	h.metrics.IncrementCounter("logins_total", map[string]string{"status": "success"})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := session.FromContext(r.Context()); ok {
		h.logger.Info("Operator signed out", "user_id", sess.User.ID)
	}
	h.store.Logout(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, r *http.Request, status int, view LoginView, errMsg string) {
	page := newPage(r, "Sign in", "")
	page.Error = errMsg
	page.Content = view
	h.renderer.Render(w, status, "login", page)
}
