package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/models"
	"github.com/igorsal/iam-dashboard/internal/session"
	"github.com/igorsal/iam-dashboard/internal/web"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

const (
	// MaxBodySize caps form and JSON request bodies
	MaxBodySize = 1 << 20
)

// Renderer draws a named page; *web.Renderer satisfies it
type Renderer interface {
	Render(w http.ResponseWriter, status int, name string, page web.Page)
}

// newPage starts a page with the signed-in operator, if any
func newPage(r *http.Request, title, active string) web.Page {
	page := web.Page{Title: title, Active: active}
	if sess, ok := session.FromContext(r.Context()); ok {
		user := sess.User
		page.User = &user
	}
	return page
}

// parseForm limits the body size before reading form values
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := r.ParseForm(); err != nil {
		return pkgerrors.NewValidationError("invalid form submission").WithCause(err)
	}
	return nil
}

// listQuery reads search and page from the request. Limit stays at the
// default page size.
func listQuery(r *http.Request) models.ListQuery {
	page, _ := strconv.Atoi(r.FormValue("page"))
	return models.ListQuery{
		Search: strings.TrimSpace(r.FormValue("search")),
		Page:   page,
		Limit:  models.DefaultLimit,
	}.Normalized()
}

// pagerBase is the list URL without the page parameter
func pagerBase(path string, params map[string]string) string {
	v := url.Values{}
	for k, val := range params {
		v.Set(k, val)
	}
	return path + "?" + v.Encode()
}

// errorMessage is the operator facing text of err. Errors outside the
// AppError taxonomy are logged and replaced by a generic message.
func errorMessage(logger interfaces.Logger, err error) string {
	if appErr, ok := pkgerrors.AsAppError(err); ok {
		return appErr.Message
	}
	logger.Error("Unexpected handler error", err)
	return "Something went wrong. Please try again."
}

// refreshFailure splits a failed re-fetch from a rejected mutation. ok is set
// when the backend accepted the mutation; msg is then the list load error.
func refreshFailure(logger interfaces.Logger, err error) (msg string, ok bool) {
	if !pkgerrors.IsType(err, pkgerrors.ErrorTypeRefresh) {
		return "", false
	}
	return errorMessage(logger, err), true
}

func statusFor(err error) int {
	if appErr, ok := pkgerrors.AsAppError(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
