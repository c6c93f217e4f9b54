package middleware

import (
	"context"
	"net/http"

	"github.com/igorsal/iam-dashboard/internal/services"
	"github.com/igorsal/iam-dashboard/internal/tester"
)

const WorkspaceCookie = "explorer_ws"

type workspaceKey struct{}

// Workspace binds each browser to its explorer workspace through a cookie,
// issuing a new one when the cookie is missing or the workspace has expired
func Workspace(registry *services.WorkspaceRegistry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(WorkspaceCookie); err == nil {
				id = c.Value
			}

			ws, created := registry.Acquire(id)
			if created {
				http.SetCookie(w, &http.Cookie{
					Name:     WorkspaceCookie,
					Value:    ws.ID,
					Path:     "/",
					Secure:   secure,
					HttpOnly: true,
					SameSite: http.SameSiteStrictMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), workspaceKey{}, ws)))
		})
	}
}

// ReleaseWorkspace drops the browser's workspace and expires its cookie
// before handing over to next
func ReleaseWorkspace(registry *services.WorkspaceRegistry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(WorkspaceCookie); err == nil {
				registry.Discard(c.Value)
				http.SetCookie(w, &http.Cookie{
					Name:     WorkspaceCookie,
					Value:    "",
					Path:     "/",
					MaxAge:   -1,
					Secure:   secure,
					HttpOnly: true,
					SameSite: http.SameSiteStrictMode,
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WorkspaceFromContext returns the workspace bound by Workspace
func WorkspaceFromContext(ctx context.Context) (*tester.Workspace, bool) {
	ws, ok := ctx.Value(workspaceKey{}).(*tester.Workspace)
	return ws, ok && ws != nil
}
