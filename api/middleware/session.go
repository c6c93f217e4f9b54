package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	"github.com/igorsal/iam-dashboard/internal/session"
	"github.com/igorsal/iam-dashboard/io/iam"
)

const LoginPath = "/login"

// SessionGuard restores the operator session from cookies. Unauthenticated
// page requests are redirected to the login page; JSON requests get 401.
// The session and its token are attached to the request context so backend
// calls carry the bearer credential.
func SessionGuard(store *session.Store, logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := store.CheckAuth(w, r)
			if !ok {
				if r.URL.Path == LoginPath {
					next.ServeHTTP(w, r)
					return
				}
				if wantsJSON(r) {
					writeUnauthorizedResponse(w, "authentication required", logger)
					return
				}
				http.Redirect(w, r, LoginPath, http.StatusFound)
				return
			}

			ctx := session.NewContext(r.Context(), sess)
			ctx = iam.WithToken(ctx, sess.Token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func writeUnauthorizedResponse(w http.ResponseWriter, message string, logger interfaces.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	response := map[string]string{
		"error": message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Error("Failed to write unauthorized response", err)
	}
}
