package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
	pkgerrors "github.com/igorsal/iam-dashboard/pkg/errors"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Code    string         `json:"code,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// WriteJSONError writes err as a structured JSON error. Errors outside the
// AppError taxonomy are reported as internal without leaking their text.
func WriteJSONError(w http.ResponseWriter, r *http.Request, logger interfaces.Logger, err error) {
	statusCode := http.StatusInternalServerError
	errorResp := ErrorResponse{
		Error: ErrorDetail{
			Type:    string(pkgerrors.ErrorTypeInternal),
			Message: "Internal server error",
		},
	}

	if appErr, ok := pkgerrors.AsAppError(err); ok {
		statusCode = appErr.StatusCode
		errorResp.Error = ErrorDetail{
			Type:    string(appErr.Type),
			Message: appErr.Message,
			Code:    appErr.Code,
			Context: appErr.Context,
		}
	}

	logger.Error("Request error",
		err,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"status_code", statusCode,
		"error_type", errorResp.Error.Type,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(errorResp); err != nil {
		logger.Error("Failed to encode error response", err)
	}
}

// PanicRecoveryMiddleware recovers from panics and converts them to errors
func PanicRecoveryMiddleware(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovery := recover(); recovery != nil {
					logger.Error("Panic recovered",
						pkgerrors.NewInternalError("panic recovered"),
						"method", r.Method,
						"path", r.URL.Path,
						"remote_addr", r.RemoteAddr,
						"panic", recovery,
					)

					if wantsJSON(r) {
						WriteJSONError(w, r, logger, pkgerrors.NewInternalError("Internal server error"))
						return
					}
					http.Error(w, "Internal server error", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
