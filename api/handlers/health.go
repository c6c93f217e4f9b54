package handlers

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/igorsal/iam-dashboard/internal/interfaces"
)

type HealthHandler struct {
	logger     interfaces.Logger
	baseURL    string
	workspaces func() int
}

type HealthResponse struct {
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	Backend    string `json:"backend"`
	Workspaces int    `json:"workspaces"`
}

// NewHealthHandler creates a new health handler. workspaces reports the
// number of live explorer workspaces.
func NewHealthHandler(logger interfaces.Logger, baseURL string, workspaces func() int) *HealthHandler {
	return &HealthHandler{
		logger:     logger,
		baseURL:    baseURL,
		workspaces: workspaces,
	}
}

// Handle processes health check requests
func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:     "healthy",
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Version:    getVersion(),
		Backend:    h.baseURL,
		Workspaces: h.workspaces(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode health response", err)
		return
	}

	h.logger.Debug("Health check completed successfully")
}

// getVersion returns build version information
func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				if len(setting.Value) > 7 {
					return setting.Value[:7]
				}
				return setting.Value
			}
		}

		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			return info.Main.Version
		}
	}

	return "dev"
}
