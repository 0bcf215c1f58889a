package handlers

import (
	"net/http"
	"pagelab/version"
	"runtime"

	"github.com/go-chi/chi/v5"
)

func RegisterVersionRoutes(r chi.Router) {
	r.Get("/version", GetVersionHandler)
}

// GetVersionHandler reports the build version and the Go runtime it was built with.
// @Summary Get application version
// @Tags Version
// @Produce json
// @Success 200 {object} map[string]string "{"version": "v1.2.0", "go": "go1.24.0"}"
// @Router /api/version [get]
func GetVersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": version.AppVersion,
		"go":      runtime.Version(),
	})
}
