package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strings"

	"github.com/go-chi/chi/v5"
)

// listFiltersHandler lists every saved filter with its parts.
// @Summary List filters
// @Tags Filters
// @Produce json
// @Success 200 {array} models.URLFilter
// @Router /api/filters [get]
func listFiltersHandler(w http.ResponseWriter, r *http.Request) {
	filters, err := database.ListFilters()
	if err != nil {
		logger.Error("listFiltersHandler: Error listing filters: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, filters)
}

// createFilterHandler saves a new filter.
// @Summary Create filter
// @Tags Filters
// @Accept json
// @Produce json
// @Param filter body models.URLFilterCreateRequest true "Filter definition"
// @Success 201 {object} models.URLFilter
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/filters [post]
func createFilterHandler(w http.ResponseWriter, r *http.Request) {
	var req models.URLFilterCreateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := core.CreateFilter(req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnsupportedFilterProp):
			writeError(w, http.StatusBadRequest, err.Error())
		case strings.Contains(err.Error(), "already exists"):
			writeError(w, http.StatusConflict, err.Error())
		default:
			logger.Error("createFilterHandler: Error creating filter '%s': %v", req.Name, err)
			writeError(w, http.StatusInternalServerError, "Internal server error while creating filter")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func filterForSlug(w http.ResponseWriter, r *http.Request) (models.URLFilter, bool) {
	slug := chi.URLParam(r, "slug")
	f, err := database.GetFilterBySlug(slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, "Filter '"+slug+"' not found")
			return f, false
		}
		logger.Error("filterForSlug: Error loading filter '%s': %v", slug, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return f, false
	}
	return f, true
}

// getFilterHandler returns one filter.
// @Summary Get filter
// @Tags Filters
// @Produce json
// @Param slug path string true "Filter slug"
// @Success 200 {object} models.URLFilter
// @Router /api/filters/{slug} [get]
func getFilterHandler(w http.ResponseWriter, r *http.Request) {
	if f, ok := filterForSlug(w, r); ok {
		writeJSON(w, http.StatusOK, f)
	}
}

// filterURLsHandler runs a filter and returns the matching URLs ordered by address.
// @Summary URLs matching a filter
// @Tags Filters
// @Produce json
// @Param slug path string true "Filter slug"
// @Success 200 {array} models.URL
// @Router /api/filters/{slug}/urls [get]
func filterURLsHandler(w http.ResponseWriter, r *http.Request) {
	f, ok := filterForSlug(w, r)
	if !ok {
		return
	}
	urls, err := core.RunFilter(f)
	if err != nil {
		logger.Error("filterURLsHandler: Error running filter '%s': %v", f.Slug, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, urls)
}
