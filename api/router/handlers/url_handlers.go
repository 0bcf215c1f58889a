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
)

// listURLsHandler lists tracked URLs; inactive ones only with ?all=true.
// @Summary List URLs
// @Tags URLs
// @Produce json
// @Param all query bool false "Include inactive URLs"
// @Success 200 {array} models.URL
// @Router /api/urls [get]
func listURLsHandler(w http.ResponseWriter, r *http.Request) {
	urls, err := database.ListURLs(r.URL.Query().Get("all") == "true")
	if err != nil {
		logger.Error("listURLsHandler: Error listing URLs: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, urls)
}

// createURLHandler registers a new URL.
// @Summary Create URL
// @Tags URLs
// @Accept json
// @Produce json
// @Param url body models.URLCreateRequest true "URL to track"
// @Success 201 {object} models.URL
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/urls [post]
func createURLHandler(w http.ResponseWriter, r *http.Request) {
	var req models.URLCreateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	created, err := core.CreateURL(req.URL, req.Owner, req.Sequence, req.CreatedBy)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, err.Error())
		case strings.Contains(strings.ToLower(err.Error()), "unique constraint failed"):
			writeError(w, http.StatusConflict, "URL '"+req.URL+"' already exists")
		default:
			logger.Error("createURLHandler: Error creating URL '%s': %v", req.URL, err)
			writeError(w, http.StatusInternalServerError, "Internal server error while creating URL")
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// updateURLHandler changes the address of a URL.
// @Summary Update URL address
// @Tags URLs
// @Accept json
// @Produce json
// @Param id path int true "URL ID"
// @Param url body models.URLUpdateRequest true "New address"
// @Success 200 {object} models.URL
// @Router /api/urls/{id} [put]
func updateURLHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req models.URLUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := core.UpdateURLAddress(id, req.URL, req.EditedBy)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, core.ErrInvalidAddress):
			writeError(w, http.StatusBadRequest, err.Error())
		case strings.Contains(strings.ToLower(err.Error()), "unique constraint failed"):
			writeError(w, http.StatusConflict, "URL '"+req.URL+"' already exists")
		default:
			logger.Error("updateURLHandler: Error updating URL %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Internal server error while updating URL")
		}
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// setURLActiveHandler returns a handler that (de)activates a URL.
func setURLActiveHandler(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r, "id")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := core.SetURLActive(id, active, r.URL.Query().Get("by")); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			logger.Error("setURLActiveHandler: Error updating URL %d: %v", id, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// urlTimingsHandler lists the timing averages of a URL.
// @Summary Timing averages of a URL
// @Tags URLs
// @Produce json
// @Param id path int true "URL ID"
// @Success 200 {array} models.TimingMeasurementAverage
// @Router /api/urls/{id}/timings [get]
func urlTimingsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if _, err := database.GetURLByID(database.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		logger.Error("urlTimingsHandler: Error loading URL %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	avgs, err := database.ListTimingAverages(database.DB, id)
	if err != nil {
		logger.Error("urlTimingsHandler: Error listing timings for URL %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, avgs)
}
