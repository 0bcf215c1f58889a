package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"pagelab/core"
	"pagelab/logger"
	"pagelab/models"
)

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusFound)
}

// urlDetailHandler returns the detail view of a URL; unknown ids redirect home.
// @Summary URL detail
// @Tags Report
// @Produce json
// @Param id path int true "URL ID"
// @Success 200 {object} models.URLSummary
// @Success 302 "Unknown id, redirected to /"
// @Router /report/urls/detail/{id} [get]
func urlDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		redirectHome(w, r)
		return
	}
	summary, err := core.GetURLSummary(id)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("urlDetailHandler: Error loading URL %d: %v", id, err)
		}
		redirectHome(w, r)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// urlCompareHandler compares two or three URLs side by side; any unknown id redirects home.
// @Summary Compare URLs
// @Tags Report
// @Produce json
// @Param id1 path int true "First URL ID"
// @Param id2 path int true "Second URL ID"
// @Param id3 path int false "Optional third URL ID"
// @Success 200 {array} models.URLSummary
// @Success 302 "Unknown id, redirected to /"
// @Router /report/urls/compare/{id1}/{id2}/{id3} [get]
func urlCompareHandler(w http.ResponseWriter, r *http.Request) {
	names := []string{"id1", "id2"}
	if hasParam(r, "id3") {
		names = append(names, "id3")
	}
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		id, err := idParam(r, name)
		if err != nil {
			redirectHome(w, r)
			return
		}
		ids = append(ids, id)
	}
	summaries, err := core.CompareURLs(ids)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("urlCompareHandler: Error loading URLs %v: %v", ids, err)
		}
		redirectHome(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.URLSummary{"urls": summaries})
}
