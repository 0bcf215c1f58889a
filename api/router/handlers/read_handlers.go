package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"strconv"

	"github.com/goccy/go-json"
)

const typeaheadLimit = 6

// lighthouseDataHandler returns the stored report of a run, or empty results.
// @Summary Raw report of a run
// @Tags Read
// @Produce json
// @Param runID path int true "Run ID"
// @Success 200 {object} models.ResultsResponse
// @Router /api/lighthousedata/{runID} [get]
func lighthouseDataHandler(w http.ResponseWriter, r *http.Request) {
	results := map[string]interface{}{}
	runID, err := idParam(r, "runID")
	if err == nil {
		raw, err := database.GetRawReport(runID)
		switch {
		case err == nil:
			results["rawData"] = json.RawMessage(raw)
		case !errors.Is(err, sql.ErrNoRows):
			logger.Error("lighthouseDataHandler: Error loading report for run %d: %v", runID, err)
		}
	}
	writeResults(w, results)
}

// urlTypeaheadHandler returns up to 6 URLs containing q.
// @Summary URL typeahead
// @Tags Read
// @Produce json
// @Param q query string false "Substring to match"
// @Success 200 {object} models.ResultsResponse
// @Router /api/urltypeahead [get]
func urlTypeaheadHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	results := []models.URLSearchResult{}
	if q != "" {
		var err error
		results, err = database.SearchURLs(q, typeaheadLimit)
		if err != nil {
			logger.Error("urlTypeaheadHandler: Error searching '%s': %v", q, err)
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}
	writeResults(w, results)
}

// urlIDHandler resolves an exact address to its id (null when unknown).
// @Summary URL id by address
// @Tags Read
// @Produce json
// @Param url query string true "Exact URL address"
// @Success 200 {object} models.ResultsResponse
// @Router /api/urlid [get]
func urlIDHandler(w http.ResponseWriter, r *http.Request) {
	var urlID *int64
	if address := r.URL.Query().Get("url"); address != "" {
		u, err := database.GetURLByAddress(database.DB, address)
		if err == nil {
			urlID = &u.ID
		} else if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("urlIDHandler: Error looking up '%s': %v", address, err)
		}
	}
	writeResults(w, map[string]interface{}{"urlid": urlID})
}

// compareInfoHandler returns the summary shown in the compare tray.
// @Summary Compare tray entry
// @Tags Read
// @Produce json
// @Param id query int true "URL ID"
// @Success 200 {object} models.ResultsResponse
// @Router /api/compareinfo [get]
func compareInfoHandler(w http.ResponseWriter, r *http.Request) {
	rawID := r.URL.Query().Get("id")
	var summary *models.URLSummary
	if id, err := strconv.ParseInt(rawID, 10, 64); err == nil {
		summary, err = core.GetURLSummary(id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			logger.Error("compareInfoHandler: Error loading URL %d: %v", id, err)
		}
	}
	writeResults(w, map[string]interface{}{"id": rawID, "url": summary})
}

// homeItemsHandler returns one page of URL cards.
// @Summary Paginated URL cards
// @Tags Read
// @Produce json
// @Param page query int false "Page number, from 1"
// @Param sortby query string false "url, date, a11yscore, perfscore or seoscore"
// @Param sortorder query string false "asc or desc"
// @Param viewdata query string false "Card metric to display"
// @Param filter query string false "Filter slug"
// @Success 200 {object} models.HomeItemsPage
// @Router /api/home/items [get]
func homeItemsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	opts := models.BrowseOptions{SortBy: q.Get("sortby"), SortOrder: q.Get("sortorder"), Page: page}
	items, err := core.HomeItems(opts, q.Get("viewdata"), q.Get("filter"))
	if err != nil {
		logger.Error("homeItemsHandler: Error listing URL cards: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// urlForQuery loads the URL named by the urlid query value; ok is false when it does not exist.
func urlForQuery(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("urlid"), 10, 64)
	if err != nil {
		return 0, false
	}
	if _, err := database.GetURLByID(database.DB, id); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logger.Error("urlForQuery: Error loading URL %d: %v", id, err)
		}
		return 0, false
	}
	return id, true
}

// chartScoresHandler returns the score history of a URL.
// @Summary Score history chart data
// @Tags Read
// @Produce json
// @Param urlid query int true "URL ID"
// @Param range query string false "15, 30 or 60 latest runs"
// @Success 200 {object} models.ResultsResponse
// @Router /api/chart/scores [get]
func chartScoresHandler(w http.ResponseWriter, r *http.Request) {
	urlID, ok := urlForQuery(r)
	if !ok {
		writeResults(w, map[string]interface{}{})
		return
	}
	chart, err := core.ScoreChart(urlID, core.RunRange(r.URL.Query().Get("range")))
	if err != nil {
		logger.Error("chartScoresHandler: Error building chart for URL %d: %v", urlID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResults(w, chart)
}

// tableKPIsHandler returns the KPI rows of a URL's latest runs, newest first.
// @Summary Latest run KPIs
// @Tags Read
// @Produce json
// @Param urlid query int true "URL ID"
// @Param range query string false "15, 30 or 60 latest runs"
// @Success 200 {object} models.ResultsResponse
// @Router /api/table/kpis [get]
func tableKPIsHandler(w http.ResponseWriter, r *http.Request) {
	urlID, ok := urlForQuery(r)
	if !ok {
		writeResults(w, map[string]interface{}{})
		return
	}
	runs, err := database.ListLatestRuns(urlID, core.RunRange(r.URL.Query().Get("range")))
	if err != nil {
		logger.Error("tableKPIsHandler: Error listing runs for URL %d: %v", urlID, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeResults(w, runs)
}

// dashboardHandler returns global averages and KPI buckets.
// @Summary Dashboard statistics
// @Tags Read
// @Produce json
// @Param filter query string false "Filter slug; unknown slugs are ignored"
// @Success 200 {object} models.DashboardStats
// @Router /api/dashboard [get]
func dashboardHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := core.Dashboard(r.URL.Query().Get("filter"))
	if err != nil {
		logger.Error("dashboardHandler: Error computing dashboard: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
