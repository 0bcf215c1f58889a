package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"pagelab/config"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
)

// collectReportHandler accepts a report submitted by the crawler.
// @Summary Submit a Lighthouse report
// @Description Body is {"report": "<json-encoded report>"}; gzip and br content encodings are accepted.
// @Tags Collect
// @Accept json
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Failure 400 {object} models.StatusResponse
// @Router /collect/report/ [post]
func collectReportHandler(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r, config.AppConfig.Ingest.MaxBodyBytes)
	if err != nil {
		logger.Error("collectReportHandler: %v", err)
		writeStatus(w, http.StatusBadRequest, statusError, err.Error())
		return
	}
	if len(body) == 0 {
		writeStatus(w, http.StatusBadRequest, statusError, "Report value missing in request")
		return
	}

	result, err := core.IngestReport(body)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrMalformedReport), errors.Is(err, core.ErrUnknownURL):
			writeStatus(w, http.StatusBadRequest, statusError, err.Error())
		default:
			logger.Error("collectReportHandler: Ingestion failed: %v", err)
			writeStatus(w, http.StatusInternalServerError, statusError, "Internal server error while saving report")
		}
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, fmt.Sprintf("Report data accepted %d", result.Run.ID))
}

func collectReportMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Allow", http.MethodPost)
	writeStatus(w, http.StatusMethodNotAllowed, statusError, "Method not allowed, reports must be POSTed")
}

// queueHandler lists every active URL for the crawler.
// @Summary Active URL queue
// @Tags Collect
// @Produce json
// @Success 200 {object} models.StatusResponse
// @Router /queue/ [get]
func queueHandler(w http.ResponseWriter, r *http.Request) {
	items, err := database.ListQueue()
	if err != nil {
		logger.Error("queueHandler: Error listing active URLs: %v", err)
		writeStatus(w, http.StatusInternalServerError, statusError, "Internal server error")
		return
	}
	writeStatus(w, http.StatusOK, statusSuccess, items)
}
