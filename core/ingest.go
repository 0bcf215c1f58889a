package core

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/config"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/metrics"
	"pagelab/models"
	"strconv"
	"time"
)

// IngestResult describes the rows written for one accepted report.
type IngestResult struct {
	URL     models.URL         `json:"url"`
	Run     models.Run         `json:"run"`
	Average *models.URLAverage `json:"average,omitempty"`
	Timings TimingStats        `json:"timings"`
}

// IngestReport parses an ingestion body and, in one transaction, records the run,
// recomputes the URL average when the run is valid and stores its timing samples.
// Any failure rolls the whole submission back.
func IngestReport(body []byte) (*IngestResult, error) {
	started := time.Now()
	result, err := ingest(body)
	switch {
	case err == nil:
		metrics.RecordIngest(metrics.ResultAccepted, started)
	case errors.Is(err, ErrMalformedReport):
		metrics.RecordIngest(metrics.ResultMalformed, started)
	case errors.Is(err, ErrUnknownURL):
		metrics.RecordIngest(metrics.ResultUnknownURL, started)
	default:
		metrics.RecordIngest(metrics.ResultError, started)
	}
	return result, err
}

func ingest(body []byte) (*IngestResult, error) {
	parsed, err := ParseReport(body, config.AppConfig.Ingest.MastheadTimingName)
	if err != nil {
		logger.Warn("IngestReport: Rejected submission: %v", err)
		return nil, err
	}

	tx, err := database.DB.Begin()
	if err != nil {
		return nil, fmt.Errorf("beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	url, err := database.GetURLByAddress(tx, parsed.RequestedURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Warn("IngestReport: No URL matches requestedUrl '%s'", parsed.RequestedURL)
			return nil, fmt.Errorf("%w: %s", ErrUnknownURL, parsed.RequestedURL)
		}
		return nil, err
	}

	result := &IngestResult{URL: url}
	result.Run, err = RecordRun(tx, url.ID, parsed)
	if err != nil {
		return nil, err
	}
	if result.Run.InvalidRun {
		metrics.InvalidRuns.WithLabelValues(strconv.FormatInt(*result.Run.HTTPErrorCode, 10)).Inc()
	} else {
		result.Average, err = RecalculateURLAverage(tx, url.ID)
		if err != nil {
			return nil, fmt.Errorf("recalculating url average: %w", err)
		}
	}
	result.Timings, err = RecordTimings(tx, url.ID, result.Run, parsed.UserTimings)
	if err != nil {
		return nil, err
	}

	if result.URL, err = database.GetURLByID(tx, url.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing ingestion for run %d: %w", result.Run.ID, err)
	}
	logger.Info("IngestReport: Accepted run %d for %s (invalid=%t, timings stored=%d)",
		result.Run.ID, url.URL, result.Run.InvalidRun, result.Timings.Stored)
	return result, nil
}
