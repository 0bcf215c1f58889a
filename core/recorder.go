package core

import (
	"fmt"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
)

// RecordRun creates the run row, points the URL's latest run at it, stores the raw
// report and then writes the extracted KPIs. The run exists before anything that
// references it is written.
func RecordRun(q database.Queryer, urlID int64, p models.ParsedReport) (models.Run, error) {
	runID, err := database.CreateEmptyRun(q, urlID)
	if err != nil {
		return models.Run{}, fmt.Errorf("creating run: %w", err)
	}
	if err := database.SetURLLatestRun(q, urlID, runID); err != nil {
		return models.Run{}, fmt.Errorf("updating latest run: %w", err)
	}
	if err := database.SaveRawReport(q, runID, p.Raw); err != nil {
		return models.Run{}, fmt.Errorf("saving raw report: %w", err)
	}
	if err := database.PopulateRun(q, runID, p); err != nil {
		return models.Run{}, fmt.Errorf("populating run: %w", err)
	}
	run, err := database.GetRunByID(q, runID)
	if err != nil {
		return models.Run{}, fmt.Errorf("reloading run: %w", err)
	}
	if run.InvalidRun {
		logger.Info("RecordRun: Run %d for URL %d is invalid (HTTP %d)", run.ID, urlID, *run.HTTPErrorCode)
	} else {
		logger.Debug("RecordRun: Run %d recorded for URL %d (perf %d, requests %d)", run.ID, urlID, run.PerformanceScore, run.NumberNetworkRequests)
	}
	return run, nil
}
