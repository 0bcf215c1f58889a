package core

import (
	"errors"
	"fmt"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/metrics"
	"pagelab/models"
)

// TimingStats counts what happened to a report's Measure entries.
type TimingStats struct {
	Stored           int `json:"stored"`
	NegativeStart    int `json:"negative_start"`
	NegativeDuration int `json:"negative_duration"`
	Failed           int `json:"failed"`
}

// RecordTimings stores one sample per Measure entry of a run. Names are created on
// first sight, entries with a negative start time or duration are skipped, and a failed insert
// only drops that entry. Timing averages are recomputed only for valid runs.
func RecordTimings(q database.Queryer, urlID int64, run models.Run, timings []models.UserTiming) (TimingStats, error) {
	var stats TimingStats
	for _, t := range timings {
		if t.TimingType != measureTimingType {
			continue
		}
		nameID, err := database.GetOrCreateTimingName(q, t.Name)
		if err != nil {
			return stats, fmt.Errorf("resolving timing name: %w", err)
		}
		if t.StartTime < 0 {
			stats.NegativeStart++
			metrics.TimingSamplesSkipped.WithLabelValues(metrics.SkipNegativeStart).Inc()
			logger.Debug("RecordTimings: Skipping '%s' for run %d, negative start time %v", t.Name, run.ID, t.StartTime)
			continue
		}
		if t.Duration < 0 {
			stats.NegativeDuration++
			metrics.TimingSamplesSkipped.WithLabelValues(metrics.SkipNegativeDuration).Inc()
			logger.Debug("RecordTimings: Skipping '%s' for run %d, negative duration %v", t.Name, run.ID, t.Duration)
			continue
		}

		_, err = database.CreateTimingMeasurement(q, models.TimingMeasurement{
			URLID:     urlID,
			RunID:     run.ID,
			NameID:    nameID,
			StartTime: int64(t.StartTime),
			Duration:  int64(t.Duration),
		})
		switch {
		case errors.Is(err, database.ErrDuplicateTimingSample):
			stats.Failed++
			metrics.TimingSamplesSkipped.WithLabelValues(metrics.SkipDuplicate).Inc()
			logger.Warn("RecordTimings: Duplicate sample '%s' for run %d ignored", t.Name, run.ID)
		case err != nil:
			stats.Failed++
			metrics.TimingSamplesSkipped.WithLabelValues(metrics.SkipStoreError).Inc()
			logger.Error("RecordTimings: Could not store sample '%s' for run %d: %v", t.Name, run.ID, err)
		default:
			stats.Stored++
			metrics.TimingSamplesStored.Inc()
		}

		if !run.InvalidRun {
			if err := RecalculateTimingAverage(q, urlID, nameID); err != nil {
				return stats, fmt.Errorf("recalculating timing average for '%s': %w", t.Name, err)
			}
		}
	}
	return stats, nil
}
