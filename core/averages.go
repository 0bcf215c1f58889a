package core

import (
	"fmt"
	"math"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/metrics"
	"pagelab/models"
)

// roundMean rounds half to even.
func roundMean(f float64) int64 {
	return int64(math.RoundToEven(f))
}

// RecalculateURLAverage recomputes a URL's average from its full valid-run history:
// runs not flagged invalid with more than one network request and a performance
// score above 5. SEO is averaged over the runs with a positive SEO score only.
// It returns nil without touching anything when no run qualifies.
func RecalculateURLAverage(q database.Queryer, urlID int64) (*models.URLAverage, error) {
	means, err := database.ValidRunMeans(q, urlID)
	if err != nil {
		return nil, err
	}
	if means.Samples == 0 {
		logger.Debug("RecalculateURLAverage: URL %d has no valid runs, average left unchanged", urlID)
		return nil, nil
	}

	kpis := models.KPIs{
		AccessibilityScore:    roundMean(means.AccessibilityScore),
		PerformanceScore:      roundMean(means.PerformanceScore),
		DOMContentLoaded:      roundMean(means.DOMContentLoaded),
		DOMLoaded:             roundMean(means.DOMLoaded),
		FirstContentfulPaint:  roundMean(means.FirstContentfulPaint),
		FirstMeaningfulPaint:  roundMean(means.FirstMeaningfulPaint),
		Interactive:           roundMean(means.Interactive),
		NumberNetworkRequests: roundMean(means.NumberNetworkRequests),
		RedirectHops:          roundMean(means.RedirectHops),
		RedirectWastedMs:      roundMean(means.RedirectWastedMs),
		TimeToFirstByte:       roundMean(means.TimeToFirstByte),
		TotalByteWeight:       roundMean(means.TotalByteWeight),
		MastheadOnscreen:      roundMean(means.MastheadOnscreen),
	}
	if means.SEOSamples > 0 {
		kpis.SEOScore = roundMean(means.SEOScore)
	}

	avgID, err := database.UpsertURLAverage(q, urlID, means.Samples, kpis)
	if err != nil {
		return nil, err
	}
	if err := database.SetURLAverage(q, urlID, avgID); err != nil {
		return nil, fmt.Errorf("linking average: %w", err)
	}
	avg, err := database.GetURLAverage(q, urlID)
	if err != nil {
		return nil, err
	}
	metrics.AverageRecalculations.WithLabelValues("url").Inc()
	logger.Debug("RecalculateURLAverage: URL %d average over %d runs: perf %d, a11y %d, seo %d",
		urlID, avg.NumberSamples, avg.PerformanceScore, avg.AccessibilityScore, avg.SEOScore)
	return &avg, nil
}

// RecalculateTimingAverage recomputes the (URL, name) timing average over the samples of
// runs not flagged invalid. The row is removed when no such sample remains.
func RecalculateTimingAverage(q database.Queryer, urlID, nameID int64) error {
	n, start, duration, err := database.TimingMeans(q, urlID, nameID)
	if err != nil {
		return err
	}
	if n == 0 {
		return database.DeleteTimingAverage(q, urlID, nameID)
	}
	if err := database.UpsertTimingAverage(q, urlID, nameID, roundMean(start), roundMean(duration), n); err != nil {
		return err
	}
	metrics.AverageRecalculations.WithLabelValues("timing").Inc()
	return nil
}

// RebuildStats summarizes a full rebuild.
type RebuildStats struct {
	URLs           int `json:"urls"`
	URLAverages    int `json:"url_averages"`
	TimingAverages int `json:"timing_averages"`
}

// RebuildAllAverages recomputes every URL average and every timing average from history
// in a single transaction.
func RebuildAllAverages() (RebuildStats, error) {
	var stats RebuildStats
	tx, err := database.DB.Begin()
	if err != nil {
		return stats, fmt.Errorf("beginning database transaction: %w", err)
	}
	defer tx.Rollback()

	ids, err := database.ListAllURLIDs(tx)
	if err != nil {
		return stats, err
	}
	stats.URLs = len(ids)
	for _, id := range ids {
		avg, err := RecalculateURLAverage(tx, id)
		if err != nil {
			return stats, fmt.Errorf("recalculating average for url %d: %w", id, err)
		}
		if avg != nil {
			stats.URLAverages++
		}
	}

	pairs, err := database.ListTimingPairs(tx)
	if err != nil {
		return stats, err
	}
	for _, p := range pairs {
		if err := RecalculateTimingAverage(tx, p[0], p[1]); err != nil {
			return stats, fmt.Errorf("recalculating timing average for url %d name %d: %w", p[0], p[1], err)
		}
		stats.TimingAverages++
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("committing rebuild: %w", err)
	}
	logger.Info("RebuildAllAverages: %d URLs, %d URL averages, %d timing averages", stats.URLs, stats.URLAverages, stats.TimingAverages)
	return stats, nil
}
