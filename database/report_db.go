package database

import (
	"fmt"
	"pagelab/logger"
	"pagelab/models"
)

// latestRunValidJoin limits URLs to those whose latest run may contribute to averages.
const latestRunValidJoin = ` FROM urls u
	JOIN runs r ON r.id = u.latest_run_id
	LEFT JOIN url_averages a ON a.url_id = u.id
	WHERE r.invalid_run = 0 AND r.performance_score > 5 AND r.number_network_requests > 1`

var browseSortColumns = map[string]string{
	"url":       "u.url",
	"date":      "r.created_at",
	"a11yscore": "a.accessibility_score",
	"perfscore": "a.performance_score",
	"seoscore":  "a.seo_score",
}

// ListURLCards returns one page of URLs with a valid latest run and whether a next page exists.
func ListURLCards(opts models.BrowseOptions, scope *URLScope) ([]models.URLCard, bool, error) {
	sortCol, ok := browseSortColumns[opts.SortBy]
	if !ok {
		sortCol = browseSortColumns["date"]
	}
	dir := "DESC"
	if opts.SortOrder == "asc" {
		dir = "ASC"
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := opts.Page
	if page < 1 {
		page = 1
	}

	where, args := scope.clause()
	query := fmt.Sprintf(`SELECT u.id, u.url, r.id, r.created_at, r.thumbnail_image,
		COALESCE(a.number_samples, 0), COALESCE(a.accessibility_score, 0), COALESCE(a.performance_score, 0),
		COALESCE(a.seo_score, 0), COALESCE(a.first_contentful_paint, 0), COALESCE(a.first_meaningful_paint, 0),
		COALESCE(a.interactive, 0)`+latestRunValidJoin+where+`
		ORDER BY %s %s, u.id %s LIMIT ? OFFSET ?`, sortCol, dir, dir)
	args = append(args, pageSize+1, (page-1)*pageSize)

	rows, err := DB.Query(query, args...)
	if err != nil {
		logger.Error("ListURLCards: query failed: %v", err)
		return nil, false, fmt.Errorf("querying url cards: %w", err)
	}
	defer rows.Close()

	cards := []models.URLCard{}
	for rows.Next() {
		var c models.URLCard
		if err := rows.Scan(&c.ID, &c.URL, &c.LatestRunID, &c.LatestRunAt, &c.ThumbnailImage,
			&c.NumberSamples, &c.AccessibilityScore, &c.PerformanceScore, &c.SEOScore,
			&c.FirstContentfulPaint, &c.FirstMeaningfulPaint, &c.Interactive); err != nil {
			return nil, false, fmt.Errorf("scanning url card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	hasNext := len(cards) > pageSize
	if hasNext {
		cards = cards[:pageSize]
	}
	return cards, hasNext, nil
}

// DashboardThresholds are bucket boundaries in milliseconds.
type DashboardThresholds struct {
	FCPFast, FCPSlow float64
	FMPFast, FMPSlow float64
	TTIFast, TTISlow float64
}

// DashboardAggregate holds unrounded global averages and bucket counts.
type DashboardAggregate struct {
	URLCount          int64
	PerformanceMean   float64
	AccessibilityMean float64
	SEOMean           float64
	Perf              models.PerfCounts
	FCP, FMP, TTI     models.BucketCounts
}

// Dashboard aggregates the averages of every URL with a valid latest run in scope.
func Dashboard(t DashboardThresholds, scope *URLScope) (DashboardAggregate, error) {
	var d DashboardAggregate
	where, scopeArgs := scope.clause()
	args := []interface{}{
		t.FCPFast, t.FCPFast, t.FCPSlow, t.FCPSlow,
		t.FMPFast, t.FMPFast, t.FMPSlow, t.FMPSlow,
		t.TTIFast, t.TTIFast, t.TTISlow, t.TTISlow,
	}
	args = append(args, scopeArgs...)

	err := DB.QueryRow(`SELECT COUNT(*),
		COALESCE(AVG(a.performance_score), 0),
		COALESCE(AVG(a.accessibility_score), 0),
		COALESCE(AVG(a.seo_score), 0),
		COUNT(CASE WHEN a.performance_score > 5 AND a.performance_score <= 49 THEN 1 END),
		COUNT(CASE WHEN a.performance_score >= 50 AND a.performance_score <= 89 THEN 1 END),
		COUNT(CASE WHEN a.performance_score >= 90 THEN 1 END),
		COUNT(CASE WHEN a.first_contentful_paint < ? THEN 1 END),
		COUNT(CASE WHEN a.first_contentful_paint >= ? AND a.first_contentful_paint <= ? THEN 1 END),
		COUNT(CASE WHEN a.first_contentful_paint > ? THEN 1 END),
		COUNT(CASE WHEN a.first_meaningful_paint < ? THEN 1 END),
		COUNT(CASE WHEN a.first_meaningful_paint >= ? AND a.first_meaningful_paint <= ? THEN 1 END),
		COUNT(CASE WHEN a.first_meaningful_paint > ? THEN 1 END),
		COUNT(CASE WHEN a.interactive < ? THEN 1 END),
		COUNT(CASE WHEN a.interactive >= ? AND a.interactive <= ? THEN 1 END),
		COUNT(CASE WHEN a.interactive > ? THEN 1 END)`+latestRunValidJoin+where, args...).Scan(
		&d.URLCount, &d.PerformanceMean, &d.AccessibilityMean, &d.SEOMean,
		&d.Perf.Poor, &d.Perf.Average, &d.Perf.Good,
		&d.FCP.Fast, &d.FCP.Average, &d.FCP.Slow,
		&d.FMP.Fast, &d.FMP.Average, &d.FMP.Slow,
		&d.TTI.Fast, &d.TTI.Average, &d.TTI.Slow)
	if err != nil {
		logger.Error("Dashboard: aggregate query failed: %v", err)
		return d, fmt.Errorf("aggregating dashboard: %w", err)
	}
	return d, nil
}
