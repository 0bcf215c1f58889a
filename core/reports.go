package core

import (
	"database/sql"
	"errors"
	"pagelab/config"
	"pagelab/database"
	"pagelab/models"
)

const defaultRunRange = 15

// RunRange maps the range query value to a run count: 15, 30 or 60, defaulting to 15.
func RunRange(s string) int {
	switch s {
	case "30":
		return 30
	case "60":
		return 60
	default:
		return defaultRunRange
	}
}

// HomeItems returns one page of URL cards, scoped by a filter slug when it names a filter.
func HomeItems(opts models.BrowseOptions, viewData, filterSlug string) (models.HomeItemsPage, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = config.AppConfig.Browse.PageSize
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	if viewData == "" {
		viewData = "perfscore"
	}
	page := models.HomeItemsPage{PageNum: opts.Page, ViewData: viewData, SortBy: opts.SortBy, SortOrder: opts.SortOrder}
	if page.SortBy == "" {
		page.SortBy = "date"
	}
	if page.SortOrder != "asc" {
		page.SortOrder = "desc"
	}

	f, scope, err := ScopeForSlug(filterSlug)
	if err != nil {
		return page, err
	}
	if f != nil {
		page.Filter = f.Slug
	}
	page.Results, page.HasNextPage, err = database.ListURLCards(opts, scope)
	return page, err
}

// Dashboard aggregates score averages and KPI buckets over every URL with a valid
// latest run, optionally scoped by a filter slug.
func Dashboard(filterSlug string) (models.DashboardStats, error) {
	var stats models.DashboardStats
	f, scope, err := ScopeForSlug(filterSlug)
	if err != nil {
		return stats, err
	}
	stats.Filter = f

	b := config.AppConfig.Dashboard
	agg, err := database.Dashboard(database.DashboardThresholds{
		FCPFast: b.FCP.Fast * 1000, FCPSlow: b.FCP.Slow * 1000,
		FMPFast: b.FMP.Fast * 1000, FMPSlow: b.FMP.Slow * 1000,
		TTIFast: b.TTI.Fast * 1000, TTISlow: b.TTI.Slow * 1000,
	}, scope)
	if err != nil {
		return stats, err
	}
	stats.URLCountTested = agg.URLCount
	stats.PerformanceAvg = roundMean(agg.PerformanceMean)
	stats.AccessibilityAvg = roundMean(agg.AccessibilityMean)
	stats.SEOAvg = roundMean(agg.SEOMean)
	stats.Performance = agg.Perf
	stats.FCP = agg.FCP
	stats.FMP = agg.FMP
	stats.TTI = agg.TTI
	return stats, nil
}

// GetURLSummary returns the detail view of a URL. Unknown ids yield an error wrapping sql.ErrNoRows.
func GetURLSummary(id int64) (*models.URLSummary, error) {
	u, err := database.GetURLByID(database.DB, id)
	if err != nil {
		return nil, err
	}
	s := &models.URLSummary{URL: u}
	if u.LatestRunID != nil {
		run, err := database.GetRunByID(database.DB, *u.LatestRunID)
		if err != nil {
			return nil, err
		}
		s.LatestRun = &run
	}
	avg, err := database.GetURLAverage(database.DB, id)
	switch {
	case err == nil:
		s.Average = &avg
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}
	if s.RunCount, err = database.CountRuns(id); err != nil {
		return nil, err
	}
	if s.Timings, err = database.ListTimingAverages(database.DB, id); err != nil {
		return nil, err
	}
	return s, nil
}

// CompareURLs returns summaries for the given ids in order; any unknown id fails the whole comparison.
func CompareURLs(ids []int64) ([]models.URLSummary, error) {
	summaries := make([]models.URLSummary, 0, len(ids))
	for _, id := range ids {
		s, err := GetURLSummary(id)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *s)
	}
	return summaries, nil
}

// ScoreChart builds the score history of a URL's latest runs, oldest first.
func ScoreChart(urlID int64, runRange int) (*models.ChartData, error) {
	runs, err := database.ListLatestRuns(urlID, runRange)
	if err != nil {
		return nil, err
	}
	chart := &models.ChartData{
		Labels: make([]string, 0, len(runs)),
		Datasets: []models.ChartDataset{
			{Label: "Performance", Data: make([]int64, 0, len(runs))},
			{Label: "Accessibility", Data: make([]int64, 0, len(runs))},
			{Label: "SEO", Data: make([]int64, 0, len(runs))},
		},
	}
	for i := len(runs) - 1; i >= 0; i-- {
		r := runs[i]
		chart.Labels = append(chart.Labels, r.CreatedAt.Format("2006-01-02 15:04"))
		chart.Datasets[0].Data = append(chart.Datasets[0].Data, r.PerformanceScore)
		chart.Datasets[1].Data = append(chart.Datasets[1].Data, r.AccessibilityScore)
		chart.Datasets[2].Data = append(chart.Datasets[2].Data, r.SEOScore)
	}
	return chart, nil
}
