package core

import (
	"database/sql"
	"pagelab/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReports(t *testing.T) map[string]int64 {
	t.Helper()
	ids := map[string]int64{}
	for addr, perf := range map[string]float64{
		"https://ibm.com/foo":          0.95,
		"https://ibm.com/bar/baz/biff": 0.60,
		"https://ibm.com/bar/qux":      0.30,
	} {
		ids[addr] = mustCreateURL(t, addr)
		ingestOK(t, reportOpts{URL: addr, Perf: perf, A11y: 0.8, SEO: 0.9, Requests: 5, FCP: 1000})
	}
	// never tested and only invalid runs stay off the listing
	mustCreateURL(t, "https://ibm.com/untested")
	ids["https://ibm.com/broken"] = mustCreateURL(t, "https://ibm.com/broken")
	ingestOK(t, reportOpts{URL: "https://ibm.com/broken", Perf: 0.9, Requests: 5, StatusCode: 404})
	return ids
}

func TestHomeItemsPagination(t *testing.T) {
	setupTestDB(t)
	seedReports(t)

	page, err := HomeItems(models.BrowseOptions{SortBy: "perfscore", SortOrder: "desc", Page: 1, PageSize: 2}, "", "")
	require.NoError(t, err)
	assert.True(t, page.HasNextPage)
	assert.Equal(t, "perfscore", page.ViewData)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "https://ibm.com/foo", page.Results[0].URL)
	assert.Equal(t, int64(95), page.Results[0].PerformanceScore)
	assert.Equal(t, "https://ibm.com/bar/baz/biff", page.Results[1].URL)

	page, err = HomeItems(models.BrowseOptions{SortBy: "perfscore", SortOrder: "desc", Page: 2, PageSize: 2}, "", "")
	require.NoError(t, err)
	assert.False(t, page.HasNextPage)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "https://ibm.com/bar/qux", page.Results[0].URL)
}

func TestHomeItemsFilteredAndDefaults(t *testing.T) {
	setupTestDB(t)
	seedReports(t)
	_, err := CreateFilter(models.URLFilterCreateRequest{Name: "bar", Mode: "AND", Parts: []models.URLFilterPartRequest{
		{Prop: models.FilterPropPathSegment, PathIndex: intPtr(0), Value: "bar"},
	}})
	require.NoError(t, err)

	page, err := HomeItems(models.BrowseOptions{SortBy: "url", SortOrder: "asc"}, "", "bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", page.Filter)
	assert.Equal(t, 1, page.PageNum)
	assert.Equal(t, "asc", page.SortOrder)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "https://ibm.com/bar/baz/biff", page.Results[0].URL)
	assert.Equal(t, "https://ibm.com/bar/qux", page.Results[1].URL)

	page, err = HomeItems(models.BrowseOptions{SortBy: "nonsense", SortOrder: "sideways"}, "", "unknown-filter")
	require.NoError(t, err)
	assert.Equal(t, "desc", page.SortOrder)
	assert.Empty(t, page.Filter)
	assert.Len(t, page.Results, 3)
}

func TestDashboardBuckets(t *testing.T) {
	setupTestDB(t)
	seedReports(t)

	stats, err := Dashboard("")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.URLCountTested)
	assert.Equal(t, int64(62), stats.PerformanceAvg)
	assert.Equal(t, int64(80), stats.AccessibilityAvg)
	assert.Equal(t, int64(90), stats.SEOAvg)
	assert.Equal(t, models.PerfCounts{Poor: 1, Average: 1, Good: 1}, stats.Performance)
	assert.Equal(t, models.BucketCounts{Fast: 3}, stats.FCP)
	// FMP and TTI are absent from the reports and count as fast
	assert.Equal(t, models.BucketCounts{Fast: 3}, stats.TTI)
}

func TestGetURLSummaryAndCompare(t *testing.T) {
	setupTestDB(t)
	ids := seedReports(t)

	s, err := GetURLSummary(ids["https://ibm.com/foo"])
	require.NoError(t, err)
	require.NotNil(t, s.LatestRun)
	require.NotNil(t, s.Average)
	assert.Equal(t, int64(1), s.RunCount)
	assert.Equal(t, int64(95), s.Average.PerformanceScore)

	broken, err := GetURLSummary(ids["https://ibm.com/broken"])
	require.NoError(t, err)
	assert.Nil(t, broken.Average)
	assert.True(t, broken.LatestRun.InvalidRun)

	_, err = GetURLSummary(9999)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	summaries, err := CompareURLs([]int64{ids["https://ibm.com/foo"], ids["https://ibm.com/bar/qux"]})
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "https://ibm.com/bar/qux", summaries[1].URL.URL)

	_, err = CompareURLs([]int64{ids["https://ibm.com/foo"], 9999})
	assert.Error(t, err)
}

func TestScoreChartOldestFirst(t *testing.T) {
	setupTestDB(t)
	addr := "https://ibm.com/history"
	id := mustCreateURL(t, addr)
	for _, perf := range []float64{0.5, 0.6, 0.7} {
		ingestOK(t, reportOpts{URL: addr, Perf: perf, Requests: 5})
	}

	chart, err := ScoreChart(id, 2)
	require.NoError(t, err)
	require.Len(t, chart.Datasets, 3)
	assert.Equal(t, "Performance", chart.Datasets[0].Label)
	assert.Equal(t, []int64{60, 70}, chart.Datasets[0].Data)
	assert.Len(t, chart.Labels, 2)
}

func TestRunRange(t *testing.T) {
	assert.Equal(t, 15, RunRange(""))
	assert.Equal(t, 30, RunRange("30"))
	assert.Equal(t, 60, RunRange("60"))
	assert.Equal(t, 15, RunRange("45"))
}
