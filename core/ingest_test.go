package core

import (
	"pagelab/database"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestOK(t *testing.T, o reportOpts) *IngestResult {
	t.Helper()
	res, err := IngestReport(envelope(t, buildReport(t, o)))
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func countRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, database.DB.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestIngestReportRecordsRunAndAverage(t *testing.T) {
	setupTestDB(t)
	urlID := mustCreateURL(t, "https://www.ibm.com/cloud")

	res := ingestOK(t, reportOpts{URL: "https://www.ibm.com/cloud", Perf: 0.83, A11y: 0.9, SEO: 0.7, Requests: 20, FCP: 900})

	assert.Equal(t, urlID, res.Run.URLID)
	assert.Equal(t, int64(83), res.Run.PerformanceScore)
	require.NotNil(t, res.URL.LatestRunID)
	assert.Equal(t, res.Run.ID, *res.URL.LatestRunID)
	require.NotNil(t, res.Average)
	require.NotNil(t, res.URL.AverageID)
	assert.Equal(t, res.Average.ID, *res.URL.AverageID)
	assert.Equal(t, int64(1), res.Average.NumberSamples)
	assert.Equal(t, int64(83), res.Average.PerformanceScore)
	assert.Equal(t, int64(900), res.Average.FirstContentfulPaint)

	raw, err := database.GetRawReport(res.Run.ID)
	require.NoError(t, err)
	assert.Contains(t, raw, "https://www.ibm.com/cloud")
}

func TestIngestReportUnknownURLWritesNothing(t *testing.T) {
	setupTestDB(t)
	mustCreateURL(t, "https://www.ibm.com/")

	_, err := IngestReport(envelope(t, buildReport(t, reportOpts{URL: "https://www.ibm.com/other", Perf: 0.9, Requests: 4})))
	require.ErrorIs(t, err, ErrUnknownURL)

	assert.Zero(t, countRows(t, "runs"))
	assert.Zero(t, countRows(t, "raw_report_data"))
	assert.Zero(t, countRows(t, "url_averages"))
}

func TestIngestReportMalformedBody(t *testing.T) {
	setupTestDB(t)

	_, err := IngestReport([]byte(`{"report": "nope"}`))
	require.ErrorIs(t, err, ErrMalformedReport)
	assert.Zero(t, countRows(t, "runs"))
}

func TestAverageExcludesDegenerateAndInvalidRuns(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/products"
	mustCreateURL(t, addr)

	ingestOK(t, reportOpts{URL: addr, Perf: 0.60, Requests: 10})
	ingestOK(t, reportOpts{URL: addr, Perf: 0.80, Requests: 10})
	// performance score of 5 and a single request are both excluded
	ingestOK(t, reportOpts{URL: addr, Perf: 0.05, Requests: 10})
	ingestOK(t, reportOpts{URL: addr, Perf: 0.99, Requests: 1})
	last := ingestOK(t, reportOpts{URL: addr, Perf: 0.10, Requests: 10, StatusCode: 500})

	assert.True(t, last.Run.InvalidRun)
	assert.Nil(t, last.Average)
	require.NotNil(t, last.URL.LatestRunID)
	assert.Equal(t, last.Run.ID, *last.URL.LatestRunID)

	avg, err := database.GetURLAverage(database.DB, last.URL.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), avg.NumberSamples)
	assert.Equal(t, int64(70), avg.PerformanceScore)
}

func TestInvalidRunLeavesAverageUntouched(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/gone"
	mustCreateURL(t, addr)

	first := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5})
	second := ingestOK(t, reportOpts{URL: addr, Perf: 0.2, Requests: 5, StatusCode: 404})

	require.NotNil(t, second.Run.HTTPErrorCode)
	assert.Equal(t, int64(404), *second.Run.HTTPErrorCode)
	avg, err := database.GetURLAverage(database.DB, second.URL.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Average.UpdatedAt, avg.UpdatedAt)
	assert.Equal(t, int64(90), avg.PerformanceScore)
	assert.Equal(t, int64(1), avg.NumberSamples)
}

func TestNoValidRunsMeansNoAverage(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/blocked"
	mustCreateURL(t, addr)

	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.03, Requests: 10})
	assert.Nil(t, res.Average)
	assert.Nil(t, res.URL.AverageID)
	assert.Zero(t, countRows(t, "url_averages"))
}

func TestSEOAverageIgnoresUnscoredRuns(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/seo"
	mustCreateURL(t, addr)

	ingestOK(t, reportOpts{URL: addr, Perf: 0.9, SEO: 0, Requests: 5})
	ingestOK(t, reportOpts{URL: addr, Perf: 0.9, SEO: 0.8, Requests: 5})
	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, SEO: 0.9, Requests: 5})

	assert.Equal(t, int64(3), res.Average.NumberSamples)
	assert.Equal(t, int64(85), res.Average.SEOScore)
}

func TestSEOAverageDefaultsToZero(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/noseo"
	mustCreateURL(t, addr)

	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5})
	assert.Zero(t, res.Average.SEOScore)
}

func TestAverageRoundsHalfToEven(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/round"
	mustCreateURL(t, addr)

	ingestOK(t, reportOpts{URL: addr, Perf: 0.81, Requests: 5})
	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.84, Requests: 5})
	assert.Equal(t, int64(82), res.Average.PerformanceScore)
}

func TestRecalculateIsIdempotent(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/stable"
	mustCreateURL(t, addr)

	ingestOK(t, reportOpts{URL: addr, Perf: 0.7, A11y: 0.8, Requests: 6, FCP: 1000,
		Timings: []map[string]interface{}{measure("hero", 100, 10)}})
	last := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, A11y: 0.6, Requests: 8, FCP: 2000,
		Timings: []map[string]interface{}{measure("hero", 200, 30)}})

	before, err := database.GetURLAverage(database.DB, last.URL.ID)
	require.NoError(t, err)
	timingsBefore, err := database.ListTimingAverages(database.DB, last.URL.ID)
	require.NoError(t, err)

	stats, err := RebuildAllAverages()
	require.NoError(t, err)
	assert.Equal(t, 1, stats.URLs)
	assert.Equal(t, 1, stats.URLAverages)
	assert.Equal(t, 1, stats.TimingAverages)

	after, err := database.GetURLAverage(database.DB, last.URL.ID)
	require.NoError(t, err)
	assert.Equal(t, before.KPIs, after.KPIs)
	assert.Equal(t, before.NumberSamples, after.NumberSamples)
	assert.Equal(t, before.ID, after.ID)

	timingsAfter, err := database.ListTimingAverages(database.DB, last.URL.ID)
	require.NoError(t, err)
	require.Len(t, timingsAfter, 1)
	assert.Equal(t, timingsBefore[0].StartTime, timingsAfter[0].StartTime)
	assert.Equal(t, int64(150), timingsAfter[0].StartTime)
	assert.Equal(t, int64(20), timingsAfter[0].Duration)
	assert.Equal(t, int64(2), timingsAfter[0].NumberSamples)
}

func TestTimingsNegativeStartAndDuplicates(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/timings"
	mustCreateURL(t, addr)

	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5, Timings: []map[string]interface{}{
		measure("hero", 120, 8),
		measure("hero", 130, 9),
		measure("ads", -4, 2),
	}})

	assert.Equal(t, 1, res.Timings.Stored)
	assert.Equal(t, 1, res.Timings.Failed)
	assert.Equal(t, 1, res.Timings.NegativeStart)

	samples, err := database.ListTimingMeasurements(database.DB, res.Run.ID)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(120), samples[0].StartTime)

	// the skipped entry still registers its name
	assert.Equal(t, 2, countRows(t, "timing_measurement_names"))

	avgs, err := database.ListTimingAverages(database.DB, res.URL.ID)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.Equal(t, "hero", avgs[0].Name)
	assert.Equal(t, int64(1), avgs[0].NumberSamples)
}

func TestTimingsNegativeDurationIsSkipped(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/durations"
	mustCreateURL(t, addr)

	res := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5, Timings: []map[string]interface{}{
		measure("hero", 100, -50),
		measure("nav", 40, 6),
	}})

	assert.Equal(t, 1, res.Timings.Stored)
	assert.Equal(t, 1, res.Timings.NegativeDuration)

	samples, err := database.ListTimingMeasurements(database.DB, res.Run.ID)
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, int64(6), samples[0].Duration)

	avgs, err := database.ListTimingAverages(database.DB, res.URL.ID)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.Equal(t, "nav", avgs[0].Name)
}

func TestInvalidRunTimingsAreStoredButNotAveraged(t *testing.T) {
	setupTestDB(t)
	addr := "https://www.ibm.com/flaky"
	mustCreateURL(t, addr)

	ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5, Timings: []map[string]interface{}{measure("hero", 100, 10)}})
	bad := ingestOK(t, reportOpts{URL: addr, Perf: 0.9, Requests: 5, StatusCode: 503, Timings: []map[string]interface{}{measure("hero", 900, 90)}})

	assert.Equal(t, 1, bad.Timings.Stored)
	avgs, err := database.ListTimingAverages(database.DB, bad.URL.ID)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.Equal(t, int64(100), avgs[0].StartTime)
	assert.Equal(t, int64(1), avgs[0].NumberSamples)

	_, err = RebuildAllAverages()
	require.NoError(t, err)
	avgs, err = database.ListTimingAverages(database.DB, bad.URL.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), avgs[0].StartTime)
}
