package database

import (
	"database/sql"
	"io"
	"pagelab/logger"
	"pagelab/models"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) string {
	t.Helper()
	logger.SetOutput(io.Discard, "ERROR")
	path := filepath.Join(t.TempDir(), "nested", "test.db")
	require.NoError(t, InitDB(path))
	t.Cleanup(func() { _ = CloseDB() })
	return path
}

func insertURL(t *testing.T, address string) int64 {
	t.Helper()
	id, err := CreateURL(DB, models.URL{URL: address, Location: models.Location{Protocol: "https", Pathname: "/"}})
	require.NoError(t, err)
	return id
}

func TestInitDBMigratesOnceAndReopens(t *testing.T) {
	path := setupTestDB(t)
	insertURL(t, "https://www.ibm.com/")
	require.NoError(t, CloseDB())

	require.NoError(t, InitDB(path))
	var n int
	require.NoError(t, DB.QueryRow(`SELECT COUNT(*) FROM urls`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestForeignKeysEnforced(t *testing.T) {
	setupTestDB(t)

	_, err := CreateEmptyRun(DB, 4242)
	assert.Error(t, err)
}

func TestDuplicateTimingSample(t *testing.T) {
	setupTestDB(t)
	urlID := insertURL(t, "https://www.ibm.com/")
	runID, err := CreateEmptyRun(DB, urlID)
	require.NoError(t, err)
	nameID, err := GetOrCreateTimingName(DB, "hero")
	require.NoError(t, err)

	again, err := GetOrCreateTimingName(DB, "hero")
	require.NoError(t, err)
	assert.Equal(t, nameID, again)

	m := models.TimingMeasurement{URLID: urlID, RunID: runID, NameID: nameID, StartTime: 10, Duration: 2}
	_, err = CreateTimingMeasurement(DB, m)
	require.NoError(t, err)
	_, err = CreateTimingMeasurement(DB, m)
	assert.ErrorIs(t, err, ErrDuplicateTimingSample)
}

func TestTimingAverageDeletedWithoutSamples(t *testing.T) {
	setupTestDB(t)
	urlID := insertURL(t, "https://www.ibm.com/")
	nameID, err := GetOrCreateTimingName(DB, "hero")
	require.NoError(t, err)

	require.NoError(t, UpsertTimingAverage(DB, urlID, nameID, 100, 10, 3))
	require.NoError(t, UpsertTimingAverage(DB, urlID, nameID, 120, 12, 4))
	avgs, err := ListTimingAverages(DB, urlID)
	require.NoError(t, err)
	require.Len(t, avgs, 1)
	assert.Equal(t, int64(120), avgs[0].StartTime)
	assert.Equal(t, int64(4), avgs[0].NumberSamples)

	require.NoError(t, DeleteTimingAverage(DB, urlID, nameID))
	avgs, err = ListTimingAverages(DB, urlID)
	require.NoError(t, err)
	assert.Empty(t, avgs)
}

func TestGetURLNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := GetURLByID(DB, 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = GetURLByAddress(DB, "https://nowhere.example/")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.ErrorIs(t, SetURLInactive(1, true, "x"), sql.ErrNoRows)
}

func TestSearchURLs(t *testing.T) {
	setupTestDB(t)
	for _, a := range []string{"https://a.com/Cloud", "https://b.com/cloud", "https://c.com/other"} {
		insertURL(t, a)
	}

	res, err := SearchURLs("cloud", 6)
	require.NoError(t, err)
	require.Len(t, res, 1, "matching is case sensitive")
	assert.Equal(t, "https://b.com/cloud", res[0].URL)

	res, err = SearchURLs("https://", 2)
	require.NoError(t, err)
	assert.Len(t, res, 2)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "cloud-pages", slugify("Cloud Pages!"))
	assert.Equal(t, "a-b", slugify("--a__b--"))
	assert.Len(t, slugify("!!!"), 8)
}
