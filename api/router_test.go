package api

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"pagelab/config"
	"pagelab/core"
	"pagelab/database"
	"pagelab/logger"
	"pagelab/models"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	logger.SetOutput(io.Discard, "ERROR")
	config.AppConfig = config.Defaults()
	require.NoError(t, database.InitDB(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = database.CloseDB() })
	return NewRouter()
}

func reportBody(t *testing.T, address string, statusCode int) []byte {
	t.Helper()
	inner, err := json.Marshal(map[string]interface{}{
		"requestedUrl": address,
		"categories": map[string]interface{}{
			"performance":   map[string]interface{}{"score": 0.91},
			"accessibility": map[string]interface{}{"score": 0.88},
		},
		"audits": map[string]interface{}{
			"network-requests": map[string]interface{}{
				"rawValue": 3,
				"details":  map[string]interface{}{"items": []map[string]int{{"statusCode": statusCode}, {"statusCode": 200}, {"statusCode": 200}}},
			},
		},
	})
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{"report": string(inner)})
	require.NoError(t, err)
	return body
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeStatus(t *testing.T, rec *httptest.ResponseRecorder) models.StatusResponse {
	t.Helper()
	var resp models.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCollectReportAccepted(t *testing.T) {
	h := setupRouter(t)
	u, err := core.CreateURL("https://www.ibm.com/", "", 0, "test")
	require.NoError(t, err)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/collect/report/", bytes.NewReader(reportBody(t, u.URL, 200))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decodeStatus(t, rec)
	assert.Equal(t, "success", resp.Status)
	assert.Contains(t, resp.Message, "Report data accepted")

	avg, err := database.GetURLAverage(database.DB, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(91), avg.PerformanceScore)
}

func TestCollectReportCompressedBodies(t *testing.T) {
	h := setupRouter(t)
	u, err := core.CreateURL("https://www.ibm.com/zip", "", 0, "test")
	require.NoError(t, err)
	body := reportBody(t, u.URL, 200)

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err = zw.Write(body)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	req := httptest.NewRequest(http.MethodPost, "/collect/report/", &gz)
	req.Header.Set("Content-Encoding", "gzip")
	assert.Equal(t, http.StatusOK, do(t, h, req).Code)

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, err = bw.Write(body)
	require.NoError(t, err)
	require.NoError(t, bw.Close())
	req = httptest.NewRequest(http.MethodPost, "/collect/report/", &br)
	req.Header.Set("Content-Encoding", "br")
	assert.Equal(t, http.StatusOK, do(t, h, req).Code)

	n, err := database.CountRuns(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestCollectReportErrors(t *testing.T) {
	h := setupRouter(t)

	cases := map[string]string{
		"empty body":  ``,
		"bad json":    `{"report": "{oops"}`,
		"unknown url": string(reportBody(t, "https://nowhere.example/", 200)),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := do(t, h, httptest.NewRequest(http.MethodPost, "/collect/report/", strings.NewReader(body)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", decodeStatus(t, rec).Status)
		})
	}
}

func TestCollectReportRejectsGet(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/collect/report/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "error", decodeStatus(t, rec).Status)
}

func TestQueueListsActiveURLs(t *testing.T) {
	h := setupRouter(t)
	a, err := core.CreateURL("https://www.ibm.com/a", "", 0, "test")
	require.NoError(t, err)
	b, err := core.CreateURL("https://www.ibm.com/b", "", 0, "test")
	require.NoError(t, err)
	require.NoError(t, core.SetURLActive(a.ID, false, "test"))

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/queue/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Status  string             `json:"status"`
		Message []models.QueueItem `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, []models.QueueItem{{URL: b.URL, ID: b.ID}}, resp.Message)
}

func TestReadEndpoints(t *testing.T) {
	h := setupRouter(t)
	u, err := core.CreateURL("https://www.ibm.com/cloud", "", 0, "test")
	require.NoError(t, err)
	_, err = core.CreateURL("https://www.ibm.com/cloudant", "", 0, "test")
	require.NoError(t, err)
	res, err := core.IngestReport(reportBody(t, u.URL, 200))
	require.NoError(t, err)

	t.Run("typeahead", func(t *testing.T) {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/urltypeahead?q=cloud", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Results []models.URLSearchResult `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Results, 2)
	})

	t.Run("urlid", func(t *testing.T) {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/urlid?url=https://www.ibm.com/cloud", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Results struct {
				URLID *int64 `json:"urlid"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.NotNil(t, resp.Results.URLID)
		assert.Equal(t, u.ID, *resp.Results.URLID)
	})

	t.Run("lighthousedata", func(t *testing.T) {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/lighthousedata/"+itoa(res.Run.ID), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Results struct {
				RawData map[string]interface{} `json:"rawData"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, u.URL, resp.Results.RawData["requestedUrl"])

		rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/lighthousedata/9999", nil))
		assert.JSONEq(t, `{"results":{}}`, rec.Body.String())
	})

	t.Run("home items", func(t *testing.T) {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/home/items?sortby=perfscore", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var page models.HomeItemsPage
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Results, 1)
		assert.Equal(t, int64(91), page.Results[0].PerformanceScore)
	})

	t.Run("detail", func(t *testing.T) {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, "/report/urls/detail/"+itoa(u.ID), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var s models.URLSummary
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
		assert.Equal(t, u.URL, s.URL.URL)
		assert.Equal(t, int64(1), s.RunCount)
	})
}

func TestReportPagesRedirectOnUnknownIDs(t *testing.T) {
	h := setupRouter(t)
	u, err := core.CreateURL("https://www.ibm.com/", "", 0, "test")
	require.NoError(t, err)

	for _, path := range []string{
		"/report/urls/detail/9999",
		"/report/urls/detail/abc",
		"/report/urls/compare/" + itoa(u.ID) + "/9999",
		"/report/urls/compare/" + itoa(u.ID) + "/" + itoa(u.ID) + "/x",
	} {
		rec := do(t, h, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusFound, rec.Code, path)
		assert.Equal(t, "/", rec.Header().Get("Location"), path)
	}

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/report/urls/compare/"+itoa(u.ID)+"/"+itoa(u.ID), nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestURLAndFilterAPI(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/urls", strings.NewReader(`{"url":"not a url"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, addr := range []string{"https://ibm.com/foo", "https://ibm.com/bar/baz/biff"} {
		rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/urls", strings.NewReader(`{"url":"`+addr+`","created_by":"api"}`)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/urls", strings.NewReader(`{"url":"https://ibm.com/foo"}`)))
	assert.Equal(t, http.StatusConflict, rec.Code)

	filter := `{"name":"Baz","mode":"AND","parts":[{"prop":"path_segment","path_index":1,"value":"baz"}]}`
	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/filters", strings.NewReader(filter)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/filters", strings.NewReader(`{"name":"x","mode":"XOR","parts":[{"prop":"host","value":"a"}]}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/filters/baz/urls", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var urls []models.URL
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &urls))
	require.Len(t, urls, 1)
	assert.Equal(t, "https://ibm.com/bar/baz/biff", urls[0].URL)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/api/filters/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/urls/"+itoa(urls[0].ID), nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, httptest.NewRequest(http.MethodDelete, "/api/urls/9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	_, _ = core.IngestReport([]byte(`{}`))
	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pagelab_reports_ingested_total")
}

func itoa(i int64) string {
	return strconv.FormatInt(i, 10)
}
