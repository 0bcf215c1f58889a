package core

import (
	"io"
	"pagelab/config"
	"pagelab/database"
	"pagelab/logger"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	logger.SetOutput(io.Discard, "ERROR")
	config.AppConfig = config.Defaults()
	require.NoError(t, database.InitDB(filepath.Join(t.TempDir(), "test.db")))
	t.Cleanup(func() { _ = database.CloseDB() })
}

// reportOpts describes the fields of a synthetic report.
type reportOpts struct {
	URL         string
	Perf        float64
	A11y        float64
	SEO         float64
	Requests    int
	StatusCode  int
	FCP         float64
	Timings     []map[string]interface{}
	Thumbnails  []string
	OmitAudits  bool
	ExtraAudits map[string]interface{}
}

func buildReport(t *testing.T, o reportOpts) map[string]interface{} {
	t.Helper()
	if o.StatusCode == 0 {
		o.StatusCode = 200
	}
	doc := map[string]interface{}{
		"requestedUrl": o.URL,
		"categories": map[string]interface{}{
			"performance":   map[string]interface{}{"score": o.Perf},
			"accessibility": map[string]interface{}{"score": o.A11y},
			"seo":           map[string]interface{}{"score": o.SEO},
		},
	}
	if o.OmitAudits {
		return doc
	}
	requests := make([]map[string]interface{}, 0, o.Requests)
	for i := 0; i < o.Requests; i++ {
		code := 200
		if i == 0 {
			code = o.StatusCode
		}
		requests = append(requests, map[string]interface{}{"statusCode": code})
	}
	thumbs := make([]map[string]interface{}, 0, len(o.Thumbnails))
	for _, d := range o.Thumbnails {
		thumbs = append(thumbs, map[string]interface{}{"data": d})
	}
	audits := map[string]interface{}{
		"network-requests":       map[string]interface{}{"rawValue": o.Requests, "details": map[string]interface{}{"items": requests}},
		"first-contentful-paint": map[string]interface{}{"rawValue": o.FCP},
		"total-byte-weight":      map[string]interface{}{"rawValue": 123456},
		"user-timings":           map[string]interface{}{"details": map[string]interface{}{"items": o.Timings}},
		"screenshot-thumbnails":  map[string]interface{}{"details": map[string]interface{}{"items": thumbs}},
	}
	for k, v := range o.ExtraAudits {
		audits[k] = v
	}
	doc["audits"] = audits
	return doc
}

// envelope wraps a report document the way the crawler submits it.
func envelope(t *testing.T, doc map[string]interface{}) []byte {
	t.Helper()
	inner, err := json.Marshal(doc)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]string{"report": string(inner)})
	require.NoError(t, err)
	return body
}

func measure(name string, start, duration float64) map[string]interface{} {
	return map[string]interface{}{"name": name, "timingType": "Measure", "startTime": start, "duration": duration}
}

func mustCreateURL(t *testing.T, address string) int64 {
	t.Helper()
	u, err := CreateURL(address, "", 0, "test")
	require.NoError(t, err)
	return u.ID
}
