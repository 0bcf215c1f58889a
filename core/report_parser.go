package core

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"pagelab/models"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedReport is returned when the body or the embedded report is missing or not JSON.
	ErrMalformedReport = errors.New("malformed report")
	// ErrUnknownURL is returned when a report's requestedUrl matches no tracked URL.
	ErrUnknownURL = errors.New("unknown url")
)

const measureTimingType = "Measure"

// ParseReport decodes an ingestion body of the form {"report": "<json string>"} and
// extracts every KPI. Only envelope problems fail; a missing or mistyped KPI path
// leaves that field at its default.
func ParseReport(body []byte, mastheadTimingName string) (models.ParsedReport, error) {
	var p models.ParsedReport
	if len(bytes.TrimSpace(body)) == 0 {
		return p, fmt.Errorf("%w: Report value missing in request", ErrMalformedReport)
	}
	if !gjson.ValidBytes(body) {
		return p, fmt.Errorf("%w: request body is not valid JSON", ErrMalformedReport)
	}
	envelope := gjson.ParseBytes(body)
	if !envelope.IsObject() {
		return p, fmt.Errorf("%w: request body is not a JSON object", ErrMalformedReport)
	}
	inner := envelope.Get("report")
	if inner.Type != gjson.String || inner.Str == "" {
		return p, fmt.Errorf("%w: Report value missing in request", ErrMalformedReport)
	}
	if !gjson.Valid(inner.Str) {
		return p, fmt.Errorf("%w: report value is not valid JSON", ErrMalformedReport)
	}
	doc := gjson.Parse(inner.Str)
	if !doc.IsObject() {
		return p, fmt.Errorf("%w: report value is not a JSON object", ErrMalformedReport)
	}
	requested := doc.Get("requestedUrl")
	if requested.Type != gjson.String || requested.Str == "" {
		return p, fmt.Errorf("%w: report has no requestedUrl", ErrMalformedReport)
	}

	p.RequestedURL = requested.Str
	p.Raw = inner.Str
	p.KPIs = extractKPIs(doc, mastheadTimingName)
	p.ThumbnailImage = extractThumbnail(doc)
	p.HTTPErrorCode = extractHTTPErrorCode(doc)
	p.InvalidRun = p.HTTPErrorCode != nil
	p.UserTimings = extractUserTimings(doc)
	return p, nil
}

func extractKPIs(doc gjson.Result, mastheadTimingName string) models.KPIs {
	return models.KPIs{
		AccessibilityScore:    scoreAt(doc, "categories.accessibility.score"),
		PerformanceScore:      scoreAt(doc, "categories.performance.score"),
		SEOScore:              scoreAt(doc, "categories.seo.score"),
		TotalByteWeight:       numberAt(doc, "audits.total-byte-weight.rawValue"),
		NumberNetworkRequests: numberAt(doc, "audits.network-requests.rawValue"),
		TimeToFirstByte:       numberAt(doc, "audits.time-to-first-byte.rawValue"),
		FirstMeaningfulPaint:  numberAt(doc, "audits.first-meaningful-paint.rawValue"),
		FirstContentfulPaint:  numberAt(doc, "audits.first-contentful-paint.rawValue"),
		Interactive:           numberAt(doc, "audits.interactive.rawValue"),
		DOMContentLoaded:      numberAt(doc, "audits.metrics.details.items.0.observedDomContentLoaded"),
		DOMLoaded:             numberAt(doc, "audits.metrics.details.items.0.observedLoad"),
		RedirectHops:          arrayLenAt(doc, "audits.redirects.details.items"),
		RedirectWastedMs:      numberAt(doc, "audits.redirects.rawValue"),
		MastheadOnscreen:      userTimingStart(doc, mastheadTimingName),
	}
}

// numberAt returns the value at path truncated to an integer, or 0 when the path
// is absent, not a number, negative, or outside the int64 range.
func numberAt(doc gjson.Result, path string) int64 {
	r := doc.Get(path)
	if r.Type != gjson.Number || !inInt64Range(r.Num) || r.Num < 0 {
		return 0
	}
	return int64(r.Num)
}

// inInt64Range reports whether f converts to int64 without overflow.
func inInt64Range(f float64) bool {
	return !math.IsNaN(f) && f > math.MinInt64 && f < math.MaxInt64
}

// scoreAt converts a 0-1 category score to 0-100, truncating.
func scoreAt(doc gjson.Result, path string) int64 {
	r := doc.Get(path)
	if r.Type != gjson.Number || r.Num < 0 || !inInt64Range(r.Num*100) {
		return 0
	}
	return int64(r.Num * 100)
}

func arrayLenAt(doc gjson.Result, path string) int64 {
	r := doc.Get(path)
	if !r.IsArray() {
		return 0
	}
	return int64(len(r.Array()))
}

// extractThumbnail returns the data of the last screenshot thumbnail.
func extractThumbnail(doc gjson.Result) string {
	items := doc.Get("audits.screenshot-thumbnails.details.items")
	if !items.IsArray() {
		return ""
	}
	arr := items.Array()
	if len(arr) == 0 {
		return ""
	}
	data := arr[len(arr)-1].Get("data")
	if data.Type != gjson.String {
		return ""
	}
	return data.Str
}

// extractHTTPErrorCode returns the first network request's status when it is 400 or above.
func extractHTTPErrorCode(doc gjson.Result) *int64 {
	r := doc.Get("audits.network-requests.details.items.0.statusCode")
	if r.Type != gjson.Number || !inInt64Range(r.Num) {
		return nil
	}
	code := int64(r.Num)
	if code <= 399 {
		return nil
	}
	return &code
}

func userTimingStart(doc gjson.Result, name string) int64 {
	if name == "" {
		return 0
	}
	items := doc.Get("audits.user-timings.details.items")
	if !items.IsArray() {
		return 0
	}
	for _, item := range items.Array() {
		n := item.Get("name")
		if n.Type == gjson.String && n.Str == name {
			return numberAt(item, "startTime")
		}
	}
	return 0
}

// extractUserTimings returns the Measure entries of the user-timings audit. Entries
// without a name or a numeric start time are dropped; a missing duration is 0.
func extractUserTimings(doc gjson.Result) []models.UserTiming {
	items := doc.Get("audits.user-timings.details.items")
	if !items.IsArray() {
		return nil
	}
	var timings []models.UserTiming
	for _, item := range items.Array() {
		if item.Get("timingType").Str != measureTimingType {
			continue
		}
		name := item.Get("name")
		start := item.Get("startTime")
		if name.Type != gjson.String || name.Str == "" || start.Type != gjson.Number {
			continue
		}
		t := models.UserTiming{
			Name:       name.Str,
			TimingType: measureTimingType,
			StartTime:  start.Num,
		}
		if d := item.Get("duration"); d.Type == gjson.Number {
			t.Duration = d.Num
		}
		timings = append(timings, t)
	}
	return timings
}
