package models

import "time"

// KPIs are the scalar metrics extracted from a report. Scores are 0-100,
// timings are milliseconds.
type KPIs struct {
	AccessibilityScore    int64 `json:"accessibility_score"`
	PerformanceScore      int64 `json:"performance_score"`
	SEOScore              int64 `json:"seo_score"`
	DOMContentLoaded      int64 `json:"dom_content_loaded"`
	DOMLoaded             int64 `json:"dom_loaded"`
	FirstContentfulPaint  int64 `json:"first_contentful_paint"`
	FirstMeaningfulPaint  int64 `json:"first_meaningful_paint"`
	Interactive           int64 `json:"interactive"`
	NumberNetworkRequests int64 `json:"number_network_requests"`
	RedirectHops          int64 `json:"redirect_hops"`
	RedirectWastedMs      int64 `json:"redirect_wasted_ms"`
	TimeToFirstByte       int64 `json:"time_to_first_byte"`
	TotalByteWeight       int64 `json:"total_byte_weight"`
	MastheadOnscreen      int64 `json:"masthead_onscreen"`
}

type Run struct {
	ID             int64     `json:"id" example:"42" format:"int64" readOnly:"true"`
	CreatedAt      time.Time `json:"created_at" readOnly:"true"`
	URLID          int64     `json:"url_id"`
	InvalidRun     bool      `json:"invalid_run"`
	HTTPErrorCode  *int64    `json:"http_error_code,omitempty"`
	ThumbnailImage string    `json:"thumbnail_image,omitempty"`
	KPIs
}

// UserTiming is one entry of the report's user-timings audit.
type UserTiming struct {
	Name       string  `json:"name"`
	TimingType string  `json:"timingType"`
	StartTime  float64 `json:"startTime"`
	Duration   float64 `json:"duration"`
}

// ParsedReport is the normalized form of an ingested report.
type ParsedReport struct {
	RequestedURL   string
	KPIs           KPIs
	ThumbnailImage string
	InvalidRun     bool
	HTTPErrorCode  *int64
	UserTimings    []UserTiming
	// Raw is the inner report document exactly as received.
	Raw string
}
