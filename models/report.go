package models

import "time"

// URLCard is one entry of the paginated browse listing.
type URLCard struct {
	ID             int64     `json:"id"`
	URL            string    `json:"url"`
	LatestRunID    int64     `json:"latest_run_id"`
	LatestRunAt    time.Time `json:"latest_run_at"`
	ThumbnailImage string    `json:"thumbnail_image,omitempty"`
	NumberSamples  int64     `json:"number_samples"`
	// Scores and paint timings below are the URL's averages.
	AccessibilityScore   int64 `json:"accessibility_score"`
	PerformanceScore     int64 `json:"performance_score"`
	SEOScore             int64 `json:"seo_score"`
	FirstContentfulPaint int64 `json:"first_contentful_paint"`
	FirstMeaningfulPaint int64 `json:"first_meaningful_paint"`
	Interactive          int64 `json:"interactive"`
}

// BrowseOptions drive the browse listing. Unknown sort keys fall back to date, descending.
type BrowseOptions struct {
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

type HomeItemsPage struct {
	PageNum     int       `json:"pageNum"`
	HasNextPage bool      `json:"hasNextPage"`
	ViewData    string    `json:"viewdata"`
	SortBy      string    `json:"sortby"`
	SortOrder   string    `json:"sortorder"`
	Filter      string    `json:"filter,omitempty"`
	Results     []URLCard `json:"results"`
}

// BucketCounts splits URLs into fast/average/slow by a timing KPI.
type BucketCounts struct {
	Fast    int64 `json:"fast"`
	Average int64 `json:"average"`
	Slow    int64 `json:"slow"`
}

// PerfCounts splits URLs by average performance score on the 0-49/50-89/90-100 scale.
type PerfCounts struct {
	Poor    int64 `json:"poor"`
	Average int64 `json:"average"`
	Good    int64 `json:"good"`
}

type DashboardStats struct {
	Filter           *URLFilter   `json:"filter,omitempty"`
	URLCountTested   int64        `json:"url_count_tested"`
	PerformanceAvg   int64        `json:"performance_avg"`
	AccessibilityAvg int64        `json:"accessibility_avg"`
	SEOAvg           int64        `json:"seo_avg"`
	Performance      PerfCounts   `json:"performance"`
	FCP              BucketCounts `json:"fcp"`
	FMP              BucketCounts `json:"fmp"`
	TTI              BucketCounts `json:"tti"`
}

// URLSummary is the detail view of one URL.
type URLSummary struct {
	URL       URL                        `json:"url"`
	LatestRun *Run                       `json:"latest_run,omitempty"`
	Average   *URLAverage                `json:"average,omitempty"`
	RunCount  int64                      `json:"run_count"`
	Timings   []TimingMeasurementAverage `json:"timings"`
}

type ChartDataset struct {
	Label string  `json:"label"`
	Data  []int64 `json:"data"`
}

// ChartData is the historical score series of a URL, oldest run first.
type ChartData struct {
	Labels   []string       `json:"labels"`
	Datasets []ChartDataset `json:"datasets"`
}
