package database

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/models"
)

// validRunPredicate selects the runs that may contribute to a URL average.
const validRunPredicate = `invalid_run = 0 AND performance_score > 5 AND number_network_requests > 1`

// RunMeans holds the unrounded means of every KPI over a URL's valid runs.
// SEOScore is averaged over SEOSamples runs only (those with a positive SEO score).
type RunMeans struct {
	Samples               int64
	SEOSamples            int64
	AccessibilityScore    float64
	PerformanceScore      float64
	SEOScore              float64
	DOMContentLoaded      float64
	DOMLoaded             float64
	FirstContentfulPaint  float64
	FirstMeaningfulPaint  float64
	Interactive           float64
	NumberNetworkRequests float64
	RedirectHops          float64
	RedirectWastedMs      float64
	TimeToFirstByte       float64
	TotalByteWeight       float64
	MastheadOnscreen      float64
}

// ValidRunMeans aggregates the full valid-run history of a URL.
func ValidRunMeans(q Queryer, urlID int64) (RunMeans, error) {
	var m RunMeans
	err := q.QueryRow(`SELECT COUNT(*),
		COUNT(CASE WHEN seo_score > 0 THEN 1 END),
		COALESCE(AVG(accessibility_score), 0),
		COALESCE(AVG(performance_score), 0),
		COALESCE(AVG(CASE WHEN seo_score > 0 THEN seo_score END), 0),
		COALESCE(AVG(dom_content_loaded), 0),
		COALESCE(AVG(dom_loaded), 0),
		COALESCE(AVG(first_contentful_paint), 0),
		COALESCE(AVG(first_meaningful_paint), 0),
		COALESCE(AVG(interactive), 0),
		COALESCE(AVG(number_network_requests), 0),
		COALESCE(AVG(redirect_hops), 0),
		COALESCE(AVG(redirect_wasted_ms), 0),
		COALESCE(AVG(time_to_first_byte), 0),
		COALESCE(AVG(total_byte_weight), 0),
		COALESCE(AVG(masthead_onscreen), 0)
		FROM runs WHERE url_id = ? AND `+validRunPredicate, urlID).Scan(
		&m.Samples, &m.SEOSamples,
		&m.AccessibilityScore, &m.PerformanceScore, &m.SEOScore,
		&m.DOMContentLoaded, &m.DOMLoaded, &m.FirstContentfulPaint, &m.FirstMeaningfulPaint,
		&m.Interactive, &m.NumberNetworkRequests, &m.RedirectHops, &m.RedirectWastedMs,
		&m.TimeToFirstByte, &m.TotalByteWeight, &m.MastheadOnscreen)
	if err != nil {
		return m, fmt.Errorf("aggregating valid runs for url %d: %w", urlID, err)
	}
	return m, nil
}

// UpsertURLAverage overwrites every field of the URL's average row, creating it if needed,
// and returns the row id.
func UpsertURLAverage(q Queryer, urlID, samples int64, k models.KPIs) (int64, error) {
	_, err := q.Exec(`INSERT INTO url_averages (url_id, number_samples,
		accessibility_score, performance_score, seo_score, dom_content_loaded, dom_loaded,
		first_contentful_paint, first_meaningful_paint, interactive, number_network_requests,
		redirect_hops, redirect_wasted_ms, time_to_first_byte, total_byte_weight, masthead_onscreen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url_id) DO UPDATE SET
			number_samples = excluded.number_samples,
			accessibility_score = excluded.accessibility_score,
			performance_score = excluded.performance_score,
			seo_score = excluded.seo_score,
			dom_content_loaded = excluded.dom_content_loaded,
			dom_loaded = excluded.dom_loaded,
			first_contentful_paint = excluded.first_contentful_paint,
			first_meaningful_paint = excluded.first_meaningful_paint,
			interactive = excluded.interactive,
			number_network_requests = excluded.number_network_requests,
			redirect_hops = excluded.redirect_hops,
			redirect_wasted_ms = excluded.redirect_wasted_ms,
			time_to_first_byte = excluded.time_to_first_byte,
			total_byte_weight = excluded.total_byte_weight,
			masthead_onscreen = excluded.masthead_onscreen,
			updated_at = CURRENT_TIMESTAMP`,
		urlID, samples,
		k.AccessibilityScore, k.PerformanceScore, k.SEOScore, k.DOMContentLoaded, k.DOMLoaded,
		k.FirstContentfulPaint, k.FirstMeaningfulPaint, k.Interactive, k.NumberNetworkRequests,
		k.RedirectHops, k.RedirectWastedMs, k.TimeToFirstByte, k.TotalByteWeight, k.MastheadOnscreen)
	if err != nil {
		return 0, fmt.Errorf("upserting average for url %d: %w", urlID, err)
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM url_averages WHERE url_id = ?`, urlID).Scan(&id); err != nil {
		return 0, fmt.Errorf("fetching average id for url %d: %w", urlID, err)
	}
	return id, nil
}

// GetURLAverage returns an error wrapping sql.ErrNoRows when the URL has no average yet.
func GetURLAverage(q Queryer, urlID int64) (models.URLAverage, error) {
	var a models.URLAverage
	k := &a.KPIs
	err := q.QueryRow(`SELECT id, url_id, number_samples, created_at, updated_at,
		accessibility_score, performance_score, seo_score, dom_content_loaded, dom_loaded,
		first_contentful_paint, first_meaningful_paint, interactive, number_network_requests,
		redirect_hops, redirect_wasted_ms, time_to_first_byte, total_byte_weight, masthead_onscreen
		FROM url_averages WHERE url_id = ?`, urlID).Scan(
		&a.ID, &a.URLID, &a.NumberSamples, &a.CreatedAt, &a.UpdatedAt,
		&k.AccessibilityScore, &k.PerformanceScore, &k.SEOScore, &k.DOMContentLoaded, &k.DOMLoaded,
		&k.FirstContentfulPaint, &k.FirstMeaningfulPaint, &k.Interactive, &k.NumberNetworkRequests,
		&k.RedirectHops, &k.RedirectWastedMs, &k.TimeToFirstByte, &k.TotalByteWeight, &k.MastheadOnscreen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, fmt.Errorf("average for url %d not found: %w", urlID, err)
		}
		return a, fmt.Errorf("querying average for url %d: %w", urlID, err)
	}
	return a, nil
}
