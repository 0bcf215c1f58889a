package database

import (
	"database/sql"
	"errors"
	"fmt"
	"pagelab/models"
)

const runSelectColumns = `id, created_at, url_id, invalid_run, http_error_code, thumbnail_image,
	accessibility_score, performance_score, seo_score, dom_content_loaded, dom_loaded,
	first_contentful_paint, first_meaningful_paint, interactive, number_network_requests,
	redirect_hops, redirect_wasted_ms, time_to_first_byte, total_byte_weight, masthead_onscreen`

func scanRun(row rowScanner) (models.Run, error) {
	var r models.Run
	var httpErr sql.NullInt64
	k := &r.KPIs
	err := row.Scan(&r.ID, &r.CreatedAt, &r.URLID, &r.InvalidRun, &httpErr, &r.ThumbnailImage,
		&k.AccessibilityScore, &k.PerformanceScore, &k.SEOScore, &k.DOMContentLoaded, &k.DOMLoaded,
		&k.FirstContentfulPaint, &k.FirstMeaningfulPaint, &k.Interactive, &k.NumberNetworkRequests,
		&k.RedirectHops, &k.RedirectWastedMs, &k.TimeToFirstByte, &k.TotalByteWeight, &k.MastheadOnscreen)
	if err != nil {
		return r, err
	}
	r.HTTPErrorCode = models.NullInt64Ptr(httpErr)
	return r, nil
}

// CreateEmptyRun inserts a run with default KPI values so dependent rows can reference its id.
func CreateEmptyRun(q Queryer, urlID int64) (int64, error) {
	res, err := q.Exec(`INSERT INTO runs (url_id) VALUES (?)`, urlID)
	if err != nil {
		return 0, fmt.Errorf("inserting run for url %d: %w", urlID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for run: %w", err)
	}
	return id, nil
}

func SaveRawReport(q Queryer, runID int64, reportData string) error {
	if _, err := q.Exec(`INSERT INTO raw_report_data (run_id, report_data) VALUES (?, ?)`, runID, reportData); err != nil {
		return fmt.Errorf("saving raw report for run %d: %w", runID, err)
	}
	return nil
}

// PopulateRun writes the extracted KPIs and validity of a parsed report onto a run.
func PopulateRun(q Queryer, runID int64, p models.ParsedReport) error {
	var httpErr interface{}
	if p.HTTPErrorCode != nil {
		httpErr = *p.HTTPErrorCode
	}
	k := p.KPIs
	res, err := q.Exec(`UPDATE runs SET invalid_run = ?, http_error_code = ?, thumbnail_image = ?,
		accessibility_score = ?, performance_score = ?, seo_score = ?, dom_content_loaded = ?, dom_loaded = ?,
		first_contentful_paint = ?, first_meaningful_paint = ?, interactive = ?, number_network_requests = ?,
		redirect_hops = ?, redirect_wasted_ms = ?, time_to_first_byte = ?, total_byte_weight = ?, masthead_onscreen = ?
		WHERE id = ?`,
		p.InvalidRun, httpErr, p.ThumbnailImage,
		k.AccessibilityScore, k.PerformanceScore, k.SEOScore, k.DOMContentLoaded, k.DOMLoaded,
		k.FirstContentfulPaint, k.FirstMeaningfulPaint, k.Interactive, k.NumberNetworkRequests,
		k.RedirectHops, k.RedirectWastedMs, k.TimeToFirstByte, k.TotalByteWeight, k.MastheadOnscreen,
		runID)
	if err != nil {
		return fmt.Errorf("populating run %d: %w", runID, err)
	}
	return requireAffected(res, "run", runID)
}

func GetRunByID(q Queryer, id int64) (models.Run, error) {
	r, err := scanRun(q.QueryRow(`SELECT `+runSelectColumns+` FROM runs WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, fmt.Errorf("run with ID %d not found: %w", id, err)
		}
		return r, fmt.Errorf("querying run %d: %w", id, err)
	}
	return r, nil
}

// GetRawReport returns the stored report document for a run.
func GetRawReport(runID int64) (string, error) {
	var data string
	err := DB.QueryRow(`SELECT report_data FROM raw_report_data WHERE run_id = ?`, runID).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("raw report for run %d not found: %w", runID, err)
		}
		return "", fmt.Errorf("querying raw report for run %d: %w", runID, err)
	}
	return data, nil
}

// ListLatestRuns returns up to limit runs of a URL, newest first.
func ListLatestRuns(urlID int64, limit int) ([]models.Run, error) {
	rows, err := DB.Query(`SELECT `+runSelectColumns+` FROM runs WHERE url_id = ? ORDER BY id DESC LIMIT ?`, urlID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs for url %d: %w", urlID, err)
	}
	defer rows.Close()
	runs := []models.Run{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func CountRuns(urlID int64) (int64, error) {
	var n int64
	if err := DB.QueryRow(`SELECT COUNT(*) FROM runs WHERE url_id = ?`, urlID).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting runs for url %d: %w", urlID, err)
	}
	return n, nil
}
