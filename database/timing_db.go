package database

import (
	"fmt"
	"pagelab/models"
)

// GetOrCreateTimingName resolves a timing name by exact match, creating it on first use.
func GetOrCreateTimingName(q Queryer, name string) (int64, error) {
	if _, err := q.Exec(`INSERT INTO timing_measurement_names (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return 0, fmt.Errorf("inserting timing name '%s': %w", name, err)
	}
	var id int64
	if err := q.QueryRow(`SELECT id FROM timing_measurement_names WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("fetching timing name '%s': %w", name, err)
	}
	return id, nil
}

// CreateTimingMeasurement stores one sample. A second sample for the same run and
// name fails with ErrDuplicateTimingSample.
func CreateTimingMeasurement(q Queryer, m models.TimingMeasurement) (int64, error) {
	res, err := q.Exec(`INSERT INTO timing_measurements (url_id, run_id, name_id, start_time, duration) VALUES (?, ?, ?, ?, ?)`,
		m.URLID, m.RunID, m.NameID, m.StartTime, m.Duration)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("run %d name %d: %w", m.RunID, m.NameID, ErrDuplicateTimingSample)
		}
		return 0, fmt.Errorf("inserting timing measurement for run %d: %w", m.RunID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert ID for timing measurement: %w", err)
	}
	return id, nil
}

// TimingMeans aggregates a (URL, name) pair's samples from runs not flagged invalid.
// Samples from invalid runs stay stored but never move the average; earlier
// deployments averaged every sample, so figures differ for URLs with invalid runs.
func TimingMeans(q Queryer, urlID, nameID int64) (samples int64, startTime, duration float64, err error) {
	err = q.QueryRow(`SELECT COUNT(*), COALESCE(AVG(tm.start_time), 0), COALESCE(AVG(tm.duration), 0)
		FROM timing_measurements tm JOIN runs r ON r.id = tm.run_id
		WHERE tm.url_id = ? AND tm.name_id = ? AND r.invalid_run = 0`, urlID, nameID).Scan(&samples, &startTime, &duration)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("aggregating timing samples for url %d name %d: %w", urlID, nameID, err)
	}
	return samples, startTime, duration, nil
}

func UpsertTimingAverage(q Queryer, urlID, nameID, startTime, duration, samples int64) error {
	_, err := q.Exec(`INSERT INTO timing_measurement_averages (url_id, name_id, start_time, duration, number_samples)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url_id, name_id) DO UPDATE SET
			start_time = excluded.start_time,
			duration = excluded.duration,
			number_samples = excluded.number_samples,
			updated_at = CURRENT_TIMESTAMP`,
		urlID, nameID, startTime, duration, samples)
	if err != nil {
		return fmt.Errorf("upserting timing average for url %d name %d: %w", urlID, nameID, err)
	}
	return nil
}

func DeleteTimingAverage(q Queryer, urlID, nameID int64) error {
	if _, err := q.Exec(`DELETE FROM timing_measurement_averages WHERE url_id = ? AND name_id = ?`, urlID, nameID); err != nil {
		return fmt.Errorf("deleting timing average for url %d name %d: %w", urlID, nameID, err)
	}
	return nil
}

// ListTimingPairs returns every distinct (url, name) pair that has samples.
func ListTimingPairs(q Queryer) ([][2]int64, error) {
	rows, err := q.Query(`SELECT DISTINCT url_id, name_id FROM timing_measurements ORDER BY url_id, name_id`)
	if err != nil {
		return nil, fmt.Errorf("querying timing pairs: %w", err)
	}
	defer rows.Close()
	pairs := [][2]int64{}
	for rows.Next() {
		var p [2]int64
		if err := rows.Scan(&p[0], &p[1]); err != nil {
			return nil, fmt.Errorf("scanning timing pair: %w", err)
		}
		pairs = append(pairs, p)
	}
	return pairs, rows.Err()
}

func ListTimingAverages(q Queryer, urlID int64) ([]models.TimingMeasurementAverage, error) {
	rows, err := q.Query(`SELECT a.id, a.url_id, a.name_id, n.name, a.start_time, a.duration, a.number_samples, a.updated_at
		FROM timing_measurement_averages a JOIN timing_measurement_names n ON n.id = a.name_id
		WHERE a.url_id = ? ORDER BY n.name`, urlID)
	if err != nil {
		return nil, fmt.Errorf("querying timing averages for url %d: %w", urlID, err)
	}
	defer rows.Close()
	avgs := []models.TimingMeasurementAverage{}
	for rows.Next() {
		var a models.TimingMeasurementAverage
		if err := rows.Scan(&a.ID, &a.URLID, &a.NameID, &a.Name, &a.StartTime, &a.Duration, &a.NumberSamples, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning timing average: %w", err)
		}
		avgs = append(avgs, a)
	}
	return avgs, rows.Err()
}

// ListTimingMeasurements returns the samples stored for a run.
func ListTimingMeasurements(q Queryer, runID int64) ([]models.TimingMeasurement, error) {
	rows, err := q.Query(`SELECT id, url_id, run_id, name_id, start_time, duration, created_at
		FROM timing_measurements WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying timing measurements for run %d: %w", runID, err)
	}
	defer rows.Close()
	samples := []models.TimingMeasurement{}
	for rows.Next() {
		var m models.TimingMeasurement
		if err := rows.Scan(&m.ID, &m.URLID, &m.RunID, &m.NameID, &m.StartTime, &m.Duration, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning timing measurement: %w", err)
		}
		samples = append(samples, m)
	}
	return samples, rows.Err()
}
