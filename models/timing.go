package models

import "time"

type TimingMeasurementName struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TimingMeasurement struct {
	ID        int64     `json:"id"`
	URLID     int64     `json:"url_id"`
	RunID     int64     `json:"run_id"`
	NameID    int64     `json:"name_id"`
	StartTime int64     `json:"start_time"`
	Duration  int64     `json:"duration"`
	CreatedAt time.Time `json:"created_at"`
}

type TimingMeasurementAverage struct {
	ID            int64     `json:"id"`
	URLID         int64     `json:"url_id"`
	NameID        int64     `json:"name_id"`
	Name          string    `json:"name"`
	StartTime     int64     `json:"start_time"`
	Duration      int64     `json:"duration"`
	NumberSamples int64     `json:"number_samples"`
	UpdatedAt     time.Time `json:"updated_at"`
}
