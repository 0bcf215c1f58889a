package models

import "time"

// URLAverage is the rounded mean of every KPI across a URL's valid runs.
type URLAverage struct {
	ID            int64     `json:"id" readOnly:"true"`
	URLID         int64     `json:"url_id"`
	NumberSamples int64     `json:"number_samples"`
	CreatedAt     time.Time `json:"created_at" readOnly:"true"`
	UpdatedAt     time.Time `json:"updated_at" readOnly:"true"`
	KPIs
}
