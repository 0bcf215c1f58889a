package models

import "time"

// Location holds the parts of a URL address. Delimiters (":" "?" "#") are stripped.
type Location struct {
	Protocol string `json:"protocol" example:"https"`
	Host     string `json:"host" example:"www.ibm.com:8443"`
	Hostname string `json:"hostname" example:"www.ibm.com"`
	Port     string `json:"port" example:"8443"`
	Pathname string `json:"pathname" example:"/cloud/products"`
	Search   string `json:"search" example:"lang=en"`
	Hash     string `json:"hash" example:"pricing"`
	Origin   string `json:"origin" example:"https://www.ibm.com:8443"`
}

// SearchKeyVal is one query string pair, kept in address order.
type SearchKeyVal struct {
	Key string `json:"key"`
	Val string `json:"val"`
}

type URL struct {
	ID          int64  `json:"id" example:"1" format:"int64" readOnly:"true"`
	URL         string `json:"url" example:"https://www.ibm.com/cloud"`
	Inactive    bool   `json:"inactive"`
	Sequence    int    `json:"sequence"`
	OwnerID     *int64 `json:"owner_id,omitempty"`
	OwnerName   string `json:"owner,omitempty"`
	CreatedBy   string `json:"created_by,omitempty"`
	EditedBy    string `json:"edited_by,omitempty"`
	Location
	LatestRunID *int64    `json:"latest_run_id,omitempty" readOnly:"true"`
	AverageID   *int64    `json:"average_id,omitempty" readOnly:"true"`
	CreatedAt   time.Time `json:"created_at" readOnly:"true"`
	UpdatedAt   time.Time `json:"updated_at" readOnly:"true"`
}

// URLCreateRequest is the body accepted by POST /api/urls.
type URLCreateRequest struct {
	URL       string `json:"url" validate:"required,url" example:"https://www.ibm.com/cloud"`
	Owner     string `json:"owner,omitempty" validate:"max=200"`
	Sequence  int    `json:"sequence" validate:"gte=0"`
	CreatedBy string `json:"created_by,omitempty" validate:"max=150"`
}

// URLUpdateRequest is the body accepted by PUT /api/urls/{id}.
type URLUpdateRequest struct {
	URL      string `json:"url" validate:"required,url"`
	EditedBy string `json:"edited_by,omitempty" validate:"max=150"`
}

// QueueItem is one entry of the crawler queue.
type QueueItem struct {
	URL string `json:"url"`
	ID  int64  `json:"id"`
}

// URLSearchResult is a typeahead match.
type URLSearchResult struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

// ImportResult summarizes a bulk URL import.
type ImportResult struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
