package models

import "time"

const (
	FilterModeAnd = "AND"
	FilterModeOr  = "OR"
)

// Filter part properties.
const (
	FilterPropProtocol    = "protocol"
	FilterPropHost        = "host"
	FilterPropHostname    = "hostname"
	FilterPropPort        = "port"
	FilterPropPathname    = "pathname"
	FilterPropSearch      = "search"
	FilterPropHash        = "hash"
	FilterPropOrigin      = "origin"
	FilterPropPathSegment = "path_segment"
	FilterPropSearchKey   = "search_key"
)

// URLFilterPart is one constraint of a saved filter. Key is only meaningful
// for search_key, PathIndex only for path_segment.
type URLFilterPart struct {
	ID        int64   `json:"id,omitempty" readOnly:"true"`
	FilterID  int64   `json:"filter_id,omitempty" readOnly:"true"`
	Position  int     `json:"position"`
	Prop      string  `json:"prop" example:"path_segment"`
	Key       *string `json:"key,omitempty"`
	PathIndex *int    `json:"path_index,omitempty"`
	Value     string  `json:"value" example:"cloud"`
}

// URLFilter is a named, persisted predicate over URLs.
type URLFilter struct {
	ID          int64           `json:"id" readOnly:"true"`
	Name        string          `json:"name" example:"Cloud pages"`
	Slug        string          `json:"slug" readOnly:"true" example:"cloud-pages"`
	Description string          `json:"description,omitempty"`
	Mode        string          `json:"mode" enum:"AND,OR"`
	Parts       []URLFilterPart `json:"parts"`
	CreatedAt   time.Time       `json:"created_at" readOnly:"true"`
}

type URLFilterPartRequest struct {
	Prop      string  `json:"prop" validate:"required,oneof=protocol host hostname port pathname search hash origin path_segment search_key"`
	Key       *string `json:"key,omitempty"`
	PathIndex *int    `json:"path_index,omitempty" validate:"omitempty,gte=0"`
	Value     string  `json:"value" validate:"max=2000"`
}

// URLFilterCreateRequest is the body accepted by POST /api/filters.
type URLFilterCreateRequest struct {
	Name        string                 `json:"name" validate:"required,max=200"`
	Description string                 `json:"description,omitempty" validate:"max=2000"`
	Mode        string                 `json:"mode" validate:"required,oneof=AND OR"`
	Parts       []URLFilterPartRequest `json:"parts" validate:"required,min=1,dive"`
}
