package models

// ErrorResponse is a generic error response structure for API
type ErrorResponse struct {
	Message string `json:"message" example:"Error message describing the issue"`
}

// StatusResponse is the envelope used by the crawler-facing endpoints.
type StatusResponse struct {
	Status  string      `json:"status" example:"success" enum:"success,error"`
	Message interface{} `json:"message"`
}

// ResultsResponse is the envelope used by the read API.
type ResultsResponse struct {
	Results interface{} `json:"results"`
}
