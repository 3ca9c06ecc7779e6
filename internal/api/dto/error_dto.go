package dto

import "time"

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     string    `json:"error" example:"Duplicate message"`
	Message   string    `json:"message" example:"duplicate message rejected: \"Order #1\" in group \"orders\""`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}

// StatusResponse is returned by commands that produce no other payload
type StatusResponse struct {
	Status    string    `json:"status" example:"cleared"`
	QueueType string    `json:"queue_type" example:"standard"`
	Timestamp time.Time `json:"timestamp" example:"2025-01-18T12:34:56Z"`
}
