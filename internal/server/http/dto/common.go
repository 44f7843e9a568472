package dto

import "time"

// ErrorResponse is the body of every non-2xx JSON answer.
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse reports service readiness.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
