package models

import "time"

// ReviewRequest is the body posted to the review service.
type ReviewRequest struct {
	DirectoryPath string `json:"directoryPath"`
	ApiKey        string `json:"apiKey"`
}

// Status tags how a backend call ended.
type Status string

const (
	StatusCompleted   Status = "completed"
	StatusTimeout     Status = "timeout"
	StatusUnreachable Status = "unreachable"
	StatusFailed      Status = "failed"
	StatusCanceled    Status = "canceled"
)

// Completion describes a finished backend call.
type Completion struct {
	Status     Status        `json:"status"`
	StatusCode int           `json:"status_code,omitempty"`
	Attempts   int           `json:"attempts"`
	Elapsed    time.Duration `json:"elapsed"`
	Detail     string        `json:"detail,omitempty"`
}

// BackendError is the error body of the review service.
type BackendError struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}
