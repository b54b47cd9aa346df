package models

import "time"

type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobFailed     JobStatus = "failed"
)

// Job is the async flavour of one memo cycle. Kept in Redis with a TTL.
type Job struct {
	ID         string          `json:"job_id"`
	Status     JobStatus       `json:"status"`
	State      ProcessingState `json:"state"`
	MIMEType   string          `json:"mime_type"`
	Provider   string          `json:"provider,omitempty"`
	Transcript *Transcript     `json:"transcript,omitempty"`
	ErrorCode  string          `json:"error_code,omitempty"`
	Error      string          `json:"error,omitempty"`

	ProcessingTimeMS int64     `json:"processing_time_ms,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
