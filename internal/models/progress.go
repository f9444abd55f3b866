package models

// ProgressUpdate reports the progress of a background job.
type ProgressUpdate struct {
	JobID    string  `json:"jobId"`
	Message  string  `json:"message"`
	Progress float64 `json:"progress"`
	Status   string  `json:"status,omitempty"` // e.g. "in_progress", "completed", "failed"
	Done     bool    `json:"done"`
}
