package core

import "time"

// JobStatus enumerates the lifecycle of an asynchronous orchestration job.
type JobStatus string

const (
	// JobProcessing is the initial status recorded at submission.
	JobProcessing JobStatus = "processing"
	// JobCompleted means the pipeline finished and Result is populated.
	JobCompleted JobStatus = "completed"
	// JobError means the pipeline failed; Error carries the description.
	JobError JobStatus = "error"
)

// Job decouples pipeline submission from completion. Created at submission
// with JobProcessing, transitioned exactly once by the worker that completes
// the pipeline, and read repeatedly by pollers.
type Job struct {
	TraceID   string    `json:"trace_id"`
	Status    JobStatus `json:"status"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	Submitted time.Time `json:"submitted"`
	Finished  time.Time `json:"finished,omitzero"`
}

// Terminal reports whether the job has reached a final state.
func (j Job) Terminal() bool { return j.Status != JobProcessing }
