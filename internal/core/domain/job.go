package domain

import "time"

// JobStatus is the lifecycle state of a queued ingestion job.
type JobStatus string

// Job states.
const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// IsTerminal returns true once the job will not change state again.
func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobFailed
}

// Job is a snapshot of a unit of work on the ingestion pool.
type Job struct {
	// ID is the unique identifier for the job.
	ID string

	// Name describes the work (usually the source locator).
	Name string

	// Status is the current state.
	Status JobStatus

	// SubmittedAt is when the job entered the queue.
	SubmittedAt time.Time

	// StartedAt is when a worker picked the job up.
	StartedAt time.Time

	// EndedAt is when the job finished.
	EndedAt time.Time

	// Error contains the failure message if Status is JobFailed.
	Error string
}

// IngestRequest asks for a source to be extracted and indexed.
type IngestRequest struct {
	// SourceType selects the extractor.
	SourceType SourceType

	// Locator is the path, URL or video URL to extract.
	Locator string

	// Title overrides the extracted title when set.
	Title string
}
