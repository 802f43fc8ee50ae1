package domain

import "time"

// SearchIndexJobStatus is one of the four states a search-index job moves
// through (spec.md §3, §4.4).
type SearchIndexJobStatus string

const (
	SearchJobPending    SearchIndexJobStatus = "pending"
	SearchJobProcessing SearchIndexJobStatus = "processing"
	SearchJobCompleted  SearchIndexJobStatus = "completed"
	SearchJobFailed     SearchIndexJobStatus = "failed"
)

// SearchIndexJob drives a single PackageVersion's projection into the
// SearchDocument read-model. Unique per (tenant, version).
type SearchIndexJob struct {
	JobID       string
	TenantID    string
	VersionID   string
	Status      SearchIndexJobStatus
	AvailableAt time.Time
	Attempts    int
	LastError   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
