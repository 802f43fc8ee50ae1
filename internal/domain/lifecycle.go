package domain

import "time"

// Tombstone is a logical-delete record with a retention deadline, unique
// per (tenant, repo, version).
type Tombstone struct {
	ID             string
	TenantID       string
	RepoID         string
	VersionID      string
	DeletedBy      string
	DeletedAt      time.Time
	RetentionUntil time.Time
	Reason         string
}

// GcMode is dry_run or execute.
type GcMode string

const (
	GcModeDryRun  GcMode = "dry_run"
	GcModeExecute GcMode = "execute"
)

// GcRun is one mark-and-sweep pass, with counters finalized on completion.
type GcRun struct {
	RunID               string
	TenantID            string
	InitiatedBy         string
	Mode                GcMode
	RetentionGraceHours int
	BatchSize           int
	StartedAt           time.Time
	CompletedAt         *time.Time
	Marked              int
	CandidateBlobs      int
	DeletedBlobs        int
	DeletedVersions     int
	DeleteErrors        int
}

// GcMark is a run-scoped reachability mark: (run_id, digest) composite PK.
type GcMark struct {
	RunID    string
	Digest   string
	MarkedAt time.Time
}
