// Package searchjob provides the Postgres-backed Repository for
// domain.SearchIndexJob, the queue feeding the search-index worker.
package searchjob

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape search_index_jobs are read/written as.
type PostgreSQLModel struct {
	JobID       string
	TenantID    string
	VersionID   string
	Status      string
	AvailableAt time.Time
	Attempts    int
	LastError   sql.NullString
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FromEntity populates m from j.
func (m *PostgreSQLModel) FromEntity(j *domain.SearchIndexJob) {
	m.JobID = j.JobID
	m.TenantID = j.TenantID
	m.VersionID = j.VersionID
	m.Status = string(j.Status)
	m.AvailableAt = j.AvailableAt
	m.Attempts = j.Attempts
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt

	if j.LastError != nil {
		m.LastError = sql.NullString{String: *j.LastError, Valid: true}
	}
}

// ToEntity converts m to a domain.SearchIndexJob.
func (m *PostgreSQLModel) ToEntity() *domain.SearchIndexJob {
	j := &domain.SearchIndexJob{
		JobID:       m.JobID,
		TenantID:    m.TenantID,
		VersionID:   m.VersionID,
		Status:      domain.SearchIndexJobStatus(m.Status),
		AvailableAt: m.AvailableAt,
		Attempts:    m.Attempts,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}

	if m.LastError.Valid {
		lastErr := m.LastError.String
		j.LastError = &lastErr
	}

	return j
}
