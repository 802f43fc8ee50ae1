// Package gcrun provides the Postgres-backed Repository for domain.GcRun and
// domain.GcMark, the bookkeeping behind one mark-and-sweep pass (spec.md
// §5).
package gcrun

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape gc_runs are read/written as.
type PostgreSQLModel struct {
	RunID               string
	TenantID            string
	InitiatedBy         string
	Mode                string
	RetentionGraceHours int
	BatchSize           int
	StartedAt           time.Time
	CompletedAt         sql.NullTime
	Marked              int
	CandidateBlobs      int
	DeletedBlobs        int
	DeletedVersions     int
	DeleteErrors        int
}

// FromEntity populates m from g.
func (m *PostgreSQLModel) FromEntity(g *domain.GcRun) {
	m.RunID = g.RunID
	m.TenantID = g.TenantID
	m.InitiatedBy = g.InitiatedBy
	m.Mode = string(g.Mode)
	m.RetentionGraceHours = g.RetentionGraceHours
	m.BatchSize = g.BatchSize
	m.StartedAt = g.StartedAt
	m.Marked = g.Marked
	m.CandidateBlobs = g.CandidateBlobs
	m.DeletedBlobs = g.DeletedBlobs
	m.DeletedVersions = g.DeletedVersions
	m.DeleteErrors = g.DeleteErrors

	if g.CompletedAt != nil {
		m.CompletedAt = sql.NullTime{Time: *g.CompletedAt, Valid: true}
	}
}

// ToEntity converts m to a domain.GcRun.
func (m *PostgreSQLModel) ToEntity() *domain.GcRun {
	g := &domain.GcRun{
		RunID:               m.RunID,
		TenantID:            m.TenantID,
		InitiatedBy:         m.InitiatedBy,
		Mode:                domain.GcMode(m.Mode),
		RetentionGraceHours: m.RetentionGraceHours,
		BatchSize:           m.BatchSize,
		StartedAt:           m.StartedAt,
		Marked:              m.Marked,
		CandidateBlobs:      m.CandidateBlobs,
		DeletedBlobs:        m.DeletedBlobs,
		DeletedVersions:     m.DeletedVersions,
		DeleteErrors:        m.DeleteErrors,
	}

	if m.CompletedAt.Valid {
		g.CompletedAt = &m.CompletedAt.Time
	}

	return g
}
