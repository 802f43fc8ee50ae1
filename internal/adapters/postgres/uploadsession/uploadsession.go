// Package uploadsession provides the Postgres-backed Repository for
// domain.UploadSession, the full state machine of spec.md §4.1.
package uploadsession

import (
	"database/sql"
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape upload_sessions are read/written as.
type PostgreSQLModel struct {
	UploadID            string
	TenantID            string
	RepoID              string
	ExpectedDigest       string
	ExpectedLength       int64
	State                string
	ObjectStagingKey     string
	StorageUploadID      string
	CommittedBlobDigest  sql.NullString
	CreatedBy            string
	ExpiresAt            time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	AbortedReason        sql.NullString
	Deduped              bool
}

// FromEntity populates m from s.
func (m *PostgreSQLModel) FromEntity(s *domain.UploadSession) {
	m.UploadID = s.UploadID
	m.TenantID = s.TenantID
	m.RepoID = s.RepoID
	m.ExpectedDigest = s.ExpectedDigest
	m.ExpectedLength = s.ExpectedLength
	m.State = string(s.State)
	m.ObjectStagingKey = s.ObjectStagingKey
	m.StorageUploadID = s.StorageUploadID
	m.CreatedBy = s.CreatedBy
	m.ExpiresAt = s.ExpiresAt
	m.CreatedAt = s.CreatedAt
	m.UpdatedAt = s.UpdatedAt
	m.Deduped = s.Deduped

	if s.CommittedBlobDigest != nil {
		m.CommittedBlobDigest = sql.NullString{String: *s.CommittedBlobDigest, Valid: true}
	}

	if s.AbortedReason != nil {
		m.AbortedReason = sql.NullString{String: *s.AbortedReason, Valid: true}
	}
}

// ToEntity converts m to a domain.UploadSession.
func (m *PostgreSQLModel) ToEntity() *domain.UploadSession {
	s := &domain.UploadSession{
		UploadID:         m.UploadID,
		TenantID:         m.TenantID,
		RepoID:           m.RepoID,
		ExpectedDigest:   m.ExpectedDigest,
		ExpectedLength:   m.ExpectedLength,
		State:            domain.UploadSessionState(m.State),
		ObjectStagingKey: m.ObjectStagingKey,
		StorageUploadID:  m.StorageUploadID,
		CreatedBy:        m.CreatedBy,
		ExpiresAt:        m.ExpiresAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Deduped:          m.Deduped,
	}

	if m.CommittedBlobDigest.Valid {
		digest := m.CommittedBlobDigest.String
		s.CommittedBlobDigest = &digest
	}

	if m.AbortedReason.Valid {
		reason := m.AbortedReason.String
		s.AbortedReason = &reason
	}

	return s
}
