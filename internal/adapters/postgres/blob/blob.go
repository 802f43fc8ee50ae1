// Package blob provides the Postgres-backed Repository for domain.Blob,
// the immutable content-addressed object table.
package blob

import (
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// PostgreSQLModel is the row shape blobs are read/written as.
type PostgreSQLModel struct {
	Digest      string
	LengthBytes int64
	StorageKey  string
	ObjectETag  string
	CreatedAt   time.Time
}

// FromEntity populates m from b.
func (m *PostgreSQLModel) FromEntity(b *domain.Blob) {
	m.Digest = b.Digest
	m.LengthBytes = b.LengthBytes
	m.StorageKey = b.StorageKey
	m.ObjectETag = b.ObjectETag
	m.CreatedAt = b.CreatedAt
}

// ToEntity converts m to a domain.Blob.
func (m *PostgreSQLModel) ToEntity() *domain.Blob {
	return &domain.Blob{
		Digest:      m.Digest,
		LengthBytes: m.LengthBytes,
		StorageKey:  m.StorageKey,
		ObjectETag:  m.ObjectETag,
		CreatedAt:   m.CreatedAt,
	}
}
