// Package searchdocument provides the MongoDB-backed Repository for
// domain.SearchDocument, the rebuildable search read-model (spec.md §6).
package searchdocument

import (
	"time"

	"github.com/sremani/artifortress/internal/domain"
)

// MongoDBModel is the document shape SearchDocuments are read/written as.
type MongoDBModel struct {
	TenantID     string    `bson:"tenant_id"`
	VersionID    string    `bson:"_id"`
	RepoKey      string    `bson:"repo_key"`
	PackageType  string    `bson:"package_type"`
	Namespace    *string   `bson:"namespace,omitempty"`
	Name         string    `bson:"name"`
	Version      string    `bson:"version"`
	ManifestJSON *string   `bson:"manifest_json,omitempty"`
	PublishedAt  time.Time `bson:"published_at"`
	SearchText   string    `bson:"search_text"`
	IndexedAt    time.Time `bson:"indexed_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

// FromEntity populates m from d.
func (m *MongoDBModel) FromEntity(d *domain.SearchDocument) {
	m.TenantID = d.TenantID
	m.VersionID = d.VersionID
	m.RepoKey = d.RepoKey
	m.PackageType = d.PackageType
	m.Namespace = d.Namespace
	m.Name = d.Name
	m.Version = d.Version
	m.ManifestJSON = d.ManifestJSON
	m.PublishedAt = d.PublishedAt
	m.SearchText = d.SearchText
	m.IndexedAt = d.IndexedAt
	m.UpdatedAt = d.UpdatedAt
}

// ToEntity converts m to a domain.SearchDocument.
func (m *MongoDBModel) ToEntity() *domain.SearchDocument {
	return &domain.SearchDocument{
		TenantID:     m.TenantID,
		VersionID:    m.VersionID,
		RepoKey:      m.RepoKey,
		PackageType:  m.PackageType,
		Namespace:    m.Namespace,
		Name:         m.Name,
		Version:      m.Version,
		ManifestJSON: m.ManifestJSON,
		PublishedAt:  m.PublishedAt,
		SearchText:   m.SearchText,
		IndexedAt:    m.IndexedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
