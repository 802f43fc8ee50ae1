package domain

import "time"

// SearchDocument is the rebuildable search read-model row for one
// published version. Unique per (tenant, version).
type SearchDocument struct {
	TenantID     string
	VersionID    string
	RepoKey      string
	PackageType  string
	Namespace    *string
	Name         string
	Version      string
	ManifestJSON *string
	PublishedAt  time.Time
	SearchText   string
	IndexedAt    time.Time
	UpdatedAt    time.Time
}
