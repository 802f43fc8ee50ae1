// Package domain declares the entities and lifecycle guards of §3 of the
// specification this module implements: tenants, repositories, packages,
// package versions, blobs, upload sessions, artifact entries, manifests,
// audit log rows, outbox events, search-index jobs, quarantine items,
// policy evaluations, tombstones, GC runs/marks, and search documents.
package domain

import "time"

// Tenant is the root scope of multi-tenancy.
type Tenant struct {
	ID        string
	Slug      string
	Name      string
	CreatedAt time.Time
}

// RepositoryType enumerates the kinds of Repository.
type RepositoryType string

const (
	RepositoryTypeLocal   RepositoryType = "local"
	RepositoryTypeRemote  RepositoryType = "remote"
	RepositoryTypeVirtual RepositoryType = "virtual"
)

// Repository is a tenant-scoped namespace every mutation is bound to.
type Repository struct {
	ID        string
	TenantID  string
	RepoKey   string
	Type      RepositoryType
	Config    map[string]any
	CreatedAt time.Time
}
