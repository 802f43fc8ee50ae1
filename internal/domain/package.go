package domain

import "time"

// Package is a named, typed artifact coordinate within a repository.
// Uniqueness key: (repo, package_type, COALESCE(namespace,''), name).
type Package struct {
	ID          string
	TenantID    string
	RepoID      string
	PackageType string
	Namespace   *string
	Name        string
	CreatedAt   time.Time
}

// NamespaceOrEmpty collapses a nil Namespace to "" the same way the unique
// index's COALESCE(namespace,'') does, per spec.md §9.
func (p Package) NamespaceOrEmpty() string {
	if p.Namespace == nil {
		return ""
	}

	return *p.Namespace
}
