package domain

import (
	"time"

	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

// VersionState is one of the three states a PackageVersion moves through.
type VersionState string

const (
	VersionStateDraft      VersionState = "draft"
	VersionStatePublished  VersionState = "published"
	VersionStateTombstoned VersionState = "tombstoned"
)

// PackageVersion is a single version of a Package. Once Published, its
// identity fields are immutable; the only legal further transition is to
// Tombstoned (enforced both by the deny_published_version_mutation trigger
// and, defensively, by CanTransitionTo below).
type PackageVersion struct {
	ID               string
	TenantID         string
	RepoID           string
	PackageID        string
	Version          string
	State            VersionState
	PublishedAt      *time.Time
	CreatedBy        string
	CreatedAt        time.Time
	TombstonedAt     *time.Time
	TombstoneReason  *string
}

// CanTransitionTo reports whether moving from v.State to next is legal,
// mirroring spec.md §3's PackageVersion invariants independent of the
// database trigger, so the service layer fails fast before issuing a
// doomed UPDATE.
func (v PackageVersion) CanTransitionTo(next VersionState) error {
	switch v.State {
	case VersionStateDraft:
		if next == VersionStatePublished || next == VersionStateTombstoned {
			return nil
		}
	case VersionStatePublished:
		if next == VersionStateTombstoned {
			return nil
		}
	case VersionStateTombstoned:
		// terminal
	}

	return cn.ErrVersionNotDraft
}

// IsImmutable reports whether identity fields may no longer change.
func (v PackageVersion) IsImmutable() bool {
	return v.State == VersionStatePublished || v.State == VersionStateTombstoned
}
