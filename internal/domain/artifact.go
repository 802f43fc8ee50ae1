package domain

import "time"

// ArtifactEntry is one file within a PackageVersion, unique per
// (version, relative_path).
type ArtifactEntry struct {
	EntryID        string
	VersionID      string
	RelativePath   string
	BlobDigest     string
	ChecksumSHA1   *string
	ChecksumSHA256 *string
	SizeBytes      int64
}

// Manifest holds a version's structured, package-type-specific metadata
// as an opaque JSON body (spec.md §9 — content-type semantics beyond
// structural validation are a Non-goal).
type Manifest struct {
	VersionID          string
	ManifestJSON       string
	ManifestBlobDigest *string
	PackageType        string
	CreatedBy          string
	UpdatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// AuditLog is an append-only record of a notable action.
type AuditLog struct {
	ID           string
	TenantID     string
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	Details      map[string]any
	OccurredAt   time.Time
}

// Well-known audit actions emitted by this module's services.
const (
	AuditUploadCommitted             = "upload.committed"
	AuditUploadVerificationFailed    = "upload.commit.verification_failed"
	AuditVersionPublished            = "package.version.published"
	AuditVersionTombstoned           = "package.version.tombstoned"
	AuditReconcileBlobsChecked       = "reconcile.blobs.checked"
	AuditQuarantineReleased          = "quarantine.released"
	AuditQuarantineRejected          = "quarantine.rejected"
)
