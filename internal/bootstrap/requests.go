package bootstrap

import (
	"github.com/go-playground/validator"

	"github.com/sremani/artifortress/internal/adapters/objectstore"
)

var validate = validator.New()

type createUploadRequest struct {
	ExpectedDigest string `json:"expected_digest" validate:"required"`
	ExpectedLength int64  `json:"expected_length" validate:"required"`
}

type completeUploadRequest struct {
	Parts []objectstore.CompletedPart `json:"parts" validate:"required,min=1,dive"`
}

type abortUploadRequest struct {
	Reason string `json:"reason"`
}

type createDraftRequest struct {
	PackageType string  `json:"package_type" validate:"required"`
	Namespace   *string `json:"namespace"`
	Name        string  `json:"name" validate:"required"`
	Version     string  `json:"version" validate:"required"`
}

type addEntryRequest struct {
	RelativePath   string  `json:"relative_path" validate:"required"`
	BlobDigest     string  `json:"blob_digest" validate:"required"`
	ChecksumSHA1   *string `json:"checksum_sha1"`
	ChecksumSHA256 *string `json:"checksum_sha256"`
	SizeBytes      int64   `json:"size_bytes" validate:"required"`
}

type putManifestRequest struct {
	ManifestJSON       string  `json:"manifest_json" validate:"required"`
	PackageType        string  `json:"package_type" validate:"required"`
	ManifestBlobDigest *string `json:"manifest_blob_digest"`
}

type tombstoneRequest struct {
	Reason        string `json:"reason" validate:"required"`
	RetentionDays int    `json:"retention_days"`
}

type evaluatePolicyRequest struct {
	VersionID string `json:"version_id" validate:"required"`
	Action    string `json:"action" validate:"required"`
}

type runGcRequest struct {
	Mode                string `json:"mode" validate:"required"`
	RetentionGraceHours int    `json:"retention_grace_hours"`
	BatchSize           int    `json:"batch_size"`
}
