package domain

import (
	"regexp"
	"time"

	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

var digestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// IsValidDigest reports whether s is a 64-char lowercase hex sha256 digest.
func IsValidDigest(s string) bool {
	return digestPattern.MatchString(s)
}

// Blob is an immutable, content-addressed object. Created exactly once per
// digest (spec.md §3).
type Blob struct {
	Digest      string
	LengthBytes int64
	StorageKey  string
	ObjectETag  string
	CreatedAt   time.Time
}

// ValidateNewBlob enforces the boundary behaviors of spec.md §8 before a
// Blob row is ever attempted.
func ValidateNewBlob(digest string, length int64) error {
	if length <= 0 {
		return cn.ErrUploadExpectedLengthInvalid
	}

	if !IsValidDigest(digest) {
		return cn.ErrUploadExpectedDigestInvalid
	}

	return nil
}
