package domain

import (
	"time"

	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

// UploadSessionState is one of the five states of the upload state
// machine (spec.md §4.1).
type UploadSessionState string

const (
	UploadSessionInitiated      UploadSessionState = "initiated"
	UploadSessionPartsUploading UploadSessionState = "parts_uploading"
	UploadSessionPendingCommit  UploadSessionState = "pending_commit"
	UploadSessionCommitted      UploadSessionState = "committed"
	UploadSessionAborted        UploadSessionState = "aborted"
)

// UploadSession tracks one content upload from creation through commit or
// abort. Terminal states are Committed and Aborted.
type UploadSession struct {
	UploadID             string
	TenantID             string
	RepoID               string
	ExpectedDigest       string
	ExpectedLength       int64
	State                UploadSessionState
	ObjectStagingKey     string
	StorageUploadID      string
	CommittedBlobDigest  *string
	CreatedBy            string
	ExpiresAt            time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
	AbortedReason        *string
	Deduped              bool
}

// IsActive reports whether the session may still accept part/complete/
// abort commands.
func (s UploadSession) IsActive() bool {
	switch s.State {
	case UploadSessionInitiated, UploadSessionPartsUploading, UploadSessionPendingCommit:
		return true
	default:
		return false
	}
}

// IsExpired reports whether now is at or past the session's expiry.
func (s UploadSession) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// RequirePart validates that a request_part/complete command targets a
// session in a state that accepts it, per the state table in spec.md §4.1.
func (s UploadSession) RequirePart(now time.Time) error {
	if s.IsExpired(now) {
		return cn.ErrUploadSessionExpired
	}

	switch s.State {
	case UploadSessionInitiated, UploadSessionPartsUploading:
		return nil
	default:
		return cn.ErrUploadSessionNotActive
	}
}

// RequireComplete validates a complete(parts) command.
func (s UploadSession) RequireComplete(now time.Time) error {
	if s.IsExpired(now) {
		return cn.ErrUploadSessionExpired
	}

	if s.State != UploadSessionPartsUploading && s.State != UploadSessionInitiated {
		return cn.ErrUploadSessionNotActive
	}

	return nil
}

// RequireCommit validates a commit command arrives against a session
// awaiting verification.
func (s UploadSession) RequireCommit() error {
	if s.State != UploadSessionPendingCommit {
		return cn.ErrUploadSessionNotActive
	}

	return nil
}
