// Package constant declares the sentinel business errors that
// ValidateBusinessError maps to typed, wire-stable error kinds.
package constant

import "errors"

var (
	// ErrEntityNotFound is returned when a row lookup by id/key misses.
	ErrEntityNotFound = errors.New("0001")
	// ErrValidation is returned for malformed inputs caught before any I/O.
	ErrValidation = errors.New("0002")
	// ErrEntityAlreadyExists is returned on a unique-constraint violation.
	ErrEntityAlreadyExists = errors.New("0003")
	// ErrInternalServer wraps an error that carries no business meaning.
	ErrInternalServer = errors.New("0004")

	// ErrUploadExpectedLengthInvalid: expected_length must be > 0.
	ErrUploadExpectedLengthInvalid = errors.New("0100")
	// ErrUploadExpectedDigestInvalid: expected_digest must be 64 lowercase hex chars.
	ErrUploadExpectedDigestInvalid = errors.New("0101")
	// ErrUploadSessionExpired: the session's expires_at has passed.
	ErrUploadSessionExpired = errors.New("0102")
	// ErrUploadSessionNotActive: a command targeted a session outside its valid states.
	ErrUploadSessionNotActive = errors.New("0103")
	// ErrUploadPartsIncomplete: complete() called before all parts were acknowledged.
	ErrUploadPartsIncomplete = errors.New("0104")
	// ErrUploadVerificationFailed: committed digest/length mismatch expectations.
	ErrUploadVerificationFailed = errors.New("0105")

	// ErrPublishPreconditionsUnmet: missing entries or manifest at publish time.
	ErrPublishPreconditionsUnmet = errors.New("0200")
	// ErrPublishBlobMissing: an entry/manifest references a digest with no Blob row.
	ErrPublishBlobMissing = errors.New("0201")
	// ErrPublishBlockedQuarantine: an active quarantine blocks publish.
	ErrPublishBlockedQuarantine = errors.New("0202")
	// ErrPublishDenied: the policy evaluator returned deny (or was absent).
	ErrPublishDenied = errors.New("0203")
	// ErrPolicyTimeout: the policy evaluator did not respond inside its deadline.
	ErrPolicyTimeout = errors.New("0204")
	// ErrVersionNotDraft: a draft-only mutation targeted a non-draft version.
	ErrVersionNotDraft = errors.New("0205")
	// ErrVersionImmutable: an attempted mutation of a published version's identity fields.
	ErrVersionImmutable = errors.New("0206")

	// ErrRangeNotSatisfiable: a byte-range request fell outside the object's bounds.
	ErrRangeNotSatisfiable = errors.New("0300")
	// ErrQuarantinedBlob: the requested digest is blocked by an active quarantine.
	ErrQuarantinedBlob = errors.New("0301")

	// ErrServiceUnavailable: a transient dependency failure that a caller may retry.
	ErrServiceUnavailable = errors.New("0400")
)
