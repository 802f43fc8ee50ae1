// Package apperrors carries the typed error taxonomy every repository and
// service returns instead of raw driver/client errors.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

// EntityNotFoundError indicates a lookup by id/key found no row.
type EntityNotFoundError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e EntityNotFoundError) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}

	if strings.TrimSpace(e.EntityType) != "" {
		return fmt.Sprintf("entity %s not found", e.EntityType)
	}

	return "entity not found"
}

func (e EntityNotFoundError) Unwrap() error { return e.Err }

// ValidationError indicates a malformed input, never retried by a caller.
type ValidationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e ValidationError) Error() string {
	if strings.TrimSpace(e.Code) != "" {
		return fmt.Sprintf("%s - %s", e.Code, e.Message)
	}

	return e.Message
}

func (e ValidationError) Unwrap() error { return e.Err }

// EntityConflictError indicates a state or uniqueness conflict.
type EntityConflictError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e EntityConflictError) Error() string {
	if e.Err != nil && strings.TrimSpace(e.Message) == "" {
		return e.Err.Error()
	}

	return e.Message
}

func (e EntityConflictError) Unwrap() error { return e.Err }

// UnauthorizedError indicates a request arrived with no authenticated principal.
type UnauthorizedError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnauthorizedError) Error() string { return e.Message }

// ForbiddenError indicates the authenticated principal lacks the required scope.
type ForbiddenError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e ForbiddenError) Error() string { return e.Message }

// FailedPreconditionError indicates a precondition required by the operation was unmet.
type FailedPreconditionError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e FailedPreconditionError) Error() string { return e.Message }

// UnprocessableOperationError indicates an operation that is structurally invalid.
type UnprocessableOperationError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e UnprocessableOperationError) Error() string { return e.Message }

// GoneError indicates the resource exists but is blocked from resolution (quarantine).
type GoneError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e GoneError) Error() string { return e.Message }

// ServiceUnavailableError indicates a transient dependency failure.
type ServiceUnavailableError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e ServiceUnavailableError) Error() string { return e.Message }
func (e ServiceUnavailableError) Unwrap() error { return e.Err }

// InternalServerError wraps an error with no business meaning.
type InternalServerError struct {
	EntityType string
	Title      string
	Message    string
	Code       string
	Err        error
}

func (e InternalServerError) Error() string { return e.Message }
func (e InternalServerError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is (or wraps) an EntityNotFoundError, so
// callers can tell "no active quarantine" apart from an actual lookup
// failure without comparing against the pre-wrap sentinel.
func IsNotFound(err error) bool {
	var notFound EntityNotFoundError
	return errors.As(err, &notFound)
}

// ValidateInternalError wraps err as an InternalServerError for entityType.
func ValidateInternalError(err error, entityType string) error {
	return InternalServerError{
		EntityType: entityType,
		Code:       cn.ErrInternalServer.Error(),
		Title:      "Internal Server Error",
		Message:    "the server encountered an unexpected error processing this request",
		Err:        err,
	}
}

// ValidateBusinessError maps a sentinel business error to its typed, wire-stable kind.
//
//nolint:gocyclo
func ValidateBusinessError(err error, entityType string, args ...any) error {
	switch {
	case errors.Is(err, cn.ErrEntityNotFound):
		return EntityNotFoundError{
			EntityType: entityType,
			Code:       cn.ErrEntityNotFound.Error(),
			Title:      "Entity Not Found",
			Message:    fmt.Sprintf("no %s was found for the given identifier", entityType),
		}
	case errors.Is(err, cn.ErrEntityAlreadyExists):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrEntityAlreadyExists.Error(),
			Title:      "Entity Already Exists",
			Message:    fmt.Sprintf("a %s with the same unique key already exists", entityType),
		}
	case errors.Is(err, cn.ErrValidation):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrValidation.Error(),
			Title:      "Validation Error",
			Message:    fmt.Sprintf("%v", args),
		}
	case errors.Is(err, cn.ErrUploadExpectedLengthInvalid):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrUploadExpectedLengthInvalid.Error(),
			Title:      "Invalid Expected Length",
			Message:    "expected_length must be greater than zero",
		}
	case errors.Is(err, cn.ErrUploadExpectedDigestInvalid):
		return ValidationError{
			EntityType: entityType,
			Code:       cn.ErrUploadExpectedDigestInvalid.Error(),
			Title:      "Invalid Expected Digest",
			Message:    "expected_digest must be 64 lowercase hexadecimal characters",
		}
	case errors.Is(err, cn.ErrUploadSessionExpired):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrUploadSessionExpired.Error(),
			Title:      "Upload Session Expired",
			Message:    "the upload session has expired and must be recreated",
		}
	case errors.Is(err, cn.ErrUploadSessionNotActive):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrUploadSessionNotActive.Error(),
			Title:      "Upload Session Not Active",
			Message:    "the upload session is not in a state that accepts this command",
		}
	case errors.Is(err, cn.ErrUploadPartsIncomplete):
		return FailedPreconditionError{
			EntityType: entityType,
			Code:       cn.ErrUploadPartsIncomplete.Error(),
			Title:      "Upload Parts Incomplete",
			Message:    "not every part has been acknowledged by the object backend",
		}
	case errors.Is(err, cn.ErrUploadVerificationFailed):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrUploadVerificationFailed.Error(),
			Title:      "Upload Verification Failed",
			Message:    "the committed object's digest or length did not match the session's expectation",
		}
	case errors.Is(err, cn.ErrPublishPreconditionsUnmet):
		return FailedPreconditionError{
			EntityType: entityType,
			Code:       cn.ErrPublishPreconditionsUnmet.Error(),
			Title:      "Publish Preconditions Unmet",
			Message:    "the version has no artifact entries or no manifest",
		}
	case errors.Is(err, cn.ErrPublishBlobMissing):
		return FailedPreconditionError{
			EntityType: entityType,
			Code:       cn.ErrPublishBlobMissing.Error(),
			Title:      "Referenced Blob Missing",
			Message:    "an artifact entry or manifest references a digest with no committed blob",
		}
	case errors.Is(err, cn.ErrPublishBlockedQuarantine):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrPublishBlockedQuarantine.Error(),
			Title:      "Publish Blocked By Quarantine",
			Message:    "the version is under an active quarantine hold",
		}
	case errors.Is(err, cn.ErrPublishDenied):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrPublishDenied.Error(),
			Title:      "Publish Denied",
			Message:    "policy evaluation denied this publish",
		}
	case errors.Is(err, cn.ErrPolicyTimeout):
		return ServiceUnavailableError{
			EntityType: entityType,
			Code:       cn.ErrPolicyTimeout.Error(),
			Title:      "Policy Timeout",
			Message:    "policy evaluation did not complete within its deadline",
		}
	case errors.Is(err, cn.ErrVersionNotDraft):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrVersionNotDraft.Error(),
			Title:      "Version Not Draft",
			Message:    "this mutation is only permitted while the version is a draft",
		}
	case errors.Is(err, cn.ErrVersionImmutable):
		return EntityConflictError{
			EntityType: entityType,
			Code:       cn.ErrVersionImmutable.Error(),
			Title:      "Version Immutable",
			Message:    "published version identity fields cannot be changed",
		}
	case errors.Is(err, cn.ErrRangeNotSatisfiable):
		return UnprocessableOperationError{
			EntityType: entityType,
			Code:       cn.ErrRangeNotSatisfiable.Error(),
			Title:      "Range Not Satisfiable",
			Message:    "the requested byte range is outside the object's bounds",
		}
	case errors.Is(err, cn.ErrQuarantinedBlob):
		return GoneError{
			EntityType: entityType,
			Code:       cn.ErrQuarantinedBlob.Error(),
			Title:      "Quarantined Blob",
			Message:    "this digest is linked to a version currently under quarantine",
		}
	case errors.Is(err, cn.ErrServiceUnavailable):
		return ServiceUnavailableError{
			EntityType: entityType,
			Code:       cn.ErrServiceUnavailable.Error(),
			Title:      "Service Unavailable",
			Message:    "a dependency is temporarily unavailable, retry is safe",
		}
	default:
		return err
	}
}
