package apperrors

import (
	"github.com/jackc/pgx/v5/pgconn"

	cn "github.com/sremani/artifortress/internal/platform/apperrors/constant"
)

// ValidatePGError maps a constraint violation reported by Postgres into the
// typed business-error taxonomy, so repositories never leak a raw pgconn
// error to a service caller.
func ValidatePGError(pgErr *pgconn.PgError, entityType string, args ...any) error {
	switch pgErr.Code {
	case "23505": // unique_violation
		switch pgErr.ConstraintName {
		case "blobs_pkey":
			// digest is the primary key: a concurrent committer already
			// inserted this exact digest. The caller treats this as success.
			return ValidateBusinessError(cn.ErrEntityAlreadyExists, entityType)
		default:
			return ValidateBusinessError(cn.ErrEntityAlreadyExists, entityType, args...)
		}
	case "23503": // foreign_key_violation
		return ValidateBusinessError(cn.ErrPublishBlobMissing, entityType)
	case "23514": // check_violation
		return ValidateBusinessError(cn.ErrValidation, entityType, pgErr.ConstraintName)
	case "P0001": // raise_exception — the deny_published_version_mutation trigger
		return ValidateBusinessError(cn.ErrVersionImmutable, entityType)
	default:
		return pgErr
	}
}
