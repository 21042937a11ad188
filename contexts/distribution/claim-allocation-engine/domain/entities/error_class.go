package entities

import (
	"context"
	"errors"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

type ErrorClass string

const (
	ErrorClassNone        ErrorClass = ""
	ErrorClassEligibility ErrorClass = "eligibility"
	ErrorClassCapacity    ErrorClass = "capacity"
	ErrorClassConsistency ErrorClass = "consistency"
	ErrorClassValidation  ErrorClass = "validation"
	ErrorClassNotFound    ErrorClass = "not_found"
	ErrorClassTransient   ErrorClass = "transient"
	ErrorClassInternal    ErrorClass = "internal"
)

// ClassifyError maps an error returned by the engine to its taxonomy class.
func ClassifyError(err error) ErrorClass {
	switch {
	case err == nil:
		return ErrorClassNone
	case errors.Is(err, domainerrors.ErrOutsideWindow),
		errors.Is(err, domainerrors.ErrInvalidPassword),
		errors.Is(err, domainerrors.ErrIdentityRequired),
		errors.Is(err, domainerrors.ErrInsufficientTrust),
		errors.Is(err, domainerrors.ErrRiskTooHigh),
		errors.Is(err, domainerrors.ErrAlreadyClaimed):
		return ErrorClassEligibility
	case errors.Is(err, domainerrors.ErrQuotaExhausted):
		return ErrorClassCapacity
	case errors.Is(err, domainerrors.ErrNoCodesAvailable),
		errors.Is(err, domainerrors.ErrCodeInventoryMismatch),
		errors.Is(err, domainerrors.ErrRepositoryInvariantBroke):
		return ErrorClassConsistency
	case errors.Is(err, domainerrors.ErrPoolNotFound),
		errors.Is(err, domainerrors.ErrApplicationNotFound),
		errors.Is(err, domainerrors.ErrReservationNotFound),
		errors.Is(err, domainerrors.ErrSharedCodeNotFound):
		return ErrorClassNotFound
	case errors.Is(err, domainerrors.ErrInvalidPoolInput),
		errors.Is(err, domainerrors.ErrInvalidClaimRequest),
		errors.Is(err, domainerrors.ErrInvalidDecision),
		errors.Is(err, domainerrors.ErrInvalidQuotaGrowth),
		errors.Is(err, domainerrors.ErrInvalidPagination),
		errors.Is(err, domainerrors.ErrInvalidProfile),
		errors.Is(err, domainerrors.ErrDuplicateCode),
		errors.Is(err, domainerrors.ErrApplicationNotPending),
		errors.Is(err, domainerrors.ErrNotPoolOwner),
		errors.Is(err, domainerrors.ErrModeMismatch),
		errors.Is(err, domainerrors.ErrReservationExpired):
		return ErrorClassValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorClassTransient
	default:
		return ErrorClassInternal
	}
}
