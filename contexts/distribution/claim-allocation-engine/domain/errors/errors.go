package errors

import "errors"

// Eligibility errors are expected and reported verbatim to the claimant.
var (
	ErrOutsideWindow     = errors.New("pool is outside its claim window")
	ErrInvalidPassword   = errors.New("invalid pool password")
	ErrIdentityRequired  = errors.New("trusted identity required")
	ErrInsufficientTrust = errors.New("identity trust level too low")
	ErrRiskTooHigh       = errors.New("risk score below pool threshold")
	ErrAlreadyClaimed    = errors.New("claimant already claimed this pool")
)

// Capacity errors are expected under contention and never retried transparently.
var (
	ErrQuotaExhausted = errors.New("pool quota exhausted")
)

// Consistency errors signal a broken storage invariant.
var (
	ErrNoCodesAvailable         = errors.New("no unreserved codes available")
	ErrCodeInventoryMismatch    = errors.New("code inventory does not match pool quota")
	ErrRepositoryInvariantBroke = errors.New("repository invariant violated")
)

var (
	ErrPoolNotFound          = errors.New("pool not found")
	ErrApplicationNotFound   = errors.New("application not found")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrReservationExpired    = errors.New("reservation is no longer held")
	ErrSharedCodeNotFound    = errors.New("shared code not found")
	ErrInvalidPoolInput      = errors.New("invalid pool input")
	ErrInvalidClaimRequest   = errors.New("invalid claim request")
	ErrInvalidDecision       = errors.New("invalid review decision")
	ErrInvalidQuotaGrowth    = errors.New("invalid quota growth")
	ErrInvalidPagination     = errors.New("invalid pagination")
	ErrInvalidProfile        = errors.New("invalid claimant profile")
	ErrDuplicateCode         = errors.New("duplicate code in pool")
	ErrApplicationNotPending = errors.New("application is not pending")
	ErrNotPoolOwner          = errors.New("caller is not the pool owner")
	ErrModeMismatch          = errors.New("operation not supported for pool mode")
	ErrEventPayloadConflict  = errors.New("event id reused with different payload")
)
