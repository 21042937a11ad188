package services

import (
	"fmt"
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

// PasswordVerifier compares a supplied password with the pool's stored hash.
type PasswordVerifier interface {
	Verify(password string, encoded string) (bool, error)
}

// EligibilityInput is everything the gate needs; AlreadyClaimed is true when the
// claimant holds a claim on the pool or, for MANUAL pools, any application.
type EligibilityInput struct {
	Pool           entities.Pool
	Claimant       entities.Claimant
	Credentials    entities.Credentials
	AlreadyClaimed bool
	Now            time.Time
}

// EvaluateEligibility runs the gate checks in a fixed order and returns the
// first failure: window, password, identity, trust level, risk, duplicate.
// MinTrustLevel is a floor of its own and applies whether or not the pool
// sets RequireTrustedIdentity; unknown claimants sit at trust level 0.
func EvaluateEligibility(input EligibilityInput, verifier PasswordVerifier) error {
	pool := input.Pool
	if !pool.InWindow(input.Now) {
		return domainerrors.ErrOutsideWindow
	}

	if pool.HasPassword() {
		if input.Credentials.Password == "" || verifier == nil {
			return domainerrors.ErrInvalidPassword
		}
		ok, err := verifier.Verify(input.Credentials.Password, pool.Gate.PasswordHash)
		if err != nil {
			return fmt.Errorf("verify pool password: %w", err)
		}
		if !ok {
			return domainerrors.ErrInvalidPassword
		}
	}

	if pool.Gate.RequireTrustedIdentity && !input.Claimant.HasTrustedIdentity {
		return domainerrors.ErrIdentityRequired
	}
	if input.Claimant.TrustLevel < pool.Gate.MinTrustLevel {
		return domainerrors.ErrInsufficientTrust
	}

	// Higher scores are more trustworthy; the pool threshold is a floor.
	if input.Claimant.RiskScore < pool.Gate.MinRiskThreshold {
		return domainerrors.ErrRiskTooHigh
	}

	if input.AlreadyClaimed {
		return domainerrors.ErrAlreadyClaimed
	}
	return nil
}
