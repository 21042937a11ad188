package entities

import (
	"strings"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

// Claimant is the identity/risk projection supplied by external collaborators.
// RiskScore is opaque; higher means more trustworthy.
type Claimant struct {
	ClaimantID         string
	HasTrustedIdentity bool
	TrustLevel         int
	RiskScore          int
	UpdatedAt          time.Time
}

// UnknownClaimant is used when no profile was projected yet: untrusted,
// trust level 0, scored with the configured default.
func UnknownClaimant(claimantID string, defaultRiskScore int) Claimant {
	return Claimant{ClaimantID: strings.TrimSpace(claimantID), RiskScore: defaultRiskScore}
}

func (c Claimant) Validate() error {
	if strings.TrimSpace(c.ClaimantID) == "" {
		return domainerrors.ErrInvalidProfile
	}
	if c.TrustLevel < MinTrustLevel || c.TrustLevel > MaxTrustLevel {
		return domainerrors.ErrInvalidProfile
	}
	if c.RiskScore < 0 || c.RiskScore > 100 {
		return domainerrors.ErrInvalidProfile
	}
	return nil
}

type Credentials struct {
	Password string
}
