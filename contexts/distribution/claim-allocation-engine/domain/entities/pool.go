package entities

import (
	"strings"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

type DistributionMode string

const (
	ModeSingle DistributionMode = "SINGLE"
	ModeMulti  DistributionMode = "MULTI"
	ModeManual DistributionMode = "MANUAL"
)

func (m DistributionMode) Valid() bool {
	switch m {
	case ModeSingle, ModeMulti, ModeManual:
		return true
	default:
		return false
	}
}

const (
	MinTrustLevel     = 0
	MaxTrustLevel     = 4
	MinRiskThreshold  = 30
	MaxRiskThreshold  = 90
	maxQuestionLength = 500
	maxCodeLength     = 512
)

// GateConfig holds the eligibility rules evaluated before every claim attempt.
// PasswordHash is an encoded Argon2id hash; empty means the pool is not password protected.
type GateConfig struct {
	StartTime              time.Time
	EndTime                *time.Time
	PasswordHash           string
	RequireTrustedIdentity bool
	MinTrustLevel          int
	MinRiskThreshold       int
	IsPublic               bool
}

func (g GateConfig) Validate() error {
	if g.StartTime.IsZero() {
		return domainerrors.ErrInvalidPoolInput
	}
	if g.EndTime != nil && !g.EndTime.After(g.StartTime) {
		return domainerrors.ErrInvalidPoolInput
	}
	if g.MinTrustLevel < MinTrustLevel || g.MinTrustLevel > MaxTrustLevel {
		return domainerrors.ErrInvalidPoolInput
	}
	if g.MinRiskThreshold < MinRiskThreshold || g.MinRiskThreshold > MaxRiskThreshold {
		return domainerrors.ErrInvalidPoolInput
	}
	return nil
}

// ModeConfig is the per-mode publish payload. It is implemented only by
// SingleUseCodes, SharedCodeConfig and ManualReview.
type ModeConfig interface {
	Mode() DistributionMode
	validate(totalQuota int) error
}

// SingleUseCodes carries exactly totalQuota unique codes.
type SingleUseCodes struct {
	Codes []string
}

func (SingleUseCodes) Mode() DistributionMode { return ModeSingle }

func (c SingleUseCodes) validate(totalQuota int) error {
	codes, err := NormalizeCodes(c.Codes)
	if err != nil {
		return err
	}
	if len(codes) != totalQuota {
		return domainerrors.ErrCodeInventoryMismatch
	}
	return nil
}

// SharedCodeConfig carries the one code every MULTI claimant receives.
type SharedCodeConfig struct {
	Code string
}

func (SharedCodeConfig) Mode() DistributionMode { return ModeMulti }

func (c SharedCodeConfig) validate(int) error {
	code := strings.TrimSpace(c.Code)
	if code == "" || len(code) > maxCodeLength {
		return domainerrors.ErrInvalidPoolInput
	}
	return nil
}

// ManualReview carries the application questions; Question2 is optional.
type ManualReview struct {
	Question1 string
	Question2 string
}

func (ManualReview) Mode() DistributionMode { return ModeManual }

func (c ManualReview) validate(int) error {
	q1 := strings.TrimSpace(c.Question1)
	if q1 == "" || len(q1) > maxQuestionLength {
		return domainerrors.ErrInvalidPoolInput
	}
	if len(strings.TrimSpace(c.Question2)) > maxQuestionLength {
		return domainerrors.ErrInvalidPoolInput
	}
	return nil
}

type Pool struct {
	PoolID       string
	OwnerID      string
	Mode         DistributionMode
	TotalQuota   int
	ClaimedCount int
	// CodeCount mirrors len(codes) for SINGLE pools and is zero otherwise.
	CodeCount int
	Gate      GateConfig
	Question1 string
	Question2 string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPool(
	poolID string,
	ownerID string,
	totalQuota int,
	modeConfig ModeConfig,
	gate GateConfig,
	now time.Time,
) (Pool, error) {
	if strings.TrimSpace(poolID) == "" || strings.TrimSpace(ownerID) == "" {
		return Pool{}, domainerrors.ErrInvalidPoolInput
	}
	if totalQuota < 1 || modeConfig == nil {
		return Pool{}, domainerrors.ErrInvalidPoolInput
	}
	if gate.StartTime.IsZero() {
		gate.StartTime = now
	}
	gate.StartTime = gate.StartTime.UTC()
	if gate.EndTime != nil {
		end := gate.EndTime.UTC()
		gate.EndTime = &end
	}
	if err := gate.Validate(); err != nil {
		return Pool{}, err
	}
	if err := modeConfig.validate(totalQuota); err != nil {
		return Pool{}, err
	}

	pool := Pool{
		PoolID:     strings.TrimSpace(poolID),
		OwnerID:    strings.TrimSpace(ownerID),
		Mode:       modeConfig.Mode(),
		TotalQuota: totalQuota,
		Gate:       gate,
		CreatedAt:  now.UTC(),
		UpdatedAt:  now.UTC(),
	}
	switch cfg := modeConfig.(type) {
	case SingleUseCodes:
		pool.CodeCount = totalQuota
	case ManualReview:
		pool.Question1 = strings.TrimSpace(cfg.Question1)
		pool.Question2 = strings.TrimSpace(cfg.Question2)
	}
	return pool, nil
}

func (p Pool) Remaining() int {
	remaining := p.TotalQuota - p.ClaimedCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (p Pool) IsExhausted() bool {
	return p.ClaimedCount >= p.TotalQuota
}

func (p Pool) IsExpired(now time.Time) bool {
	return p.Gate.EndTime != nil && now.UTC().After(*p.Gate.EndTime)
}

// InWindow reports whether now falls in [StartTime, EndTime).
func (p Pool) InWindow(now time.Time) bool {
	at := now.UTC()
	if at.Before(p.Gate.StartTime) {
		return false
	}
	if p.Gate.EndTime != nil && !at.Before(*p.Gate.EndTime) {
		return false
	}
	return true
}

func (p Pool) HasPassword() bool {
	return strings.TrimSpace(p.Gate.PasswordHash) != ""
}

// InventoryConsistent checks the SINGLE standing invariant len(codes) == totalQuota.
func (p Pool) InventoryConsistent() bool {
	if p.Mode != ModeSingle {
		return true
	}
	return p.CodeCount == p.TotalQuota
}

// NormalizeCodes trims codes and rejects empty or duplicated values.
func NormalizeCodes(codes []string) ([]string, error) {
	seen := make(map[string]struct{}, len(codes))
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		value := strings.TrimSpace(code)
		if value == "" || len(value) > maxCodeLength {
			return nil, domainerrors.ErrInvalidPoolInput
		}
		if _, dup := seen[value]; dup {
			return nil, domainerrors.ErrDuplicateCode
		}
		seen[value] = struct{}{}
		normalized = append(normalized, value)
	}
	return normalized, nil
}
