package entities

import (
	"strings"
	"time"

	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

// ClaimRecord is the append-only audit row of a successful redemption.
// CodeRef is the issued code for SINGLE/MULTI and empty for MANUAL.
type ClaimRecord struct {
	ClaimID       string
	PoolID        string
	ClaimantID    string
	Mode          DistributionMode
	ClaimedAt     time.Time
	CodeRef       string
	ApplicationID string
}

func NewClaimRecord(
	claimID string,
	pool Pool,
	claimantID string,
	codeRef string,
	applicationID string,
	claimedAt time.Time,
) (ClaimRecord, error) {
	if strings.TrimSpace(claimID) == "" || strings.TrimSpace(claimantID) == "" || pool.PoolID == "" {
		return ClaimRecord{}, domainerrors.ErrInvalidClaimRequest
	}
	switch pool.Mode {
	case ModeSingle, ModeMulti:
		if codeRef == "" {
			return ClaimRecord{}, domainerrors.ErrInvalidClaimRequest
		}
	case ModeManual:
		if applicationID == "" {
			return ClaimRecord{}, domainerrors.ErrInvalidClaimRequest
		}
	default:
		return ClaimRecord{}, domainerrors.ErrModeMismatch
	}
	return ClaimRecord{
		ClaimID:       claimID,
		PoolID:        pool.PoolID,
		ClaimantID:    strings.TrimSpace(claimantID),
		Mode:          pool.Mode,
		ClaimedAt:     claimedAt.UTC(),
		CodeRef:       codeRef,
		ApplicationID: applicationID,
	}, nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ClaimPage struct {
	Records    []ClaimRecord
	Page       int
	PageSize   int
	TotalCount int
	HasMore    bool
}

// NormalizePage returns a 1-based page and a page size clamped to [1, MaxPageSize].
// A zero page size selects DefaultPageSize.
func NormalizePage(page int, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case pageSize == 0:
		pageSize = DefaultPageSize
	case pageSize < 1:
		pageSize = 1
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (p ClaimPage) Offset() int {
	return (p.Page - 1) * p.PageSize
}
