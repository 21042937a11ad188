package commands

import (
	"context"
	"log/slog"
	"strings"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type GrowQuotaCommand struct {
	PoolID          string
	OwnerID         string
	AdditionalSlots int
	AdditionalCodes []string
}

type GrowQuotaResult struct {
	Pool entities.Pool
}

type GrowQuotaUseCase struct {
	Pools       ports.PoolRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

// Execute raises total_quota. SINGLE pools must receive exactly AdditionalSlots
// new codes so the code count keeps matching the quota.
func (u GrowQuotaUseCase) Execute(ctx context.Context, cmd GrowQuotaCommand) (GrowQuotaResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.PoolID) == "" || cmd.AdditionalSlots < 1 {
		return GrowQuotaResult{}, domainerrors.ErrInvalidQuotaGrowth
	}
	now := resolveNow(u.Clock)

	pool, err := u.Pools.GetPool(ctx, cmd.PoolID)
	if err != nil {
		return GrowQuotaResult{}, err
	}
	if pool.OwnerID != cmd.OwnerID {
		return GrowQuotaResult{}, domainerrors.ErrNotPoolOwner
	}

	var entries []entities.CodeEntry
	if pool.Mode == entities.ModeSingle {
		codes, err := entities.NormalizeCodes(cmd.AdditionalCodes)
		if err != nil {
			return GrowQuotaResult{}, err
		}
		if len(codes) != cmd.AdditionalSlots {
			return GrowQuotaResult{}, domainerrors.ErrInvalidQuotaGrowth
		}
		// Positions are rebased by the repository onto the locked code count.
		entries, err = buildCodeEntries(ctx, u.IDGenerator, pool.PoolID, codes, 0)
		if err != nil {
			return GrowQuotaResult{}, err
		}
	} else if len(cmd.AdditionalCodes) > 0 {
		return GrowQuotaResult{}, domainerrors.ErrInvalidQuotaGrowth
	}

	event, err := newOutboxEvent(ctx, u.IDGenerator, EventQuotaGrown, pool.PoolID, now, quotaGrownPayload{
		PoolID:          pool.PoolID,
		AdditionalSlots: cmd.AdditionalSlots,
		GrownAt:         now,
	})
	if err != nil {
		return GrowQuotaResult{}, err
	}

	grown, err := u.Pools.GrowQuota(ctx, pool.PoolID, cmd.AdditionalSlots, entries, now, event)
	if err != nil {
		logger.Error("grow quota failed",
			"event", "claim_engine_grow_quota_failed",
			"module", application.ModuleName,
			"layer", "application",
			"pool_id", pool.PoolID,
			"additional_slots", cmd.AdditionalSlots,
			"error", err.Error(),
		)
		return GrowQuotaResult{}, err
	}

	logger.Info("pool quota grown",
		"event", "claim_engine_quota_grown",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", grown.PoolID,
		"total_quota", grown.TotalQuota,
		"code_count", grown.CodeCount,
	)
	return GrowQuotaResult{Pool: grown}, nil
}
