package queries

import (
	"context"
	"log/slog"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type PoolStatus struct {
	Pool                entities.Pool
	Remaining           int
	Exhausted           bool
	Expired             bool
	Open                bool
	PendingApplications int
	StoredCodes         int
	InventoryConsistent bool
}

type GetPoolStatusUseCase struct {
	Pools        ports.PoolRepository
	Codes        ports.CodePool
	Applications ports.ApplicationRepository
	Clock        ports.Clock
	Logger       *slog.Logger
}

func (u GetPoolStatusUseCase) Execute(ctx context.Context, poolID string) (PoolStatus, error) {
	logger := application.ResolveLogger(u.Logger)
	now := time.Now().UTC()
	if u.Clock != nil {
		now = u.Clock.Now().UTC()
	}

	pool, err := u.Pools.GetPool(ctx, poolID)
	if err != nil {
		return PoolStatus{}, err
	}
	status := PoolStatus{
		Pool:                pool,
		Remaining:           pool.Remaining(),
		Exhausted:           pool.IsExhausted(),
		Expired:             pool.IsExpired(now),
		Open:                pool.InWindow(now) && !pool.IsExhausted(),
		InventoryConsistent: true,
	}

	switch pool.Mode {
	case entities.ModeSingle:
		stored, err := u.Codes.CountCodes(ctx, pool.PoolID)
		if err != nil {
			return PoolStatus{}, err
		}
		status.StoredCodes = stored
		status.InventoryConsistent = stored == pool.TotalQuota && pool.InventoryConsistent()
		if !status.InventoryConsistent {
			logger.Error("pool code inventory mismatch",
				"event", "claim_engine_inventory_mismatch",
				"module", application.ModuleName,
				"layer", "application",
				"incident", "data_integrity",
				"pool_id", pool.PoolID,
				"total_quota", pool.TotalQuota,
				"stored_codes", stored,
			)
		}
	case entities.ModeManual:
		pending, err := u.Applications.CountApplications(ctx, pool.PoolID, entities.ApplicationPending)
		if err != nil {
			return PoolStatus{}, err
		}
		status.PendingApplications = pending
	}
	return status, nil
}
