package queries

import (
	"context"
	"log/slog"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type ListApplicationsQuery struct {
	PoolID     string
	ReviewerID string
	// Status filters by state; empty returns every application.
	Status entities.ApplicationStatus
}

type ListApplicationsUseCase struct {
	Pools        ports.PoolRepository
	Applications ports.ApplicationRepository
	Logger       *slog.Logger
}

func (u ListApplicationsUseCase) Execute(ctx context.Context, query ListApplicationsQuery) ([]entities.Application, error) {
	logger := application.ResolveLogger(u.Logger)
	switch query.Status {
	case "", entities.ApplicationPending, entities.ApplicationApproved, entities.ApplicationRejected:
	default:
		return nil, domainerrors.ErrInvalidDecision
	}

	pool, err := u.Pools.GetPool(ctx, query.PoolID)
	if err != nil {
		return nil, err
	}
	if pool.OwnerID != query.ReviewerID {
		return nil, domainerrors.ErrNotPoolOwner
	}
	if pool.Mode != entities.ModeManual {
		return nil, domainerrors.ErrModeMismatch
	}

	items, err := u.Applications.ListApplications(ctx, pool.PoolID, query.Status)
	if err != nil {
		logger.Error("list applications failed",
			"event", "claim_engine_list_applications_failed",
			"module", application.ModuleName,
			"layer", "application",
			"pool_id", pool.PoolID,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}
