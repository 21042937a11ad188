package queries

import (
	"context"
	"log/slog"
	"strings"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type ListClaimsQuery struct {
	PoolID   string
	Page     int
	PageSize int
}

type ListClaimsUseCase struct {
	Pools  ports.PoolRepository
	Claims ports.ClaimRecordStore
	Logger *slog.Logger
}

// Execute returns one page of the pool audit trail, newest first.
func (u ListClaimsUseCase) Execute(ctx context.Context, query ListClaimsQuery) (entities.ClaimPage, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(query.PoolID) == "" {
		return entities.ClaimPage{}, domainerrors.ErrInvalidPagination
	}
	page, pageSize := entities.NormalizePage(query.Page, query.PageSize)

	if _, err := u.Pools.GetPool(ctx, query.PoolID); err != nil {
		return entities.ClaimPage{}, err
	}
	result, err := u.Claims.ListClaimsByPool(ctx, query.PoolID, page, pageSize)
	if err != nil {
		logger.Error("list claims failed",
			"event", "claim_engine_list_claims_failed",
			"module", application.ModuleName,
			"layer", "application",
			"pool_id", query.PoolID,
			"page", page,
			"error", err.Error(),
		)
		return entities.ClaimPage{}, err
	}

	logger.Debug("list claims completed",
		"event", "claim_engine_list_claims_completed",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", query.PoolID,
		"page", page,
		"items_count", len(result.Records),
		"total_count", result.TotalCount,
	)
	return result, nil
}
