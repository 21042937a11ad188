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

type ListClaimantClaimsUseCase struct {
	Claims ports.ClaimRecordStore
	Logger *slog.Logger
}

func (u ListClaimantClaimsUseCase) Execute(ctx context.Context, claimantID string) ([]entities.ClaimRecord, error) {
	if strings.TrimSpace(claimantID) == "" {
		return nil, domainerrors.ErrInvalidClaimRequest
	}
	items, err := u.Claims.ListClaimsByClaimant(ctx, claimantID)
	if err != nil {
		application.ResolveLogger(u.Logger).Error("list claimant claims failed",
			"event", "claim_engine_list_claimant_claims_failed",
			"module", application.ModuleName,
			"layer", "application",
			"claimant_id", claimantID,
			"error", err.Error(),
		)
		return nil, err
	}
	return items, nil
}
