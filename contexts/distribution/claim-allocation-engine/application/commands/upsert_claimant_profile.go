package commands

import (
	"context"
	"log/slog"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type UpsertClaimantProfileCommand struct {
	ClaimantID         string
	HasTrustedIdentity bool
	TrustLevel         int
	RiskScore          int
}

// UpsertClaimantProfileUseCase stores identity/risk data pushed by the
// identity and risk collaborators.
type UpsertClaimantProfileUseCase struct {
	Claimants ports.ClaimantDirectory
	Clock     ports.Clock
	Logger    *slog.Logger
}

func (u UpsertClaimantProfileUseCase) Execute(ctx context.Context, cmd UpsertClaimantProfileCommand) (entities.Claimant, error) {
	logger := application.ResolveLogger(u.Logger)
	claimant := entities.Claimant{
		ClaimantID:         cmd.ClaimantID,
		HasTrustedIdentity: cmd.HasTrustedIdentity,
		TrustLevel:         cmd.TrustLevel,
		RiskScore:          cmd.RiskScore,
		UpdatedAt:          resolveNow(u.Clock),
	}
	if err := claimant.Validate(); err != nil {
		return entities.Claimant{}, err
	}
	if err := u.Claimants.UpsertClaimant(ctx, claimant); err != nil {
		logger.Error("claimant profile upsert failed",
			"event", "claim_engine_claimant_upsert_failed",
			"module", application.ModuleName,
			"layer", "application",
			"claimant_id", claimant.ClaimantID,
			"error", err.Error(),
		)
		return entities.Claimant{}, err
	}
	logger.Debug("claimant profile upserted",
		"event", "claim_engine_claimant_upserted",
		"module", application.ModuleName,
		"layer", "application",
		"claimant_id", claimant.ClaimantID,
		"trust_level", claimant.TrustLevel,
		"risk_score", claimant.RiskScore,
	)
	return claimant, nil
}
