package commands

import (
	"context"
	"log/slog"
	"strings"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/services"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type SetPoolPasswordCommand struct {
	PoolID  string
	OwnerID string
	// Password replaces the current one; empty removes protection.
	Password string
}

type SetPoolPasswordUseCase struct {
	Pools  ports.PoolRepository
	Clock  ports.Clock
	Logger *slog.Logger
}

func (u SetPoolPasswordUseCase) Execute(ctx context.Context, cmd SetPoolPasswordCommand) (entities.Pool, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.PoolID) == "" {
		return entities.Pool{}, domainerrors.ErrInvalidPoolInput
	}
	pool, err := u.Pools.GetPool(ctx, cmd.PoolID)
	if err != nil {
		return entities.Pool{}, err
	}
	if pool.OwnerID != cmd.OwnerID {
		return entities.Pool{}, domainerrors.ErrNotPoolOwner
	}

	hash := ""
	if cmd.Password != "" {
		hash, err = services.HashPoolPassword(cmd.Password)
		if err != nil {
			return entities.Pool{}, err
		}
	}
	updated, err := u.Pools.SetPasswordHash(ctx, pool.PoolID, hash, resolveNow(u.Clock))
	if err != nil {
		return entities.Pool{}, err
	}

	logger.Info("pool password updated",
		"event", "claim_engine_pool_password_updated",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", pool.PoolID,
		"protected", hash != "",
	)
	return updated, nil
}
