package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/services"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type CreatePoolCommand struct {
	OwnerID    string
	TotalQuota int
	ModeConfig entities.ModeConfig
	Gate       entities.GateConfig
	// Password is hashed before storage; empty leaves the pool unprotected.
	Password string
}

type CreatePoolResult struct {
	Pool entities.Pool
}

type CreatePoolUseCase struct {
	Pools       ports.PoolRepository
	Clock       ports.Clock
	IDGenerator ports.IDGenerator
	Logger      *slog.Logger
}

func (u CreatePoolUseCase) Execute(ctx context.Context, cmd CreatePoolCommand) (CreatePoolResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if strings.TrimSpace(cmd.OwnerID) == "" || cmd.ModeConfig == nil {
		return CreatePoolResult{}, domainerrors.ErrInvalidPoolInput
	}
	now := resolveNow(u.Clock)

	poolID, err := newID(ctx, u.IDGenerator)
	if err != nil {
		return CreatePoolResult{}, err
	}
	gate := cmd.Gate
	gate.PasswordHash = ""
	if cmd.Password != "" {
		hash, err := services.HashPoolPassword(cmd.Password)
		if err != nil {
			return CreatePoolResult{}, err
		}
		gate.PasswordHash = hash
	}

	pool, err := entities.NewPool(poolID, cmd.OwnerID, cmd.TotalQuota, cmd.ModeConfig, gate, now)
	if err != nil {
		logger.Warn("create pool rejected",
			"event", "claim_engine_create_pool_rejected",
			"module", application.ModuleName,
			"layer", "application",
			"owner_id", cmd.OwnerID,
			"error", err.Error(),
		)
		return CreatePoolResult{}, err
	}

	seed := ports.PoolSeed{Pool: pool}
	switch cfg := cmd.ModeConfig.(type) {
	case entities.SingleUseCodes:
		codes, err := entities.NormalizeCodes(cfg.Codes)
		if err != nil {
			return CreatePoolResult{}, err
		}
		seed.Codes, err = buildCodeEntries(ctx, u.IDGenerator, pool.PoolID, codes, 0)
		if err != nil {
			return CreatePoolResult{}, err
		}
	case entities.SharedCodeConfig:
		seed.SharedCode = &entities.SharedCode{PoolID: pool.PoolID, Code: strings.TrimSpace(cfg.Code)}
	}

	if err := u.Pools.CreatePool(ctx, seed); err != nil {
		logger.Error("create pool write failed",
			"event", "claim_engine_create_pool_failed",
			"module", application.ModuleName,
			"layer", "application",
			"pool_id", pool.PoolID,
			"error", err.Error(),
		)
		return CreatePoolResult{}, err
	}

	logger.Info("pool created",
		"event", "claim_engine_pool_created",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", pool.PoolID,
		"owner_id", pool.OwnerID,
		"mode", pool.Mode,
		"total_quota", pool.TotalQuota,
	)
	return CreatePoolResult{Pool: pool}, nil
}

func buildCodeEntries(
	ctx context.Context,
	ids ports.IDGenerator,
	poolID string,
	codes []string,
	offset int,
) ([]entities.CodeEntry, error) {
	entries := make([]entities.CodeEntry, 0, len(codes))
	for i, code := range codes {
		codeID, err := newID(ctx, ids)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entities.CodeEntry{
			CodeID:   codeID,
			PoolID:   poolID,
			Code:     code,
			Position: offset + i,
		})
	}
	return entries, nil
}

func resolveNow(clock ports.Clock) time.Time {
	if clock == nil {
		return time.Now().UTC()
	}
	return clock.Now().UTC()
}
