package commands

import (
	"context"
	"errors"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
)

// fulfil turns a held reservation into the code handed to the claimant.
// Any error returned here is followed by a Release of the reservation.
func (u TryClaimUseCase) fulfil(ctx context.Context, pool entities.Pool, reservation entities.Reservation) (string, error) {
	switch pool.Mode {
	case entities.ModeSingle:
		return u.fulfilSingle(ctx, pool, reservation)
	case entities.ModeMulti:
		return u.fulfilShared(ctx, pool, reservation)
	default:
		return "", domainerrors.ErrModeMismatch
	}
}

func (u TryClaimUseCase) fulfilSingle(ctx context.Context, pool entities.Pool, reservation entities.Reservation) (string, error) {
	entry, err := u.Codes.TakeOne(ctx, reservation)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNoCodesAvailable) {
			u.reportIncident(pool, reservation.ClaimantID, reservation.ReservationID, err)
		}
		return "", err
	}
	return entry.Code, nil
}

func (u TryClaimUseCase) fulfilShared(ctx context.Context, pool entities.Pool, reservation entities.Reservation) (string, error) {
	shared, err := u.SharedCodes.ReadSharedCode(ctx, pool.PoolID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrSharedCodeNotFound) {
			u.reportIncident(pool, reservation.ClaimantID, reservation.ReservationID, err)
			return "", domainerrors.ErrRepositoryInvariantBroke
		}
		return "", err
	}
	return shared.Code, nil
}
