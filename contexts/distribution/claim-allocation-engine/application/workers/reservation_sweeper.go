package workers

import (
	"context"
	"log/slog"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

// ReservationSweeper releases HELD reservations that outlived their TTL so an
// abandoned claim never keeps a quota slot.
type ReservationSweeper struct {
	Ledger    ports.QuotaLedger
	Clock     ports.Clock
	BatchSize int
	Observer  ports.Observer
	Logger    *slog.Logger
}

func (s ReservationSweeper) RunOnce(ctx context.Context) (int, error) {
	logger := application.ResolveLogger(s.Logger)
	now := time.Now().UTC()
	if s.Clock != nil {
		now = s.Clock.Now().UTC()
	}
	limit := s.BatchSize
	if limit <= 0 {
		limit = 100
	}

	expired, err := s.Ledger.ListExpiredReservations(ctx, now, limit)
	if err != nil {
		logger.Error("reservation sweep list failed",
			"event", "claim_engine_reservation_sweep_list_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"error", err.Error(),
		)
		return 0, err
	}

	released := 0
	for _, reservation := range expired {
		ok, err := s.Ledger.Release(ctx, reservation.ReservationID, now)
		if err != nil {
			logger.Error("reservation sweep release failed",
				"event", "claim_engine_reservation_sweep_release_failed",
				"module", application.ModuleName,
				"layer", "worker",
				"reservation_id", reservation.ReservationID,
				"pool_id", reservation.PoolID,
				"error", err.Error(),
			)
			return released, err
		}
		if ok {
			released++
		}
	}

	if released > 0 {
		application.ResolveObserver(s.Observer).ObserveReleasedReservations("expired", released)
		logger.Info("reservation sweep completed",
			"event", "claim_engine_reservation_sweep_completed",
			"module", application.ModuleName,
			"layer", "worker",
			"released_count", released,
		)
	}
	return released, nil
}
