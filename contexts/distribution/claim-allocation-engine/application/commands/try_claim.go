package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/services"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

const DefaultReservationTTL = 2 * time.Minute

type ClaimOutcome string

const (
	OutcomeClaimed ClaimOutcome = "CLAIMED"
	OutcomePending ClaimOutcome = "PENDING_APPROVAL"
)

type TryClaimCommand struct {
	PoolID      string
	ClaimantID  string
	Credentials entities.Credentials
	// Answers are only read for MANUAL pools.
	Answers []string
}

type TryClaimResult struct {
	Outcome     ClaimOutcome
	Claim       *entities.ClaimRecord
	Code        string
	Application *entities.Application
}

type TryClaimUseCase struct {
	Pools            ports.PoolRepository
	Ledger           ports.QuotaLedger
	Codes            ports.CodePool
	SharedCodes      ports.SharedCodes
	Applications     ports.ApplicationRepository
	Claims           ports.ClaimRecordStore
	Claimants        ports.ClaimantDirectory
	Passwords        services.PasswordVerifier
	Clock            ports.Clock
	IDGenerator      ports.IDGenerator
	ReservationTTL   time.Duration
	DefaultRiskScore int
	Observer         ports.Observer
	Logger           *slog.Logger
}

// Execute runs the claim workflow in this order:
// 1) load pool and claimant profile, run the eligibility gate
// 2) MANUAL pools queue a PENDING application and stop there
// 3) reserve a quota slot and fulfil it per mode, releasing on failure
// 4) complete the reservation with the claim record and outbox event.
func (u TryClaimUseCase) Execute(ctx context.Context, cmd TryClaimCommand) (TryClaimResult, error) {
	logger := application.ResolveLogger(u.Logger)
	observer := application.ResolveObserver(u.Observer)
	startedAt := time.Now()
	if strings.TrimSpace(cmd.PoolID) == "" || strings.TrimSpace(cmd.ClaimantID) == "" {
		return TryClaimResult{}, domainerrors.ErrInvalidClaimRequest
	}
	now := resolveNow(u.Clock)

	pool, err := u.Pools.GetPool(ctx, cmd.PoolID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrPoolNotFound) {
			logger.Error("try claim failed loading pool",
				"event", "claim_engine_get_pool_failed",
				"module", application.ModuleName,
				"layer", "application",
				"pool_id", cmd.PoolID,
				"error", err.Error(),
			)
		}
		return TryClaimResult{}, err
	}

	if err := u.checkEligibility(ctx, pool, cmd, now); err != nil {
		outcome := "error"
		if entities.ClassifyError(err) == entities.ErrorClassEligibility {
			outcome = "rejected"
			logger.Info("claim rejected by eligibility gate",
				"event", "claim_engine_claim_rejected",
				"module", application.ModuleName,
				"layer", "application",
				"pool_id", pool.PoolID,
				"claimant_id", cmd.ClaimantID,
				"reason", err.Error(),
			)
		}
		observer.ObserveClaim(pool.Mode, outcome, time.Since(startedAt))
		return TryClaimResult{}, err
	}

	var result TryClaimResult
	if pool.Mode == entities.ModeManual {
		result, err = u.submitApplication(ctx, pool, cmd, now)
	} else {
		result, err = u.claimSlot(ctx, pool, cmd.ClaimantID, now)
	}
	observer.ObserveClaim(pool.Mode, claimOutcomeLabel(result, err), time.Since(startedAt))
	return result, err
}

func (u TryClaimUseCase) checkEligibility(
	ctx context.Context,
	pool entities.Pool,
	cmd TryClaimCommand,
	now time.Time,
) error {
	claimant, found, err := u.Claimants.GetClaimant(ctx, cmd.ClaimantID)
	if err != nil {
		return err
	}
	if !found {
		claimant = entities.UnknownClaimant(cmd.ClaimantID, u.DefaultRiskScore)
	}

	alreadyClaimed, err := u.Claims.HasClaim(ctx, pool.PoolID, cmd.ClaimantID)
	if err != nil {
		return err
	}
	if !alreadyClaimed && pool.Mode == entities.ModeManual {
		alreadyClaimed, err = u.Applications.HasApplication(ctx, pool.PoolID, cmd.ClaimantID)
		if err != nil {
			return err
		}
	}

	return services.EvaluateEligibility(services.EligibilityInput{
		Pool:           pool,
		Claimant:       claimant,
		Credentials:    cmd.Credentials,
		AlreadyClaimed: alreadyClaimed,
		Now:            now,
	}, u.Passwords)
}

func (u TryClaimUseCase) submitApplication(
	ctx context.Context,
	pool entities.Pool,
	cmd TryClaimCommand,
	now time.Time,
) (TryClaimResult, error) {
	logger := application.ResolveLogger(u.Logger)
	applicationID, err := newID(ctx, u.IDGenerator)
	if err != nil {
		return TryClaimResult{}, err
	}
	app, err := entities.NewApplication(applicationID, pool, cmd.ClaimantID, cmd.Answers, now)
	if err != nil {
		return TryClaimResult{}, err
	}
	event, err := newOutboxEvent(ctx, u.IDGenerator, EventApplicationSubmitted, pool.PoolID, now, applicationSubmittedPayload{
		ApplicationID: app.ApplicationID,
		PoolID:        app.PoolID,
		ClaimantID:    app.ClaimantID,
		SubmittedAt:   app.SubmittedAt,
	})
	if err != nil {
		return TryClaimResult{}, err
	}

	if err := u.Applications.SubmitApplication(ctx, app, event); err != nil {
		if !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
			logger.Error("application submit failed",
				"event", "claim_engine_application_submit_failed",
				"module", application.ModuleName,
				"layer", "application",
				"pool_id", pool.PoolID,
				"claimant_id", cmd.ClaimantID,
				"error", err.Error(),
			)
		}
		return TryClaimResult{}, err
	}

	logger.Info("application submitted",
		"event", "claim_engine_application_submitted",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", pool.PoolID,
		"claimant_id", app.ClaimantID,
		"application_id", app.ApplicationID,
	)
	return TryClaimResult{Outcome: OutcomePending, Application: &app}, nil
}

func (u TryClaimUseCase) claimSlot(
	ctx context.Context,
	pool entities.Pool,
	claimantID string,
	now time.Time,
) (TryClaimResult, error) {
	logger := application.ResolveLogger(u.Logger)
	if err := u.checkInventory(ctx, pool, claimantID); err != nil {
		return TryClaimResult{}, err
	}

	reservationID, err := newID(ctx, u.IDGenerator)
	if err != nil {
		return TryClaimResult{}, err
	}
	reservation, err := u.Ledger.Reserve(ctx, reservationID, pool.PoolID, claimantID, now, u.reservationTTL())
	if err != nil {
		if !errors.Is(err, domainerrors.ErrQuotaExhausted) {
			logger.Error("quota reservation failed",
				"event", "claim_engine_reserve_failed",
				"module", application.ModuleName,
				"layer", "application",
				"pool_id", pool.PoolID,
				"claimant_id", claimantID,
				"error", err.Error(),
			)
		}
		return TryClaimResult{}, err
	}

	codeRef, err := u.fulfil(ctx, pool, reservation)
	if err != nil {
		u.release(ctx, reservation, err)
		return TryClaimResult{}, err
	}

	claimID, err := newID(ctx, u.IDGenerator)
	if err != nil {
		u.release(ctx, reservation, err)
		return TryClaimResult{}, err
	}
	claim, err := entities.NewClaimRecord(claimID, pool, claimantID, codeRef, "", now)
	if err != nil {
		u.release(ctx, reservation, err)
		return TryClaimResult{}, err
	}
	event, err := newOutboxEvent(ctx, u.IDGenerator, EventClaimRecorded, pool.PoolID, now, claimRecordedPayload{
		ClaimID:    claim.ClaimID,
		PoolID:     claim.PoolID,
		ClaimantID: claim.ClaimantID,
		Mode:       string(claim.Mode),
		ClaimedAt:  claim.ClaimedAt,
	})
	if err != nil {
		u.release(ctx, reservation, err)
		return TryClaimResult{}, err
	}

	if err := u.Claims.AppendClaim(ctx, reservation.ReservationID, claim, event); err != nil {
		u.release(ctx, reservation, err)
		if !errors.Is(err, domainerrors.ErrAlreadyClaimed) && !errors.Is(err, domainerrors.ErrReservationExpired) {
			logger.Error("claim append failed",
				"event", "claim_engine_claim_append_failed",
				"module", application.ModuleName,
				"layer", "application",
				"pool_id", pool.PoolID,
				"claimant_id", claimantID,
				"reservation_id", reservation.ReservationID,
				"error", err.Error(),
			)
		}
		return TryClaimResult{}, err
	}

	logger.Info("claim recorded",
		"event", "claim_engine_claim_recorded",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", pool.PoolID,
		"claimant_id", claimantID,
		"claim_id", claim.ClaimID,
		"mode", pool.Mode,
	)
	return TryClaimResult{Outcome: OutcomeClaimed, Claim: &claim, Code: codeRef}, nil
}

// release rolls a reservation back after a failed fulfilment step. It runs on a
// context detached from cancellation so an abandoned request still frees its slot.
func (u TryClaimUseCase) release(ctx context.Context, reservation entities.Reservation, cause error) {
	logger := application.ResolveLogger(u.Logger)
	releaseCtx := context.WithoutCancel(ctx)
	released, err := u.Ledger.Release(releaseCtx, reservation.ReservationID, resolveNow(u.Clock))
	if err != nil {
		logger.Error("reservation rollback failed",
			"event", "claim_engine_release_failed",
			"module", application.ModuleName,
			"layer", "application",
			"pool_id", reservation.PoolID,
			"reservation_id", reservation.ReservationID,
			"cause", cause.Error(),
			"error", err.Error(),
		)
		return
	}
	if released {
		application.ResolveObserver(u.Observer).ObserveReleasedReservations("rollback", 1)
	}
	logger.Warn("reservation rolled back",
		"event", "claim_engine_reservation_rolled_back",
		"module", application.ModuleName,
		"layer", "application",
		"pool_id", reservation.PoolID,
		"reservation_id", reservation.ReservationID,
		"released", released,
		"cause", cause.Error(),
	)
}

// checkInventory enforces the SINGLE invariant stored codes == TotalQuota before
// any slot is reserved. A mismatch against the request's pool snapshot is
// re-read once because GrowQuota may have committed in between.
func (u TryClaimUseCase) checkInventory(ctx context.Context, pool entities.Pool, claimantID string) error {
	if pool.Mode != entities.ModeSingle {
		return nil
	}
	stored, err := u.Codes.CountCodes(ctx, pool.PoolID)
	if err != nil {
		return err
	}
	if stored != pool.TotalQuota {
		fresh, err := u.Pools.GetPool(ctx, pool.PoolID)
		if err != nil {
			return err
		}
		pool = fresh
	}
	if stored != pool.TotalQuota || !pool.InventoryConsistent() {
		err := fmt.Errorf("%w: stored %d codes for quota %d", domainerrors.ErrCodeInventoryMismatch, stored, pool.TotalQuota)
		u.reportIncident(pool, claimantID, "", err)
		return err
	}
	return nil
}

// reportIncident logs and counts a broken storage invariant.
func (u TryClaimUseCase) reportIncident(pool entities.Pool, claimantID string, reservationID string, err error) {
	application.ResolveLogger(u.Logger).Error("claim allocation consistency violation",
		"event", "claim_engine_consistency_violation",
		"module", application.ModuleName,
		"layer", "application",
		"incident", "data_integrity",
		"pool_id", pool.PoolID,
		"mode", pool.Mode,
		"total_quota", pool.TotalQuota,
		"code_count", pool.CodeCount,
		"claimant_id", claimantID,
		"reservation_id", reservationID,
		"error", err.Error(),
	)
	application.ResolveObserver(u.Observer).ObserveIncident(incidentKind(err))
}

func (u TryClaimUseCase) reservationTTL() time.Duration {
	if u.ReservationTTL <= 0 {
		return DefaultReservationTTL
	}
	return u.ReservationTTL
}

func claimOutcomeLabel(result TryClaimResult, err error) string {
	if err == nil {
		if result.Outcome == OutcomePending {
			return "pending"
		}
		return "claimed"
	}
	switch entities.ClassifyError(err) {
	case entities.ErrorClassEligibility:
		return "rejected"
	case entities.ErrorClassCapacity:
		return "exhausted"
	case entities.ErrorClassConsistency:
		return "inconsistent"
	default:
		return "error"
	}
}

func incidentKind(err error) string {
	switch {
	case errors.Is(err, domainerrors.ErrNoCodesAvailable):
		return "no_codes_available"
	case errors.Is(err, domainerrors.ErrCodeInventoryMismatch):
		return "code_inventory_mismatch"
	case errors.Is(err, domainerrors.ErrSharedCodeNotFound):
		return "shared_code_missing"
	default:
		return "repository_invariant"
	}
}
