package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type ReviewApplicationCommand struct {
	ApplicationID string
	ReviewerID    string
	Decision      entities.ReviewDecision
}

type ReviewApplicationResult struct {
	Application entities.Application
	Claim       *entities.ClaimRecord
}

type ReviewApplicationUseCase struct {
	Pools        ports.PoolRepository
	Applications ports.ApplicationRepository
	Clock        ports.Clock
	IDGenerator  ports.IDGenerator
	Observer     ports.Observer
	Logger       *slog.Logger
}

// Execute decides a PENDING application. Approval reserves quota atomically with
// the status change; ErrQuotaExhausted leaves the application PENDING.
func (u ReviewApplicationUseCase) Execute(ctx context.Context, cmd ReviewApplicationCommand) (ReviewApplicationResult, error) {
	logger := application.ResolveLogger(u.Logger)
	observer := application.ResolveObserver(u.Observer)
	if strings.TrimSpace(cmd.ApplicationID) == "" || strings.TrimSpace(cmd.ReviewerID) == "" || !cmd.Decision.Valid() {
		return ReviewApplicationResult{}, domainerrors.ErrInvalidDecision
	}

	app, err := u.Applications.GetApplication(ctx, cmd.ApplicationID)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	pool, err := u.Pools.GetPool(ctx, app.PoolID)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	if pool.OwnerID != cmd.ReviewerID {
		logger.Warn("application review by non owner",
			"event", "claim_engine_review_forbidden",
			"module", application.ModuleName,
			"layer", "application",
			"application_id", app.ApplicationID,
			"pool_id", pool.PoolID,
			"reviewer_id", cmd.ReviewerID,
		)
		return ReviewApplicationResult{}, domainerrors.ErrNotPoolOwner
	}
	if !app.IsPending() {
		return ReviewApplicationResult{}, domainerrors.ErrApplicationNotPending
	}

	var result ReviewApplicationResult
	if cmd.Decision == entities.DecisionApprove {
		result, err = u.approve(ctx, pool, app, cmd.ReviewerID)
	} else {
		result, err = u.reject(ctx, pool, app, cmd.ReviewerID)
	}
	if err != nil {
		outcome := "error"
		if errors.Is(err, domainerrors.ErrQuotaExhausted) {
			outcome = "exhausted"
			logger.Info("application approval hit exhausted quota",
				"event", "claim_engine_approval_quota_exhausted",
				"module", application.ModuleName,
				"layer", "application",
				"application_id", app.ApplicationID,
				"pool_id", pool.PoolID,
			)
		} else {
			logger.Error("application review failed",
				"event", "claim_engine_review_failed",
				"module", application.ModuleName,
				"layer", "application",
				"application_id", app.ApplicationID,
				"pool_id", pool.PoolID,
				"decision", cmd.Decision,
				"error", err.Error(),
			)
		}
		observer.ObserveDecision(cmd.Decision, outcome)
		return ReviewApplicationResult{}, err
	}

	observer.ObserveDecision(cmd.Decision, "decided")
	logger.Info("application decided",
		"event", "claim_engine_application_decided",
		"module", application.ModuleName,
		"layer", "application",
		"application_id", result.Application.ApplicationID,
		"pool_id", pool.PoolID,
		"status", result.Application.Status,
		"reviewer_id", cmd.ReviewerID,
	)
	return result, nil
}

func (u ReviewApplicationUseCase) approve(
	ctx context.Context,
	pool entities.Pool,
	app entities.Application,
	reviewerID string,
) (ReviewApplicationResult, error) {
	now := resolveNow(u.Clock)
	claimID, err := newID(ctx, u.IDGenerator)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	claim, err := entities.NewClaimRecord(claimID, pool, app.ClaimantID, "", app.ApplicationID, now)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	event, err := newOutboxEvent(ctx, u.IDGenerator, EventApplicationDecided, pool.PoolID, now, applicationDecidedPayload{
		ApplicationID: app.ApplicationID,
		PoolID:        pool.PoolID,
		ClaimantID:    app.ClaimantID,
		Status:        string(entities.ApplicationApproved),
		ReviewerID:    reviewerID,
		ClaimID:       claim.ClaimID,
		DecidedAt:     now,
	})
	if err != nil {
		return ReviewApplicationResult{}, err
	}

	approved, err := u.Applications.ApproveApplication(ctx, app.ApplicationID, reviewerID, now, claim, event)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	return ReviewApplicationResult{Application: approved, Claim: &claim}, nil
}

func (u ReviewApplicationUseCase) reject(
	ctx context.Context,
	pool entities.Pool,
	app entities.Application,
	reviewerID string,
) (ReviewApplicationResult, error) {
	now := resolveNow(u.Clock)
	event, err := newOutboxEvent(ctx, u.IDGenerator, EventApplicationDecided, pool.PoolID, now, applicationDecidedPayload{
		ApplicationID: app.ApplicationID,
		PoolID:        pool.PoolID,
		ClaimantID:    app.ClaimantID,
		Status:        string(entities.ApplicationRejected),
		ReviewerID:    reviewerID,
		DecidedAt:     now,
	})
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	rejected, err := u.Applications.RejectApplication(ctx, app.ApplicationID, reviewerID, now, event)
	if err != nil {
		return ReviewApplicationResult{}, err
	}
	return ReviewApplicationResult{Application: rejected}, nil
}
