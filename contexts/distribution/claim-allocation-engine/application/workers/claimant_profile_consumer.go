package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

const (
	ClaimantProfileUpdatedTopic = "identity.claimant_profile_updated"
	defaultConsumerGroup        = "claim-allocation-engine-profile-cg"
)

// ClaimantProfileConsumer projects identity/risk updates into the claimant directory.
// The identity/risk service owns identity.claimant_profile_updated. The
// messaging.Kafka bus is process local, so until a broker client is wired the
// same payload reaches the directory through the token-guarded
// PUT /v1/claimants/{claimant_id}/profile route.
type ClaimantProfileConsumer struct {
	Subscriber    ports.EventSubscriber
	Claimants     ports.ClaimantDirectory
	Dedup         ports.EventDedupStore
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

type claimantProfilePayload struct {
	ClaimantID         string `json:"claimant_id"`
	HasTrustedIdentity bool   `json:"has_trusted_identity"`
	TrustLevel         int    `json:"trust_level"`
	RiskScore          int    `json:"risk_score"`
}

func (c ClaimantProfileConsumer) Start(ctx context.Context) error {
	group := c.ConsumerGroup
	if group == "" {
		group = defaultConsumerGroup
	}
	return c.Subscriber.Subscribe(ctx, ClaimantProfileUpdatedTopic, group, c.Handle)
}

func (c ClaimantProfileConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}

	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), now.Add(c.dedupTTL()))
	if err != nil {
		logger.Error("claimant profile event dedupe failed",
			"event", "claim_engine_profile_dedupe_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if alreadyProcessed {
		logger.Debug("claimant profile event already processed",
			"event", "claim_engine_profile_event_replayed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
		)
		return nil
	}

	var payload claimantProfilePayload
	if err := event.DecodeData(&payload); err != nil {
		return fmt.Errorf("decode claimant profile payload: %w", err)
	}
	claimant := entities.Claimant{
		ClaimantID:         payload.ClaimantID,
		HasTrustedIdentity: payload.HasTrustedIdentity,
		TrustLevel:         payload.TrustLevel,
		RiskScore:          payload.RiskScore,
		UpdatedAt:          now,
	}
	if err := claimant.Validate(); err != nil {
		return fmt.Errorf("claimant profile event %s: %w", event.EventID, err)
	}

	if err := c.Claimants.UpsertClaimant(ctx, claimant); err != nil {
		logger.Error("claimant profile projection failed",
			"event", "claim_engine_profile_projection_failed",
			"module", application.ModuleName,
			"layer", "worker",
			"event_id", event.EventID,
			"claimant_id", claimant.ClaimantID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("claimant profile projected",
		"event", "claim_engine_profile_projected",
		"module", application.ModuleName,
		"layer", "worker",
		"event_id", event.EventID,
		"claimant_id", claimant.ClaimantID,
		"trust_level", claimant.TrustLevel,
		"risk_score", claimant.RiskScore,
	)
	return nil
}

func (c ClaimantProfileConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
