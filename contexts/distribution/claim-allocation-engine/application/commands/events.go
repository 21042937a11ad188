package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	contractsv1 "codedrop/contracts/gen/events/v1"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

const (
	sourceService = "claim-allocation-engine"

	EventClaimRecorded        = "codedrop.claim_recorded"
	EventApplicationSubmitted = "codedrop.application_submitted"
	EventApplicationDecided   = "codedrop.application_decided"
	EventQuotaGrown           = "codedrop.quota_grown"
)

type claimRecordedPayload struct {
	ClaimID       string    `json:"claim_id"`
	PoolID        string    `json:"pool_id"`
	ClaimantID    string    `json:"claimant_id"`
	Mode          string    `json:"mode"`
	ApplicationID string    `json:"application_id,omitempty"`
	ClaimedAt     time.Time `json:"claimed_at"`
}

type applicationSubmittedPayload struct {
	ApplicationID string    `json:"application_id"`
	PoolID        string    `json:"pool_id"`
	ClaimantID    string    `json:"claimant_id"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type applicationDecidedPayload struct {
	ApplicationID string    `json:"application_id"`
	PoolID        string    `json:"pool_id"`
	ClaimantID    string    `json:"claimant_id"`
	Status        string    `json:"status"`
	ReviewerID    string    `json:"reviewer_id"`
	ClaimID       string    `json:"claim_id,omitempty"`
	DecidedAt     time.Time `json:"decided_at"`
}

type quotaGrownPayload struct {
	PoolID          string    `json:"pool_id"`
	AdditionalSlots int       `json:"additional_slots"`
	GrownAt         time.Time `json:"grown_at"`
}

// newOutboxEvent wraps data in the canonical envelope, partitioned by pool.
func newOutboxEvent(
	ctx context.Context,
	ids ports.IDGenerator,
	eventType string,
	poolID string,
	occurredAt time.Time,
	data any,
) (ports.OutboxEvent, error) {
	eventID, err := ids.NewID(ctx)
	if err != nil {
		return ports.OutboxEvent{}, err
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	envelope, err := json.Marshal(contractsv1.Envelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    contractsv1.CurrentSchemaVersion,
		PartitionKeyPath: "pool_id",
		PartitionKey:     poolID,
		Data:             raw,
	})
	if err != nil {
		return ports.OutboxEvent{}, fmt.Errorf("encode %s envelope: %w", eventType, err)
	}
	return ports.OutboxEvent{
		EventID:      eventID,
		EventType:    eventType,
		PartitionKey: poolID,
		Envelope:     envelope,
		OccurredAt:   occurredAt.UTC(),
	}, nil
}

func newID(ctx context.Context, ids ports.IDGenerator) (string, error) {
	id, err := ids.NewID(ctx)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return id, nil
}
