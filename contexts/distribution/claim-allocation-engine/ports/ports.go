package ports

import (
	"context"
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	contractsv1 "codedrop/contracts/gen/events/v1"
)

// OutboxEvent is an integration event persisted in the same transaction as the
// state change it describes. Envelope holds the JSON-encoded EventEnvelope.
type OutboxEvent struct {
	EventID      string
	EventType    string
	PartitionKey string
	Envelope     []byte
	OccurredAt   time.Time
}

// PoolSeed is everything persisted when a pool is published.
type PoolSeed struct {
	Pool       entities.Pool
	Codes      []entities.CodeEntry
	SharedCode *entities.SharedCode
}

// PoolRepository owns pool rows and the code inventory growth path.
type PoolRepository interface {
	CreatePool(ctx context.Context, seed PoolSeed) error
	GetPool(ctx context.Context, poolID string) (entities.Pool, error)
	// GrowQuota raises total_quota and inserts codes in one transaction.
	// codes must be empty for MULTI/MANUAL pools and exactly additionalSlots long for SINGLE.
	GrowQuota(
		ctx context.Context,
		poolID string,
		additionalSlots int,
		codes []entities.CodeEntry,
		updatedAt time.Time,
		event OutboxEvent,
	) (entities.Pool, error)
	SetPasswordHash(ctx context.Context, poolID string, passwordHash string, updatedAt time.Time) (entities.Pool, error)
}

// QuotaLedger is the only writer of claimed_count.
type QuotaLedger interface {
	// Reserve atomically increments claimed_count when it is below total_quota and
	// records a HELD reservation. It fails with ErrQuotaExhausted otherwise.
	Reserve(
		ctx context.Context,
		reservationID string,
		poolID string,
		claimantID string,
		now time.Time,
		ttl time.Duration,
	) (entities.Reservation, error)
	// Release rolls back a HELD reservation and frees any code taken under it.
	// It returns false when the reservation was not HELD.
	Release(ctx context.Context, reservationID string, now time.Time) (bool, error)
	ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]entities.Reservation, error)
}

// CodePool hands out single-use codes of SINGLE pools.
type CodePool interface {
	TakeOne(ctx context.Context, reservation entities.Reservation) (entities.CodeEntry, error)
	CountCodes(ctx context.Context, poolID string) (int, error)
}

// SharedCodes reads the shared code of MULTI pools.
type SharedCodes interface {
	ReadSharedCode(ctx context.Context, poolID string) (entities.SharedCode, error)
}

// ApplicationRepository owns MANUAL applications and their decisions.
type ApplicationRepository interface {
	// SubmitApplication fails with ErrAlreadyClaimed when the claimant already applied.
	SubmitApplication(ctx context.Context, application entities.Application, event OutboxEvent) error
	GetApplication(ctx context.Context, applicationID string) (entities.Application, error)
	HasApplication(ctx context.Context, poolID string, claimantID string) (bool, error)
	// ApproveApplication locks the application, requires PENDING, increments the
	// pool quota conditionally, marks it APPROVED and appends claim and event,
	// all in one transaction. ErrQuotaExhausted leaves the application PENDING.
	ApproveApplication(
		ctx context.Context,
		applicationID string,
		reviewerID string,
		decidedAt time.Time,
		claim entities.ClaimRecord,
		event OutboxEvent,
	) (entities.Application, error)
	RejectApplication(
		ctx context.Context,
		applicationID string,
		reviewerID string,
		decidedAt time.Time,
		event OutboxEvent,
	) (entities.Application, error)
	ListApplications(ctx context.Context, poolID string, status entities.ApplicationStatus) ([]entities.Application, error)
	CountApplications(ctx context.Context, poolID string, status entities.ApplicationStatus) (int, error)
}

// ClaimRecordStore is the append-only audit trail.
type ClaimRecordStore interface {
	// AppendClaim completes the HELD reservation and writes the claim and event
	// in one transaction. ErrReservationExpired when the reservation is not HELD,
	// ErrAlreadyClaimed on a (pool, claimant) conflict.
	AppendClaim(
		ctx context.Context,
		reservationID string,
		claim entities.ClaimRecord,
		event OutboxEvent,
	) error
	HasClaim(ctx context.Context, poolID string, claimantID string) (bool, error)
	ListClaimsByPool(ctx context.Context, poolID string, page int, pageSize int) (entities.ClaimPage, error)
	ListClaimsByClaimant(ctx context.Context, claimantID string) ([]entities.ClaimRecord, error)
}

// ClaimantDirectory is the local projection of identity and risk data.
type ClaimantDirectory interface {
	GetClaimant(ctx context.Context, claimantID string) (entities.Claimant, bool, error)
	UpsertClaimant(ctx context.Context, claimant entities.Claimant) error
}

// Clock allows deterministic testing of windows and reservation TTLs.
type Clock interface {
	Now() time.Time
}

// IDGenerator abstracts pool/claim/event identifier generation.
type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

// OutboxMessage is a row ready to relay from the outbox.
type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error
}

// EventDedupStore provides idempotent processing guarantees for consumed events.
// ReserveEvent returns true when the event was already processed and fails with
// ErrEventPayloadConflict when the id is reused with another payload.
type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}

// EventEnvelope reuses the canonical cross-runtime envelope contract.
type EventEnvelope = contractsv1.Envelope

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

// Observer receives engine measurements; see adapters/metrics.
type Observer interface {
	ObserveClaim(mode entities.DistributionMode, outcome string, elapsed time.Duration)
	ObserveDecision(decision entities.ReviewDecision, outcome string)
	ObserveIncident(kind string)
	ObserveReleasedReservations(reason string, count int)
}
