package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

// Store is an in-memory adapter implementing the engine ports for local runtime
// and tests. Every mutating method runs in one critical section, which gives the
// same atomicity the SQL adapter gets from transactions.
type Store struct {
	mu              sync.RWMutex
	pools           map[string]entities.Pool
	codes           map[string][]entities.CodeEntry
	sharedCodes     map[string]entities.SharedCode
	reservations    map[string]entities.Reservation
	applications    map[string]entities.Application
	appByClaimant   map[string]string
	claims          map[string]entities.ClaimRecord
	claimByClaimant map[string]string
	claimants       map[string]entities.Claimant
	outbox          map[string]ports.OutboxMessage
	outboxOrder     []string
	outboxSent      map[string]time.Time
	eventDedup      map[string]string
	sequence        uint64
	fixedNow        atomic.Pointer[time.Time]
	logger          *slog.Logger
}

var (
	_ ports.PoolRepository        = (*Store)(nil)
	_ ports.QuotaLedger           = (*Store)(nil)
	_ ports.CodePool              = (*Store)(nil)
	_ ports.SharedCodes           = (*Store)(nil)
	_ ports.ApplicationRepository = (*Store)(nil)
	_ ports.ClaimRecordStore      = (*Store)(nil)
	_ ports.ClaimantDirectory     = (*Store)(nil)
	_ ports.OutboxRepository      = (*Store)(nil)
	_ ports.EventDedupStore       = (*Store)(nil)
	_ ports.Clock                 = (*Store)(nil)
	_ ports.IDGenerator           = (*Store)(nil)
)

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		pools:           make(map[string]entities.Pool),
		codes:           make(map[string][]entities.CodeEntry),
		sharedCodes:     make(map[string]entities.SharedCode),
		reservations:    make(map[string]entities.Reservation),
		applications:    make(map[string]entities.Application),
		appByClaimant:   make(map[string]string),
		claims:          make(map[string]entities.ClaimRecord),
		claimByClaimant: make(map[string]string),
		claimants:       make(map[string]entities.Claimant),
		outbox:          make(map[string]ports.OutboxMessage),
		outboxSent:      make(map[string]time.Time),
		eventDedup:      make(map[string]string),
		logger:          application.ResolveLogger(logger),
	}
}

func (s *Store) CreatePool(_ context.Context, seed ports.PoolSeed) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.pools[seed.Pool.PoolID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	if err := checkCodeUniqueness(nil, seed.Codes); err != nil {
		return err
	}
	s.pools[seed.Pool.PoolID] = seed.Pool
	if len(seed.Codes) > 0 {
		s.codes[seed.Pool.PoolID] = append([]entities.CodeEntry(nil), seed.Codes...)
	}
	if seed.SharedCode != nil {
		s.sharedCodes[seed.Pool.PoolID] = *seed.SharedCode
	}
	return nil
}

func (s *Store) GetPool(_ context.Context, poolID string) (entities.Pool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pool, ok := s.pools[poolID]
	if !ok {
		return entities.Pool{}, domainerrors.ErrPoolNotFound
	}
	return pool, nil
}

func (s *Store) GrowQuota(
	_ context.Context,
	poolID string,
	additionalSlots int,
	codes []entities.CodeEntry,
	updatedAt time.Time,
	event ports.OutboxEvent,
) (entities.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[poolID]
	if !ok {
		return entities.Pool{}, domainerrors.ErrPoolNotFound
	}
	if additionalSlots < 1 {
		return entities.Pool{}, domainerrors.ErrInvalidQuotaGrowth
	}
	if pool.Mode == entities.ModeSingle {
		if len(codes) != additionalSlots {
			return entities.Pool{}, domainerrors.ErrInvalidQuotaGrowth
		}
		if err := checkCodeUniqueness(s.codes[poolID], codes); err != nil {
			return entities.Pool{}, err
		}
		for i, code := range codes {
			code.PoolID = poolID
			code.Position = pool.CodeCount + i
			s.codes[poolID] = append(s.codes[poolID], code)
		}
		pool.CodeCount += len(codes)
	} else if len(codes) > 0 {
		return entities.Pool{}, domainerrors.ErrInvalidQuotaGrowth
	}

	pool.TotalQuota += additionalSlots
	pool.UpdatedAt = updatedAt.UTC()
	s.pools[poolID] = pool
	s.appendOutbox(event)
	return pool, nil
}

func (s *Store) SetPasswordHash(_ context.Context, poolID string, passwordHash string, updatedAt time.Time) (entities.Pool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[poolID]
	if !ok {
		return entities.Pool{}, domainerrors.ErrPoolNotFound
	}
	pool.Gate.PasswordHash = passwordHash
	pool.UpdatedAt = updatedAt.UTC()
	s.pools[poolID] = pool
	return pool, nil
}

func (s *Store) Reserve(
	_ context.Context,
	reservationID string,
	poolID string,
	claimantID string,
	now time.Time,
	ttl time.Duration,
) (entities.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pool, ok := s.pools[poolID]
	if !ok {
		return entities.Reservation{}, domainerrors.ErrPoolNotFound
	}
	if pool.ClaimedCount >= pool.TotalQuota {
		return entities.Reservation{}, domainerrors.ErrQuotaExhausted
	}
	if _, exists := s.reservations[reservationID]; exists {
		return entities.Reservation{}, domainerrors.ErrRepositoryInvariantBroke
	}
	pool.ClaimedCount++
	s.pools[poolID] = pool

	reservation := entities.Reservation{
		ReservationID: reservationID,
		PoolID:        poolID,
		ClaimantID:    claimantID,
		Status:        entities.ReservationHeld,
		CreatedAt:     now.UTC(),
		ExpiresAt:     now.UTC().Add(ttl),
	}
	s.reservations[reservationID] = reservation
	return reservation, nil
}

func (s *Store) Release(_ context.Context, reservationID string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return false, domainerrors.ErrReservationNotFound
	}
	if !reservation.IsHeld() {
		return false, nil
	}
	pool, ok := s.pools[reservation.PoolID]
	if !ok || pool.ClaimedCount < 1 {
		return false, domainerrors.ErrRepositoryInvariantBroke
	}
	pool.ClaimedCount--
	s.pools[pool.PoolID] = pool

	codes := s.codes[pool.PoolID]
	for i := range codes {
		if codes[i].ReservationID == reservationID {
			codes[i].ReservedBy = ""
			codes[i].ReservationID = ""
			codes[i].ReservedAt = nil
		}
	}
	reservation.Status = entities.ReservationReleased
	s.reservations[reservationID] = reservation
	return true, nil
}

func (s *Store) ListExpiredReservations(_ context.Context, now time.Time, limit int) ([]entities.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]entities.Reservation, 0)
	for _, reservation := range s.reservations {
		if reservation.IsExpired(now) {
			expired = append(expired, reservation)
		}
	}
	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})
	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *Store) TakeOne(_ context.Context, reservation entities.Reservation) (entities.CodeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.reservations[reservation.ReservationID]
	if !ok || !current.IsHeld() {
		return entities.CodeEntry{}, domainerrors.ErrReservationExpired
	}
	codes := s.codes[reservation.PoolID]
	for i := range codes {
		if codes[i].IsReserved() {
			continue
		}
		reservedAt := current.CreatedAt
		codes[i].ReservedBy = current.ClaimantID
		codes[i].ReservationID = current.ReservationID
		codes[i].ReservedAt = &reservedAt
		return codes[i], nil
	}
	return entities.CodeEntry{}, domainerrors.ErrNoCodesAvailable
}

func (s *Store) CountCodes(_ context.Context, poolID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.codes[poolID]), nil
}

func (s *Store) ReadSharedCode(_ context.Context, poolID string) (entities.SharedCode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	shared, ok := s.sharedCodes[poolID]
	if !ok {
		return entities.SharedCode{}, domainerrors.ErrSharedCodeNotFound
	}
	return shared, nil
}

func (s *Store) SubmitApplication(_ context.Context, app entities.Application, event ports.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[app.PoolID]; !ok {
		return domainerrors.ErrPoolNotFound
	}
	key := claimantKey(app.PoolID, app.ClaimantID)
	if _, exists := s.appByClaimant[key]; exists {
		return domainerrors.ErrAlreadyClaimed
	}
	if _, exists := s.claimByClaimant[key]; exists {
		return domainerrors.ErrAlreadyClaimed
	}
	s.applications[app.ApplicationID] = app
	s.appByClaimant[key] = app.ApplicationID
	s.appendOutbox(event)
	return nil
}

func (s *Store) GetApplication(_ context.Context, applicationID string) (entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	return app, nil
}

func (s *Store) HasApplication(_ context.Context, poolID string, claimantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.appByClaimant[claimantKey(poolID, claimantID)]
	return ok, nil
}

func (s *Store) ApproveApplication(
	_ context.Context,
	applicationID string,
	reviewerID string,
	decidedAt time.Time,
	claim entities.ClaimRecord,
	event ports.OutboxEvent,
) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	approved, err := app.Decide(entities.DecisionApprove, reviewerID, decidedAt)
	if err != nil {
		return entities.Application{}, err
	}
	pool, ok := s.pools[app.PoolID]
	if !ok {
		return entities.Application{}, domainerrors.ErrPoolNotFound
	}
	if pool.ClaimedCount >= pool.TotalQuota {
		return entities.Application{}, domainerrors.ErrQuotaExhausted
	}
	key := claimantKey(claim.PoolID, claim.ClaimantID)
	if _, exists := s.claimByClaimant[key]; exists {
		return entities.Application{}, domainerrors.ErrAlreadyClaimed
	}

	pool.ClaimedCount++
	s.pools[pool.PoolID] = pool
	s.applications[applicationID] = approved
	s.claims[claim.ClaimID] = claim
	s.claimByClaimant[key] = claim.ClaimID
	s.appendOutbox(event)
	return approved, nil
}

func (s *Store) RejectApplication(
	_ context.Context,
	applicationID string,
	reviewerID string,
	decidedAt time.Time,
	event ports.OutboxEvent,
) (entities.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return entities.Application{}, domainerrors.ErrApplicationNotFound
	}
	rejected, err := app.Decide(entities.DecisionReject, reviewerID, decidedAt)
	if err != nil {
		return entities.Application{}, err
	}
	s.applications[applicationID] = rejected
	s.appendOutbox(event)
	return rejected, nil
}

func (s *Store) ListApplications(_ context.Context, poolID string, status entities.ApplicationStatus) ([]entities.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Application, 0)
	for _, app := range s.applications {
		if app.PoolID != poolID {
			continue
		}
		if status != "" && app.Status != status {
			continue
		}
		items = append(items, app)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].ApplicationID < items[j].ApplicationID
		}
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
	return items, nil
}

func (s *Store) CountApplications(ctx context.Context, poolID string, status entities.ApplicationStatus) (int, error) {
	items, err := s.ListApplications(ctx, poolID, status)
	return len(items), err
}

func (s *Store) AppendClaim(
	_ context.Context,
	reservationID string,
	claim entities.ClaimRecord,
	event ports.OutboxEvent,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[reservationID]
	if !ok {
		return domainerrors.ErrReservationNotFound
	}
	if !reservation.IsHeld() {
		return domainerrors.ErrReservationExpired
	}
	key := claimantKey(claim.PoolID, claim.ClaimantID)
	if _, exists := s.claimByClaimant[key]; exists {
		return domainerrors.ErrAlreadyClaimed
	}
	if _, exists := s.claims[claim.ClaimID]; exists {
		return domainerrors.ErrRepositoryInvariantBroke
	}

	reservation.Status = entities.ReservationCompleted
	s.reservations[reservationID] = reservation
	s.claims[claim.ClaimID] = claim
	s.claimByClaimant[key] = claim.ClaimID
	s.appendOutbox(event)
	return nil
}

func (s *Store) HasClaim(_ context.Context, poolID string, claimantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.claimByClaimant[claimantKey(poolID, claimantID)]
	return ok, nil
}

func (s *Store) ListClaimsByPool(_ context.Context, poolID string, page int, pageSize int) (entities.ClaimPage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	page, pageSize = entities.NormalizePage(page, pageSize)
	items := make([]entities.ClaimRecord, 0)
	for _, claim := range s.claims {
		if claim.PoolID == poolID {
			items = append(items, claim)
		}
	}
	sortClaimsNewestFirst(items)

	result := entities.ClaimPage{Page: page, PageSize: pageSize, TotalCount: len(items)}
	start := result.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	result.Records = append([]entities.ClaimRecord(nil), items[start:end]...)
	result.HasMore = end < len(items)
	return result, nil
}

func (s *Store) ListClaimsByClaimant(_ context.Context, claimantID string) ([]entities.ClaimRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.ClaimRecord, 0)
	for _, claim := range s.claims {
		if claim.ClaimantID == claimantID {
			items = append(items, claim)
		}
	}
	sortClaimsNewestFirst(items)
	return items, nil
}

func (s *Store) GetClaimant(_ context.Context, claimantID string) (entities.Claimant, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimant, ok := s.claimants[claimantID]
	return claimant, ok, nil
}

func (s *Store) UpsertClaimant(_ context.Context, claimant entities.Claimant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimants[claimant.ClaimantID] = claimant
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	messages := make([]ports.OutboxMessage, 0, limit)
	for _, id := range s.outboxOrder {
		if _, sent := s.outboxSent[id]; sent {
			continue
		}
		messages = append(messages, s.outbox[id])
		if len(messages) >= limit {
			break
		}
	}
	return messages, nil
}

func (s *Store) MarkOutboxSent(_ context.Context, outboxID string, sentAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.outbox[outboxID]; !ok {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	s.outboxSent[outboxID] = sentAt.UTC()
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, _ time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.eventDedup[eventID]; ok {
		if existing != payloadHash {
			return false, domainerrors.ErrEventPayloadConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = payloadHash
	return false, nil
}

// SetNow pins the store clock; the zero time restores wall-clock time.
func (s *Store) SetNow(now time.Time) {
	if now.IsZero() {
		s.fixedNow.Store(nil)
		return
	}
	pinned := now.UTC()
	s.fixedNow.Store(&pinned)
}

func (s *Store) Now() time.Time {
	if pinned := s.fixedNow.Load(); pinned != nil {
		return *pinned
	}
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	value := atomic.AddUint64(&s.sequence, 1)
	return fmt.Sprintf("cae-%08d", value), nil
}

// OutboxEvents returns every outbox row in insertion order.
func (s *Store) OutboxEvents() []ports.OutboxMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]ports.OutboxMessage, 0, len(s.outboxOrder))
	for _, id := range s.outboxOrder {
		events = append(events, s.outbox[id])
	}
	return events
}

// Codes returns a snapshot of a pool's code inventory.
func (s *Store) Codes(poolID string) []entities.CodeEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.CodeEntry(nil), s.codes[poolID]...)
}

// DropCode removes a code row, breaking the inventory invariant on purpose.
func (s *Store) DropCode(poolID string, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	codes := s.codes[poolID]
	for i := range codes {
		if codes[i].Code == code {
			s.codes[poolID] = append(codes[:i], codes[i+1:]...)
			return
		}
	}
}

func (s *Store) appendOutbox(event ports.OutboxEvent) {
	if event.EventID == "" {
		return
	}
	s.outbox[event.EventID] = ports.OutboxMessage{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Envelope...),
		CreatedAt:    event.OccurredAt.UTC(),
	}
	s.outboxOrder = append(s.outboxOrder, event.EventID)
	s.logger.Debug("outbox event appended to memory store",
		"event", "memory_outbox_appended",
		"module", application.ModuleName,
		"layer", "adapter",
		"event_id", event.EventID,
		"event_type", event.EventType,
	)
}

func checkCodeUniqueness(existing []entities.CodeEntry, incoming []entities.CodeEntry) error {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	for _, code := range existing {
		seen[code.Code] = struct{}{}
	}
	for _, code := range incoming {
		if _, dup := seen[code.Code]; dup {
			return domainerrors.ErrDuplicateCode
		}
		seen[code.Code] = struct{}{}
	}
	return nil
}

func sortClaimsNewestFirst(items []entities.ClaimRecord) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].ClaimedAt.Equal(items[j].ClaimedAt) {
			return items[i].ClaimID > items[j].ClaimID
		}
		return items[i].ClaimedAt.After(items[j].ClaimedAt)
	})
}

func claimantKey(poolID string, claimantID string) string {
	return poolID + "|" + claimantID
}
