package postgresadapter

import (
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

type poolModel struct {
	PoolID                 string     `gorm:"column:pool_id;primaryKey"`
	OwnerID                string     `gorm:"column:owner_id;index"`
	Mode                   string     `gorm:"column:mode"`
	TotalQuota             int        `gorm:"column:total_quota"`
	ClaimedCount           int        `gorm:"column:claimed_count"`
	CodeCount              int        `gorm:"column:code_count"`
	StartTime              time.Time  `gorm:"column:start_time"`
	EndTime                *time.Time `gorm:"column:end_time"`
	PasswordHash           string     `gorm:"column:password_hash"`
	RequireTrustedIdentity bool       `gorm:"column:require_trusted_identity"`
	MinTrustLevel          int        `gorm:"column:min_trust_level"`
	MinRiskThreshold       int        `gorm:"column:min_risk_threshold"`
	IsPublic               bool       `gorm:"column:is_public"`
	Question1              string     `gorm:"column:question1"`
	Question2              string     `gorm:"column:question2"`
	CreatedAt              time.Time  `gorm:"column:created_at"`
	UpdatedAt              time.Time  `gorm:"column:updated_at"`
}

func (poolModel) TableName() string {
	return "claim_pools"
}

func poolModelFromEntity(pool entities.Pool) poolModel {
	return poolModel{
		PoolID:                 pool.PoolID,
		OwnerID:                pool.OwnerID,
		Mode:                   string(pool.Mode),
		TotalQuota:             pool.TotalQuota,
		ClaimedCount:           pool.ClaimedCount,
		CodeCount:              pool.CodeCount,
		StartTime:              pool.Gate.StartTime.UTC(),
		EndTime:                utcPtr(pool.Gate.EndTime),
		PasswordHash:           pool.Gate.PasswordHash,
		RequireTrustedIdentity: pool.Gate.RequireTrustedIdentity,
		MinTrustLevel:          pool.Gate.MinTrustLevel,
		MinRiskThreshold:       pool.Gate.MinRiskThreshold,
		IsPublic:               pool.Gate.IsPublic,
		Question1:              pool.Question1,
		Question2:              pool.Question2,
		CreatedAt:              pool.CreatedAt.UTC(),
		UpdatedAt:              pool.UpdatedAt.UTC(),
	}
}

func (m poolModel) toEntity() entities.Pool {
	return entities.Pool{
		PoolID:       m.PoolID,
		OwnerID:      m.OwnerID,
		Mode:         entities.DistributionMode(m.Mode),
		TotalQuota:   m.TotalQuota,
		ClaimedCount: m.ClaimedCount,
		CodeCount:    m.CodeCount,
		Gate: entities.GateConfig{
			StartTime:              m.StartTime.UTC(),
			EndTime:                utcPtr(m.EndTime),
			PasswordHash:           m.PasswordHash,
			RequireTrustedIdentity: m.RequireTrustedIdentity,
			MinTrustLevel:          m.MinTrustLevel,
			MinRiskThreshold:       m.MinRiskThreshold,
			IsPublic:               m.IsPublic,
		},
		Question1: m.Question1,
		Question2: m.Question2,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type codeModel struct {
	CodeID        string     `gorm:"column:code_id;primaryKey"`
	PoolID        string     `gorm:"column:pool_id;uniqueIndex:claim_pool_codes_pool_code_unique,priority:1;index:claim_pool_codes_pool_position,priority:1"`
	Code          string     `gorm:"column:code;uniqueIndex:claim_pool_codes_pool_code_unique,priority:2"`
	Position      int        `gorm:"column:position;index:claim_pool_codes_pool_position,priority:2"`
	ReservedBy    *string    `gorm:"column:reserved_by"`
	ReservationID *string    `gorm:"column:reservation_id;index"`
	ReservedAt    *time.Time `gorm:"column:reserved_at"`
}

func (codeModel) TableName() string {
	return "claim_pool_codes"
}

func codeModelFromEntity(code entities.CodeEntry) codeModel {
	return codeModel{
		CodeID:        code.CodeID,
		PoolID:        code.PoolID,
		Code:          code.Code,
		Position:      code.Position,
		ReservedBy:    optionalString(code.ReservedBy),
		ReservationID: optionalString(code.ReservationID),
		ReservedAt:    utcPtr(code.ReservedAt),
	}
}

func (m codeModel) toEntity() entities.CodeEntry {
	entry := entities.CodeEntry{
		CodeID:     m.CodeID,
		PoolID:     m.PoolID,
		Code:       m.Code,
		Position:   m.Position,
		ReservedAt: utcPtr(m.ReservedAt),
	}
	if m.ReservedBy != nil {
		entry.ReservedBy = *m.ReservedBy
	}
	if m.ReservationID != nil {
		entry.ReservationID = *m.ReservationID
	}
	return entry
}

type sharedCodeModel struct {
	PoolID string `gorm:"column:pool_id;primaryKey"`
	Code   string `gorm:"column:code"`
}

func (sharedCodeModel) TableName() string {
	return "claim_pool_shared_codes"
}

type reservationModel struct {
	ReservationID string     `gorm:"column:reservation_id;primaryKey"`
	PoolID        string     `gorm:"column:pool_id;index"`
	ClaimantID    string     `gorm:"column:claimant_id"`
	Status        string     `gorm:"column:status;index:claim_reservations_status_expiry,priority:1"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;index:claim_reservations_status_expiry,priority:2"`
	ClosedAt      *time.Time `gorm:"column:closed_at"`
}

func (reservationModel) TableName() string {
	return "claim_reservations"
}

func (m reservationModel) toEntity() entities.Reservation {
	return entities.Reservation{
		ReservationID: m.ReservationID,
		PoolID:        m.PoolID,
		ClaimantID:    m.ClaimantID,
		Status:        entities.ReservationStatus(m.Status),
		CreatedAt:     m.CreatedAt.UTC(),
		ExpiresAt:     m.ExpiresAt.UTC(),
	}
}

type applicationModel struct {
	ApplicationID string     `gorm:"column:application_id;primaryKey"`
	PoolID        string     `gorm:"column:pool_id;uniqueIndex:claim_applications_pool_claimant_unique,priority:1"`
	ClaimantID    string     `gorm:"column:claimant_id;uniqueIndex:claim_applications_pool_claimant_unique,priority:2"`
	Answer1       string     `gorm:"column:answer1"`
	Answer2       string     `gorm:"column:answer2"`
	Status        string     `gorm:"column:status"`
	SubmittedAt   time.Time  `gorm:"column:submitted_at"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	DecidedBy     string     `gorm:"column:decided_by"`
}

func (applicationModel) TableName() string {
	return "claim_applications"
}

func applicationModelFromEntity(app entities.Application) applicationModel {
	return applicationModel{
		ApplicationID: app.ApplicationID,
		PoolID:        app.PoolID,
		ClaimantID:    app.ClaimantID,
		Answer1:       app.Answers[0],
		Answer2:       app.Answers[1],
		Status:        string(app.Status),
		SubmittedAt:   app.SubmittedAt.UTC(),
		DecidedAt:     utcPtr(app.DecidedAt),
		DecidedBy:     app.DecidedBy,
	}
}

func (m applicationModel) toEntity() entities.Application {
	return entities.Application{
		ApplicationID: m.ApplicationID,
		PoolID:        m.PoolID,
		ClaimantID:    m.ClaimantID,
		Answers:       [2]string{m.Answer1, m.Answer2},
		Status:        entities.ApplicationStatus(m.Status),
		SubmittedAt:   m.SubmittedAt.UTC(),
		DecidedAt:     utcPtr(m.DecidedAt),
		DecidedBy:     m.DecidedBy,
	}
}

type claimModel struct {
	ClaimID       string    `gorm:"column:claim_id;primaryKey"`
	PoolID        string    `gorm:"column:pool_id;uniqueIndex:claim_records_pool_claimant_unique,priority:1"`
	ClaimantID    string    `gorm:"column:claimant_id;uniqueIndex:claim_records_pool_claimant_unique,priority:2;index"`
	Mode          string    `gorm:"column:mode"`
	ClaimedAt     time.Time `gorm:"column:claimed_at;index"`
	CodeRef       string    `gorm:"column:code_ref"`
	ApplicationID string    `gorm:"column:application_id"`
}

func (claimModel) TableName() string {
	return "claim_records"
}

func claimModelFromEntity(claim entities.ClaimRecord) claimModel {
	return claimModel{
		ClaimID:       claim.ClaimID,
		PoolID:        claim.PoolID,
		ClaimantID:    claim.ClaimantID,
		Mode:          string(claim.Mode),
		ClaimedAt:     claim.ClaimedAt.UTC(),
		CodeRef:       claim.CodeRef,
		ApplicationID: claim.ApplicationID,
	}
}

func (m claimModel) toEntity() entities.ClaimRecord {
	return entities.ClaimRecord{
		ClaimID:       m.ClaimID,
		PoolID:        m.PoolID,
		ClaimantID:    m.ClaimantID,
		Mode:          entities.DistributionMode(m.Mode),
		ClaimedAt:     m.ClaimedAt.UTC(),
		CodeRef:       m.CodeRef,
		ApplicationID: m.ApplicationID,
	}
}

type claimantModel struct {
	ClaimantID         string    `gorm:"column:claimant_id;primaryKey"`
	HasTrustedIdentity bool      `gorm:"column:has_trusted_identity"`
	TrustLevel         int       `gorm:"column:trust_level"`
	RiskScore          int       `gorm:"column:risk_score"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (claimantModel) TableName() string {
	return "claimant_profiles"
}

func (m claimantModel) toEntity() entities.Claimant {
	return entities.Claimant{
		ClaimantID:         m.ClaimantID,
		HasTrustedIdentity: m.HasTrustedIdentity,
		TrustLevel:         m.TrustLevel,
		RiskScore:          m.RiskScore,
		UpdatedAt:          m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index:claim_engine_outbox_status_created,priority:1"`
	CreatedAt    time.Time  `gorm:"column:created_at;index:claim_engine_outbox_status_created,priority:2"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (outboxModel) TableName() string {
	return "claim_engine_outbox"
}

func outboxModelFromEvent(event ports.OutboxEvent) outboxModel {
	return outboxModel{
		OutboxID:     event.EventID,
		EventType:    event.EventType,
		PartitionKey: event.PartitionKey,
		Payload:      append([]byte(nil), event.Envelope...),
		Status:       outboxStatusPending,
		CreatedAt:    event.OccurredAt.UTC(),
	}
}

func (m outboxModel) toPort() ports.OutboxMessage {
	return ports.OutboxMessage{
		OutboxID:     m.OutboxID,
		EventType:    m.EventType,
		PartitionKey: m.PartitionKey,
		Payload:      append([]byte(nil), m.Payload...),
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "claim_engine_event_dedup"
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
