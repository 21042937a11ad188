package postgresadapter

import (
	"context"
	"errors"
	"time"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *Repository) AppendClaim(
	ctx context.Context,
	reservationID string,
	claim entities.ClaimRecord,
	event ports.OutboxEvent,
) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&reservationModel{}).
			Where("reservation_id = ? AND status = ?", reservationID, string(entities.ReservationHeld)).
			Updates(map[string]any{
				"status":    string(entities.ReservationCompleted),
				"closed_at": claim.ClaimedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&reservationModel{}).Where("reservation_id = ?", reservationID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domainerrors.ErrReservationNotFound
			}
			return domainerrors.ErrReservationExpired
		}

		if err := insertClaim(tx, claim); err != nil {
			return err
		}
		return insertOutbox(tx, event)
	})
	if err != nil && !errors.Is(err, domainerrors.ErrAlreadyClaimed) {
		r.logWarn("append claim transaction rolled back", "claim_engine_append_claim_rolled_back", claim.PoolID, err)
	}
	return err
}

func (r *Repository) HasClaim(ctx context.Context, poolID string, claimantID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("pool_id = ? AND claimant_id = ?", poolID, claimantID).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) ListClaimsByPool(ctx context.Context, poolID string, page int, pageSize int) (entities.ClaimPage, error) {
	page, pageSize = entities.NormalizePage(page, pageSize)
	result := entities.ClaimPage{Page: page, PageSize: pageSize}

	var total int64
	if err := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("pool_id = ?", poolID).
		Count(&total).
		Error; err != nil {
		return entities.ClaimPage{}, err
	}

	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "claimed_at"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "claim_id"}, Desc: true}).
		Offset(result.Offset()).
		Limit(pageSize).
		Find(&rows).
		Error; err != nil {
		return entities.ClaimPage{}, err
	}

	result.TotalCount = int(total)
	result.Records = make([]entities.ClaimRecord, 0, len(rows))
	for _, row := range rows {
		result.Records = append(result.Records, row.toEntity())
	}
	result.HasMore = result.Offset()+len(rows) < result.TotalCount
	return result, nil
}

func (r *Repository) ListClaimsByClaimant(ctx context.Context, claimantID string) ([]entities.ClaimRecord, error) {
	var rows []claimModel
	if err := r.db.WithContext(ctx).
		Where("claimant_id = ?", claimantID).
		Order("claimed_at DESC").
		Order("claim_id DESC").
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.ClaimRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Order("outbox_id ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}

	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toPort())
	}
	return items, nil
}

func (r *Repository) MarkOutboxSent(ctx context.Context, outboxID string, sentAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", outboxID).
		Updates(map[string]any{
			"status":  outboxStatusSent,
			"sent_at": sentAt.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRepositoryInvariantBroke
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := eventDedupModel{
		EventID:     eventID,
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: time.Now().UTC(),
	}

	createResult := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if createResult.Error != nil {
		return false, createResult.Error
	}
	if createResult.RowsAffected > 0 {
		return false, nil
	}

	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", eventID).
		First(&existing).
		Error; err != nil {
		return false, err
	}
	if existing.PayloadHash != payloadHash {
		return false, domainerrors.ErrEventPayloadConflict
	}
	return true, nil
}

func insertClaim(tx *gorm.DB, claim entities.ClaimRecord) error {
	row := claimModelFromEntity(claim)
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyClaimed
		}
		return err
	}
	return nil
}
