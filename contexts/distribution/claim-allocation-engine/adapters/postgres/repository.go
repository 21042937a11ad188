package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "codedrop/contexts/distribution/claim-allocation-engine/application"
	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	domainerrors "codedrop/contexts/distribution/claim-allocation-engine/domain/errors"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending = "pending"
	outboxStatusSent    = "sent"

	codeInsertBatchSize = 200
)

// Repository implements the engine ports on gorm. Postgres is the production
// dialect; the same code runs on SQLite, which ignores row locks and relies on
// a single connection for serialisation.
type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

var (
	_ ports.PoolRepository        = (*Repository)(nil)
	_ ports.QuotaLedger           = (*Repository)(nil)
	_ ports.CodePool              = (*Repository)(nil)
	_ ports.SharedCodes           = (*Repository)(nil)
	_ ports.ApplicationRepository = (*Repository)(nil)
	_ ports.ClaimRecordStore      = (*Repository)(nil)
	_ ports.ClaimantDirectory     = (*Repository)(nil)
	_ ports.OutboxRepository      = (*Repository)(nil)
	_ ports.EventDedupStore       = (*Repository)(nil)
)

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: application.ResolveLogger(logger),
	}
}

func (r *Repository) CreatePool(ctx context.Context, seed ports.PoolSeed) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := poolModelFromEntity(seed.Pool)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		if len(seed.Codes) > 0 {
			if err := insertCodes(tx, seed.Codes); err != nil {
				return err
			}
		}
		if seed.SharedCode != nil {
			shared := sharedCodeModel{PoolID: seed.Pool.PoolID, Code: seed.SharedCode.Code}
			if err := tx.Create(&shared).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repository) GetPool(ctx context.Context, poolID string) (entities.Pool, error) {
	var row poolModel
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Pool{}, domainerrors.ErrPoolNotFound
		}
		return entities.Pool{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GrowQuota(
	ctx context.Context,
	poolID string,
	additionalSlots int,
	codes []entities.CodeEntry,
	updatedAt time.Time,
	event ports.OutboxEvent,
) (entities.Pool, error) {
	if additionalSlots < 1 {
		return entities.Pool{}, domainerrors.ErrInvalidQuotaGrowth
	}

	var grown entities.Pool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row poolModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("pool_id = ?", poolID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPoolNotFound
			}
			return err
		}

		mode := entities.DistributionMode(row.Mode)
		if mode == entities.ModeSingle {
			if len(codes) != additionalSlots {
				return domainerrors.ErrInvalidQuotaGrowth
			}
			rebased := make([]entities.CodeEntry, 0, len(codes))
			for i, code := range codes {
				code.PoolID = poolID
				code.Position = row.CodeCount + i
				rebased = append(rebased, code)
			}
			if err := insertCodes(tx, rebased); err != nil {
				return err
			}
			row.CodeCount += len(codes)
		} else if len(codes) > 0 {
			return domainerrors.ErrInvalidQuotaGrowth
		}

		row.TotalQuota += additionalSlots
		row.UpdatedAt = updatedAt.UTC()
		if err := tx.Model(&poolModel{}).
			Where("pool_id = ?", poolID).
			Updates(map[string]any{
				"total_quota": row.TotalQuota,
				"code_count":  row.CodeCount,
				"updated_at":  row.UpdatedAt,
			}).Error; err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		grown = row.toEntity()
		return nil
	})
	if err != nil {
		r.logWarn("grow quota transaction rolled back", "claim_engine_grow_quota_rolled_back", poolID, err)
		return entities.Pool{}, err
	}
	return grown, nil
}

func (r *Repository) SetPasswordHash(ctx context.Context, poolID string, passwordHash string, updatedAt time.Time) (entities.Pool, error) {
	result := r.db.WithContext(ctx).
		Model(&poolModel{}).
		Where("pool_id = ?", poolID).
		Updates(map[string]any{
			"password_hash": passwordHash,
			"updated_at":    updatedAt.UTC(),
		})
	if result.Error != nil {
		return entities.Pool{}, result.Error
	}
	if result.RowsAffected == 0 {
		return entities.Pool{}, domainerrors.ErrPoolNotFound
	}
	return r.GetPool(ctx, poolID)
}

// Reserve is a single conditional increment plus the HELD reservation row.
func (r *Repository) Reserve(
	ctx context.Context,
	reservationID string,
	poolID string,
	claimantID string,
	now time.Time,
	ttl time.Duration,
) (entities.Reservation, error) {
	reservation := reservationModel{
		ReservationID: reservationID,
		PoolID:        poolID,
		ClaimantID:    claimantID,
		Status:        string(entities.ReservationHeld),
		CreatedAt:     now.UTC(),
		ExpiresAt:     now.UTC().Add(ttl),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := incrementClaimed(tx, poolID); err != nil {
			return err
		}
		if err := tx.Create(&reservation).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrRepositoryInvariantBroke
			}
			return err
		}
		return nil
	})
	if err != nil {
		return entities.Reservation{}, err
	}
	return reservation.toEntity(), nil
}

// Release closes a HELD reservation, gives the slot back and frees the code
// taken under it. A reservation that is not HELD is left untouched.
func (r *Repository) Release(ctx context.Context, reservationID string, now time.Time) (bool, error) {
	released := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row reservationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reservation_id = ?", reservationID).
			First(&row).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrReservationNotFound
			}
			return err
		}
		if row.Status != string(entities.ReservationHeld) {
			return nil
		}

		closedAt := now.UTC()
		result := tx.Model(&reservationModel{}).
			Where("reservation_id = ? AND status = ?", reservationID, string(entities.ReservationHeld)).
			Updates(map[string]any{
				"status":    string(entities.ReservationReleased),
				"closed_at": closedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}

		decrement := tx.Model(&poolModel{}).
			Where("pool_id = ? AND claimed_count > 0", row.PoolID).
			UpdateColumn("claimed_count", gorm.Expr("claimed_count - ?", 1))
		if decrement.Error != nil {
			return decrement.Error
		}
		if decrement.RowsAffected == 0 {
			return domainerrors.ErrRepositoryInvariantBroke
		}

		if err := tx.Model(&codeModel{}).
			Where("reservation_id = ?", reservationID).
			Updates(map[string]any{
				"reserved_by":    nil,
				"reservation_id": nil,
				"reserved_at":    nil,
			}).Error; err != nil {
			return err
		}
		released = true
		return nil
	})
	if err != nil {
		r.logError("reservation release failed", "claim_engine_release_failed", reservationID, err)
		return false, err
	}
	return released, nil
}

func (r *Repository) ListExpiredReservations(ctx context.Context, now time.Time, limit int) ([]entities.Reservation, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []reservationModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", string(entities.ReservationHeld), now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&rows).
		Error; err != nil {
		return nil, err
	}
	items := make([]entities.Reservation, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// TakeOne marks the lowest-position free code with the reservation. The
// reservation row is locked first so a concurrent Release waits for it.
func (r *Repository) TakeOne(ctx context.Context, reservation entities.Reservation) (entities.CodeEntry, error) {
	var taken codeModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var held reservationModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("reservation_id = ? AND status = ?", reservation.ReservationID, string(entities.ReservationHeld)).
			First(&held).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrReservationExpired
			}
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("pool_id = ? AND reservation_id IS NULL", held.PoolID).
			Order("position ASC").
			First(&taken).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNoCodesAvailable
			}
			return err
		}

		reservedAt := held.CreatedAt.UTC()
		result := tx.Model(&codeModel{}).
			Where("code_id = ? AND reservation_id IS NULL", taken.CodeID).
			Updates(map[string]any{
				"reserved_by":    held.ClaimantID,
				"reservation_id": held.ReservationID,
				"reserved_at":    reservedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		taken.ReservedBy = &held.ClaimantID
		taken.ReservationID = &held.ReservationID
		taken.ReservedAt = &reservedAt
		return nil
	})
	if err != nil {
		return entities.CodeEntry{}, err
	}
	return taken.toEntity(), nil
}

func (r *Repository) CountCodes(ctx context.Context, poolID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&codeModel{}).
		Where("pool_id = ?", poolID).
		Count(&count).
		Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *Repository) ReadSharedCode(ctx context.Context, poolID string) (entities.SharedCode, error) {
	var row sharedCodeModel
	err := r.db.WithContext(ctx).
		Where("pool_id = ?", poolID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.SharedCode{}, domainerrors.ErrSharedCodeNotFound
		}
		return entities.SharedCode{}, err
	}
	return entities.SharedCode{PoolID: row.PoolID, Code: row.Code}, nil
}

func (r *Repository) GetClaimant(ctx context.Context, claimantID string) (entities.Claimant, bool, error) {
	var row claimantModel
	err := r.db.WithContext(ctx).
		Where("claimant_id = ?", claimantID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claimant{}, false, nil
		}
		return entities.Claimant{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpsertClaimant(ctx context.Context, claimant entities.Claimant) error {
	row := claimantModel{
		ClaimantID:         claimant.ClaimantID,
		HasTrustedIdentity: claimant.HasTrustedIdentity,
		TrustLevel:         claimant.TrustLevel,
		RiskScore:          claimant.RiskScore,
		UpdatedAt:          claimant.UpdatedAt.UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "claimant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"has_trusted_identity", "trust_level", "risk_score", "updated_at"}),
		}).
		Create(&row).
		Error
}

// incrementClaimed is the only statement that raises claimed_count.
func incrementClaimed(tx *gorm.DB, poolID string) error {
	result := tx.Model(&poolModel{}).
		Where("pool_id = ? AND claimed_count < total_quota", poolID).
		UpdateColumn("claimed_count", gorm.Expr("claimed_count + ?", 1))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := tx.Model(&poolModel{}).Where("pool_id = ?", poolID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrPoolNotFound
	}
	return domainerrors.ErrQuotaExhausted
}

func insertCodes(tx *gorm.DB, codes []entities.CodeEntry) error {
	rows := make([]codeModel, 0, len(codes))
	for _, code := range codes {
		rows = append(rows, codeModelFromEntity(code))
	}
	if err := tx.CreateInBatches(&rows, codeInsertBatchSize).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrDuplicateCode
		}
		return err
	}
	return nil
}

func insertOutbox(tx *gorm.DB, event ports.OutboxEvent) error {
	if event.EventID == "" {
		return nil
	}
	row := outboxModelFromEvent(event)
	if err := tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrRepositoryInvariantBroke
		}
		return err
	}
	return nil
}

func (r *Repository) logError(message string, event string, subjectID string, err error) {
	r.logger.Error(message,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"subject_id", subjectID,
		"error", err.Error(),
	)
}

func (r *Repository) logWarn(message string, event string, subjectID string, err error) {
	r.logger.Warn(message,
		"event", event,
		"module", application.ModuleName,
		"layer", "adapter",
		"subject_id", subjectID,
		"error", err.Error(),
	)
}

// isUniqueViolation covers raw pgx errors, gorm's translated ErrDuplicatedKey
// and untranslated SQLite constraint failures.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
