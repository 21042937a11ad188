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

func (r *Repository) SubmitApplication(ctx context.Context, app entities.Application, event ports.OutboxEvent) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var claimed int64
		if err := tx.Model(&claimModel{}).
			Where("pool_id = ? AND claimant_id = ?", app.PoolID, app.ClaimantID).
			Count(&claimed).
			Error; err != nil {
			return err
		}
		if claimed > 0 {
			return domainerrors.ErrAlreadyClaimed
		}

		row := applicationModelFromEntity(app)
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return domainerrors.ErrAlreadyClaimed
			}
			return err
		}
		return insertOutbox(tx, event)
	})
}

func (r *Repository) GetApplication(ctx context.Context, applicationID string) (entities.Application, error) {
	var row applicationModel
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) HasApplication(ctx context.Context, poolID string, claimantID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&applicationModel{}).
		Where("pool_id = ? AND claimant_id = ?", poolID, claimantID).
		Count(&count).
		Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApproveApplication re-checks PENDING under a row lock, takes a quota slot,
// and writes the decision, claim and event together. Any failure rolls back,
// so an exhausted pool leaves the application PENDING.
func (r *Repository) ApproveApplication(
	ctx context.Context,
	applicationID string,
	reviewerID string,
	decidedAt time.Time,
	claim entities.ClaimRecord,
	event ports.OutboxEvent,
) (entities.Application, error) {
	var approved entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		decided, err := app.Decide(entities.DecisionApprove, reviewerID, decidedAt)
		if err != nil {
			return err
		}
		if err := incrementClaimed(tx, app.PoolID); err != nil {
			return err
		}
		if err := updateDecision(tx, decided); err != nil {
			return err
		}
		if err := insertClaim(tx, claim); err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		approved = decided
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrQuotaExhausted) {
			r.logWarn("approve application transaction rolled back", "claim_engine_approve_rolled_back", applicationID, err)
		}
		return entities.Application{}, err
	}
	return approved, nil
}

func (r *Repository) RejectApplication(
	ctx context.Context,
	applicationID string,
	reviewerID string,
	decidedAt time.Time,
	event ports.OutboxEvent,
) (entities.Application, error) {
	var rejected entities.Application
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		app, err := lockApplication(tx, applicationID)
		if err != nil {
			return err
		}
		decided, err := app.Decide(entities.DecisionReject, reviewerID, decidedAt)
		if err != nil {
			return err
		}
		if err := updateDecision(tx, decided); err != nil {
			return err
		}
		if err := insertOutbox(tx, event); err != nil {
			return err
		}
		rejected = decided
		return nil
	})
	if err != nil {
		return entities.Application{}, err
	}
	return rejected, nil
}

func (r *Repository) ListApplications(ctx context.Context, poolID string, status entities.ApplicationStatus) ([]entities.Application, error) {
	tx := r.db.WithContext(ctx).Where("pool_id = ?", poolID)
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var rows []applicationModel
	if err := tx.Order("submitted_at ASC").Order("application_id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]entities.Application, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountApplications(ctx context.Context, poolID string, status entities.ApplicationStatus) (int, error) {
	tx := r.db.WithContext(ctx).Model(&applicationModel{}).Where("pool_id = ?", poolID)
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func lockApplication(tx *gorm.DB, applicationID string) (entities.Application, error) {
	var row applicationModel
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("application_id = ?", applicationID).
		First(&row).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Application{}, domainerrors.ErrApplicationNotFound
		}
		return entities.Application{}, err
	}
	return row.toEntity(), nil
}

// updateDecision only moves rows still PENDING.
func updateDecision(tx *gorm.DB, decided entities.Application) error {
	result := tx.Model(&applicationModel{}).
		Where("application_id = ? AND status = ?", decided.ApplicationID, string(entities.ApplicationPending)).
		Updates(map[string]any{
			"status":     string(decided.Status),
			"decided_at": decided.DecidedAt,
			"decided_by": decided.DecidedBy,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrApplicationNotPending
	}
	return nil
}
