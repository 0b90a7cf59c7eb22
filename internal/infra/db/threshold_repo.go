package db

import (
	"context"
	"time"

	"gorm.io/gorm"

	"stockwatch/internal/domain"
)

type ThresholdRepository struct {
	db *gorm.DB
}

func NewThresholdRepository(db *gorm.DB) *ThresholdRepository {
	return &ThresholdRepository{db: db}
}

func (r *ThresholdRepository) Create(ctx context.Context, threshold *domain.Threshold) error {
	model := mapThresholdToModel(*threshold)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	threshold.ID = model.ID
	threshold.CreatedAt = model.CreatedAt
	threshold.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ThresholdRepository) ListByOwner(ctx context.Context, ownerUID string) ([]domain.Threshold, error) {
	var models []thresholdModel
	if err := r.db.WithContext(ctx).
		Where("owner_uid = ?", ownerUID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return mapThresholdsToDomain(models), nil
}

func (r *ThresholdRepository) ListAllEnabledGroupedByOwner(ctx context.Context) (map[string][]domain.Threshold, error) {
	var models []thresholdModel
	if err := r.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("owner_uid, created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}

	grouped := make(map[string][]domain.Threshold)
	for _, model := range models {
		grouped[model.OwnerUID] = append(grouped[model.OwnerUID], mapThresholdToDomain(model))
	}
	return grouped, nil
}

// Disable matches the row regardless of its current Enabled value, so a
// repeated disable succeeds without touching anything.
func (r *ThresholdRepository) Disable(ctx context.Context, ownerUID string, thresholdID uint) error {
	result := r.db.WithContext(ctx).
		Model(&thresholdModel{}).
		Where("id = ? AND owner_uid = ?", thresholdID, ownerUID).
		Update("enabled", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ThresholdRepository) Delete(ctx context.Context, ownerUID string, thresholdID uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_uid = ?", thresholdID, ownerUID).
		Delete(&thresholdModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapThresholdsToDomain(models []thresholdModel) []domain.Threshold {
	thresholds := make([]domain.Threshold, 0, len(models))
	for _, model := range models {
		thresholds = append(thresholds, mapThresholdToDomain(model))
	}
	return thresholds
}

func mapThresholdToDomain(model thresholdModel) domain.Threshold {
	var deleted *time.Time
	if model.DeletedAt.Valid {
		t := model.DeletedAt.Time
		deleted = &t
	}
	return domain.Threshold{
		ID:        model.ID,
		OwnerUID:  model.OwnerUID,
		Ticker:    model.Ticker,
		Target:    model.Target,
		Condition: domain.Condition(model.Condition),
		Enabled:   model.Enabled,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
		DeletedAt: deleted,
	}
}

func mapThresholdToModel(threshold domain.Threshold) thresholdModel {
	return thresholdModel{
		ID:        threshold.ID,
		OwnerUID:  threshold.OwnerUID,
		Ticker:    threshold.Ticker,
		Target:    threshold.Target,
		Condition: string(threshold.Condition),
		Enabled:   threshold.Enabled,
		CreatedAt: threshold.CreatedAt,
		UpdatedAt: threshold.UpdatedAt,
	}
}
