package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/pkg/models"
	"marketplace/services/notification/internal/entity"

	"gorm.io/gorm"
)

const structuredListLimit = 200

type StructuredRepository interface {
	ListActive(ctx context.Context, userID string) ([]entity.StructuredNotification, error)
	ListCleared(ctx context.Context, userID string) ([]entity.StructuredNotification, error)
	Create(ctx context.Context, notification *models.Notification) (*entity.StructuredNotification, error)
	Clear(ctx context.Context, userID, id string) error
	Restore(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, userID, id string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
	// DeleteAllCleared removes every cleared row of the user and returns what was removed.
	DeleteAllCleared(ctx context.Context, userID string) ([]entity.StructuredNotification, error)
}

type structuredRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewStructuredRepository(db *gorm.DB) StructuredRepository {
	return &structuredRepository{db: db, now: time.Now}
}

func (r *structuredRepository) ListActive(ctx context.Context, userID string) ([]entity.StructuredNotification, error) {
	return r.list(ctx, userID, "cleared_at IS NULL")
}

func (r *structuredRepository) ListCleared(ctx context.Context, userID string) ([]entity.StructuredNotification, error) {
	return r.list(ctx, userID, "cleared_at IS NOT NULL")
}

func (r *structuredRepository) list(ctx context.Context, userID, clearedCond string) ([]entity.StructuredNotification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where(clearedCond).
		Order("created_at DESC").
		Limit(structuredListLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return ToStructuredEntities(rows), nil
}

func (r *structuredRepository) Create(ctx context.Context, notification *models.Notification) (*entity.StructuredNotification, error) {
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = r.now().UTC()
	}
	if notification.Type == "" {
		notification.Type = models.NotificationTypeSystem
	}
	if err := r.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	created := ToStructuredEntity(notification)
	return &created, nil
}

func (r *structuredRepository) find(ctx context.Context, userID, id string) (*models.Notification, error) {
	var row models.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &row, nil
}

func (r *structuredRepository) Clear(ctx context.Context, userID, id string) error {
	row, err := r.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if row.IsCleared() {
		return nil
	}
	return r.setClearedAt(ctx, row, r.now().UTC())
}

func (r *structuredRepository) Restore(ctx context.Context, userID, id string) error {
	row, err := r.find(ctx, userID, id)
	if err != nil {
		return err
	}
	if !row.IsCleared() {
		return nil
	}
	return r.setClearedAt(ctx, row, nil)
}

func (r *structuredRepository) setClearedAt(ctx context.Context, row *models.Notification, value interface{}) error {
	err := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", row.ID, row.UserID).
		Update("cleared_at", value).Error
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", row.ID, err)
	}
	return nil
}

func (r *structuredRepository) Delete(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Notification{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete notification: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *structuredRepository) ClearAll(ctx context.Context, userID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND cleared_at IS NULL", userID).
		Update("cleared_at", r.now().UTC())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear notifications: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *structuredRepository) DeleteAllCleared(ctx context.Context, userID string) ([]entity.StructuredNotification, error) {
	var rows []models.Notification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND cleared_at IS NOT NULL", userID).Order("created_at DESC").Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		return tx.Where("id IN ?", ids).Delete(&models.Notification{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete cleared notifications: %w", err)
	}
	return ToStructuredEntities(rows), nil
}
