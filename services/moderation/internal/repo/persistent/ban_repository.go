package persistent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/pkg/models"
	"marketplace/services/moderation/internal/entity"

	"gorm.io/gorm"
)

var ErrBanNotFound = errors.New("ban not found")

type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) (*entity.Ban, error)
	// ActiveBan returns the most recent ban in force at now, or ErrBanNotFound.
	ActiveBan(ctx context.Context, userID string, now time.Time) (*entity.Ban, error)
	LiftActive(ctx context.Context, userID string, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Ban, error)
}

type banRepository struct {
	db *gorm.DB
}

func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db: db}
}

func (r *banRepository) Create(ctx context.Context, ban *models.Ban) (*entity.Ban, error) {
	if ban.CreatedAt.IsZero() {
		ban.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(ban).Error; err != nil {
		return nil, fmt.Errorf("failed to create ban: %w", err)
	}
	return ToBanEntity(ban), nil
}

// activeBans loads the user's unlifted bans, newest first, and keeps those in force at now.
func (r *banRepository) activeBans(ctx context.Context, tx *gorm.DB, userID string, now time.Time) ([]models.Ban, error) {
	var bans []models.Ban
	err := tx.WithContext(ctx).
		Where("user_id = ? AND lifted_at IS NULL", userID).
		Order("created_at DESC").
		Find(&bans).Error
	if err != nil {
		return nil, err
	}

	active := bans[:0]
	for _, ban := range bans {
		if ban.ActiveAt(now) {
			active = append(active, ban)
		}
	}
	return active, nil
}

func (r *banRepository) ActiveBan(ctx context.Context, userID string, now time.Time) (*entity.Ban, error) {
	active, err := r.activeBans(ctx, r.db, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get active ban: %w", err)
	}
	if len(active) == 0 {
		return nil, ErrBanNotFound
	}
	return ToBanEntity(&active[0]), nil
}

func (r *banRepository) LiftActive(ctx context.Context, userID string, now time.Time) (int64, error) {
	var lifted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		active, err := r.activeBans(ctx, tx, userID, now)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			return nil
		}
		ids := make([]string, len(active))
		for i, ban := range active {
			ids[i] = ban.ID
		}
		result := tx.Model(&models.Ban{}).Where("id IN ?", ids).Update("lifted_at", now.UTC())
		lifted = result.RowsAffected
		return result.Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to lift bans: %w", err)
	}
	return lifted, nil
}

func (r *banRepository) ListByUser(ctx context.Context, userID string) ([]entity.Ban, error) {
	var bans []models.Ban
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bans: %w", err)
	}
	return ToBanEntities(bans), nil
}
