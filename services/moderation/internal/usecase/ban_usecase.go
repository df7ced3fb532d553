package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/pkg/logger"
	"marketplace/pkg/models"
	"marketplace/pkg/queue"
	"marketplace/services/moderation/internal/entity"
	"marketplace/services/moderation/internal/repo/persistent"
)

var (
	ErrBanNotFound = persistent.ErrBanNotFound
	ErrInvalidBan  = errors.New("invalid ban")
)

// banTaskPriority puts suspension notices ahead of regular marketplace traffic.
const banTaskPriority = 9

// TaskPublisher hands notification tasks to the queue. *queue.Client satisfies it.
type TaskPublisher interface {
	PublishNotificationTask(task map[string]interface{}) error
}

type BanUseCase interface {
	GetStatus(ctx context.Context, userID string) (*entity.BanStatus, error)
	Ban(ctx context.Context, moderatorID, userID, reason string, expiresAt *time.Time) (*entity.Ban, error)
	Lift(ctx context.Context, userID string) (int64, error)
	History(ctx context.Context, userID string) ([]entity.Ban, error)
}

type banUseCase struct {
	banRepo   persistent.BanRepository
	cache     persistent.StatusCache
	publisher TaskPublisher
	logger    *logger.Logger
	now       func() time.Time
}

// NewBanUseCase wires the use case. publisher may be nil, in which case no notice is sent.
func NewBanUseCase(banRepo persistent.BanRepository, cache persistent.StatusCache, publisher TaskPublisher, logger *logger.Logger) BanUseCase {
	return &banUseCase{
		banRepo:   banRepo,
		cache:     cache,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (uc *banUseCase) GetStatus(ctx context.Context, userID string) (*entity.BanStatus, error) {
	if status, ok, err := uc.cache.Get(ctx, userID); err != nil {
		uc.logger.Warn("Ban status cache read failed for user %s: %v", userID, err)
	} else if ok {
		return status, nil
	}

	status := &entity.BanStatus{UserID: userID}
	ban, err := uc.banRepo.ActiveBan(ctx, userID, uc.now().UTC())
	switch {
	case errors.Is(err, ErrBanNotFound):
	case err != nil:
		return nil, err
	default:
		status.Banned = true
		status.Reason = ban.Reason
		status.ExpiresAt = ban.ExpiresAt
	}

	if err := uc.cache.Set(ctx, status); err != nil {
		uc.logger.Warn("Ban status cache write failed for user %s: %v", userID, err)
	}
	return status, nil
}

func (uc *banUseCase) Ban(ctx context.Context, moderatorID, userID, reason string, expiresAt *time.Time) (*entity.Ban, error) {
	reason = strings.TrimSpace(reason)
	if userID == "" || reason == "" {
		return nil, fmt.Errorf("%w: user_id and reason are required", ErrInvalidBan)
	}
	if userID == moderatorID {
		return nil, fmt.Errorf("%w: moderators cannot ban themselves", ErrInvalidBan)
	}
	now := uc.now().UTC()
	if expiresAt != nil {
		if !expiresAt.After(now) {
			return nil, fmt.Errorf("%w: expires_at must be in the future", ErrInvalidBan)
		}
		utc := expiresAt.UTC()
		expiresAt = &utc
	}

	ban, err := uc.banRepo.Create(ctx, &models.Ban{
		UserID:    userID,
		Reason:    reason,
		CreatedBy: moderatorID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}
	uc.invalidate(ctx, userID)
	uc.logger.Info("[MODERATION] User %s banned by %s: %s", userID, moderatorID, reason)

	if uc.publisher != nil {
		task := map[string]interface{}{
			"type":     queue.TaskBan,
			"user_id":  userID,
			"ban_id":   ban.ID,
			"reason":   reason,
			"priority": banTaskPriority,
		}
		if expiresAt != nil {
			task["expires_at"] = expiresAt.Format(time.RFC3339)
		}
		if err := uc.publisher.PublishNotificationTask(task); err != nil {
			uc.logger.Warn("[MODERATION] Failed to publish ban notice for user %s: %v", userID, err)
		}
	}
	return ban, nil
}

func (uc *banUseCase) Lift(ctx context.Context, userID string) (int64, error) {
	lifted, err := uc.banRepo.LiftActive(ctx, userID, uc.now().UTC())
	if err != nil {
		return 0, err
	}
	if lifted == 0 {
		return 0, ErrBanNotFound
	}
	uc.invalidate(ctx, userID)
	uc.logger.Info("[MODERATION] Lifted %d ban(s) for user %s", lifted, userID)
	return lifted, nil
}

func (uc *banUseCase) History(ctx context.Context, userID string) ([]entity.Ban, error) {
	return uc.banRepo.ListByUser(ctx, userID)
}

func (uc *banUseCase) invalidate(ctx context.Context, userID string) {
	if err := uc.cache.Invalidate(ctx, userID); err != nil {
		uc.logger.Warn("Failed to invalidate ban status cache for user %s: %v", userID, err)
	}
}
