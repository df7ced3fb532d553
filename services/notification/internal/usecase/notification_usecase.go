package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/pkg/logger"
	"marketplace/pkg/models"
	"marketplace/services/notification/internal/entity"
	"marketplace/services/notification/internal/merger"
	"marketplace/services/notification/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownSource        = errors.New("unknown notification source")
	ErrNotificationNotFound = persistent.ErrNotificationNotFound
)

// Archiver keeps a copy of purged notifications. *s3.Client satisfies it.
type Archiver interface {
	PutJSON(key string, v interface{}) error
}

// QueueInspector reports the depth of the notification task queue. *queue.Client satisfies it.
type QueueInspector interface {
	GetQueueLength() (int, error)
}

type NotificationUseCase interface {
	CanView(viewer entity.Viewer) bool
	GetMerged(ctx context.Context, viewer entity.Viewer) (*entity.Merged, error)
	SendLegacy(ctx context.Context, userID, message string) (*entity.LegacyNotification, error)
	CreateNotification(ctx context.Context, userID, notificationType, message string, data map[string]interface{}) (*entity.StructuredNotification, error)
	Clear(ctx context.Context, userID string, source entity.Source, id string) error
	Restore(ctx context.Context, userID string, source entity.Source, id string) error
	Delete(ctx context.Context, userID string, source entity.Source, id string) error
	ClearAll(ctx context.Context, userID string) (int64, error)
	DeleteAllCleared(ctx context.Context, userID string) (int, error)
	QueueLength() (int64, error)
	HandleTask(task map[string]interface{}) error
}

type notificationUseCase struct {
	legacyRepo     persistent.LegacyRepository
	structuredRepo persistent.StructuredRepository
	merger         *merger.Merger
	redisClient    *redis.Client
	queue          QueueInspector
	archiver       Archiver
	logger         *logger.Logger
}

// NewNotificationUseCase wires the use case. queue and archiver may be nil.
func NewNotificationUseCase(
	legacyRepo persistent.LegacyRepository,
	structuredRepo persistent.StructuredRepository,
	m *merger.Merger,
	redisClient *redis.Client,
	queue QueueInspector,
	archiver Archiver,
	logger *logger.Logger,
) NotificationUseCase {
	return &notificationUseCase{
		legacyRepo:     legacyRepo,
		structuredRepo: structuredRepo,
		merger:         m,
		redisClient:    redisClient,
		queue:          queue,
		archiver:       archiver,
		logger:         logger,
	}
}

func (uc *notificationUseCase) CanView(viewer entity.Viewer) bool {
	return uc.merger.Owns(viewer)
}

func (uc *notificationUseCase) GetMerged(ctx context.Context, viewer entity.Viewer) (*entity.Merged, error) {
	if !uc.merger.Owns(viewer) {
		merged := uc.merger.Merge(nil, nil, nil, viewer)
		return &merged, nil
	}

	var (
		legacy            []entity.LegacyNotification
		structuredActive  []entity.StructuredNotification
		structuredCleared []entity.StructuredNotification
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		legacy, err = uc.legacyRepo.List(gctx, viewer.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		structuredActive, err = uc.structuredRepo.ListActive(gctx, viewer.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		structuredCleared, err = uc.structuredRepo.ListCleared(gctx, viewer.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := uc.merger.Merge(legacy, structuredActive, structuredCleared, viewer)
	return &merged, nil
}

func (uc *notificationUseCase) SendLegacy(ctx context.Context, userID, message string) (*entity.LegacyNotification, error) {
	notification, err := uc.legacyRepo.Add(ctx, userID, message)
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, userID, entity.Notification{
		ID:        notification.ID,
		Message:   notification.Message,
		Timestamp: notification.Timestamp,
		Source:    entity.SourceLegacy,
	})
	uc.logger.Info("Legacy notification sent to user %s", userID)
	return notification, nil
}

func (uc *notificationUseCase) CreateNotification(ctx context.Context, userID, notificationType, message string, data map[string]interface{}) (*entity.StructuredNotification, error) {
	if userID == "" || message == "" {
		return nil, fmt.Errorf("%w: user_id and message are required", ErrInvalidTask)
	}

	notification, err := uc.structuredRepo.Create(ctx, &models.Notification{
		UserID:  userID,
		Type:    models.NotificationType(notificationType),
		Message: message,
		Data:    data,
	})
	if err != nil {
		return nil, err
	}

	uc.publish(ctx, userID, entity.Notification{
		ID:        notification.Key(),
		Message:   notification.Message,
		Timestamp: notification.CreatedAt,
		Source:    entity.SourceStructured,
	})
	uc.logger.Info("Notification %s (%s) created for user %s", notification.ID, notificationType, userID)
	return notification, nil
}

func (uc *notificationUseCase) Clear(ctx context.Context, userID string, source entity.Source, id string) error {
	switch source {
	case entity.SourceLegacy:
		return uc.legacyRepo.Clear(ctx, userID, id)
	case entity.SourceStructured:
		return uc.structuredRepo.Clear(ctx, userID, id)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

func (uc *notificationUseCase) Restore(ctx context.Context, userID string, source entity.Source, id string) error {
	switch source {
	case entity.SourceLegacy:
		return uc.legacyRepo.Restore(ctx, userID, id)
	case entity.SourceStructured:
		return uc.structuredRepo.Restore(ctx, userID, id)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

func (uc *notificationUseCase) Delete(ctx context.Context, userID string, source entity.Source, id string) error {
	switch source {
	case entity.SourceLegacy:
		return uc.legacyRepo.PermanentlyDelete(ctx, userID, id)
	case entity.SourceStructured:
		return uc.structuredRepo.Delete(ctx, userID, id)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSource, source)
}

func (uc *notificationUseCase) ClearAll(ctx context.Context, userID string) (int64, error) {
	count, err := uc.structuredRepo.ClearAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	uc.logger.Info("Cleared %d notifications for user %s", count, userID)
	return count, nil
}

func (uc *notificationUseCase) DeleteAllCleared(ctx context.Context, userID string) (int, error) {
	purged, err := uc.structuredRepo.DeleteAllCleared(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(purged) > 0 && uc.archiver != nil {
		key := fmt.Sprintf("notifications/%s/%d.json", userID, time.Now().UnixMilli())
		archive := map[string]interface{}{
			"user_id":       userID,
			"purged_at":     time.Now().UTC().Format(time.RFC3339),
			"notifications": purged,
		}
		if err := uc.archiver.PutJSON(key, archive); err != nil {
			uc.logger.Warn("Failed to archive %d purged notifications for user %s: %v", len(purged), userID, err)
		}
	}
	uc.logger.Info("Deleted %d cleared notifications for user %s", len(purged), userID)
	return len(purged), nil
}

func (uc *notificationUseCase) QueueLength() (int64, error) {
	if uc.queue == nil {
		return 0, fmt.Errorf("queue client is not available")
	}
	length, err := uc.queue.GetQueueLength()
	return int64(length), err
}

// publish pushes a display-ready copy to the user's pub/sub channel. Delivery is best effort.
func (uc *notificationUseCase) publish(ctx context.Context, userID string, notification entity.Notification) {
	if uc.redisClient == nil {
		return
	}
	notification.Message = merger.Annotate(notification.Message)
	payload, err := json.Marshal(notification)
	if err != nil {
		uc.logger.Warn("Failed to marshal notification for pub/sub: %v", err)
		return
	}

	channel := fmt.Sprintf("notifications:%s", userID)
	subscribers, err := uc.redisClient.Publish(ctx, channel, payload).Result()
	if err != nil {
		uc.logger.Warn("Failed to publish notification to channel %s: %v", channel, err)
		return
	}
	uc.logger.Debug("Published notification to channel=%s, subscribers=%d", channel, subscribers)
}
