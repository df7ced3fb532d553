package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/services/notification/internal/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotificationNotFound = errors.New("notification not found")

const (
	legacyMaxEntries = 100
	legacyTTL        = 30 * 24 * time.Hour
	maxTxAttempts    = 3
)

type LegacyRepository interface {
	List(ctx context.Context, userID string) ([]entity.LegacyNotification, error)
	Add(ctx context.Context, userID, message string) (*entity.LegacyNotification, error)
	Clear(ctx context.Context, userID, id string) error
	Restore(ctx context.Context, userID, id string) error
	PermanentlyDelete(ctx context.Context, userID, id string) error
}

type legacyRepository struct {
	redisClient *redis.Client
	now         func() time.Time
}

func NewLegacyRepository(redisClient *redis.Client) LegacyRepository {
	return &legacyRepository{redisClient: redisClient, now: time.Now}
}

func legacyKey(userID string) string {
	return fmt.Sprintf("legacy_notifications:%s", userID)
}

func (r *legacyRepository) List(ctx context.Context, userID string) ([]entity.LegacyNotification, error) {
	raw, err := r.redisClient.LRange(ctx, legacyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get legacy notifications: %w", err)
	}

	notifications := make([]entity.LegacyNotification, 0, len(raw))
	for _, item := range raw {
		var notification entity.LegacyNotification
		if err := json.Unmarshal([]byte(item), &notification); err == nil {
			notifications = append(notifications, notification)
		}
	}
	return notifications, nil
}

func (r *legacyRepository) Add(ctx context.Context, userID, message string) (*entity.LegacyNotification, error) {
	notification := &entity.LegacyNotification{
		ID:        uuid.New().String(),
		Message:   message,
		Timestamp: entity.Timestamp(r.now().UTC().Format(time.RFC3339Nano)),
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	key := legacyKey(userID)
	_, err = r.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, payload)
		pipe.LTrim(ctx, key, 0, legacyMaxEntries-1)
		pipe.Expire(ctx, key, legacyTTL)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store legacy notification: %w", err)
	}
	return notification, nil
}

func (r *legacyRepository) Clear(ctx context.Context, userID, id string) error {
	return r.rewrite(ctx, userID, id, func(n *entity.LegacyNotification) bool {
		n.Cleared = true
		return true
	})
}

func (r *legacyRepository) Restore(ctx context.Context, userID, id string) error {
	return r.rewrite(ctx, userID, id, func(n *entity.LegacyNotification) bool {
		n.Cleared = false
		return true
	})
}

func (r *legacyRepository) PermanentlyDelete(ctx context.Context, userID, id string) error {
	return r.rewrite(ctx, userID, id, func(*entity.LegacyNotification) bool {
		return false
	})
}

// rewrite applies update to the entry with the given id and replaces the whole list in one
// MULTI/EXEC guarded by WATCH. update returns false to drop the entry. Entries that do not
// decode are carried over untouched.
func (r *legacyRepository) rewrite(ctx context.Context, userID, id string, update func(*entity.LegacyNotification) bool) error {
	key := legacyKey(userID)

	txf := func(tx *redis.Tx) error {
		raw, err := tx.LRange(ctx, key, 0, -1).Result()
		if err != nil {
			return err
		}

		found := false
		remaining := make([]interface{}, 0, len(raw))
		for _, item := range raw {
			var notification entity.LegacyNotification
			if err := json.Unmarshal([]byte(item), &notification); err != nil || notification.ID != id {
				remaining = append(remaining, item)
				continue
			}
			found = true
			if !update(&notification) {
				continue
			}
			payload, err := json.Marshal(notification)
			if err != nil {
				return fmt.Errorf("failed to marshal notification: %w", err)
			}
			remaining = append(remaining, string(payload))
		}
		if !found {
			return ErrNotificationNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			if len(remaining) > 0 {
				pipe.RPush(ctx, key, remaining...)
				pipe.Expire(ctx, key, legacyTTL)
			}
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err := r.redisClient.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, ErrNotificationNotFound) {
			return fmt.Errorf("failed to update legacy notification %s: %w", id, err)
		}
		return err
	}
	return fmt.Errorf("failed to update legacy notification %s: concurrent modification", id)
}
