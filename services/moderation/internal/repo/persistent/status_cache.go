package persistent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/services/moderation/internal/entity"

	"github.com/redis/go-redis/v9"
)

const statusCacheTTL = 30 * time.Second

type StatusCache interface {
	// Get reports false on a miss.
	Get(ctx context.Context, userID string) (*entity.BanStatus, bool, error)
	Set(ctx context.Context, status *entity.BanStatus) error
	Invalidate(ctx context.Context, userID string) error
}

type statusCache struct {
	redisClient *redis.Client
}

func NewStatusCache(redisClient *redis.Client) StatusCache {
	return &statusCache{redisClient: redisClient}
}

func statusKey(userID string) string {
	return fmt.Sprintf("ban_status:%s", userID)
}

func (c *statusCache) Get(ctx context.Context, userID string) (*entity.BanStatus, bool, error) {
	raw, err := c.redisClient.Get(ctx, statusKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read ban status cache: %w", err)
	}

	var status entity.BanStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		// a corrupt entry is treated as a miss and overwritten by the next Set
		return nil, false, nil
	}
	return &status, true, nil
}

func (c *statusCache) Set(ctx context.Context, status *entity.BanStatus) error {
	payload, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal ban status: %w", err)
	}
	ttl := statusCacheTTL
	if status.ExpiresAt != nil {
		if untilExpiry := time.Until(*status.ExpiresAt); untilExpiry > 0 && untilExpiry < ttl {
			ttl = untilExpiry
		}
	}
	return c.redisClient.Set(ctx, statusKey(status.UserID), payload, ttl).Err()
}

func (c *statusCache) Invalidate(ctx context.Context, userID string) error {
	return c.redisClient.Del(ctx, statusKey(userID)).Err()
}
