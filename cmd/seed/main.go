package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"marketplace/pkg/cache"
	"marketplace/pkg/config"
	"marketplace/pkg/database"
	"marketplace/pkg/logger"
	"marketplace/pkg/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// legacyEntry mirrors the JSON kept in the legacy_notifications:<user> lists.
type legacyEntry struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Cleared   bool   `json:"cleared"`
}

type seedUsers struct {
	seller    string
	buyer     string
	moderator string
}

func main() {
	var (
		sellerID    = flag.String("seller", "", "seller user id (random uuid when empty)")
		buyerID     = flag.String("buyer", "", "buyer user id to ban (random uuid when empty)")
		moderatorID = flag.String("moderator", "", "moderator user id (random uuid when empty)")
	)
	flag.Parse()

	log := logger.New()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	users := seedUsers{
		seller:    orNewID(*sellerID),
		buyer:     orNewID(*buyerID),
		moderator: orNewID(*moderatorID),
	}

	ctx := context.Background()
	now := time.Now().UTC()

	if err := seedLegacy(ctx, redisClient, users, now); err != nil {
		log.Error("Failed to seed legacy notifications: %v", err)
		os.Exit(1)
	}
	if err := seedStructured(db, users, now); err != nil {
		log.Error("Failed to seed notifications: %v", err)
		os.Exit(1)
	}
	if err := seedBan(db, redisClient, users, now); err != nil {
		log.Error("Failed to seed ban: %v", err)
		os.Exit(1)
	}

	log.Info("Seeded seller=%s buyer=%s moderator=%s", users.seller, users.buyer, users.moderator)
}

func orNewID(id string) string {
	if id == "" {
		return uuid.New().String()
	}
	return id
}

// seedLegacy writes the old flat entries. The first one repeats a structured message in the
// same minute so the merged view shows a single copy of it.
func seedLegacy(ctx context.Context, client *redis.Client, users seedUsers, now time.Time) error {
	entries := []legacyEntry{
		{ID: uuid.New().String(), Message: "New sale: alice bought \"Vintage Lamp\" for $40", Timestamp: now.Truncate(time.Minute).Format(time.RFC3339Nano)},
		{ID: uuid.New().String(), Message: "charlie subscribed to you", Timestamp: now.Add(-2 * time.Hour).Format(time.RFC3339Nano)},
		{ID: uuid.New().String(), Message: "Welcome to the marketplace", Timestamp: fmt.Sprintf("%d", now.Add(-72*time.Hour).UnixMilli())},
		{ID: uuid.New().String(), Message: "New message from diana", Timestamp: now.Add(-26 * time.Hour).Format(time.RFC3339Nano), Cleared: true},
	}

	key := fmt.Sprintf("legacy_notifications:%s", users.seller)
	values := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		payload, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		values = append(values, string(payload))
	}

	_, err := client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.RPush(ctx, key, values...)
		pipe.Expire(ctx, key, 30*24*time.Hour)
		return nil
	})
	return err
}

func seedStructured(db *gorm.DB, users seedUsers, now time.Time) error {
	clearedAt := now.Add(-30 * time.Minute)
	notifications := []models.Notification{
		{
			UserID:    users.seller,
			Type:      models.NotificationTypeSale,
			Message:   "New sale: alice bought \"Vintage Lamp\" for $40",
			Data:      datatypes.JSONMap{"buyer": "alice", "item": "Vintage Lamp", "amount": 40},
			CreatedAt: now.Truncate(time.Minute).Add(time.Second),
		},
		{
			UserID:    users.seller,
			Type:      models.NotificationTypeBid,
			Message:   "New bid of $15.50 placed on \"Record Player\" by bob",
			Data:      datatypes.JSONMap{"bidder": "bob", "item": "Record Player", "amount": 15.5},
			CreatedAt: now.Add(-15 * time.Minute),
		},
		{
			UserID:    users.seller,
			Type:      models.NotificationTypeAuctionEnded,
			Message:   "Auction ended: \"Oak Desk\" received no bids",
			Data:      datatypes.JSONMap{"item": "Oak Desk"},
			CreatedAt: now.Add(-3 * time.Hour),
			ClearedAt: &clearedAt,
		},
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", users.seller).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Create(&notifications).Error
	})
}

func seedBan(db *gorm.DB, client *redis.Client, users seedUsers, now time.Time) error {
	expiresAt := now.Add(7 * 24 * time.Hour)
	ban := &models.Ban{
		UserID:    users.buyer,
		Reason:    "repeated non-payment",
		CreatedBy: users.moderator,
		CreatedAt: now,
		ExpiresAt: &expiresAt,
	}
	if err := db.Create(ban).Error; err != nil {
		return err
	}
	// Drop any cached status so the moderation service sees the new ban right away.
	return client.Del(context.Background(), fmt.Sprintf("ban_status:%s", users.buyer)).Err()
}
