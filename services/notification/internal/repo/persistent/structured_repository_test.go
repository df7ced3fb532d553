package persistent

import (
	"context"
	"testing"
	"time"

	"marketplace/pkg/models"
	"marketplace/services/notification/internal/entity"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func setupStructuredRepository(t *testing.T) *structuredRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive across queries
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Notification{}))

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &structuredRepository{
		db: db,
		now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
}

func createNotification(t *testing.T, repo *structuredRepository, userID, message string) *entity.StructuredNotification {
	t.Helper()
	created, err := repo.Create(context.Background(), &models.Notification{
		UserID:  userID,
		Type:    models.NotificationTypeBid,
		Message: message,
	})
	require.NoError(t, err)
	return created
}

func TestStructuredRepository_CreateAndList(t *testing.T) {
	repo := setupStructuredRepository(t)
	ctx := context.Background()

	first := createNotification(t, repo, "user-1", "New bid of $10 placed")
	second := createNotification(t, repo, "user-1", "New bid of $12 placed")
	createNotification(t, repo, "user-2", "someone else's")

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "bid", first.Type)
	assert.Equal(t, entity.Timestamp("2024-01-01T00:01:00Z"), first.CreatedAt)

	active, err := repo.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)

	cleared, err := repo.ListCleared(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cleared)
}

func TestStructuredRepository_CreateDefaultsType(t *testing.T) {
	repo := setupStructuredRepository(t)

	created, err := repo.Create(context.Background(), &models.Notification{UserID: "user-1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "system", created.Type)
}

func TestStructuredRepository_ClearRestore(t *testing.T) {
	repo := setupStructuredRepository(t)
	ctx := context.Background()

	n := createNotification(t, repo, "user-1", "New bid of $10 placed")

	require.NoError(t, repo.Clear(ctx, "user-1", n.ID))
	// clearing twice is a no-op
	require.NoError(t, repo.Clear(ctx, "user-1", n.ID))

	active, err := repo.ListActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, active)
	cleared, err := repo.ListCleared(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, cleared, 1)
	assert.Equal(t, n.ID, cleared[0].ID)

	require.NoError(t, repo.Restore(ctx, "user-1", n.ID))
	require.NoError(t, repo.Restore(ctx, "user-1", n.ID))

	active, err = repo.ListActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestStructuredRepository_NotFound(t *testing.T) {
	repo := setupStructuredRepository(t)
	ctx := context.Background()

	n := createNotification(t, repo, "user-1", "mine")

	assert.ErrorIs(t, repo.Clear(ctx, "user-2", n.ID), ErrNotificationNotFound)
	assert.ErrorIs(t, repo.Restore(ctx, "user-1", "missing"), ErrNotificationNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "user-2", n.ID), ErrNotificationNotFound)
}

func TestStructuredRepository_Delete(t *testing.T) {
	repo := setupStructuredRepository(t)
	ctx := context.Background()

	n := createNotification(t, repo, "user-1", "bye")

	require.NoError(t, repo.Delete(ctx, "user-1", n.ID))

	active, err := repo.ListActive(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStructuredRepository_ClearAllAndDeleteAllCleared(t *testing.T) {
	repo := setupStructuredRepository(t)
	ctx := context.Background()

	createNotification(t, repo, "user-1", "a")
	createNotification(t, repo, "user-1", "b")
	other := createNotification(t, repo, "user-2", "c")

	count, err := repo.ClearAll(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	fresh := createNotification(t, repo, "user-1", "d")

	purged, err := repo.DeleteAllCleared(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, purged, 2)

	cleared, err := repo.ListCleared(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, cleared)

	active, err := repo.ListActive(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)

	untouched, err := repo.ListActive(ctx, "user-2")
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, other.ID, untouched[0].ID)

	purged, err = repo.DeleteAllCleared(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, purged)
}
