package persistent

import (
	"context"
	"fmt"
	"testing"
	"time"

	"marketplace/services/notification/internal/entity"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLegacyRepository(t *testing.T) (*legacyRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := &legacyRepository{
		redisClient: client,
		now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	}
	return repo, mr
}

func TestLegacyRepository_AddAndList(t *testing.T) {
	repo, mr := setupLegacyRepository(t)
	ctx := context.Background()

	first, err := repo.Add(ctx, "user-1", "New bid of $10 placed")
	require.NoError(t, err)
	second, err := repo.Add(ctx, "user-1", "bob subscribed to you")
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, entity.Timestamp("2024-01-01T00:00:01Z"), first.Timestamp)

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.False(t, list[0].Cleared)

	assert.Equal(t, legacyTTL, mr.TTL("legacy_notifications:user-1"))

	other, err := repo.List(ctx, "user-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestLegacyRepository_AddTrims(t *testing.T) {
	repo, mr := setupLegacyRepository(t)
	ctx := context.Background()

	for i := 0; i < legacyMaxEntries+5; i++ {
		_, err := repo.Add(ctx, "user-1", fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	items, err := mr.List("legacy_notifications:user-1")
	require.NoError(t, err)
	assert.Len(t, items, legacyMaxEntries)
}

func TestLegacyRepository_ClearAndRestore(t *testing.T) {
	repo, _ := setupLegacyRepository(t)
	ctx := context.Background()

	kept, err := repo.Add(ctx, "user-1", "first")
	require.NoError(t, err)
	target, err := repo.Add(ctx, "user-1", "second")
	require.NoError(t, err)

	require.NoError(t, repo.Clear(ctx, "user-1", target.ID))

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, target.ID, list[0].ID)
	assert.True(t, list[0].Cleared)
	assert.Equal(t, target.Timestamp, list[0].Timestamp)
	assert.Equal(t, kept.ID, list[1].ID)
	assert.False(t, list[1].Cleared)

	require.NoError(t, repo.Restore(ctx, "user-1", target.ID))

	list, err = repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, list[0].Cleared)
}

func TestLegacyRepository_PermanentlyDelete(t *testing.T) {
	repo, mr := setupLegacyRepository(t)
	ctx := context.Background()

	only, err := repo.Add(ctx, "user-1", "only")
	require.NoError(t, err)

	require.NoError(t, repo.PermanentlyDelete(ctx, "user-1", only.ID))

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.False(t, mr.Exists("legacy_notifications:user-1"))
}

func TestLegacyRepository_UnknownID(t *testing.T) {
	repo, _ := setupLegacyRepository(t)
	ctx := context.Background()

	_, err := repo.Add(ctx, "user-1", "first")
	require.NoError(t, err)

	assert.ErrorIs(t, repo.Clear(ctx, "user-1", "missing"), ErrNotificationNotFound)
	assert.ErrorIs(t, repo.Restore(ctx, "user-2", "missing"), ErrNotificationNotFound)
	assert.ErrorIs(t, repo.PermanentlyDelete(ctx, "user-1", "missing"), ErrNotificationNotFound)
}

func TestLegacyRepository_KeepsUndecodableEntries(t *testing.T) {
	repo, mr := setupLegacyRepository(t)
	ctx := context.Background()

	_, err := mr.Lpush("legacy_notifications:user-1", "not-json")
	require.NoError(t, err)
	_, err = mr.Lpush("legacy_notifications:user-1", `{"id":"n1","message":"hello","timestamp":1704067200000,"cleared":false}`)
	require.NoError(t, err)

	list, err := repo.List(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.Timestamp("1704067200000"), list[0].Timestamp)

	require.NoError(t, repo.Clear(ctx, "user-1", "n1"))

	items, err := mr.List("legacy_notifications:user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "not-json", items[1])
}
