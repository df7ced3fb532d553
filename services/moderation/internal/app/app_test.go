package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace/pkg/config"
	"marketplace/pkg/jwt"
	"marketplace/pkg/logger"
	"marketplace/pkg/models"
	moderationHTTP "marketplace/services/moderation/internal/controller/http"
	"marketplace/services/moderation/internal/repo/persistent"
	"marketplace/services/moderation/internal/usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	sellerID    = "6f1c1f8e-8a0e-4f55-9d4b-1c2f7d1a0001"
	moderatorID = "6f1c1f8e-8a0e-4f55-9d4b-1c2f7d1a0002"
)

func setupRouter(t *testing.T) (*gin.Engine, *jwt.Service, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.Ban{}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	cfg := &config.Config{RateLimitRequests: 100, RateLimitWindow: time.Minute}
	jwtService := jwt.NewService("test-secret")
	uc := usecase.NewBanUseCase(persistent.NewBanRepository(db), persistent.NewStatusCache(redisClient), nil, logger.NewNop())
	handler := moderationHTTP.NewBanHandler(uc, logger.NewNop())

	return NewRouter(cfg, handler, jwtService, redisClient), jwtService, mr
}

func do(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBanLifecycle(t *testing.T) {
	router, jwtService, mr := setupRouter(t)

	sellerToken, err := jwtService.GenerateToken(sellerID, "alice", string(models.RoleSeller))
	require.NoError(t, err)
	modToken, err := jwtService.GenerateToken(moderatorID, "mod", string(models.RoleModerator))
	require.NoError(t, err)

	status := func() map[string]interface{} {
		w := do(t, router, "GET", "/api/v1/bans/status", sellerToken, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var out map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out
	}

	assert.Equal(t, false, status()["banned"])
	assert.True(t, mr.Exists("ban_status:"+sellerID))

	// sellers cannot ban
	w := do(t, router, "POST", "/api/v1/bans", sellerToken, map[string]string{"user_id": moderatorID, "reason": "spite"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, router, "POST", "/api/v1/bans", modToken, map[string]string{"user_id": sellerID, "reason": "counterfeit listings"})
	require.Equal(t, http.StatusCreated, w.Code)

	current := status()
	assert.Equal(t, true, current["banned"])
	assert.Equal(t, "counterfeit listings", current["reason"])

	w = do(t, router, "GET", "/api/v1/bans/"+sellerID, modToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, router, "DELETE", "/api/v1/bans/"+sellerID, modToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, status()["banned"])

	w = do(t, router, "DELETE", "/api/v1/bans/"+sellerID, modToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusRequiresAuth(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := do(t, router, "GET", "/api/v1/bans/status", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
