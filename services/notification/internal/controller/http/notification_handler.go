package http

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace/pkg/jwt"
	"marketplace/pkg/logger"
	"marketplace/services/notification/internal/entity"
	"marketplace/services/notification/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type NotificationHandler struct {
	notificationUseCase usecase.NotificationUseCase
	redisClient         *redis.Client
	logger              *logger.Logger
	jwtService          *jwt.Service
}

func NewNotificationHandler(notificationUseCase usecase.NotificationUseCase, redisClient *redis.Client, logger *logger.Logger, jwtService *jwt.Service) *NotificationHandler {
	return &NotificationHandler{
		notificationUseCase: notificationUseCase,
		redisClient:         redisClient,
		logger:              logger,
		jwtService:          jwtService,
	}
}

type SendLegacyRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	Message string `json:"message" binding:"required"`
}

type CreateNotificationRequest struct {
	UserID  string                 `json:"user_id" binding:"required"`
	Type    string                 `json:"type"`
	Message string                 `json:"message" binding:"required"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

type MergedResponse struct {
	Active       []entity.Notification `json:"active"`
	Cleared      []entity.Notification `json:"cleared"`
	CountActive  int                   `json:"count_active"`
	CountCleared int                   `json:"count_cleared"`
}

func viewerFromContext(c *gin.Context) entity.Viewer {
	return entity.Viewer{
		UserID:   c.GetString("user_id"),
		Username: c.GetString("username"),
		Role:     c.GetString("role"),
	}
}

// writeError maps use case errors to status codes.
func (h *NotificationHandler) writeError(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotificationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
	case errors.Is(err, usecase.ErrUnknownSource), errors.Is(err, usecase.ErrInvalidTask):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Failed to %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Failed to %s", action)})
	}
}

// GetNotifications godoc
// @Summary      Get merged notifications
// @Description  Active and cleared notifications from both stores, deduplicated and newest first. Viewers without the owner role get empty lists.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  MergedResponse
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /notifications [get]
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	viewer := viewerFromContext(c)
	if viewer.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	merged, err := h.notificationUseCase.GetMerged(c.Request.Context(), viewer)
	if err != nil {
		h.writeError(c, "get notifications", err)
		return
	}

	c.JSON(http.StatusOK, MergedResponse{
		Active:       merged.Active,
		Cleared:      merged.Cleared,
		CountActive:  len(merged.Active),
		CountCleared: len(merged.Cleared),
	})
}

// itemAction runs op against /notifications/items/:source/:id for the authenticated user.
func (h *NotificationHandler) itemAction(c *gin.Context, action, done string, op func(c *gin.Context, userID string, source entity.Source, id string) error) {
	viewer := viewerFromContext(c)
	if viewer.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !h.notificationUseCase.CanView(viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	source := entity.Source(c.Param("source"))
	id := c.Param("id")
	if !source.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unknown source %q", source)})
		return
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Notification ID required"})
		return
	}

	if err := op(c, viewer.UserID, source, id); err != nil {
		h.writeError(c, action, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": done, "id": id, "source": source})
}

// ClearNotification godoc
// @Summary      Clear a notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        source path string true "legacy or ctx"
// @Param        id path string true "Notification ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notifications/items/{source}/{id}/clear [post]
func (h *NotificationHandler) ClearNotification(c *gin.Context) {
	h.itemAction(c, "clear notification", "Notification cleared", func(c *gin.Context, userID string, source entity.Source, id string) error {
		return h.notificationUseCase.Clear(c.Request.Context(), userID, source, id)
	})
}

// RestoreNotification godoc
// @Summary      Restore a cleared notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        source path string true "legacy or ctx"
// @Param        id path string true "Notification ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notifications/items/{source}/{id}/restore [post]
func (h *NotificationHandler) RestoreNotification(c *gin.Context) {
	h.itemAction(c, "restore notification", "Notification restored", func(c *gin.Context, userID string, source entity.Source, id string) error {
		return h.notificationUseCase.Restore(c.Request.Context(), userID, source, id)
	})
}

// DeleteNotification godoc
// @Summary      Permanently delete a notification
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        source path string true "legacy or ctx"
// @Param        id path string true "Notification ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /notifications/items/{source}/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	h.itemAction(c, "delete notification", "Notification deleted", func(c *gin.Context, userID string, source entity.Source, id string) error {
		return h.notificationUseCase.Delete(c.Request.Context(), userID, source, id)
	})
}

// ClearAll godoc
// @Summary      Clear all active notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /notifications/clear-all [post]
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	viewer := viewerFromContext(c)
	if !h.notificationUseCase.CanView(viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	count, err := h.notificationUseCase.ClearAll(c.Request.Context(), viewer.UserID)
	if err != nil {
		h.writeError(c, "clear notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notifications cleared", "cleared": count})
}

// DeleteAllCleared godoc
// @Summary      Delete all cleared notifications
// @Description  Purged notifications are archived to object storage when configured.
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]string
// @Router       /notifications/cleared [delete]
func (h *NotificationHandler) DeleteAllCleared(c *gin.Context) {
	viewer := viewerFromContext(c)
	if !h.notificationUseCase.CanView(viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	count, err := h.notificationUseCase.DeleteAllCleared(c.Request.Context(), viewer.UserID)
	if err != nil {
		h.writeError(c, "delete cleared notifications", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cleared notifications deleted", "deleted": count})
}

func (h *NotificationHandler) SendLegacy(c *gin.Context) {
	var req SendLegacyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.notificationUseCase.SendLegacy(c.Request.Context(), req.UserID, req.Message)
	if err != nil {
		h.writeError(c, "send notification", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Notification sent successfully",
		"notification": notification,
	})
}

func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	var req CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	notification, err := h.notificationUseCase.CreateNotification(c.Request.Context(), req.UserID, req.Type, req.Message, req.Data)
	if err != nil {
		h.writeError(c, "create notification", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":      "Notification created successfully",
		"notification": notification,
	})
}

func (h *NotificationHandler) GetQueueStatus(c *gin.Context) {
	queueLength, err := h.notificationUseCase.QueueLength()
	if err != nil {
		h.logger.Error("Failed to get queue length: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get queue length"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Queue processing is handled by the consumer. This endpoint shows queue status only.",
		"queue_length": queueLength,
	})
}

func (h *NotificationHandler) HandleWebSocket(c *gin.Context) {
	viewer := viewerFromContext(c)

	if viewer.UserID == "" {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token required"})
			return
		}

		claims, err := h.jwtService.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		viewer = entity.Viewer{UserID: claims.UserID, Username: claims.Username, Role: claims.Role}
	}

	if viewer.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if !h.notificationUseCase.CanView(viewer) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection to WebSocket: %v", err)
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket connected for user %s", viewer.UserID)

	ctx := c.Request.Context()
	pubsub := h.redisClient.Subscribe(ctx, fmt.Sprintf("notifications:%s", viewer.UserID))
	defer pubsub.Close()

	redisChannel := pubsub.Channel()
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case msg, ok := <-redisChannel:
				if !ok {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					h.logger.Error("Failed to write WebSocket message: %v", err)
					return
				}
			}
		}
	}()

	for {
		messageType, _, err := conn.ReadMessage()
		if err != nil {
			h.logger.Warn("WebSocket read error: %v", err)
			break
		}
		if messageType == websocket.CloseMessage {
			break
		}
		if messageType == websocket.PingMessage {
			conn.WriteMessage(websocket.PongMessage, nil)
		}
	}

	close(done)
	h.logger.Info("WebSocket disconnected for user %s", viewer.UserID)
}
