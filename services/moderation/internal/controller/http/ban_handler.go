package http

import (
	"errors"
	"net/http"
	"time"

	"marketplace/pkg/logger"
	"marketplace/services/moderation/internal/usecase"

	"github.com/gin-gonic/gin"
)

type BanHandler struct {
	banUseCase usecase.BanUseCase
	logger     *logger.Logger
}

func NewBanHandler(banUseCase usecase.BanUseCase, logger *logger.Logger) *BanHandler {
	return &BanHandler{
		banUseCase: banUseCase,
		logger:     logger,
	}
}

type CreateBanRequest struct {
	UserID    string     `json:"user_id" binding:"required"`
	Reason    string     `json:"reason" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// GetStatus godoc
// @Summary      Get ban status
// @Description  Whether the authenticated user is currently suspended
// @Tags         bans
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  entity.BanStatus
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /bans/status [get]
func (h *BanHandler) GetStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	status, err := h.banUseCase.GetStatus(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get ban status: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get ban status"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// CreateBan godoc
// @Summary      Ban a user
// @Description  Moderators only. The user is notified through the notification queue.
// @Tags         bans
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateBanRequest true "Ban"
// @Success      201  {object}  entity.Ban
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /bans [post]
func (h *BanHandler) CreateBan(c *gin.Context) {
	var req CreateBanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ban, err := h.banUseCase.Ban(c.Request.Context(), c.GetString("user_id"), req.UserID, req.Reason, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidBan) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create ban: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ban"})
		return
	}

	c.JSON(http.StatusCreated, ban)
}

// LiftBan godoc
// @Summary      Lift a user's active bans
// @Tags         bans
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /bans/{user_id} [delete]
func (h *BanHandler) LiftBan(c *gin.Context) {
	userID := c.Param("user_id")

	lifted, err := h.banUseCase.Lift(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, usecase.ErrBanNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No active ban"})
			return
		}
		h.logger.Error("Failed to lift ban: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to lift ban"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ban lifted", "user_id": userID, "lifted": lifted})
}

// GetHistory godoc
// @Summary      List a user's bans
// @Tags         bans
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /bans/{user_id} [get]
func (h *BanHandler) GetHistory(c *gin.Context) {
	userID := c.Param("user_id")

	bans, err := h.banUseCase.History(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list bans: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list bans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bans": bans, "count": len(bans)})
}
