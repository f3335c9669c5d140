package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/assist"
	"homego/internal/domain"
	"homego/internal/service"
)

// AssistHandler expone el asistente de soporte. La credencial del
// backend de chat vive en la config del servidor; el cliente solo manda
// su mensaje.
type AssistHandler struct {
	logger   *zap.Logger
	assist   *assist.Service
	userServ *service.UserService
}

func NewAssistHandler(logger *zap.Logger, assistServ *assist.Service, userServ *service.UserService) *AssistHandler {
	return &AssistHandler{logger: logger, assist: assistServ, userServ: userServ}
}

// Ask maneja POST /api/assist.
func (h *AssistHandler) Ask(c *gin.Context) {
	if h.assist == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "assistant not configured"})
		return
	}

	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	user := domain.User{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
		Role:     claims.Role,
	}
	if h.userServ != nil {
		if full, err := h.userServ.GetProfile(c.Request.Context(), claims.UserID); err == nil {
			user = full
		} else if !errors.Is(err, service.ErrUserNotFound) {
			h.logger.Debug("assist profile lookup failed", zap.Error(err))
		}
	}

	reply, err := h.assist.Ask(c.Request.Context(), user, req.Message)
	if err != nil {
		h.logger.Error("assistant reply failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
