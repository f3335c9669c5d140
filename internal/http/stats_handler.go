package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/service"
)

// StatsHandler mantiene dependencias para endpoints de dashboards.
type StatsHandler struct {
	logger *zap.Logger
	stats  *service.StatsService
}

func NewStatsHandler(logger *zap.Logger, stats *service.StatsService) *StatsHandler {
	return &StatsHandler{logger: logger, stats: stats}
}

// Seller maneja GET /api/stats/seller/:id. Un vendedor solo consulta
// sus propios números; los admins, los de cualquiera.
func (h *StatsHandler) Seller(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	sellerID := c.Param("id")
	if sellerID != claims.UserID && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your stats"})
		return
	}

	stats, err := h.stats.Seller(c.Request.Context(), sellerID)
	if err != nil {
		h.logger.Error("seller stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Admin maneja GET /api/stats/admin.
func (h *StatsHandler) Admin(c *gin.Context) {
	stats, err := h.stats.Admin(c.Request.Context())
	if err != nil {
		h.logger.Error("admin stats failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
