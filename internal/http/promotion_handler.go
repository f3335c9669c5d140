package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/repository"
)

var oneHundred = decimal.NewFromInt(100)

// PromotionHandler mantiene dependencias para endpoints de campañas.
type PromotionHandler struct {
	logger     *zap.Logger
	promotions repository.PromotionRepository
}

func NewPromotionHandler(logger *zap.Logger, promotions repository.PromotionRepository) *PromotionHandler {
	return &PromotionHandler{logger: logger, promotions: promotions}
}

// List maneja GET /api/promotions. Es público: las campañas vigentes se
// muestran en la home sin sesión.
func (h *PromotionHandler) List(c *gin.Context) {
	promotions, err := h.promotions.List(c.Request.Context())
	if err != nil {
		h.logger.Error("list promotions failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list promotions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"promotions": promotions})
}

type promotionRequest struct {
	Title           string          `json:"title" binding:"required"`
	Description     string          `json:"description"`
	DiscountPercent decimal.Decimal `json:"discountPercent" binding:"required"`
	ImageURL        string          `json:"imageUrl"`
	StartsAt        *time.Time      `json:"startsAt"`
	EndsAt          *time.Time      `json:"endsAt"`
}

// Create maneja POST /api/promotions. Solo admins.
func (h *PromotionHandler) Create(c *gin.Context) {
	var req promotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create promotion request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(oneHundred) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount must be between 0 and 100"})
		return
	}
	if req.StartsAt != nil && req.EndsAt != nil && req.EndsAt.Before(*req.StartsAt) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ends before it starts"})
		return
	}

	promotion := domain.Promotion{
		ID:              uuid.NewString(),
		Title:           req.Title,
		Description:     req.Description,
		DiscountPercent: req.DiscountPercent,
		ImageURL:        req.ImageURL,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		CreatedAt:       time.Now().UTC(),
	}
	if err := h.promotions.Create(c.Request.Context(), promotion); err != nil {
		h.logger.Error("create promotion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create promotion"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"promotion": promotion})
}

// Delete maneja DELETE /api/promotions/:id. Solo admins.
func (h *PromotionHandler) Delete(c *gin.Context) {
	if err := h.promotions.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "promotion not found"})
			return
		}
		h.logger.Error("delete promotion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete promotion"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
