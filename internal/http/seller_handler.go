package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/repository"
)

// SellerHandler expone el directorio de vendedores. Las cuentas de
// vendedor se crean vía registro; acá solo se listan y se administra su
// estado de aprobación.
type SellerHandler struct {
	logger *zap.Logger
	users  repository.UserRepository
}

func NewSellerHandler(logger *zap.Logger, users repository.UserRepository) *SellerHandler {
	return &SellerHandler{logger: logger, users: users}
}

// List maneja GET /api/sellers. Es público: el directorio se navega sin
// sesión.
func (h *SellerHandler) List(c *gin.Context) {
	sellers, err := h.users.ListByRole(c.Request.Context(), domain.RoleSeller)
	if err != nil {
		h.logger.Error("list sellers failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sellers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sellers": sellers})
}

// Get maneja GET /api/sellers/:id.
func (h *SellerHandler) Get(c *gin.Context) {
	seller, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
			return
		}
		h.logger.Error("get seller failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load seller"})
		return
	}
	if seller.Role != domain.RoleSeller {
		c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"seller": seller})
}

// UpdateStatus maneja PATCH /api/sellers/:id/status. Solo admins: es el
// flujo de aprobación o suspensión de una cuenta de vendedor.
func (h *SellerHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !domain.ValidAccountStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	seller, err := h.users.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
			return
		}
		h.logger.Error("get seller failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load seller"})
		return
	}
	if seller.Role != domain.RoleSeller {
		c.JSON(http.StatusNotFound, gin.H{"error": "seller not found"})
		return
	}

	if err := h.users.UpdateStatus(c.Request.Context(), seller.ID, req.Status); err != nil {
		h.logger.Error("update seller status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update seller"})
		return
	}
	seller.Status = req.Status
	c.JSON(http.StatusOK, gin.H{"seller": seller})
}
