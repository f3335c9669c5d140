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

// ProductHandler mantiene dependencias para endpoints del catálogo.
type ProductHandler struct {
	logger   *zap.Logger
	products repository.ProductRepository
}

func NewProductHandler(logger *zap.Logger, products repository.ProductRepository) *ProductHandler {
	return &ProductHandler{logger: logger, products: products}
}

// List maneja GET /api/products. Es público: el catálogo se navega sin
// sesión. Acepta filtros ?seller= y ?category=.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context(), repository.ProductFilter{
		SellerID: c.Query("seller"),
		Category: c.Query("category"),
	})
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// Get maneja GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": product})
}

type productRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	ImageURL    string          `json:"imageUrl"`
	ModelURL    string          `json:"modelUrl"`
}

// Create maneja POST /api/products. Solo vendedores y admins.
func (h *ProductHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create product request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	product := domain.Product{
		ID:          uuid.NewString(),
		SellerID:    claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		ModelURL:    req.ModelURL,
		Status:      "active",
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.products.Create(c.Request.Context(), product); err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create product"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": product})
}

// Update maneja PUT /api/products/:id. El vendedor solo modifica lo
// suyo; los admins modifican cualquier producto.
func (h *ProductHandler) Update(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	existing, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	if existing.SellerID != claims.UserID && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid update product request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Price.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "price must not be negative"})
		return
	}

	now := time.Now().UTC()
	existing.Name = req.Name
	existing.Description = req.Description
	existing.Category = req.Category
	existing.Price = req.Price
	existing.ImageURL = req.ImageURL
	existing.ModelURL = req.ModelURL
	existing.UpdatedAt = &now

	if err := h.products.Update(c.Request.Context(), existing); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("update product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": existing})
}

// Delete maneja DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	existing, err := h.products.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("get product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load product"})
		return
	}
	if existing.SellerID != claims.UserID && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the owner"})
		return
	}

	if err := h.products.Delete(c.Request.Context(), existing.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
			return
		}
		h.logger.Error("delete product failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
