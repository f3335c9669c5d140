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
	"homego/internal/events"
	"homego/internal/repository"
	"homego/internal/storefront"
)

// OrderHandler mantiene dependencias para endpoints de órdenes.
type OrderHandler struct {
	logger    *zap.Logger
	orders    repository.OrderRepository
	products  repository.ProductRepository
	hub       *events.Hub
	publisher events.Publisher
}

func NewOrderHandler(logger *zap.Logger, orders repository.OrderRepository, products repository.ProductRepository, hub *events.Hub, publisher events.Publisher) *OrderHandler {
	if publisher == nil {
		publisher = events.NewDisabledPublisher()
	}
	return &OrderHandler{
		logger:    logger,
		orders:    orders,
		products:  products,
		hub:       hub,
		publisher: publisher,
	}
}

var orderStatuses = map[string]bool{
	domain.OrderPending:   true,
	domain.OrderPaid:      true,
	domain.OrderShipped:   true,
	domain.OrderDelivered: true,
	domain.OrderCancelled: true,
}

// List maneja GET /api/orders. Los clientes ven sus compras, los
// vendedores sus ventas; los admins pueden filtrar libremente con
// ?sellerId= y ?customerId=.
func (h *OrderHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	filter := repository.OrderFilter{}
	switch claims.Role {
	case domain.RoleAdmin:
		filter.SellerID = c.Query("sellerId")
		filter.CustomerID = c.Query("customerId")
	case domain.RoleSeller:
		filter.SellerID = claims.UserID
	default:
		filter.CustomerID = claims.UserID
	}

	orders, err := h.orders.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get maneja GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.logger.Error("get order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
		return
	}

	if order.CustomerID != claims.UserID && order.SellerID != claims.UserID && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// Create maneja POST /api/orders. El cliente manda producto y cantidad;
// los precios y cargos se recalculan del lado del servidor, nunca se
// aceptan del payload.
func (h *OrderHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Items []struct {
			ProductID string `json:"productId" binding:"required"`
			Quantity  int    `json:"quantity" binding:"required,min=1"`
		} `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create order request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	var (
		sellerID string
		items    []domain.OrderItem
		subtotal = decimal.Zero
	)
	for _, line := range req.Items {
		product, err := h.products.GetByID(c.Request.Context(), line.ProductID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown product: " + line.ProductID})
				return
			}
			h.logger.Error("load product for order failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create order"})
			return
		}
		if sellerID == "" {
			sellerID = product.SellerID
		} else if sellerID != product.SellerID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "all items must belong to the same seller"})
			return
		}
		items = append(items, domain.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  line.Quantity,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	tax := subtotal.Mul(storefront.TaxRate)
	order := domain.Order{
		ID:         uuid.NewString(),
		CustomerID: claims.UserID,
		SellerID:   sellerID,
		Items:      items,
		Subtotal:   subtotal,
		Shipping:   storefront.ShippingFee,
		Tax:        tax,
		Total:      subtotal.Add(storefront.ShippingFee).Add(tax),
		Status:     domain.OrderPending,
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.orders.Create(c.Request.Context(), order); err != nil {
		h.logger.Error("create order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create order"})
		return
	}

	if h.hub != nil {
		h.hub.Broadcast("orderCreated", order)
	}
	if err := h.publisher.Publish(c.Request.Context(), events.QueueOrderCreated, order); err != nil {
		h.logger.Warn("order event relay failed", zap.Error(err))
	}

	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// UpdateStatus maneja PATCH /api/orders/:id/status. Solo el vendedor de
// la orden o un admin pueden avanzarla.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if !orderStatuses[req.Status] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	order, err := h.orders.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
			return
		}
		h.logger.Error("get order failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load order"})
		return
	}
	if order.SellerID != claims.UserID && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your order"})
		return
	}

	if err := h.orders.UpdateStatus(c.Request.Context(), order.ID, req.Status); err != nil {
		h.logger.Error("update order status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update order"})
		return
	}

	order.Status = req.Status
	if h.hub != nil {
		h.hub.Broadcast("orderUpdated", gin.H{"id": order.ID, "status": req.Status})
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}
