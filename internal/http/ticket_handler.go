package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/events"
	"homego/internal/repository"
	"homego/internal/service"
)

// TicketHandler mantiene dependencias para endpoints de soporte.
type TicketHandler struct {
	logger    *zap.Logger
	tickets   *service.TicketService
	hub       *events.Hub
	publisher events.Publisher
}

func NewTicketHandler(logger *zap.Logger, tickets *service.TicketService, hub *events.Hub, publisher events.Publisher) *TicketHandler {
	if publisher == nil {
		publisher = events.NewDisabledPublisher()
	}
	return &TicketHandler{
		logger:    logger,
		tickets:   tickets,
		hub:       hub,
		publisher: publisher,
	}
}

// Create maneja POST /api/support-tickets. Cualquier usuario logueado
// puede abrir un ticket; los datos de contacto salen del token.
func (h *TicketHandler) Create(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	var req struct {
		Subject  string `json:"subject" binding:"required"`
		Message  string `json:"message" binding:"required"`
		Category string `json:"category"`
		Priority string `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid create ticket request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ticket, err := h.tickets.Create(c.Request.Context(), service.CreateTicketInput{
		Subject:   req.Subject,
		Message:   req.Message,
		UserEmail: claims.Email,
		UserName:  claims.FullName,
		UserRole:  claims.Role,
		Category:  req.Category,
		Priority:  req.Priority,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidTicketState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "subject and message are required"})
			return
		}
		h.logger.Error("create ticket failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create ticket"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ticket": ticket})
}

// List maneja GET /api/support-tickets. Los usuarios ven sus tickets;
// los admins ven todos y pueden filtrar con ?status=.
func (h *TicketHandler) List(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	filter := repository.TicketFilter{Status: c.Query("status")}
	if claims.Role != domain.RoleAdmin {
		filter.UserEmail = claims.Email
	}

	tickets, err := h.tickets.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list tickets failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// Get maneja GET /api/support-tickets/:ticketId.
func (h *TicketHandler) Get(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	ticket, err := h.tickets.Get(c.Request.Context(), c.Param("ticketId"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		h.logger.Error("get ticket failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load ticket"})
		return
	}

	if ticket.UserEmail != claims.Email && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ticket"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ticket": ticket})
}

// AddResponse maneja POST /api/support-tickets/:ticketId/responses.
// El dueño del ticket o un admin pueden responder al hilo.
func (h *TicketHandler) AddResponse(c *gin.Context) {
	claims, ok := GetAuthClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}

	ticketID := c.Param("ticketId")
	ticket, err := h.tickets.Get(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		h.logger.Error("get ticket failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load ticket"})
		return
	}
	if ticket.UserEmail != claims.Email && claims.Role != domain.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your ticket"})
		return
	}

	var req struct {
		Message string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	response := domain.TicketResponse{
		Message:       req.Message,
		ResponderName: claims.FullName,
		ResponderRole: claims.Role,
	}
	if err := h.tickets.AddResponse(c.Request.Context(), ticketID, response); err != nil {
		if errors.Is(err, service.ErrInvalidTicketState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
			return
		}
		if errors.Is(err, service.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		h.logger.Error("add ticket response failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add response"})
		return
	}

	h.notifyTicketUpdate(c, ticketID, "responded")
	c.JSON(http.StatusCreated, gin.H{"status": "response added"})
}

// UpdateStatus maneja PATCH /api/support-tickets/:ticketId/status.
// Solo admins mueven tickets de estado.
func (h *TicketHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ticketID := c.Param("ticketId")
	if err := h.tickets.UpdateStatus(c.Request.Context(), ticketID, req.Status); err != nil {
		if errors.Is(err, service.ErrInvalidTicketState) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		if errors.Is(err, service.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		h.logger.Error("update ticket status failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update ticket"})
		return
	}

	h.notifyTicketUpdate(c, ticketID, req.Status)
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

func (h *TicketHandler) notifyTicketUpdate(c *gin.Context, ticketID, change string) {
	payload := gin.H{"ticketId": ticketID, "change": change}
	if h.hub != nil {
		h.hub.Broadcast("ticketUpdated", payload)
	}
	if err := h.publisher.Publish(c.Request.Context(), events.QueueTicketUpdated, payload); err != nil {
		h.logger.Warn("ticket event relay failed", zap.Error(err))
	}
}
