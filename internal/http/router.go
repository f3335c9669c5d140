package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"homego/internal/domain"
	"homego/internal/events"
	"homego/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtServ *service.JWTService,
	authH *AuthHandler,
	productH *ProductHandler,
	orderH *OrderHandler,
	ticketH *TicketHandler,
	sellerH *SellerHandler,
	promotionH *PromotionHandler,
	contentH *ContentHandler,
	statsH *StatsHandler,
	ratesH *RatesHandler,
	assistH *AssistHandler,
	hub *events.Hub,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging y recovery. El content-type JSON va
	// solo en /api para no pisar el upgrade de /ws.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery())

	api := r.Group("/api")
	api.Use(jsonContentTypeMiddleware())

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.POST("/refresh", authH.Refresh)

	api.GET("/user/profile", JWTAuthMiddleware(jwtServ), authH.Profile)

	products := api.Group("/products")
	products.GET("", productH.List)
	products.GET("/:id", productH.Get)
	sellerOnly := products.Group("", JWTAuthMiddleware(jwtServ), RequireRole(domain.RoleSeller, domain.RoleAdmin))
	sellerOnly.POST("", productH.Create)
	sellerOnly.PUT("/:id", productH.Update)
	sellerOnly.DELETE("/:id", productH.Delete)

	orders := api.Group("/orders", JWTAuthMiddleware(jwtServ))
	orders.GET("", orderH.List)
	orders.GET("/:id", orderH.Get)
	orders.POST("", orderH.Create)
	orders.PATCH("/:id/status", RequireRole(domain.RoleSeller, domain.RoleAdmin), orderH.UpdateStatus)

	tickets := api.Group("/support-tickets", JWTAuthMiddleware(jwtServ))
	tickets.POST("", ticketH.Create)
	tickets.GET("", ticketH.List)
	tickets.GET("/:ticketId", ticketH.Get)
	tickets.POST("/:ticketId/responses", ticketH.AddResponse)
	tickets.PATCH("/:ticketId/status", RequireRole(domain.RoleAdmin), ticketH.UpdateStatus)

	sellers := api.Group("/sellers")
	sellers.GET("", sellerH.List)
	sellers.GET("/:id", sellerH.Get)
	sellers.PATCH("/:id/status", JWTAuthMiddleware(jwtServ), RequireRole(domain.RoleAdmin), sellerH.UpdateStatus)

	promotions := api.Group("/promotions")
	promotions.GET("", promotionH.List)
	promotions.POST("", JWTAuthMiddleware(jwtServ), RequireRole(domain.RoleAdmin), promotionH.Create)
	promotions.DELETE("/:id", JWTAuthMiddleware(jwtServ), RequireRole(domain.RoleAdmin), promotionH.Delete)

	content := api.Group("/content")
	content.GET("/:key", contentH.Get)
	content.PUT("/:key", JWTAuthMiddleware(jwtServ), RequireRole(domain.RoleAdmin), contentH.Put)

	stats := api.Group("/stats", JWTAuthMiddleware(jwtServ))
	stats.GET("/seller/:id", RequireRole(domain.RoleSeller, domain.RoleAdmin), statsH.Seller)
	stats.GET("/admin", RequireRole(domain.RoleAdmin), statsH.Admin)

	api.GET("/rates", ratesH.List)
	api.GET("/rates/latest/:code", ratesH.Latest)

	if assistH != nil {
		api.POST("/assist", JWTAuthMiddleware(jwtServ), assistH.Ask)
	}

	if hub != nil {
		r.GET("/ws", func(c *gin.Context) {
			hub.Serve(c.Writer, c.Request)
		})
	}

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
