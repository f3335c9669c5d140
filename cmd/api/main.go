package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"homego/internal/assist"
	"homego/internal/config"
	"homego/internal/currency"
	"homego/internal/db"
	"homego/internal/email"
	"homego/internal/events"
	apihttp "homego/internal/http"
	"homego/internal/kv"
	"homego/internal/repository"
	"homego/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	userRepo := repository.NewPgUserRepository(pool)
	productRepo := repository.NewPgProductRepository(pool)
	orderRepo := repository.NewPgOrderRepository(pool)
	ticketRepo := repository.NewPgTicketRepository(pool)
	promotionRepo := repository.NewPgPromotionRepository(pool)

	emailSender := email.NewDisabledSender("email sender not configured")
	if cfg.SMTPHost != "" {
		sender, err := email.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.SMTPFromName, cfg.SMTPUseTLS)
		if err != nil {
			logger.Warn("smtp sender init failed", zap.Error(err))
		} else {
			emailSender = sender
		}
	}

	var (
		loginLimiter = service.NewLoginRateLimiter(10*time.Minute, 5)
		tokenStore   = service.NewMemoryTokenStore()
		serverKV     = kv.NewMemoryStore()
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			loginLimiter = service.NewRedisLoginRateLimiter(redisClient, 10*time.Minute, 5)
			tokenStore = service.NewRedisTokenStore(redisClient)
			serverKV = kv.NewRedisStore(redisClient, "homego:kv:")
		}
		cancel()
	}

	jwtSvc := service.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	userSvc := service.NewUserService(logger, userRepo, loginLimiter)
	ticketSvc := service.NewTicketService(logger, ticketRepo, emailSender)
	statsSvc := service.NewStatsService(userRepo, productRepo, orderRepo, ticketRepo)

	rateProvider := currency.NewHTTPProvider(cfg.RatesBaseURL)
	currencyStore := currency.NewStore(logger, serverKV, rateProvider)
	if _, err := currencyStore.UpdateRates(ctx); err != nil {
		logger.Warn("initial rates refresh failed", zap.Error(err))
	}
	go refreshRatesLoop(ctx, logger, currencyStore)

	hub := events.NewHub(logger)
	defer hub.Close()

	var publisher events.Publisher = events.NewDisabledPublisher()
	if cfg.AMQPURL != "" {
		amqpPub, err := events.NewAMQPPublisher(cfg.AMQPURL, logger)
		if err != nil {
			logger.Warn("amqp connect failed", zap.Error(err))
		} else {
			publisher = amqpPub
			defer amqpPub.Close()
		}
	}

	var assistHandler *apihttp.AssistHandler
	if cfg.AssistAPIKey != "" {
		responder := assist.NewHTTPResponder(cfg.AssistBaseURL, cfg.AssistAPIKey, cfg.AssistModel, logger)
		assistSvc := assist.NewService(logger, responder, productRepo, orderRepo)
		assistHandler = apihttp.NewAssistHandler(logger, assistSvc, userSvc)
	}

	authHandler := apihttp.NewAuthHandler(logger, userSvc, jwtSvc)
	productHandler := apihttp.NewProductHandler(logger, productRepo)
	orderHandler := apihttp.NewOrderHandler(logger, orderRepo, productRepo, hub, publisher)
	ticketHandler := apihttp.NewTicketHandler(logger, ticketSvc, hub, publisher)
	sellerHandler := apihttp.NewSellerHandler(logger, userRepo)
	promotionHandler := apihttp.NewPromotionHandler(logger, promotionRepo)
	contentHandler := apihttp.NewContentHandler(logger, serverKV)
	statsHandler := apihttp.NewStatsHandler(logger, statsSvc)
	ratesHandler := apihttp.NewRatesHandler(logger, currencyStore)

	router := apihttp.NewRouter(logger, jwtSvc, authHandler, productHandler, orderHandler, ticketHandler, sellerHandler, promotionHandler, contentHandler, statsHandler, ratesHandler, assistHandler, hub)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

// refreshRatesLoop reintenta el refresh de tasas cada hora. La tabla
// sirve igual aunque el refresh falle: el store degrada al snapshot
// persistido o estático.
func refreshRatesLoop(ctx context.Context, logger *zap.Logger, store *currency.Store) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !store.NeedsUpdate() {
				continue
			}
			if _, err := store.UpdateRates(ctx); err != nil {
				logger.Warn("rates refresh failed", zap.Error(err))
			}
		}
	}
}
