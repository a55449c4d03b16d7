package cmd

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticket-waitlist/config"
	"ticket-waitlist/handlers"
	"ticket-waitlist/notify"
	"ticket-waitlist/scheduler"
	"ticket-waitlist/security"
	"ticket-waitlist/services"
	"ticket-waitlist/store"
	"ticket-waitlist/utils"
)

func Start() error {
	cfg := config.LoadConfig()

	// Storage
	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	st := store.New(db)
	if err := st.Migrate(context.Background()); err != nil {
		return err
	}

	// Redis backs the delayed-task transport and rate limiting
	redisClient := utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	offerScheduler := scheduler.NewAsynqScheduler(redisOpt)
	defer offerScheduler.Close()

	// Notifications are optional; without PubNub keys the engine stays quiet.
	var notifier services.Notifier = services.NopNotifier()
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNubNotifier(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, cfg.PubNubSecretKey)
	}

	// Engine
	clock := services.NewSystemClock()
	locks := services.NewEventLocks()
	waitlistService := services.NewWaitlistService(st, offerScheduler, notifier, clock, locks, cfg.OfferTTL)
	ticketService := services.NewTicketService(st, waitlistService, notifier, clock, locks, cfg.OfferTTL)
	eventService := services.NewEventService(st, waitlistService, notifier, clock, locks)

	// Offer expiration worker
	go func() {
		if err := scheduler.RunWorker(redisOpt, waitlistService, cfg.WorkerConcurrency); err != nil {
			log.Fatal("Worker failed to start:", err)
		}
	}()

	// Metrics listener
	if cfg.EnableMetrics {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(":"+cfg.MetricsPort, mux); err != nil {
				slog.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// Handlers
	queueHandler := handlers.NewQueueHandler(waitlistService)
	ticketHandler := handlers.NewTicketHandler(ticketService)
	eventHandler := handlers.NewEventHandler(eventService)
	rateLimiter := security.NewRateLimiter(redisClient, cfg.JoinRateLimitPerMinute)

	e := echo.New()
	e.Use(middleware.Recover())
	if cfg.Environment == "development" {
		e.Use(middleware.Logger())
	}

	// Queue endpoints
	e.POST("/api/v1/queue/join", queueHandler.Join, rateLimiter.JoinRateLimit())
	e.GET("/api/v1/queue/position", queueHandler.GetPosition)
	e.POST("/api/v1/queue/release", queueHandler.Release)

	// Event endpoints
	e.GET("/api/v1/events", eventHandler.List)
	e.GET("/api/v1/events/detail", eventHandler.Get)
	e.GET("/api/v1/events/availability", queueHandler.GetAvailability)

	// Ticket endpoints
	e.POST("/api/v1/tickets/purchase", ticketHandler.Purchase)
	e.GET("/api/v1/tickets/mine", ticketHandler.GetUserTicket)

	// Admin endpoints
	adminAuth := security.AdminAuth(cfg.AdminTokenHash)
	e.POST("/api/v1/admin/events", eventHandler.Create, adminAuth)
	e.POST("/api/v1/admin/events/capacity", eventHandler.UpdateCapacity, adminAuth)
	e.POST("/api/v1/admin/events/cancel", eventHandler.Cancel, adminAuth)
	e.POST("/api/v1/admin/events/delete", eventHandler.Delete, adminAuth)
	e.POST("/api/v1/admin/tickets/use", ticketHandler.Use, adminAuth)
	e.POST("/api/v1/admin/tickets/refund", ticketHandler.Refund, adminAuth)
	e.POST("/api/v1/admin/tickets/cancel", ticketHandler.Cancel, adminAuth)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		if err := utils.RedisHealthCheck(redisClient); err != nil {
			return c.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  err.Error(),
			})
		}
		return c.JSON(200, map[string]string{"status": "healthy"})
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go handleShutdown(server)

	log.Println("Server listening on", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleShutdown drains the HTTP server on SIGINT/SIGTERM.
func handleShutdown(server *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("shutdown failed", "error", err)
	}
}
