package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/linoprint/inkstock-backend/internal/inventory/events"
	"github.com/linoprint/inkstock-backend/internal/inventory/handler"
	"github.com/linoprint/inkstock-backend/internal/inventory/repository"
	"github.com/linoprint/inkstock-backend/internal/inventory/service"
	"github.com/linoprint/inkstock-backend/pkg/clock"
	"github.com/linoprint/inkstock-backend/pkg/config"
	"github.com/linoprint/inkstock-backend/pkg/database"
	"github.com/linoprint/inkstock-backend/pkg/httputil"
	"github.com/linoprint/inkstock-backend/pkg/logger"
	"github.com/linoprint/inkstock-backend/pkg/messaging"
)

func main() {
	// Load configuration with validation (fails fast in production if required config is missing)
	cfg, err := config.LoadWithValidation("inkstock-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("inkstock-service", cfg.Server.Environment)
	log.Info().Msg("starting InkStock Service")

	// Connect to database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Connect to RabbitMQ. The event publisher is optional in
	// development: without a broker the service runs and drops events.
	var publisher *events.InventoryEventPublisher
	rmq, err := messaging.New(&cfg.RabbitMQ, log)
	if err != nil {
		if config.IsProductionLike() {
			log.Fatal().Err(err).Msg("failed to connect to RabbitMQ")
		}
		log.Warn().Err(err).Msg("RabbitMQ unavailable, events disabled")
	} else {
		defer rmq.Close()
		publisher, err = events.NewInventoryEventPublisher(rmq, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create event publisher")
		}
	}

	// Initialize repositories
	itemRepo := repository.NewItemRepository(db)
	batchRepo := repository.NewBatchRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	noteRepo := repository.NewDeliveryNoteRepository(db)
	ledger := repository.NewLedger(db)

	// Initialize services
	clk := clock.System()
	receivingService := service.NewReceivingService(ledger, publisher, clk, cfg.Numbering, log)
	dispatchService := service.NewDispatchService(ledger, batchRepo, publisher, clk, cfg.Numbering, log)
	stockService := service.NewStockService(ledger, itemRepo, batchRepo, movementRepo, alertRepo, publisher, clk, log)
	scanner := service.NewAlertScanner(itemRepo, batchRepo, movementRepo, alertRepo, publisher, clk, cfg.Alerts, log)

	// Initialize handlers
	itemHandler := handler.NewItemHandler(itemRepo, stockService, log)
	batchHandler := handler.NewBatchHandler(batchRepo, stockService, log)
	receivingHandler := handler.NewReceivingHandler(receivingService, log)
	pickingHandler := handler.NewPickingHandler(dispatchService, log)
	movementHandler := handler.NewMovementHandler(stockService, log)
	alertHandler := handler.NewAlertHandler(alertRepo, scanner, log)
	customerHandler := handler.NewCustomerHandler(customerRepo, log)
	deliveryHandler := handler.NewDeliveryNoteHandler(noteRepo, log)
	dashboardHandler := handler.NewDashboardHandler(stockService, log)

	// Start the risk scan scheduler
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := service.NewAlertScheduler(scanner, cfg.Alerts.ScanInterval, log)
	scheduler.Start(ctx)
	defer scheduler.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(httputil.ActorMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			if origin == "http://localhost:3000" || origin == "http://localhost:5173" {
				return true
			}
			return strings.HasSuffix(origin, ".linoprint.co.il")
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-Actor-ID", "X-Actor-Name"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := map[string]interface{}{
			"status":   "healthy",
			"service":  "inkstock-service",
			"database": db.Health(r.Context()),
		}
		if rmq != nil {
			health["rabbitmq"] = rmq.Health()
		}
		httputil.JSON(w, http.StatusOK, health)
	})

	// API routes
	r.Route("/api/v1/inventory", func(r chi.Router) {
		// Item routes
		r.Route("/items", func(r chi.Router) {
			r.Get("/", itemHandler.List)
			r.Post("/", itemHandler.Create)
			r.Get("/{id}", itemHandler.Get)
			r.Put("/{id}", itemHandler.Update)
			r.Delete("/{id}", itemHandler.Deactivate)
			r.Get("/{id}/batches", batchHandler.ListByItem)
		})

		// Batch routes
		r.Route("/batches", func(r chi.Router) {
			r.Get("/{id}", batchHandler.Get)
			r.Post("/{id}/adjust", batchHandler.Adjust)
			r.Post("/{id}/scrap", batchHandler.Scrap)
		})

		// Goods receipt
		r.Post("/receipts", receivingHandler.Receive)

		// Picking and dispatch
		r.Post("/picking/suggest", pickingHandler.Suggest)
		r.Post("/picking/dispatch", pickingHandler.Dispatch)

		// Movement history
		r.Get("/movements", movementHandler.List)

		// Alert routes
		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.List)
			r.Get("/unread-count", alertHandler.UnreadCount)
			r.Post("/scan", alertHandler.Scan)
			r.Put("/read-all", alertHandler.MarkAllRead)
			r.Put("/{id}/read", alertHandler.MarkRead)
			r.Put("/{id}/dismiss", alertHandler.Dismiss)
		})

		// Customer routes
		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customerHandler.List)
			r.Post("/", customerHandler.Create)
			r.Get("/{id}", customerHandler.Get)
			r.Put("/{id}", customerHandler.Update)
		})

		// Delivery note routes
		r.Route("/delivery-notes", func(r chi.Router) {
			r.Get("/", deliveryHandler.List)
			r.Get("/{id}", deliveryHandler.Get)
			r.Put("/{id}/status", deliveryHandler.UpdateStatus)
		})

		// Dashboard
		r.Get("/dashboard/stats", dashboardHandler.GetStats)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Stop the scheduler before the server drains
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
