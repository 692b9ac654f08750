package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"tokoshop/internal/cache"
	"tokoshop/internal/config"
	"tokoshop/internal/events"
	"tokoshop/internal/handlers"
	"tokoshop/internal/models"
	"tokoshop/internal/repositories"
	"tokoshop/internal/services"
	"tokoshop/pkg/rabbitmq"
)

// application owns every long-lived resource of the service.
type application struct {
	cfg       *config.Config
	fiber     *fiber.App
	db        *gorm.DB
	redis     *redis.Client
	publisher events.Publisher
	mq        *rabbitmq.Client
	poller    *events.OutboxPoller
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.close()

	// --- Start the outbox poller ---
	pollCtx, stopPolling := context.WithCancel(context.Background())
	defer stopPolling()
	go app.poller.Run(pollCtx)

	// --- Start RabbitMQ Consumer ---
	// This consumer logs the order events published through the outbox.
	if app.mq != nil {
		log.Println("Starting RabbitMQ consumer for orders...")
		if err := app.mq.Consume(events.HandleOrderMessage); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.fiber.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.fiber.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	stopPolling()

	// Deliver whatever the last requests wrote before the broker closes
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	app.poller.ProcessOnce(flushCtx)
	cancel()

	log.Println("Server gracefully stopped")
}

// newApp opens storage, connects the optional cache and broker and wires
// the HTTP routes.
func newApp(cfg *config.Config) (*application, error) {
	a := &application{cfg: cfg}

	// --- Database ---
	db, err := repositories.OpenDatabase(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := repositories.Migrate(db, cfg.OrderNumberStart); err != nil {
		a.close()
		return nil, err
	}

	// --- Initialize Repositories ---
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	outboxRepo := repositories.NewGORMOutboxRepository(db)
	txManager := repositories.NewGORMTxManager(db)

	// --- Catalog cache (optional) ---
	// Only the /products reads go through the cache. Cart and checkout read
	// the live rows so activity, stock and prices are never stale.
	var catalog services.CatalogProvider = productRepo
	var invalidator services.CacheInvalidator
	if cfg.RedisAddr != "" {
		if client, ok := connectRedis(cfg.RedisAddr); ok {
			a.redis = client
			productCache := cache.NewProductCache(client, productRepo, cfg.CatalogCacheTTL)
			catalog = productCache
			invalidator = productCache
		}
	}

	// --- Event broker ---
	publisher, mq, err := events.NewPublisher(events.BrokerConfig{
		Broker:       cfg.EventsBroker,
		RabbitMQURL:  cfg.RabbitMQURL,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize %s publisher: %w", cfg.EventsBroker, err)
	}
	a.publisher = publisher
	a.mq = mq
	a.poller = events.NewOutboxPoller(outboxRepo, publisher, cfg.OutboxPollInterval)

	// --- Initialize Services ---
	authService := services.NewAuthService(cfg.JWTSecret)
	productService := services.NewProductService(productRepo, catalog, invalidator, cfg.StorageTimeout)
	cartService := services.NewCartService(cartRepo, productRepo, txManager, cfg.StorageTimeout)
	orderService := services.NewOrderService(orderRepo, cartRepo, productRepo, outboxRepo, txManager, cfg.Pricing, cfg.StorageTimeout)
	paymentService := services.NewPaymentService(orderRepo, outboxRepo, txManager, cfg.StorageTimeout)
	orderLocator := services.NewOrderLocator(orderRepo, cfg.StorageTimeout)

	if cfg.SeedProducts {
		if _, err := productService.SeedProducts(context.Background(), seedCatalog()); err != nil {
			log.Printf("Error seeding products: %v", err)
		}
	}

	// --- Initialize Handlers ---
	h := handlers.Handlers{
		Cart:     handlers.NewCartHandler(cartService),
		Orders:   handlers.NewOrderHandler(orderService, paymentService, orderLocator),
		Products: handlers.NewProductHandler(productService),
	}
	if cfg.AuthDevTokens {
		log.Println("AUTH_DEV_TOKENS enabled: /api/v1/auth/token issues tokens without verification")
		h.Auth = handlers.NewAuthHandler(authService)
	}

	// --- Initialize Fiber App ---
	a.fiber = fiber.New()
	a.fiber.Use(logger.New()) // Request logger
	handlers.RegisterAPI(a.fiber, authService, h)

	// --- Health Check Endpoint ---
	a.fiber.Get("/health", a.handleHealth)

	return a, nil
}

func (a *application) handleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	body := fiber.Map{
		"status":   "healthy",
		"time":     time.Now().Format(time.RFC3339),
		"database": "connected",
		"broker":   a.cfg.EventsBroker,
		"cache":    "disabled",
	}
	if sqlDB, err := a.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status = fiber.StatusServiceUnavailable
		body["status"] = "unhealthy"
		body["database"] = "unreachable"
	}
	if a.redis != nil {
		body["cache"] = "connected"
		if err := a.redis.Ping(ctx).Err(); err != nil {
			// The catalog falls back to the database, so this only degrades.
			body["cache"] = "unreachable"
		}
	}
	return c.Status(status).JSON(body)
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Printf("Error closing event publisher: %v", err)
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.Printf("Error closing redis client: %v", err)
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

func connectRedis(addr string) (*redis.Client, bool) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis at %s unavailable, catalog cache disabled: %v", addr, err)
		client.Close()
		return nil, false
	}
	log.Printf("Catalog cache connected to redis at %s", addr)
	return client, true
}

// seedCatalog is the development catalog created on an empty database.
func seedCatalog() []models.Product {
	return []models.Product{
		{Title: "Laptop", Description: "High performance laptop", Price: decimal.RequireFromString("1200.00"), StockQuantity: 10, IsActive: true},
		{Title: "Keyboard", Description: "Mechanical keyboard", Price: decimal.RequireFromString("75.00"), StockQuantity: 25, IsActive: true},
		{Title: "Mouse", Description: "Ergonomic wireless mouse", Price: decimal.RequireFromString("25.00"), StockQuantity: 50, IsActive: true},
	}
}
