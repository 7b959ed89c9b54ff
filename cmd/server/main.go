package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appinv "github.com/sitestock/inventorybot/internal/application/inventory"
	domaininv "github.com/sitestock/inventorybot/internal/domain/inventory"
	"github.com/sitestock/inventorybot/internal/infrastructure/authz"
	"github.com/sitestock/inventorybot/internal/infrastructure/cache"
	"github.com/sitestock/inventorybot/internal/infrastructure/config"
	"github.com/sitestock/inventorybot/internal/infrastructure/logger"
	"github.com/sitestock/inventorybot/internal/infrastructure/persistence"
	"github.com/sitestock/inventorybot/internal/interfaces/chat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting inventorybot",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("catalogue_backend", cfg.Inventory.CatalogueBackend),
	)

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	gormStore := persistence.NewGormCatalogueStore(db)
	movementRepo := domaininv.MovementRepository(persistence.NewMovementStore(gormStore))
	stocktakeRepo := domaininv.StocktakeRepository(persistence.NewStocktakeStore(gormStore))

	var itemRepo domaininv.ItemRepository = gormStore
	if cfg.Inventory.CatalogueBackend == "airtable" {
		itemRepo = persistence.NewAirtableCatalogueStore(cfg.Inventory.AirtableAPIToken, cfg.Inventory.AirtableBaseID)
		log.Info("Using Airtable catalogue backend")
	}

	catalogueCache := cache.NewCatalogueCache(itemRepo, cfg.Inventory.CatalogueCacheTTL, log)

	idempotencyFactory := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log))
	idempotencyStore, err := idempotencyFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to initialize idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	allowlist := authz.NewChatAllowlist(cfg.Chat.AllowedChatIDs)
	// A site's staff roster is provisioned by an admin out-of-band (no
	// self-registration flow exists for this bot); seed with no entries so
	// every chat defaults to RoleViewer until an admin assigns roles, mirroring
	// the original service's safe-default-on-unknown-user behavior.
	roles := authz.NewStaticRoleResolver(nil)

	parser := appinv.NewCommandParser(log)
	duplicates := appinv.NewDuplicateEngine(log)
	executor := appinv.NewMovementExecutor(itemRepo, movementRepo, log)
	batchProcessor := appinv.NewBatchProcessor(itemRepo, executor, log)
	approvals := appinv.NewApprovalController(batchProcessor, log)
	stocktakes := appinv.NewStocktakeService(itemRepo, stocktakeRepo, log)

	chatHandler := chat.NewHandler(
		parser, duplicates, catalogueCache, itemRepo, movementRepo,
		batchProcessor, approvals, stocktakes, idempotencyStore,
		allowlist, roles, cfg.Inventory.DefaultIdempotencyTTL, log,
	)
	webhookHandler := chat.NewWebhookHandler(chatHandler, cfg.Chat.APIToken, log)
	chatRoutes := chat.NewRoutes(webhookHandler)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(chat.RequestID())
	router.Use(logger.Recovery(log))
	router.Use(logger.GinMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	})

	api := router.Group("/api/v1")
	chatRoutes.RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
