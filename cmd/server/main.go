package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/bubblegut/internal/config"
	"github.com/foxxcyber/bubblegut/internal/database"
	"github.com/foxxcyber/bubblegut/internal/handlers"
	"github.com/foxxcyber/bubblegut/internal/logging"
	"github.com/foxxcyber/bubblegut/internal/services"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	zlog, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, zlog)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(db, cfg); err != nil {
		zlog.Warn("Could not ensure admin user", zap.Error(err))
	}

	cards, closeCards := initRecipeCards(db, cfg, zlog)
	defer closeCards()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler,
		BodyLimit:             int(cfg.MaxUploadBytes()) + 1<<20,
		DisableStartupMessage: cfg.IsProduction(),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	h := handlers.New(db, cfg, zlog, cards)
	handlers.RegisterRoutes(app, h, handlers.NewSettingsHandler(db, cfg))

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zlog.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	zlog.Info("Server starting", zap.String("port", cfg.Port), zap.Bool("recipe_card_scanning", h.ScanningEnabled()))
	if err := app.Listen(":" + cfg.Port); err != nil {
		zlog.Error("Server stopped", zap.Error(err))
	}
}

// initRecipeCards sets up storage and OCR for recipe card scanning.
// Storage settings saved by an admin win over the environment. A nil
// service disables the scan routes.
func initRecipeCards(db *database.DB, cfg *config.Config, zlog *zap.Logger) (*services.RecipeCardService, func()) {
	noop := func() {}
	ctx := context.Background()

	storageCfg, err := db.GetStorageConfig(ctx, services.DeriveEncryptionKey(cfg.JWTSecret))
	if err != nil {
		zlog.Warn("Failed to load storage settings", zap.Error(err))
		storageCfg = &database.StorageConfig{}
	}

	if !storageCfg.Configured() {
		if !cfg.StorageConfigured() {
			zlog.Info("Object storage not configured, recipe card scanning disabled")
			return nil, noop
		}
		storageCfg = &database.StorageConfig{
			Enabled:   true,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		}
	}

	storage, err := services.NewStorageService(services.StorageOptions{
		Endpoint:  storageCfg.Endpoint,
		AccessKey: storageCfg.AccessKey,
		SecretKey: storageCfg.SecretKey,
		Bucket:    storageCfg.Bucket,
		Region:    storageCfg.Region,
		UseSSL:    storageCfg.UseSSL,
	})
	if err != nil {
		zlog.Warn("Failed to initialize storage service", zap.Error(err))
		return nil, noop
	}

	// Ensure bucket exists
	if err := storage.EnsureBucket(ctx); err != nil {
		zlog.Warn("Failed to ensure S3 bucket exists", zap.Error(err))
	}

	ocr, err := services.NewOCRService(cfg.OCRLanguage)
	if err != nil {
		zlog.Warn("Failed to initialize OCR service", zap.Error(err))
		return nil, noop
	}

	zlog.Info("Recipe card scanning initialized",
		zap.String("bucket", storage.GetBucketName()),
		zap.String("ocr_language", cfg.OCRLanguage))

	return services.NewRecipeCardService(storage, ocr, cfg.MaxUploadBytes(), zlog), func() {
		if err := ocr.Close(); err != nil {
			zlog.Warn("Failed to close OCR service", zap.Error(err))
		}
	}
}
