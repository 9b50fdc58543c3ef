package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/logger"
	"go-inventory-ledger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.Connect(cfg.DB, zlog)
	if err != nil {
		zlog.Fatal("database connection failed", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	// 3. Optional summary cache
	summaryCache := cache.New(nil, cfg.SummaryCacheTTL)
	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			zlog.Warn("redis unavailable, summary cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer client.Close()
			summaryCache = cache.New(client, cfg.SummaryCacheTTL)
			zlog.Info("summary cache enabled", zap.String("addr", cfg.RedisAddr))
		}
	}

	// 4. Setup WebSocket Hub
	m := metrics.New(cfg.MetricsNamespace)
	hub := ws.NewHub(zlog)
	go hub.Run(ctx)

	// 5. Dependency Injection (Wiring Layers)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer)
	userRepo := repository.NewUserRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	productRepo := repository.NewProductRepo(db)
	movementRepo := repository.NewMovementRepo(db)

	stockService := service.NewStockService(db, productRepo, movementRepo, hub, summaryCache, m, zlog)
	deps := handler.Deps{
		AppName:          cfg.AppName,
		DB:               db,
		UserRepo:         userRepo,
		Tokens:           tokens,
		Auth:             service.NewAuthService(userRepo, tokens, zlog),
		Users:            service.NewUserService(userRepo, zlog),
		Categories:       service.NewCategoryService(db, categoryRepo, productRepo, summaryCache, zlog),
		Products:         service.NewProductService(db, productRepo, categoryRepo, movementRepo, summaryCache, zlog),
		Stock:            stockService,
		Dashboard:        service.NewDashboardService(movementRepo),
		Hub:              hub,
		Metrics:          m,
		RegistrationOpen: cfg.RegistrationOpen,
	}

	if cfg.SeedAdminEmail != "" && cfg.SeedAdminPassword != "" {
		seeder := service.NewSeeder(userRepo, categoryRepo, productRepo, stockService, zlog)
		created, err := seeder.EnsureAdmin(ctx, cfg.SeedAdminEmail, cfg.SeedAdminPassword, "Administrator")
		if err != nil {
			zlog.Error("failed to seed admin", zap.Error(err))
		} else if created {
			zlog.Info("admin user created", zap.String("email", cfg.SeedAdminEmail))
		}
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ErrorHandler: handler.ErrorHandler(zlog),
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.RequestLogger(zlog))
	app.Use(m.Middleware())

	// 7. Routes
	handler.SetupRoutes(app, deps)

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("server stopped", zap.Error(err))
			stop()
		}
	}()
	zlog.Info("server started", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))

	<-ctx.Done()
	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("server exited")
}
