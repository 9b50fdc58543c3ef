package handler

import (
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/jwt"
	"go-inventory-ledger/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"gorm.io/gorm"
)

// Deps is everything the HTTP surface needs. Hub and Metrics may be nil,
// which leaves /ws and /metrics unregistered.
type Deps struct {
	AppName          string
	DB               *gorm.DB
	UserRepo         repository.UserRepository
	Tokens           *jwt.Manager
	Auth             service.AuthService
	Users            service.UserService
	Categories       service.CategoryService
	Products         service.ProductService
	Stock            service.StockService
	Dashboard        service.DashboardService
	Hub              *ws.Hub
	Metrics          *metrics.Metrics
	RegistrationOpen bool
}

func SetupRoutes(app *fiber.App, d Deps) {
	authHandler := NewAuthHandler(d.Auth)
	userHandler := NewUserHandler(d.Users)
	categoryHandler := NewCategoryHandler(d.Categories)
	productHandler := NewProductHandler(d.Products, d.Stock)
	stockHandler := NewStockHandler(d.Stock)
	dashHandler := NewDashboardHandler(d.Dashboard)
	healthHandler := NewHealthHandler(d.DB, d.AppName)

	requireAuth := middleware.RequireAuth(d.UserRepo, d.Tokens)
	can := middleware.RequirePrivilege

	if d.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))
	}

	api := app.Group("/api")
	api.Get("/health", healthHandler.Check)

	// ============ AUTH ============
	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	if d.RegistrationOpen {
		auth.Post("/register", authHandler.Register)
	} else {
		auth.Post("/register", requireAuth, can(model.PrivUserCreate), authHandler.Register)
	}

	auth.Get("/users", requireAuth, can(model.PrivUserManage), userHandler.GetUsers)
	auth.Put("/users/:id/role", requireAuth, can(model.PrivUserManage), userHandler.UpdateRole)
	auth.Delete("/users/:id", requireAuth, can(model.PrivUserManage), userHandler.DeleteUser)

	auth.Get("/profile", requireAuth, authHandler.GetProfile)
	auth.Put("/profile", requireAuth, authHandler.UpdateProfile)
	auth.Put("/profile/password", requireAuth, authHandler.ChangePassword)

	// ============ PROTECTED ROUTES ============
	// one group per resource so unknown /api paths still 404
	categories := api.Group("/categories", requireAuth)
	categories.Get("/", can(model.PrivCategoryView), categoryHandler.GetCategories)
	categories.Get("/:id", can(model.PrivCategoryView), categoryHandler.GetCategory)
	categories.Post("/", can(model.PrivCategoryWrite), categoryHandler.CreateCategory)
	categories.Put("/:id", can(model.PrivCategoryWrite), categoryHandler.UpdateCategory)
	categories.Delete("/:id", can(model.PrivCategoryWrite), categoryHandler.DeleteCategory)

	products := api.Group("/products", requireAuth)
	products.Get("/", can(model.PrivProductView), productHandler.GetProducts)
	products.Get("/:id", can(model.PrivProductView), productHandler.GetProduct)
	products.Get("/:id/closing-stock", can(model.PrivProductView), productHandler.GetClosingStock)
	products.Post("/", can(model.PrivProductWrite), productHandler.CreateProduct)
	products.Put("/:id", can(model.PrivProductWrite), productHandler.UpdateProduct)
	products.Delete("/:id", can(model.PrivProductWrite), productHandler.DeleteProduct)

	// static segments before /stock/:id
	stock := api.Group("/stock", requireAuth)
	stock.Get("/", can(model.PrivStockView), stockHandler.GetMovements)
	stock.Get("/summary", can(model.PrivStockView), stockHandler.GetSummary)
	stock.Get("/trend", can(model.PrivDashboardView), dashHandler.GetTrend)
	stock.Get("/:id", can(model.PrivStockView), stockHandler.GetMovement)
	stock.Post("/", can(model.PrivStockRecord), stockHandler.CreateMovement)
	stock.Delete("/:id", can(model.PrivStockDelete), stockHandler.DeleteMovement)

	// ============ LEDGER FEED ============
	if d.Hub != nil {
		app.Get("/ws", RequireUpgrade, requireAuth, can(model.PrivLedgerFeedView), LedgerFeed(d.Hub))
	}
}
