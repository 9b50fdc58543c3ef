package service

import (
	"context"
	"errors"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedUser struct {
	Email    string
	Password string
	Name     string
	Role     model.Role
}

type seedProduct struct {
	Name     string
	Category string
	Unit     model.UnitType
	Opening  int64
}

type seedMovement struct {
	Product  string
	Type     model.MovementType
	Quantity int64
}

var demoUsers = []seedUser{
	{"admin@freshcount.com", "admin123", "Admin User", model.RoleAdmin},
	{"staff@freshcount.com", "staff123", "Staff User", model.RoleStaff},
}

var demoCategories = []model.Category{
	{Name: "Flour", Description: "All types of flour and baking ingredients"},
	{Name: "Snacks", Description: "Packaged snacks and ready-to-eat items"},
	{Name: "Veg", Description: "Fresh vegetables"},
	{Name: "Fruits", Description: "Fresh fruits"},
	{Name: "Packing", Description: "Packaging materials and containers"},
	{Name: "Groceries", Description: "General grocery items"},
	{Name: "Others", Description: "Miscellaneous items"},
}

var demoProducts = []seedProduct{
	{"Wheat Flour", "Flour", model.UnitKg, 100},
	{"All Purpose Flour", "Flour", model.UnitKg, 50},
	{"Rice Flour", "Flour", model.UnitKg, 30},
	{"French Fries (Frozen)", "Snacks", model.UnitKg, 25},
	{"Potato Chips", "Snacks", model.UnitUnit, 50},
	{"Tomato", "Veg", model.UnitKg, 40},
	{"Onion", "Veg", model.UnitKg, 50},
	{"Potato", "Veg", model.UnitKg, 60},
	{"Carrot", "Veg", model.UnitKg, 20},
	{"Apple", "Fruits", model.UnitKg, 30},
	{"Banana", "Fruits", model.UnitKg, 25},
	{"Orange", "Fruits", model.UnitKg, 35},
	{"Plastic Containers", "Packing", model.UnitUnit, 200},
	{"Food Wrap", "Packing", model.UnitUnit, 15},
	{"Paper Bags", "Packing", model.UnitUnit, 500},
	{"Cooking Oil", "Groceries", model.UnitLitre, 50},
	{"Salt", "Groceries", model.UnitKg, 20},
	{"Sugar", "Groceries", model.UnitKg, 40},
	{"Napkins", "Others", model.UnitUnit, 100},
	{"Cleaning Supplies", "Others", model.UnitUnit, 30},
}

var demoMovements = []seedMovement{
	{"Wheat Flour", model.MovementIn, 20},
	{"Tomato", model.MovementIn, 10},
	{"Onion", model.MovementOut, 5},
	{"Cooking Oil", model.MovementIn, 15},
	{"Apple", model.MovementOut, 3},
}

// SeedReport counts what a seed run created.
type SeedReport struct {
	Users      int `json:"users"`
	Categories int `json:"categories"`
	Products   int `json:"products"`
	Movements  int `json:"movements"`
}

// Seeder loads demo data and bootstraps the first admin. Every step skips
// rows that already exist, so it is safe to run repeatedly.
type Seeder struct {
	userRepo     repository.UserRepository
	categoryRepo repository.CategoryRepository
	productRepo  repository.ProductRepository
	stock        StockService
	log          *zap.Logger
}

func NewSeeder(
	userRepo repository.UserRepository,
	cRepo repository.CategoryRepository,
	pRepo repository.ProductRepository,
	stock StockService,
	log *zap.Logger,
) *Seeder {
	return &Seeder{
		userRepo:     userRepo,
		categoryRepo: cRepo,
		productRepo:  pRepo,
		stock:        stock,
		log:          log.Named("seed"),
	}
}

// EnsureAdmin creates an admin with the given credentials unless the email is taken.
func (s *Seeder) EnsureAdmin(ctx context.Context, email, password, name string) (bool, error) {
	return s.ensureUser(ctx, seedUser{Email: normalizeEmail(email), Password: password, Name: name, Role: model.RoleAdmin})
}

func (s *Seeder) ensureUser(ctx context.Context, u seedUser) (bool, error) {
	if u.Email == "" || len(u.Password) < 6 {
		return false, apperror.Validation("Admin email and a password of at least 6 characters are required")
	}
	_, err := s.userRepo.FindByEmail(ctx, u.Email)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, apperror.FromDB(err, "")
	}

	user := &model.User{Email: u.Email, Name: u.Name, Role: u.Role}
	user.CreatedBy = SystemActor.ID
	user.UpdatedBy = SystemActor.ID
	if err := user.SetPassword(u.Password); err != nil {
		return false, apperror.Internal(err)
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, userWriteError(err)
	}
	s.log.Info("user created", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	return true, nil
}

// SeedDemo loads the demo users, categories, products and a few movements.
// Movements are only recorded for products created in this run.
func (s *Seeder) SeedDemo(ctx context.Context) (*SeedReport, error) {
	report := &SeedReport{}

	for _, u := range demoUsers {
		created, err := s.ensureUser(ctx, u)
		if err != nil {
			return report, err
		}
		if created {
			report.Users++
		}
	}

	categories := make(map[string]model.Category, len(demoCategories))
	for _, c := range demoCategories {
		existing, err := s.categoryRepo.FindByName(ctx, c.Name)
		if err == nil {
			categories[c.Name] = *existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return report, apperror.FromDB(err, "")
		}
		category := c
		category.CreatedBy = SystemActor.ID
		category.UpdatedBy = SystemActor.ID
		if err := s.categoryRepo.Create(ctx, &category); err != nil {
			return report, categoryWriteError(err)
		}
		categories[c.Name] = category
		report.Categories++
	}

	created := make(map[string]*model.Product)
	for _, p := range demoProducts {
		category := categories[p.Category]
		existing, err := s.productRepo.FindAll(ctx, &category.ID)
		if err != nil {
			return report, apperror.FromDB(err, "")
		}
		if containsProduct(existing, p.Name) {
			continue
		}
		product := &model.Product{
			Name:         p.Name,
			CategoryID:   category.ID,
			UnitType:     p.Unit,
			OpeningStock: decimal.NewFromInt(p.Opening),
			CurrentStock: decimal.NewFromInt(p.Opening),
		}
		product.CreatedBy = SystemActor.ID
		product.UpdatedBy = SystemActor.ID
		if err := s.productRepo.Create(ctx, product); err != nil {
			return report, apperror.FromDB(err, "")
		}
		created[p.Name] = product
		report.Products++
	}

	actor := SystemActor
	actor.Label = "seed"
	for _, m := range demoMovements {
		product, ok := created[m.Product]
		if !ok {
			continue
		}
		qty := decimal.NewFromInt(m.Quantity)
		_, err := s.stock.RecordMovement(ctx, &RecordMovementRequest{
			ProductID: product.ID.String(),
			Type:      m.Type,
			Quantity:  &qty,
			Notes:     "Sample stock movement",
		}, actor)
		if err != nil {
			return report, err
		}
		report.Movements++
	}

	s.log.Info("seed finished",
		zap.Int("users", report.Users),
		zap.Int("categories", report.Categories),
		zap.Int("products", report.Products),
		zap.Int("movements", report.Movements),
	)
	return report, nil
}

func containsProduct(products []model.Product, name string) bool {
	for _, p := range products {
		if p.Name == name {
			return true
		}
	}
	return false
}
