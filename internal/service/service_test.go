package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"
	"go-inventory-ledger/pkg/jwt"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	adminActor = Actor{ID: "admin-1", Role: model.RoleAdmin, Label: "admin@test.local"}
	staffActor = Actor{ID: "staff-1", Role: model.RoleStaff, Label: "staff@test.local"}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []ws.Event
}

func (p *recordingPublisher) Publish(e ws.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) all() []ws.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ws.Event(nil), p.events...)
}

type fixture struct {
	db         *gorm.DB
	users      repository.UserRepository
	categories repository.CategoryRepository
	products   repository.ProductRepository
	movements  repository.MovementRepository
	publisher  *recordingPublisher

	auth      AuthService
	user      UserService
	category  CategoryService
	product   ProductService
	stock     StockService
	dashboard DashboardService
	seeder    *Seeder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.ConnectSQLite(":memory:", database.TestConfig())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	log := zap.NewNop()
	f := &fixture{
		db:         db,
		users:      repository.NewUserRepo(db),
		categories: repository.NewCategoryRepo(db),
		products:   repository.NewProductRepo(db),
		movements:  repository.NewMovementRepo(db),
		publisher:  &recordingPublisher{},
	}
	f.auth = NewAuthService(f.users, jwt.NewManager("test-secret", time.Hour, "test"), log)
	f.user = NewUserService(f.users, log)
	f.category = NewCategoryService(db, f.categories, f.products, nil, log)
	f.product = NewProductService(db, f.products, f.categories, f.movements, nil, log)
	f.stock = NewStockService(db, f.products, f.movements, f.publisher, nil, nil, log)
	f.dashboard = NewDashboardService(f.movements)
	f.seeder = NewSeeder(f.users, f.categories, f.products, f.stock, log)
	return f
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func (f *fixture) createCategory(t *testing.T, name string) *model.Category {
	t.Helper()
	c, err := f.category.Create(context.Background(), &CategoryRequest{Name: name}, adminActor)
	require.NoError(t, err)
	return c
}

func (f *fixture) createProduct(t *testing.T, name, opening string) *model.Product {
	t.Helper()
	c := f.createCategory(t, "Cat "+name)
	p, err := f.product.Create(context.Background(), &CreateProductRequest{
		Name:         name,
		CategoryID:   c.ID.String(),
		UnitType:     model.UnitKg,
		OpeningStock: dec(opening),
	}, adminActor)
	require.NoError(t, err)
	return p
}

func (f *fixture) record(t *testing.T, p *model.Product, typ model.MovementType, qty string, actor Actor) *MovementResult {
	t.Helper()
	res, err := f.stock.RecordMovement(context.Background(), &RecordMovementRequest{
		ProductID: p.ID.String(),
		Type:      typ,
		Quantity:  dec(qty),
	}, actor)
	require.NoError(t, err)
	return res
}

func (f *fixture) currentStock(t *testing.T, p *model.Product) string {
	t.Helper()
	reloaded, err := f.products.FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return reloaded.CurrentStock.String()
}
