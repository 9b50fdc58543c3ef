package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/metrics"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StockService interface {
	RecordMovement(ctx context.Context, req *RecordMovementRequest, actor Actor) (*MovementResult, error)
	DeleteMovement(ctx context.Context, id uuid.UUID, actor Actor) (*DeleteMovementResult, error)
	ListMovements(ctx context.Context, query MovementQuery) ([]model.StockMovement, error)
	GetMovement(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	ClosingStock(ctx context.Context, productID uuid.UUID) (*ClosingStock, error)
	Summary(ctx context.Context) (*StockSummary, error)
}

type RecordMovementRequest struct {
	ProductID string             `json:"productId" validate:"required,uuid"`
	Type      model.MovementType `json:"type" validate:"required,oneof=IN OUT"`
	Quantity  *decimal.Decimal   `json:"quantity" validate:"required"`
	Notes     string             `json:"notes" validate:"max=1000"`
}

// MovementQuery holds raw list filters. Dates are RFC3339 or YYYY-MM-DD.
type MovementQuery struct {
	ProductID string
	Type      string
	StartDate string
	EndDate   string
}

type MovementResult struct {
	Movement     *model.StockMovement `json:"movement"`
	CurrentStock decimal.Decimal      `json:"currentStock"`
}

type DeleteMovementResult struct {
	Movement *model.StockMovement `json:"movement"`
	// CurrentStock is nil when the product no longer exists and nothing was reversed.
	CurrentStock *decimal.Decimal `json:"currentStock"`
}

type ClosingStock struct {
	ProductID    uuid.UUID       `json:"productId"`
	ProductName  string          `json:"productName"`
	UnitType     model.UnitType  `json:"unitType"`
	OpeningStock decimal.Decimal `json:"openingStock"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	ClosingStock decimal.Decimal `json:"closingStock"`
	TotalIn      decimal.Decimal `json:"totalIn"`
	TotalOut     decimal.Decimal `json:"totalOut"`
	InSync       bool            `json:"inSync"`
}

type SummaryItem struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	CategoryID   uuid.UUID       `json:"categoryId"`
	CurrentStock decimal.Decimal `json:"currentStock"`
	OpeningStock decimal.Decimal `json:"openingStock"`
}

type StockSummary struct {
	TotalProducts      int           `json:"totalProducts"`
	LowStockProducts   []SummaryItem `json:"lowStockProducts"`
	OutOfStockProducts []SummaryItem `json:"outOfStockProducts"`
}

var lowStockRatio = decimal.NewFromFloat(0.2)

type stockService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	movementRepo repository.MovementRepository
	publisher    Publisher
	cache        *cache.Cache
	metrics      *metrics.Metrics
	log          *zap.Logger
}

// NewStockService wires the ledger. publisher, summaryCache and m may be nil.
func NewStockService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	mRepo repository.MovementRepository,
	publisher Publisher,
	summaryCache *cache.Cache,
	m *metrics.Metrics,
	log *zap.Logger,
) StockService {
	if publisher == nil {
		publisher = noopPublisher{}
	}
	return &stockService{
		db:           db,
		productRepo:  pRepo,
		movementRepo: mRepo,
		publisher:    publisher,
		cache:        summaryCache,
		metrics:      m,
		log:          log.Named("stock"),
	}
}

func (s *stockService) RecordMovement(ctx context.Context, req *RecordMovementRequest, actor Actor) (*MovementResult, error) {
	// 1. Validate input
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperror.Validation("Invalid product ID")
	}
	quantity := *req.Quantity
	if !quantity.IsPositive() {
		return nil, apperror.Validation("Quantity must be greater than 0")
	}

	// 2. Staff may only add stock
	if actor.Role == model.RoleStaff && req.Type == model.MovementOut {
		return nil, apperror.Forbidden("Staff can only add stock (IN). Contact admin for stock removal.")
	}

	var (
		movement *model.StockMovement
		product  *model.Product
	)
	// 3. Movement and balance commit together
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		p, err := products.FindForUpdate(ctx, productID)
		if err != nil {
			return apperror.FromDB(err, "Product not found")
		}

		if req.Type == model.MovementOut && p.CurrentStock.LessThan(quantity) {
			return apperror.InsufficientStock(p.CurrentStock)
		}

		m := &model.StockMovement{
			ProductID:     p.ID,
			Type:          req.Type,
			Quantity:      quantity,
			UnitType:      p.UnitType,
			Notes:         strings.TrimSpace(req.Notes),
			CreatedByName: actor.Label,
		}
		m.CreatedBy = actor.ID
		m.UpdatedBy = actor.ID
		if err := s.movementRepo.WithTx(tx).Create(ctx, m); err != nil {
			return apperror.FromDB(err, "Product not found")
		}

		newStock := p.CurrentStock.Add(req.Type.Signed(quantity))
		if err := products.UpdateStock(ctx, p, newStock, actor.ID); err != nil {
			return stockWriteError(err)
		}

		movement, product = m, p
		return nil
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Product not found")
	}

	s.afterLedgerWrite(ctx, ws.ActionMovementRecorded, movement, product, actor)

	return &MovementResult{Movement: movement, CurrentStock: product.CurrentStock}, nil
}

func (s *stockService) DeleteMovement(ctx context.Context, id uuid.UUID, actor Actor) (*DeleteMovementResult, error) {
	var (
		movement *model.StockMovement
		product  *model.Product
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		movements := s.movementRepo.WithTx(tx)
		// lock the entry first so a concurrent delete of it waits and then finds nothing
		m, err := movements.FindForUpdate(ctx, id)
		if err != nil {
			return apperror.FromDB(err, "Stock movement not found")
		}

		products := s.productRepo.WithTx(tx)
		p, err := products.FindForUpdate(ctx, m.ProductID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			// product already gone: drop the entry without a reversal
			p = nil
		case err != nil:
			return apperror.FromDB(err, "Product not found")
		default:
			reversed := p.CurrentStock.Sub(m.Type.Signed(m.Quantity))
			if reversed.IsNegative() {
				return apperror.InsufficientStock(p.CurrentStock).
					WithDetail("reason", "reversing this movement would make stock negative")
			}
			if err := products.UpdateStock(ctx, p, reversed, actor.ID); err != nil {
				return stockWriteError(err)
			}
		}

		if err := movements.Delete(ctx, m.ID); err != nil {
			return apperror.FromDB(err, "Stock movement not found")
		}
		movement, product = m, p
		return nil
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Stock movement not found")
	}

	s.afterLedgerWrite(ctx, ws.ActionMovementDeleted, movement, product, actor)

	result := &DeleteMovementResult{Movement: movement}
	if product != nil {
		result.CurrentStock = &product.CurrentStock
	}
	return result, nil
}

// afterLedgerWrite runs once the transaction has committed.
func (s *stockService) afterLedgerWrite(ctx context.Context, action string, m *model.StockMovement, p *model.Product, actor Actor) {
	if err := s.cache.Invalidate(ctx, cache.SummaryKey); err != nil {
		s.log.Warn("failed to invalidate summary cache", zap.Error(err))
	}

	verb := "recorded"
	if action == ws.ActionMovementDeleted {
		verb = "deleted"
	}
	s.metrics.MovementApplied(string(m.Type), verb)

	event := ws.Event{
		Action:       action,
		MovementID:   m.ID,
		MovementType: string(m.Type),
		Quantity:     m.Quantity,
		ProductID:    m.ProductID,
		User:         ws.EventUser{ID: actor.ID, Name: actor.Label},
	}
	if p != nil {
		event.ProductName = p.Name
		event.CurrentStock = p.CurrentStock
	}
	event.Message = fmt.Sprintf("%s %s %s %s %s of '%s'", actor.Label, verb, m.Type, m.Quantity, m.UnitType, event.ProductName)
	s.publisher.Publish(event)

	s.log.Info("ledger updated",
		zap.String("action", action),
		zap.String("movement_id", m.ID.String()),
		zap.String("product_id", m.ProductID.String()),
		zap.String("type", string(m.Type)),
		zap.String("quantity", m.Quantity.String()),
		zap.String("current_stock", event.CurrentStock.String()),
		zap.String("actor", actor.ID),
	)
}

func (s *stockService) ListMovements(ctx context.Context, query MovementQuery) ([]model.StockMovement, error) {
	var filter repository.MovementFilter

	if query.ProductID != "" {
		id, err := uuid.Parse(query.ProductID)
		if err != nil {
			return nil, apperror.Validation("Invalid product ID")
		}
		filter.ProductID = &id
	}
	// unknown types are ignored rather than rejected
	if t := model.MovementType(query.Type); t.Valid() {
		filter.Type = t
	}
	if query.StartDate != "" {
		from, _, err := parseDate(query.StartDate)
		if err != nil {
			return nil, apperror.Validation("Invalid startDate: %s", query.StartDate)
		}
		filter.From = &from
	}
	if query.EndDate != "" {
		to, dateOnly, err := parseDate(query.EndDate)
		if err != nil {
			return nil, apperror.Validation("Invalid endDate: %s", query.EndDate)
		}
		if dateOnly {
			to = to.Add(24*time.Hour - time.Nanosecond)
		}
		filter.To = &to
	}

	movements, err := s.movementRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	if movements == nil {
		movements = []model.StockMovement{}
	}
	return movements, nil
}

// parseDate accepts RFC3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(value string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, false, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	return t, true, err
}

func (s *stockService) GetMovement(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	m, err := s.movementRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Stock movement not found")
	}
	return m, nil
}

// ClosingStock replays the product's ledger and compares it with the stored
// balance. Divergence is reported, not repaired.
func (s *stockService) ClosingStock(ctx context.Context, productID uuid.UUID) (*ClosingStock, error) {
	p, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, apperror.FromDB(err, "Product not found")
	}
	movements, err := s.movementRepo.FindByProductAsc(ctx, productID)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}

	totalIn, totalOut := decimal.Zero, decimal.Zero
	for _, m := range movements {
		switch m.Type {
		case model.MovementIn:
			totalIn = totalIn.Add(m.Quantity)
		case model.MovementOut:
			totalOut = totalOut.Add(m.Quantity)
		}
	}
	closing := p.OpeningStock.Add(totalIn).Sub(totalOut)

	result := &ClosingStock{
		ProductID:    p.ID,
		ProductName:  p.Name,
		UnitType:     p.UnitType,
		OpeningStock: p.OpeningStock,
		CurrentStock: p.CurrentStock,
		ClosingStock: closing,
		TotalIn:      totalIn,
		TotalOut:     totalOut,
		InSync:       closing.Equal(p.CurrentStock),
	}
	if !result.InSync {
		s.log.Warn("stored stock diverges from ledger",
			zap.String("product_id", p.ID.String()),
			zap.String("current_stock", p.CurrentStock.String()),
			zap.String("closing_stock", closing.String()),
		)
	}
	return result, nil
}

func (s *stockService) Summary(ctx context.Context) (*StockSummary, error) {
	var summary StockSummary
	err := s.cache.FetchJSON(ctx, cache.SummaryKey, &summary, func(ctx context.Context) (interface{}, error) {
		return s.computeSummary(ctx)
	})
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	return &summary, nil
}

func (s *stockService) computeSummary(ctx context.Context) (*StockSummary, error) {
	products, err := s.productRepo.FindAll(ctx, nil)
	if err != nil {
		return nil, err
	}

	summary := &StockSummary{
		TotalProducts:      len(products),
		LowStockProducts:   []SummaryItem{},
		OutOfStockProducts: []SummaryItem{},
	}
	for _, p := range products {
		item := SummaryItem{
			ID:           p.ID,
			Name:         p.Name,
			CategoryID:   p.CategoryID,
			CurrentStock: p.CurrentStock,
			OpeningStock: p.OpeningStock,
		}
		if p.CurrentStock.IsZero() {
			summary.OutOfStockProducts = append(summary.OutOfStockProducts, item)
		} else if p.CurrentStock.LessThan(p.OpeningStock.Mul(lowStockRatio)) {
			summary.LowStockProducts = append(summary.LowStockProducts, item)
		}
	}
	return summary, nil
}
