package service

import (
	"context"
	"strings"

	"go-inventory-ledger/internal/cache"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/pkg/apperror"
	"go-inventory-ledger/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductService interface {
	List(ctx context.Context, categoryID string) ([]model.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Create(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CreateProductRequest struct {
	Name         string           `json:"name" validate:"required,max=255"`
	CategoryID   string           `json:"categoryId" validate:"required,uuid"`
	UnitType     model.UnitType   `json:"unitType" validate:"required"`
	OpeningStock *decimal.Decimal `json:"openingStock" validate:"required"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,max=255"`
	CategoryID   *string          `json:"categoryId" validate:"omitempty,uuid"`
	UnitType     *model.UnitType  `json:"unitType"`
	OpeningStock *decimal.Decimal `json:"openingStock"`
}

type productService struct {
	db           *gorm.DB
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	movementRepo repository.MovementRepository
	cache        *cache.Cache
	log          *zap.Logger
}

func NewProductService(
	db *gorm.DB,
	pRepo repository.ProductRepository,
	cRepo repository.CategoryRepository,
	mRepo repository.MovementRepository,
	summaryCache *cache.Cache,
	log *zap.Logger,
) ProductService {
	return &productService{
		db:           db,
		productRepo:  pRepo,
		categoryRepo: cRepo,
		movementRepo: mRepo,
		cache:        summaryCache,
		log:          log.Named("product"),
	}
}

func (s *productService) List(ctx context.Context, categoryID string) ([]model.Product, error) {
	var filter *uuid.UUID
	if categoryID != "" {
		id, err := uuid.Parse(categoryID)
		if err != nil {
			return nil, apperror.Validation("Invalid category ID")
		}
		filter = &id
	}
	products, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, apperror.FromDB(err, "")
	}
	if products == nil {
		products = []model.Product{}
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.FromDB(err, "Product not found")
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, req *CreateProductRequest, actor Actor) (*model.Product, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if err := validateUnit(req.UnitType); err != nil {
		return nil, err
	}
	if req.OpeningStock.IsNegative() {
		return nil, apperror.Validation("Opening stock cannot be negative")
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		return nil, apperror.Validation("Invalid category ID")
	}
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, apperror.FromDB(err, "Category not found")
	}

	product := &model.Product{
		Name:         req.Name,
		CategoryID:   categoryID,
		UnitType:     req.UnitType,
		OpeningStock: *req.OpeningStock,
		CurrentStock: *req.OpeningStock,
	}
	product.CreatedBy = actor.ID
	product.UpdatedBy = actor.ID
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, apperror.FromDB(err, "Category not found")
	}

	s.invalidateSummary(ctx)
	return product, nil
}

// Update changes descriptive fields. A new opening stock moves the current
// balance by the same delta so the ledger still adds up.
func (s *productService) Update(ctx context.Context, id uuid.UUID, req *UpdateProductRequest, actor Actor) (*model.Product, error) {
	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	if req.UnitType != nil {
		if err := validateUnit(*req.UnitType); err != nil {
			return nil, err
		}
	}
	if req.OpeningStock != nil && req.OpeningStock.IsNegative() {
		return nil, apperror.Validation("Opening stock cannot be negative")
	}

	var updated *model.Product
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		product, err := products.FindForUpdate(ctx, id)
		if err != nil {
			return apperror.FromDB(err, "Product not found")
		}

		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return apperror.Validation("Product name cannot be empty")
			}
			product.Name = name
		}
		if req.CategoryID != nil {
			categoryID, err := uuid.Parse(*req.CategoryID)
			if err != nil {
				return apperror.Validation("Invalid category ID")
			}
			if _, err := s.categoryRepo.WithTx(tx).FindByID(ctx, categoryID); err != nil {
				return apperror.FromDB(err, "Category not found")
			}
			product.CategoryID = categoryID
		}
		if req.UnitType != nil {
			product.UnitType = *req.UnitType
		}
		product.UpdatedBy = actor.ID

		if err := products.Update(ctx, product); err != nil {
			return apperror.FromDB(err, "Product not found")
		}

		if req.OpeningStock != nil && !req.OpeningStock.Equal(product.OpeningStock) {
			delta := req.OpeningStock.Sub(product.OpeningStock)
			rebased := product.CurrentStock.Add(delta)
			if rebased.IsNegative() {
				return apperror.InsufficientStock(product.CurrentStock).
					WithDetail("reason", "lowering opening stock would make current stock negative")
			}
			product.OpeningStock = *req.OpeningStock
			if err := products.UpdateStock(ctx, product, rebased, actor.ID); err != nil {
				return stockWriteError(err)
			}
			s.log.Info("opening stock rebased",
				zap.String("product_id", product.ID.String()),
				zap.String("delta", delta.String()),
				zap.String("current_stock", rebased.String()),
			)
		}

		updated = product
		return nil
	})
	if err != nil {
		return nil, apperror.FromDB(err, "Product not found")
	}

	s.invalidateSummary(ctx)
	return updated, nil
}

// Delete refuses while any movement references the product.
func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := s.productRepo.WithTx(tx)
		if _, err := products.FindForUpdate(ctx, id); err != nil {
			return apperror.FromDB(err, "Product not found")
		}

		exists, err := s.movementRepo.WithTx(tx).ExistsForProduct(ctx, id)
		if err != nil {
			return apperror.FromDB(err, "")
		}
		if exists {
			return apperror.Conflict("Cannot delete product with existing stock movements")
		}
		return apperror.FromDB(products.Delete(ctx, id), "")
	})
	if err != nil {
		return err
	}

	s.invalidateSummary(ctx)
	return nil
}

func (s *productService) invalidateSummary(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cache.SummaryKey); err != nil {
		s.log.Warn("failed to invalidate summary cache", zap.Error(err))
	}
}

func validateUnit(unit model.UnitType) error {
	if unit.Valid() {
		return nil
	}
	valid := make([]string, len(model.UnitTypes))
	for i, u := range model.UnitTypes {
		valid[i] = string(u)
	}
	return apperror.Validation("Invalid unit type. Valid types: %s", strings.Join(valid, ", ")).
		WithDetail("validUnits", valid)
}
