package repository

import (
	"context"
	"errors"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrStaleStock means the product's stock changed between read and write.
var ErrStaleStock = errors.New("product stock was modified concurrently")

type ProductRepository interface {
	WithTx(tx *gorm.DB) ProductRepository
	Create(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, categoryID *uuid.UUID) ([]model.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateStock(ctx context.Context, product *model.Product, newStock decimal.Decimal, updatedBy string) error
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type productRepo struct {
	db *gorm.DB
}

func NewProductRepo(db *gorm.DB) ProductRepository {
	return &productRepo{db}
}

func (r *productRepo) WithTx(tx *gorm.DB) ProductRepository {
	return &productRepo{tx}
}

func (r *productRepo) Create(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepo) FindAll(ctx context.Context, categoryID *uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	query := r.db.WithContext(ctx).Order("name ASC")
	if categoryID != nil {
		query = query.Where("category_id = ?", *categoryID)
	}
	err := query.Find(&products).Error
	return products, err
}

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForUpdate locks the row until the surrounding transaction ends.
func (r *productRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	query := r.db.WithContext(ctx)
	// sqlite has no row locks; its single writer already serializes transactions
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Update writes descriptive fields only; stock columns belong to UpdateStock.
func (r *productRepo) Update(ctx context.Context, product *model.Product) error {
	return r.db.WithContext(ctx).Model(product).
		Select("name", "category_id", "unit_type", "updated_at", "updated_by").
		Updates(product).Error
}

// UpdateStock writes a new balance if the product still carries the version the
// caller read, then bumps the version. On success product reflects the new state.
func (r *productRepo) UpdateStock(ctx context.Context, product *model.Product, newStock decimal.Decimal, updatedBy string) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND stock_version = ?", product.ID, product.StockVersion).
		Updates(map[string]interface{}{
			"opening_stock": product.OpeningStock,
			"current_stock": newStock,
			"stock_version": product.StockVersion + 1,
			"last_updated":  now,
			"updated_by":    updatedBy,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return ErrStaleStock
	}
	product.CurrentStock = newStock
	product.StockVersion++
	product.LastUpdated = &now
	product.UpdatedBy = updatedBy
	return nil
}

func (r *productRepo) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Product{}).Where("category_id = ?", categoryID).Count(&count).Error
	return count, err
}

func (r *productRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Product{}, "id = ?", id).Error
}
