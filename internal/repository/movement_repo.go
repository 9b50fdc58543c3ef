package repository

import (
	"context"
	"time"

	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MovementFilter narrows a ledger listing. Zero values mean "any".
type MovementFilter struct {
	ProductID *uuid.UUID
	Type      model.MovementType
	From      *time.Time
	To        *time.Time
}

// DailyMovement is one row of the stock movement chart.
type DailyMovement struct {
	Date     string          `json:"date"`
	Inbound  decimal.Decimal `json:"inbound"`
	Outbound decimal.Decimal `json:"outbound"`
}

type MovementRepository interface {
	WithTx(tx *gorm.DB) MovementRepository
	Create(ctx context.Context, movement *model.StockMovement) error
	FindAll(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	FindForUpdate(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	FindByProductAsc(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error)
	ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DailyTotals(ctx context.Context, from, to time.Time) ([]DailyMovement, error)
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) WithTx(tx *gorm.DB) MovementRepository {
	return &movementRepo{tx}
}

func (r *movementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	return r.db.WithContext(ctx).Omit("Product").Create(movement).Error
}

func (r *movementRepo) FindAll(ctx context.Context, filter MovementFilter) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	err := query.Find(&movements).Error
	return movements, err
}

func (r *movementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	if err := r.db.WithContext(ctx).First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *movementRepo) FindByProductAsc(ctx context.Context, productID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}

func (r *movementRepo) ExistsForProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Where("product_id = ?", productID).
		Limit(1).
		Pluck("id", &ids).Error
	return len(ids) > 0, err
}

// FindForUpdate locks the movement row until the surrounding transaction ends.
func (r *movementRepo) FindForUpdate(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// Delete removes the movement. A row that is already gone is reported as
// gorm.ErrRecordNotFound so a reversal in the same transaction rolls back.
func (r *movementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&model.StockMovement{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DailyTotals aggregates IN and OUT quantities per calendar day.
func (r *movementRepo) DailyTotals(ctx context.Context, from, to time.Time) ([]DailyMovement, error) {
	rows, err := r.db.WithContext(ctx).Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'IN' THEN quantity ELSE 0 END), 0) as inbound,
			COALESCE(SUM(CASE WHEN type = 'OUT' THEN quantity ELSE 0 END), 0) as outbound
		`).
		Where("created_at BETWEEN ? AND ?", from, to).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []DailyMovement
	for rows.Next() {
		var data DailyMovement
		if err := rows.Scan(&data.Date, &data.Inbound, &data.Outbound); err != nil {
			return nil, err
		}
		// postgres returns a timestamp, sqlite a plain date string
		if len(data.Date) > 10 {
			data.Date = data.Date[:10]
		}
		results = append(results, data)
	}
	return results, rows.Err()
}
