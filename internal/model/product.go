package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitType is the unit of measure a product is counted in.
type UnitType string

const (
	UnitKg    UnitType = "kg"
	UnitGram  UnitType = "gram"
	UnitLitre UnitType = "litre"
	UnitMl    UnitType = "ml"
	UnitUnit  UnitType = "unit"
	UnitPiece UnitType = "piece"
)

// UnitTypes lists the accepted units in display order.
var UnitTypes = []UnitType{UnitKg, UnitGram, UnitLitre, UnitMl, UnitUnit, UnitPiece}

// Valid reports whether u is one of UnitTypes.
func (u UnitType) Valid() bool {
	for _, t := range UnitTypes {
		if t == u {
			return true
		}
	}
	return false
}

// Product carries the opening balance and the running stock balance.
// CurrentStock is only written by the stock ledger, guarded by StockVersion.
type Product struct {
	BaseModel
	Name         string          `gorm:"type:varchar(255);not null;index" json:"name"`
	CategoryID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"categoryId"`
	Category     *Category       `gorm:"constraint:OnDelete:RESTRICT;" json:"category,omitempty"`
	UnitType     UnitType        `gorm:"type:varchar(10);not null" json:"unitType"`
	OpeningStock decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"openingStock"`
	CurrentStock decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0" json:"currentStock"`
	StockVersion int64           `gorm:"not null;default:0" json:"-"`
	LastUpdated  *time.Time      `json:"lastUpdated,omitempty"`
}
