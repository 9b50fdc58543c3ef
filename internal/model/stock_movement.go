package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// Valid reports whether t is IN or OUT.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// Signed returns the balance effect of qty for this movement type.
func (t MovementType) Signed(qty decimal.Decimal) decimal.Decimal {
	if t == MovementOut {
		return qty.Neg()
	}
	return qty
}

// StockMovement is an immutable ledger entry. UnitType is a snapshot of the
// product's unit at the time the movement was recorded.
type StockMovement struct {
	BaseModel
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	Product       *Product        `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
	Type          MovementType    `gorm:"type:varchar(10);not null;index" json:"type"`
	Quantity      decimal.Decimal `gorm:"type:numeric(20,4);not null" json:"quantity"`
	UnitType      UnitType        `gorm:"type:varchar(10)" json:"unitType"`
	Notes         string          `gorm:"type:text" json:"notes"`
	CreatedByName string          `gorm:"type:varchar(255)" json:"createdByName"`
}
