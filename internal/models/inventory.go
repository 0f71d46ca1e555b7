package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InventoryItem is a stocked article. Quantity only changes through stock movements.
type InventoryItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	SKU          *string         `json:"sku,omitempty" db:"sku"`
	Name         string          `json:"name" db:"name"`
	Description  *string         `json:"description,omitempty" db:"description"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Price        decimal.Decimal `json:"price" db:"price"`
	CostPrice    decimal.Decimal `json:"cost_price" db:"cost_price"`
	Category     string          `json:"category" db:"category"`
	ReorderLevel int             `json:"reorder_level" db:"reorder_level"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty" db:"supplier_id"`
	SupplierName *string         `json:"supplier_name,omitempty"` // joined on reads
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// StockValue is quantity × price.
func (i InventoryItem) StockValue() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// IsLowStock reports 0 < quantity <= reorder level.
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity > 0 && i.Quantity <= i.ReorderLevel
}

func (i InventoryItem) IsOutOfStock() bool {
	return i.Quantity == 0
}

// CreateItemInput carries a new item. Quantity becomes the initial stock movement.
type CreateItemInput struct {
	SKU          *string         `json:"sku,omitempty" validate:"omitempty,max=64"`
	Name         string          `json:"name" validate:"required,max=255"`
	Description  *string         `json:"description,omitempty" validate:"omitempty,max=2000"`
	Quantity     int             `json:"quantity" validate:"min=0"`
	Price        decimal.Decimal `json:"price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	Category     string          `json:"category" validate:"required,max=100"`
	ReorderLevel int             `json:"reorder_level" validate:"min=0"`
	SupplierID   *uuid.UUID      `json:"supplier_id,omitempty"`
}

// UpdateItemInput is a partial update. Nil fields are left untouched.
// A non-nil Quantity is applied as an adjustment movement.
type UpdateItemInput struct {
	SKU            *string          `json:"sku,omitempty" validate:"omitempty,max=64"`
	Name           *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description    *string          `json:"description,omitempty" validate:"omitempty,max=2000"`
	Quantity       *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
	Price          *decimal.Decimal `json:"price,omitempty"`
	CostPrice      *decimal.Decimal `json:"cost_price,omitempty"`
	Category       *string          `json:"category,omitempty" validate:"omitempty,min=1,max=100"`
	ReorderLevel   *int             `json:"reorder_level,omitempty" validate:"omitempty,min=0"`
	SupplierID     *uuid.UUID       `json:"supplier_id,omitempty"`
	AdjustmentNote *string          `json:"adjustment_reason,omitempty" validate:"omitempty,max=500"`
}

// ItemPage is the cached unit for item list queries.
type ItemPage struct {
	Items []InventoryItem `json:"items"`
	Skip  int             `json:"skip"`
	Limit int             `json:"limit"`
}
