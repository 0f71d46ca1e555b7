package models

import (
	"time"

	"github.com/google/uuid"
)

type MovementType string

const (
	MovementReceived    MovementType = "received"
	MovementSold        MovementType = "sold"
	MovementAdjusted    MovementType = "adjusted"
	MovementReturned    MovementType = "returned"
	MovementDamaged     MovementType = "damaged"
	MovementTransferred MovementType = "transferred"
)

func (t MovementType) Valid() bool {
	switch t {
	case MovementReceived, MovementSold, MovementAdjusted, MovementReturned, MovementDamaged, MovementTransferred:
		return true
	}
	return false
}

// StockMovement is an append-only audit record of one quantity change.
// QuantityAfter == QuantityBefore + QuantityChange and QuantityAfter >= 0.
type StockMovement struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	ItemID          uuid.UUID    `json:"item_id" db:"item_id"`
	MovementType    MovementType `json:"movement_type" db:"movement_type"`
	QuantityChange  int          `json:"quantity_change" db:"quantity_change"`
	QuantityBefore  int          `json:"quantity_before" db:"quantity_before"`
	QuantityAfter   int          `json:"quantity_after" db:"quantity_after"`
	Reason          string       `json:"reason" db:"reason"`
	ReferenceNumber *string      `json:"reference_number,omitempty" db:"reference_number"`
	CreatedBy       *string      `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time    `json:"created_at" db:"created_at"`
}

// MovementRequest asks the movement engine to change one item's quantity.
type MovementRequest struct {
	ItemID          uuid.UUID    `json:"item_id"`
	QuantityChange  int          `json:"quantity_change"`
	MovementType    MovementType `json:"movement_type" validate:"required"`
	Reason          string       `json:"reason" validate:"max=500"`
	ReferenceNumber *string      `json:"reference_number,omitempty" validate:"omitempty,max=100"`
}
