package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	POStatusDraft             PurchaseOrderStatus = "draft"
	POStatusPending           PurchaseOrderStatus = "pending"
	POStatusApproved          PurchaseOrderStatus = "approved"
	POStatusOrdered           PurchaseOrderStatus = "ordered"
	POStatusPartiallyReceived PurchaseOrderStatus = "partially_received"
	POStatusReceived          PurchaseOrderStatus = "received"
	POStatusCancelled         PurchaseOrderStatus = "cancelled"
)

type PurchaseOrder struct {
	ID               uuid.UUID           `json:"id" db:"id"`
	OrderNumber      string              `json:"order_number" db:"order_number"`
	SupplierID       uuid.UUID           `json:"supplier_id" db:"supplier_id"`
	SupplierName     *string             `json:"supplier_name,omitempty"`
	Status           PurchaseOrderStatus `json:"status" db:"status"`
	TotalAmount      decimal.Decimal     `json:"total_amount" db:"total_amount"`
	Notes            *string             `json:"notes,omitempty" db:"notes"`
	ExpectedDelivery *time.Time          `json:"expected_delivery,omitempty" db:"expected_delivery"`
	ReceivedAt       *time.Time          `json:"received_at,omitempty" db:"received_at"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
	Items            []PurchaseOrderItem `json:"items,omitempty"`
}

type PurchaseOrderItem struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	PurchaseOrderID  uuid.UUID       `json:"purchase_order_id" db:"purchase_order_id"`
	ItemID           uuid.UUID       `json:"item_id" db:"item_id"`
	QuantityOrdered  int             `json:"quantity_ordered" db:"quantity_ordered"`
	QuantityReceived int             `json:"quantity_received" db:"quantity_received"`
	UnitPrice        decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Outstanding is what is still expected for this line.
func (l PurchaseOrderItem) Outstanding() int {
	return l.QuantityOrdered - l.QuantityReceived
}

type CreatePurchaseOrderInput struct {
	SupplierID       uuid.UUID                `json:"supplier_id" validate:"required"`
	ExpectedDelivery *time.Time               `json:"expected_delivery,omitempty"`
	Notes            *string                  `json:"notes,omitempty" validate:"omitempty,max=2000"`
	Items            []PurchaseOrderLineInput `json:"items" validate:"required,min=1,dive"`
}

type PurchaseOrderLineInput struct {
	ItemID    uuid.UUID       `json:"item_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineReceipt receives part of one purchase order line.
type LineReceipt struct {
	LineID   uuid.UUID `json:"line_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"required,min=1"`
}

type PurchaseOrderFilter struct {
	Status *PurchaseOrderStatus
	Limit  int
	Offset int
}
