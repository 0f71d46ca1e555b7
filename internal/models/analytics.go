package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalItems      int             `json:"total_items"`
	TotalQuantity   int64           `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

type CategoryBreakdown struct {
	Category      string          `json:"category"`
	ItemCount     int             `json:"item_count"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalValue    decimal.Decimal `json:"total_value"`
}

type ItemValue struct {
	ItemID   uuid.UUID       `json:"item_id"`
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Value    decimal.Decimal `json:"value"`
}

type LowStockItem struct {
	ItemID       uuid.UUID `json:"item_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	Quantity     int       `json:"quantity"`
	ReorderLevel int       `json:"reorder_level"`
	SupplierName *string   `json:"supplier_name,omitempty"`
	OutOfStock   bool      `json:"out_of_stock"`
}

type LocationDiscrepancy struct {
	ItemID          uuid.UUID `json:"item_id"`
	Name            string    `json:"name"`
	ItemQuantity    int       `json:"item_quantity"`
	LocatedQuantity int64     `json:"located_quantity"`
}

// AssistantSnapshot is the read-only document handed to the assistant collaborator.
type AssistantSnapshot struct {
	Dashboard  DashboardStats      `json:"dashboard"`
	Categories []CategoryBreakdown `json:"categories"`
	LowStock   []LowStockItem      `json:"low_stock"`
	TopItems   []ItemValue         `json:"top_items"`
}
