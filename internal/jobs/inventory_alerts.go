package jobs

import (
	"context"

	"github.com/Arielpetit/UDM/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// LowStockSource reads the current low-stock list straight from the store.
type LowStockSource interface {
	ScanLowStock(ctx context.Context) ([]models.LowStockItem, error)
}

type InventoryAlertService struct {
	source LowStockSource
	log    zerolog.Logger
}

type InventoryAlert struct {
	ItemID       uuid.UUID
	ItemName     string
	Category     string
	CurrentStock int
	Threshold    int
	Supplier     string
	OutOfStock   bool
}

func NewInventoryAlertService(source LowStockSource, log zerolog.Logger) *InventoryAlertService {
	return &InventoryAlertService{
		source: source,
		log:    log.With().Str("job", "inventory_alerts").Logger(),
	}
}

func (a *InventoryAlertService) CheckLowStock(ctx context.Context) ([]InventoryAlert, error) {
	items, err := a.source.ScanLowStock(ctx)
	if err != nil {
		return nil, err
	}

	alerts := make([]InventoryAlert, 0, len(items))
	for _, item := range items {
		alert := InventoryAlert{
			ItemID:       item.ItemID,
			ItemName:     item.Name,
			Category:     item.Category,
			CurrentStock: item.Quantity,
			Threshold:    item.ReorderLevel,
			OutOfStock:   item.OutOfStock,
		}
		if item.SupplierName != nil {
			alert.Supplier = *item.SupplierName
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

func (a *InventoryAlertService) LogLowStockAlerts(alerts []InventoryAlert) {
	if len(alerts) == 0 {
		a.log.Info().Msg("no low stock alerts")
		return
	}

	for _, alert := range alerts {
		ev := a.log.Warn()
		if alert.OutOfStock {
			ev = a.log.Error()
		}
		ev.Str("item_id", alert.ItemID.String()).
			Str("item", alert.ItemName).
			Str("category", alert.Category).
			Str("supplier", alert.Supplier).
			Int("quantity", alert.CurrentStock).
			Int("reorder_level", alert.Threshold).
			Msg("low stock")
	}
}

// ScheduledLowStockCheck logs every low or empty item and publishes the counts.
func (a *InventoryAlertService) ScheduledLowStockCheck(ctx context.Context) error {
	alerts, err := a.CheckLowStock(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("low stock check failed")
		return err
	}

	a.LogLowStockAlerts(alerts)

	var low, out int
	for _, alert := range alerts {
		if alert.OutOfStock {
			out++
		} else {
			low++
		}
	}
	lowStockItems.WithLabelValues("low").Set(float64(low))
	lowStockItems.WithLabelValues("out").Set(float64(out))

	a.log.Info().Int("low", low).Int("out", out).Msg("low stock check completed")
	return nil
}
