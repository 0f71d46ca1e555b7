package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lowStockItems = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "udm_low_stock_items",
		Help: "Items at or below their reorder level, by state (low, out)",
	}, []string{"state"})

	inventoryItems = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "udm_inventory_items",
		Help: "Number of tracked items",
	})

	inventoryQuantity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "udm_inventory_total_quantity",
		Help: "Sum of item quantities",
	})

	inventoryValue = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "udm_inventory_total_value",
		Help: "Sum of quantity × price over all items",
	})
)
