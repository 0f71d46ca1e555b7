package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	movementsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udm_stock_movements_total",
		Help: "Committed stock movements by type",
	}, []string{"movement_type"})

	movementsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udm_stock_movements_rejected_total",
		Help: "Stock movements rejected before commit, by reason",
	}, []string{"reason"})

	purchaseOrdersReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udm_purchase_orders_received_total",
		Help: "Purchase order receipts by resulting status",
	}, []string{"status"})
)
