package handlers

import (
	"github.com/labstack/echo/v4"
)

// Router holds every handler group mounted under /v1.
type Router struct {
	Inventory      *InventoryHandlers
	Suppliers      *SupplierHandlers
	PurchaseOrders *PurchaseOrderHandlers
	Locations      *LocationHandlers
	Analytics      *AnalyticsHandlers
	ImportExport   *ImportExportHandlers
}

// Register mounts read routes on api and mutating routes behind protect.
// protect is attached per route so unknown paths still answer 404.
func (r *Router) Register(api *echo.Group, protect echo.MiddlewareFunc) {
	api.GET("/items", r.Inventory.ListItems)
	api.GET("/items/export", r.ImportExport.ExportItems)
	api.GET("/items/:id", r.Inventory.GetItem)
	api.GET("/items/:id/movements", r.Inventory.ListMovements)
	api.GET("/items/:id/locations", r.Inventory.ListItemLocations)
	api.POST("/items", r.Inventory.CreateItem, protect)
	api.PUT("/items/:id", r.Inventory.UpdateItem, protect)
	api.PATCH("/items/:id", r.Inventory.UpdateItem, protect)
	api.DELETE("/items/:id", r.Inventory.DeleteItem, protect)
	api.POST("/items/:id/movements", r.Inventory.CreateMovement, protect)
	api.PUT("/items/:id/locations/:location_id", r.Inventory.SetItemLocation, protect)
	api.POST("/items/import", r.ImportExport.ImportItems, protect)
	api.POST("/items/export/publish", r.ImportExport.PublishExport, protect)

	api.GET("/suppliers", r.Suppliers.ListSuppliers)
	api.GET("/suppliers/:id", r.Suppliers.GetSupplier)
	api.POST("/suppliers", r.Suppliers.CreateSupplier, protect)
	api.PUT("/suppliers/:id", r.Suppliers.UpdateSupplier, protect)
	api.DELETE("/suppliers/:id", r.Suppliers.DeleteSupplier, protect)

	api.GET("/purchase-orders", r.PurchaseOrders.ListPurchaseOrders)
	api.GET("/purchase-orders/:id", r.PurchaseOrders.GetPurchaseOrder)
	api.POST("/purchase-orders", r.PurchaseOrders.CreatePurchaseOrder, protect)
	api.PUT("/purchase-orders/:id/status", r.PurchaseOrders.UpdateStatus, protect)
	api.POST("/purchase-orders/:id/receive", r.PurchaseOrders.Receive, protect)
	api.POST("/purchase-orders/:id/receive-partial", r.PurchaseOrders.ReceivePartial, protect)

	api.GET("/locations", r.Locations.ListLocations)
	api.GET("/locations/:id", r.Locations.GetLocation)
	api.POST("/locations", r.Locations.CreateLocation, protect)
	api.DELETE("/locations/:id", r.Locations.DeleteLocation, protect)

	api.GET("/analytics/dashboard", r.Analytics.Dashboard)
	api.GET("/analytics/categories", r.Analytics.Categories)
	api.GET("/analytics/top-items", r.Analytics.TopItems)
	api.GET("/analytics/low-stock", r.Analytics.LowStock)
	api.GET("/analytics/location-discrepancies", r.Analytics.LocationDiscrepancies)
	api.GET("/analytics/assistant-snapshot", r.Analytics.AssistantSnapshot)
}

// RegisterHealth mounts probes outside the versioned API.
func RegisterHealth(e *echo.Echo, h *HealthHandlers) {
	e.GET("/health", h.HealthCheck)
	e.GET("/health/live", h.LivenessCheck)
	e.GET("/health/ready", h.ReadinessCheck)
}
