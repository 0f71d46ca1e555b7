package handlers

import (
	"net/http"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/labstack/echo/v4"
)

type PurchaseOrderHandlers struct {
	orders services.PurchaseOrderService
}

func NewPurchaseOrderHandlers(orders services.PurchaseOrderService) *PurchaseOrderHandlers {
	return &PurchaseOrderHandlers{orders: orders}
}

func (h *PurchaseOrderHandlers) CreatePurchaseOrder(c echo.Context) error {
	var req models.CreatePurchaseOrderInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	po, err := h.orders.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, po)
}

func (h *PurchaseOrderHandlers) GetPurchaseOrder(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	po, err := h.orders.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

func (h *PurchaseOrderHandlers) ListPurchaseOrders(c echo.Context) error {
	var filter models.PurchaseOrderFilter
	if err := queryInts(c, map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset}); err != nil {
		return common.SendError(c, err)
	}
	if status := c.QueryParam("status"); status != "" {
		s := models.PurchaseOrderStatus(status)
		filter.Status = &s
	}

	orders, err := h.orders.List(c.Request().Context(), filter)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, orders)
}

type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=draft pending approved ordered partially_received received cancelled"`
}

func (h *PurchaseOrderHandlers) UpdateStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req UpdateStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	po, err := h.orders.UpdateStatus(c.Request().Context(), id, models.PurchaseOrderStatus(req.Status))
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

// Receive books every outstanding line of the order.
func (h *PurchaseOrderHandlers) Receive(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	po, err := h.orders.Receive(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}

type ReceivePartialRequest struct {
	Items []models.LineReceipt `json:"items" validate:"required,min=1,dive"`
}

func (h *PurchaseOrderHandlers) ReceivePartial(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req ReceivePartialRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	po, err := h.orders.ReceivePartial(c.Request().Context(), id, req.Items)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, po)
}
