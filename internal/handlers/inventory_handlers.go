package handlers

import (
	"net/http"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/labstack/echo/v4"
)

// InventoryHandlers serves items, their movements and their placements.
type InventoryHandlers struct {
	items     services.InventoryService
	movements services.MovementService
	locations services.LocationService
}

func NewInventoryHandlers(items services.InventoryService, movements services.MovementService, locations services.LocationService) *InventoryHandlers {
	return &InventoryHandlers{items: items, movements: movements, locations: locations}
}

func (h *InventoryHandlers) ListItems(c echo.Context) error {
	skip, limit := 0, services.DefaultItemListLimit
	if err := queryInts(c, map[string]*int{"skip": &skip, "limit": &limit}); err != nil {
		return common.SendError(c, err)
	}

	items, err := h.items.ListItems(c.Request().Context(), skip, limit)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *InventoryHandlers) CreateItem(c echo.Context) error {
	var req models.CreateItemInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	item, err := h.items.CreateItem(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

func (h *InventoryHandlers) GetItem(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	item, err := h.items.GetItem(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// UpdateItem applies a partial update. A quantity in the body is booked as an adjustment.
func (h *InventoryHandlers) UpdateItem(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req models.UpdateItemInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	item, err := h.items.UpdateItem(c.Request().Context(), id, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *InventoryHandlers) DeleteItem(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.items.DeleteItem(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *InventoryHandlers) CreateMovement(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req models.MovementRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}
	req.ItemID = id

	movement, err := h.movements.ApplyMovement(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, movement)
}

func (h *InventoryHandlers) ListMovements(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	limit, offset := 0, 0
	if err := queryInts(c, map[string]*int{"limit": &limit, "offset": &offset}); err != nil {
		return common.SendError(c, err)
	}

	movements, err := h.movements.ListMovements(c.Request().Context(), id, limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, movements)
}

type SetItemLocationRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

func (h *InventoryHandlers) SetItemLocation(c echo.Context) error {
	itemID, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	locationID, err := pathUUID(c, "location_id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req SetItemLocationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	placement, err := h.locations.SetItemLocation(c.Request().Context(), itemID, locationID, req.Quantity)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, placement)
}

func (h *InventoryHandlers) ListItemLocations(c echo.Context) error {
	itemID, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	placements, err := h.locations.ListItemLocations(c.Request().Context(), itemID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, placements)
}
