package handlers

import (
	"net/http"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/labstack/echo/v4"
)

type LocationHandlers struct {
	locations services.LocationService
}

func NewLocationHandlers(locations services.LocationService) *LocationHandlers {
	return &LocationHandlers{locations: locations}
}

func (h *LocationHandlers) CreateLocation(c echo.Context) error {
	var req models.LocationInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	loc, err := h.locations.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, loc)
}

func (h *LocationHandlers) ListLocations(c echo.Context) error {
	locs, err := h.locations.List(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, locs)
}

func (h *LocationHandlers) GetLocation(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	loc, err := h.locations.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, loc)
}

func (h *LocationHandlers) DeleteLocation(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.locations.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
