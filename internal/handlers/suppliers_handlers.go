package handlers

import (
	"net/http"

	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/services"

	"github.com/labstack/echo/v4"
)

// SupplierHandlers handles supplier-related HTTP requests
type SupplierHandlers struct {
	supplierService services.SupplierService
}

func NewSupplierHandlers(supplierService services.SupplierService) *SupplierHandlers {
	return &SupplierHandlers{supplierService: supplierService}
}

func (h *SupplierHandlers) ListSuppliers(c echo.Context) error {
	limit, offset := 0, 0
	if err := queryInts(c, map[string]*int{"limit": &limit, "offset": &offset}); err != nil {
		return common.SendError(c, err)
	}

	suppliers, err := h.supplierService.List(c.Request().Context(), limit, offset)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"suppliers": suppliers,
		"limit":     limit,
		"offset":    offset,
	})
}

func (h *SupplierHandlers) CreateSupplier(c echo.Context) error {
	var req models.SupplierInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	supplier, err := h.supplierService.Create(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, supplier)
}

func (h *SupplierHandlers) GetSupplier(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}

	supplier, err := h.supplierService.GetByID(c.Request().Context(), id)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, supplier)
}

func (h *SupplierHandlers) UpdateSupplier(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	var req models.SupplierInput
	if err := bindAndValidate(c, &req); err != nil {
		return common.SendError(c, err)
	}

	supplier, err := h.supplierService.Update(c.Request().Context(), id, req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, supplier)
}

// DeleteSupplier fails with 409 while purchase orders still reference the supplier.
func (h *SupplierHandlers) DeleteSupplier(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return common.SendError(c, err)
	}
	if err := h.supplierService.Delete(c.Request().Context(), id); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
