package handlers

import (
	"context"
	"net/http"

	"github.com/Arielpetit/UDM/internal/analytics"
	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"

	"github.com/labstack/echo/v4"
)

// AnalyticsQueries is the read-only facade consumed by the analytics routes.
type AnalyticsQueries interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, error)
	TopItemsByValue(ctx context.Context, n int) ([]models.ItemValue, error)
	LowStock(ctx context.Context) ([]models.LowStockItem, error)
	LocationDiscrepancies(ctx context.Context) ([]models.LocationDiscrepancy, error)
	AssistantSnapshot(ctx context.Context) (*models.AssistantSnapshot, error)
}

var _ AnalyticsQueries = (*analytics.AnalyticsService)(nil)

type AnalyticsHandlers struct {
	queries AnalyticsQueries
}

func NewAnalyticsHandlers(queries AnalyticsQueries) *AnalyticsHandlers {
	return &AnalyticsHandlers{queries: queries}
}

func (h *AnalyticsHandlers) Dashboard(c echo.Context) error {
	stats, err := h.queries.Dashboard(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *AnalyticsHandlers) Categories(c echo.Context) error {
	out, err := h.queries.CategoryBreakdown(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandlers) TopItems(c echo.Context) error {
	n := analytics.DefaultTopItems
	if err := queryInts(c, map[string]*int{"n": &n}); err != nil {
		return common.SendError(c, err)
	}

	out, err := h.queries.TopItemsByValue(c.Request().Context(), n)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandlers) LowStock(c echo.Context) error {
	out, err := h.queries.LowStock(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AnalyticsHandlers) LocationDiscrepancies(c echo.Context) error {
	out, err := h.queries.LocationDiscrepancies(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// AssistantSnapshot serves the aggregate document read by the assistant.
func (h *AnalyticsHandlers) AssistantSnapshot(c echo.Context) error {
	out, err := h.queries.AssistantSnapshot(c.Request().Context())
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
