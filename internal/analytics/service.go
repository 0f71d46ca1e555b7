package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/Arielpetit/UDM/internal/caching"
	"github.com/Arielpetit/UDM/internal/common"
	"github.com/Arielpetit/UDM/internal/models"
	"github.com/Arielpetit/UDM/internal/repositories"

	"github.com/rs/zerolog"
)

const (
	DefaultTopItems = 10
	MaxTopItems     = 100
)

// AnalyticsService answers read-only aggregate queries over items. Results
// that only depend on item rows are cached under the item namespace, so any
// committed movement or item edit drops them.
type AnalyticsService struct {
	db    repositories.DBTX
	cache *caching.ListCache
	log   zerolog.Logger
	now   func() time.Time
}

func NewAnalyticsService(db repositories.DBTX, cache *caching.ListCache, log zerolog.Logger) *AnalyticsService {
	return &AnalyticsService{
		db:    db,
		cache: cache,
		log:   log.With().Str("component", "analytics").Logger(),
		now:   time.Now,
	}
}

func (a *AnalyticsService) Dashboard(ctx context.Context) (models.DashboardStats, error) {
	return caching.GetOrLoad(ctx, a.cache, caching.ItemStatsKey("dashboard"), a.loadDashboard)
}

func (a *AnalyticsService) loadDashboard(ctx context.Context) (models.DashboardStats, error) {
	query := `
		SELECT COUNT(*),
		       COALESCE(SUM(quantity), 0),
		       COALESCE(SUM(quantity * price), 0),
		       COUNT(*) FILTER (WHERE quantity > 0 AND quantity <= reorder_level),
		       COUNT(*) FILTER (WHERE quantity = 0)
		FROM inventory_items
	`
	var stats models.DashboardStats
	err := a.db.QueryRow(ctx, query).Scan(&stats.TotalItems, &stats.TotalQuantity, &stats.TotalValue,
		&stats.LowStockCount, &stats.OutOfStockCount)
	if err != nil {
		return stats, fmt.Errorf("failed to compute dashboard: %w", err)
	}
	stats.GeneratedAt = a.now().UTC()
	return stats, nil
}

func (a *AnalyticsService) CategoryBreakdown(ctx context.Context) ([]models.CategoryBreakdown, error) {
	return caching.GetOrLoad(ctx, a.cache, caching.ItemStatsKey("categories"), func(ctx context.Context) ([]models.CategoryBreakdown, error) {
		query := `
			SELECT category, COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(quantity * price), 0)
			FROM inventory_items
			GROUP BY category
			ORDER BY 4 DESC, category
		`
		rows, err := a.db.Query(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to compute category breakdown: %w", err)
		}
		defer rows.Close()

		out := make([]models.CategoryBreakdown, 0)
		for rows.Next() {
			var c models.CategoryBreakdown
			if err := rows.Scan(&c.Category, &c.ItemCount, &c.TotalQuantity, &c.TotalValue); err != nil {
				return nil, fmt.Errorf("failed to scan category breakdown: %w", err)
			}
			out = append(out, c)
		}
		return out, rows.Err()
	})
}

// TopItemsByValue ranks items by quantity × price.
func (a *AnalyticsService) TopItemsByValue(ctx context.Context, n int) ([]models.ItemValue, error) {
	switch {
	case n < 0:
		return nil, common.NewValidationError("n", "cannot be negative")
	case n == 0:
		n = DefaultTopItems
	case n > MaxTopItems:
		n = MaxTopItems
	}
	key := caching.ItemStatsKey(fmt.Sprintf("top:n=%d", n))
	return caching.GetOrLoad(ctx, a.cache, key, func(ctx context.Context) ([]models.ItemValue, error) {
		query := `
			SELECT id, name, category, quantity, price, quantity * price AS value
			FROM inventory_items
			ORDER BY value DESC, name, id
			LIMIT $1
		`
		rows, err := a.db.Query(ctx, query, n)
		if err != nil {
			return nil, fmt.Errorf("failed to rank items by value: %w", err)
		}
		defer rows.Close()

		out := make([]models.ItemValue, 0, n)
		for rows.Next() {
			var v models.ItemValue
			if err := rows.Scan(&v.ItemID, &v.Name, &v.Category, &v.Quantity, &v.Price, &v.Value); err != nil {
				return nil, fmt.Errorf("failed to scan item value: %w", err)
			}
			out = append(out, v)
		}
		return out, rows.Err()
	})
}

// LowStock lists items at or below their reorder level, out-of-stock first.
func (a *AnalyticsService) LowStock(ctx context.Context) ([]models.LowStockItem, error) {
	return caching.GetOrLoad(ctx, a.cache, caching.ItemStatsKey("low_stock"), a.loadLowStock)
}

func (a *AnalyticsService) loadLowStock(ctx context.Context) ([]models.LowStockItem, error) {
	query := `
		SELECT i.id, i.name, i.category, i.quantity, i.reorder_level, s.name
		FROM inventory_items i
		LEFT JOIN suppliers s ON s.id = i.supplier_id
		WHERE i.quantity <= i.reorder_level
		ORDER BY i.quantity, i.name, i.id
	`
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock items: %w", err)
	}
	defer rows.Close()

	out := make([]models.LowStockItem, 0)
	for rows.Next() {
		var l models.LowStockItem
		if err := rows.Scan(&l.ItemID, &l.Name, &l.Category, &l.Quantity, &l.ReorderLevel, &l.SupplierName); err != nil {
			return nil, fmt.Errorf("failed to scan low stock item: %w", err)
		}
		l.OutOfStock = l.Quantity == 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// LocationDiscrepancies lists placed items whose per-location total differs
// from the item quantity. Not cached: placements do not invalidate item views.
func (a *AnalyticsService) LocationDiscrepancies(ctx context.Context) ([]models.LocationDiscrepancy, error) {
	query := `
		SELECT i.id, i.name, i.quantity, SUM(il.quantity)
		FROM inventory_items i
		JOIN item_locations il ON il.item_id = i.id
		GROUP BY i.id, i.name, i.quantity
		HAVING SUM(il.quantity) <> i.quantity
		ORDER BY i.name, i.id
	`
	rows, err := a.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to compute location discrepancies: %w", err)
	}
	defer rows.Close()

	out := make([]models.LocationDiscrepancy, 0)
	for rows.Next() {
		var d models.LocationDiscrepancy
		if err := rows.Scan(&d.ItemID, &d.Name, &d.ItemQuantity, &d.LocatedQuantity); err != nil {
			return nil, fmt.Errorf("failed to scan location discrepancy: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AssistantSnapshot bundles the aggregates handed to the assistant.
func (a *AnalyticsService) AssistantSnapshot(ctx context.Context) (*models.AssistantSnapshot, error) {
	dashboard, err := a.Dashboard(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := a.CategoryBreakdown(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := a.LowStock(ctx)
	if err != nil {
		return nil, err
	}
	top, err := a.TopItemsByValue(ctx, DefaultTopItems)
	if err != nil {
		return nil, err
	}
	return &models.AssistantSnapshot{
		Dashboard:  dashboard,
		Categories: categories,
		LowStock:   lowStock,
		TopItems:   top,
	}, nil
}

// RefreshDashboard bypasses the cache; background jobs use it for gauges.
func (a *AnalyticsService) RefreshDashboard(ctx context.Context) (models.DashboardStats, error) {
	return a.loadDashboard(ctx)
}

// ScanLowStock bypasses the cache for the alert job.
func (a *AnalyticsService) ScanLowStock(ctx context.Context) ([]models.LowStockItem, error) {
	return a.loadLowStock(ctx)
}
