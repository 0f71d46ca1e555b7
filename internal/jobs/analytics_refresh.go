package jobs

import (
	"context"
	"time"

	"github.com/Arielpetit/UDM/internal/models"

	"github.com/rs/zerolog"
)

type DashboardSource interface {
	RefreshDashboard(ctx context.Context) (models.DashboardStats, error)
}

type AnalyticsRefreshService struct {
	source DashboardSource
	log    zerolog.Logger
}

func NewAnalyticsRefreshService(source DashboardSource, log zerolog.Logger) *AnalyticsRefreshService {
	return &AnalyticsRefreshService{
		source: source,
		log:    log.With().Str("job", "analytics_refresh").Logger(),
	}
}

// ScheduledAnalyticsRefresh recomputes the dashboard totals and exports them as gauges.
func (a *AnalyticsRefreshService) ScheduledAnalyticsRefresh(ctx context.Context) error {
	start := time.Now()

	stats, err := a.source.RefreshDashboard(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("analytics refresh failed")
		return err
	}

	value, _ := stats.TotalValue.Float64()
	inventoryItems.Set(float64(stats.TotalItems))
	inventoryQuantity.Set(float64(stats.TotalQuantity))
	inventoryValue.Set(value)

	a.log.Info().
		Int("items", stats.TotalItems).
		Int64("quantity", stats.TotalQuantity).
		Str("value", stats.TotalValue.StringFixed(2)).
		Dur("took", time.Since(start)).
		Msg("analytics refreshed")
	return nil
}
