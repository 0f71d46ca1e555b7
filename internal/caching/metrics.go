package caching

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udm_cache_requests_total",
		Help: "Cache lookups by result (hit, miss)",
	}, []string{"result"})

	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "udm_cache_errors_total",
		Help: "Cache backend failures by operation; each one degraded to a store read or skipped invalidation",
	}, []string{"op"})

	cacheInvalidations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "udm_cache_invalidations_total",
		Help: "Item namespace invalidations",
	})
)
