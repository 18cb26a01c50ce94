// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package metrics provides Prometheus metrics for the Octopus energy cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks requests served entirely from the cache store,
	// labelled by dataset (tariff_rates, consumption, gas_consumption)
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_cache_hits_total",
		Help: "Total number of requests served from the cache store",
	}, []string{"dataset"})

	// CacheMisses tracks requests that fell through to the upstream API
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_cache_misses_total",
		Help: "Total number of requests that required an upstream fetch",
	}, []string{"dataset"})

	// StaleServes tracks requests served from stale cache rows because the
	// upstream API was unavailable
	StaleServes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_cache_stale_serves_total",
		Help: "Total number of requests served from stale cache rows",
	}, []string{"dataset"})

	// StoreRowsUpserted tracks rows written to the cache store
	StoreRowsUpserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_store_rows_upserted_total",
		Help: "Total number of rows upserted into the cache store",
	}, []string{"dataset"})

	// StoreErrors tracks failed cache store operations
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_store_errors_total",
		Help: "Total number of failed cache store operations",
	}, []string{"dataset"})

	// UpstreamRequestsTotal tracks HTTP requests to the Octopus Energy API
	UpstreamRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_upstream_requests_total",
		Help: "Total number of HTTP requests to the Octopus Energy API",
	}, []string{"endpoint"})

	// UpstreamRequestErrors tracks failed HTTP requests to the Octopus Energy API
	UpstreamRequestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octopus_upstream_request_errors_total",
		Help: "Total number of failed HTTP requests to the Octopus Energy API",
	}, []string{"endpoint"})

	// UpstreamRequestDuration tracks how long upstream API requests take
	UpstreamRequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "octopus_upstream_request_duration_seconds",
		Help:    "Duration of upstream API requests in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// RefreshDuration tracks how long a cache refresh cycle takes per dataset
	RefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "octopus_refresh_duration_seconds",
		Help:    "Duration of a cache refresh cycle in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"dataset"})

	// CurrentUnitRate tracks the unit rate of the currently valid half-hour
	// slot in pence per kWh including VAT
	CurrentUnitRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octopus_current_unit_rate_pence",
		Help: "Unit rate of the currently valid half-hour slot (p/kWh inc VAT)",
	})

	// CachedTariffRates tracks the number of tariff rate rows held per refresh window
	CachedTariffRates = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "octopus_cached_tariff_rates",
		Help: "Number of tariff rate rows returned by the last refresh",
	})
)
