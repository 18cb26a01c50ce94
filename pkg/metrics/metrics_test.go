// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheHitsCounterVec(t *testing.T) {
	metric := CacheHits.WithLabelValues("tariff_rates")

	initial := testutil.ToFloat64(metric)
	metric.Inc()
	final := testutil.ToFloat64(metric)

	if final <= initial {
		t.Errorf("CacheHits should have increased, got %v -> %v", initial, final)
	}
}

func TestCacheMissesCounterVec(t *testing.T) {
	metric := CacheMisses.WithLabelValues("consumption")

	initial := testutil.ToFloat64(metric)
	metric.Inc()
	final := testutil.ToFloat64(metric)

	if final <= initial {
		t.Errorf("CacheMisses should have increased, got %v -> %v", initial, final)
	}
}

func TestStaleServesCounterVec(t *testing.T) {
	metric := StaleServes.WithLabelValues("gas_consumption")

	initial := testutil.ToFloat64(metric)
	metric.Inc()
	final := testutil.ToFloat64(metric)

	if final <= initial {
		t.Errorf("StaleServes should have increased, got %v -> %v", initial, final)
	}
}

func TestStoreRowsUpsertedCounterVec(t *testing.T) {
	metric := StoreRowsUpserted.WithLabelValues("tariff_rates")

	initial := testutil.ToFloat64(metric)
	metric.Add(96)
	final := testutil.ToFloat64(metric)

	if final != initial+96 {
		t.Errorf("StoreRowsUpserted should have increased by 96, got %v -> %v", initial, final)
	}
}

func TestStoreErrorsCounterVec(t *testing.T) {
	metric := StoreErrors.WithLabelValues("consumption")

	initial := testutil.ToFloat64(metric)
	metric.Inc()
	final := testutil.ToFloat64(metric)

	if final <= initial {
		t.Errorf("StoreErrors should have increased, got %v -> %v", initial, final)
	}
}

func TestUpstreamRequestCounters(t *testing.T) {
	requests := UpstreamRequestsTotal.WithLabelValues("standard-unit-rates")
	errors := UpstreamRequestErrors.WithLabelValues("standard-unit-rates")

	initialRequests := testutil.ToFloat64(requests)
	initialErrors := testutil.ToFloat64(errors)

	requests.Inc()
	errors.Inc()

	if testutil.ToFloat64(requests) <= initialRequests {
		t.Error("UpstreamRequestsTotal should have increased")
	}
	if testutil.ToFloat64(errors) <= initialErrors {
		t.Error("UpstreamRequestErrors should have increased")
	}
}

func TestUpstreamRequestDurationHistogram(t *testing.T) {
	// Observe some values
	UpstreamRequestDuration.Observe(0.25)
	UpstreamRequestDuration.Observe(1.1)

	// Verify it's registered as a histogram
	count := testutil.CollectAndCount(UpstreamRequestDuration)
	if count == 0 {
		t.Error("UpstreamRequestDuration histogram should have observations")
	}
}

func TestRefreshDurationHistogram(t *testing.T) {
	RefreshDuration.WithLabelValues("tariff_rates").Observe(2.5)
	RefreshDuration.WithLabelValues("consumption").Observe(4.0)

	count := testutil.CollectAndCount(RefreshDuration)
	if count == 0 {
		t.Error("RefreshDuration histogram should have observations")
	}
}

func TestCurrentUnitRateGauge(t *testing.T) {
	CurrentUnitRate.Set(0)
	CurrentUnitRate.Set(24.57)

	value := testutil.ToFloat64(CurrentUnitRate)
	if value != 24.57 {
		t.Errorf("CurrentUnitRate = %v, want 24.57", value)
	}
}

func TestCachedTariffRatesGauge(t *testing.T) {
	CachedTariffRates.Set(0)
	CachedTariffRates.Set(96)

	value := testutil.ToFloat64(CachedTariffRates)
	if value != 96 {
		t.Errorf("CachedTariffRates = %v, want 96", value)
	}
}

func TestMetricsAreRegistered(t *testing.T) {
	// Verify all metrics are properly registered
	metrics := []prometheus.Collector{
		CacheHits,
		CacheMisses,
		StaleServes,
		StoreRowsUpserted,
		StoreErrors,
		UpstreamRequestsTotal,
		UpstreamRequestErrors,
		UpstreamRequestDuration,
		RefreshDuration,
		CurrentUnitRate,
		CachedTariffRates,
	}

	for i, metric := range metrics {
		count := testutil.CollectAndCount(metric)
		if count < 0 {
			t.Errorf("Metric %d is not properly registered", i)
		}
	}
}

func TestDatasetLabelCardinality(t *testing.T) {
	// Test that every dataset label resolves without issues
	datasets := []string{"tariff_rates", "consumption", "gas_consumption"}

	for _, dataset := range datasets {
		CacheHits.WithLabelValues(dataset).Inc()
		CacheMisses.WithLabelValues(dataset).Inc()
		StaleServes.WithLabelValues(dataset).Inc()
	}

	// Verify we can retrieve all metrics
	for _, dataset := range datasets {
		metric, err := CacheHits.GetMetricWithLabelValues(dataset)
		if err != nil {
			t.Errorf("Failed to get CacheHits metric for %s: %v", dataset, err)
		}
		if testutil.ToFloat64(metric) < 1 {
			t.Errorf("Wrong value for CacheHits[%s]", dataset)
		}
	}
}
