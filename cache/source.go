// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package cache implements the read-through cache over the Octopus Energy
// API: serve from the store while fresh, fetch upstream otherwise, and
// best-effort write the result back.
//
// The cache is an optimization, never a correctness requirement. Every
// store failure, read or write, degrades to a direct upstream fetch; no
// call may fail because the store is unavailable. When the upstream API is
// down, stale cached rows are served flagged as such, leaving the caller to
// decide between stale data and an error state.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soothill/octopus-energy-cache/octopus"
	apperrors "github.com/soothill/octopus-energy-cache/pkg/errors"
	"github.com/soothill/octopus-energy-cache/pkg/interfaces"
	"github.com/soothill/octopus-energy-cache/pkg/logger"
	"github.com/soothill/octopus-energy-cache/pkg/metrics"
)

const (
	// DefaultTariffTTL matches the half-hourly Agile settlement period: a
	// cached rate older than one slot may already be superseded.
	DefaultTariffTTL = 30 * time.Minute

	// DefaultConsumptionTTL reflects that consumption readings arrive from
	// the supplier roughly daily.
	DefaultConsumptionTTL = 24 * time.Hour

	alertTimeout = 5 * time.Second
)

// Notifier defines the interface for sending store degradation alerts.
type Notifier interface {
	SendStoreFailure(ctx context.Context, err error) error
	SendStoreRecovery(ctx context.Context) error
	IsEnabled() bool
}

// Options configures the freshness policy of a Source.
type Options struct {
	TariffTTL      time.Duration
	ConsumptionTTL time.Duration
}

// Source is the read-through cache combining the durable store with the
// upstream API.
type Source struct {
	store    interfaces.CacheStore
	api      interfaces.EnergyDataSource
	notifier Notifier

	tariffTTL      time.Duration
	consumptionTTL time.Duration

	// now is swappable for tests
	now func() time.Time

	mu       sync.Mutex
	degraded bool
}

// NewSource creates a read-through cache source. Zero TTLs fall back to the
// package defaults. notifier may be nil.
func NewSource(store interfaces.CacheStore, api interfaces.EnergyDataSource, notifier Notifier, opts Options) *Source {
	if opts.TariffTTL <= 0 {
		opts.TariffTTL = DefaultTariffTTL
	}
	if opts.ConsumptionTTL <= 0 {
		opts.ConsumptionTTL = DefaultConsumptionTTL
	}

	return &Source{
		store:          store,
		api:            api,
		notifier:       notifier,
		tariffTTL:      opts.TariffTTL,
		consumptionTTL: opts.ConsumptionTTL,
		now:            time.Now,
	}
}

// TariffRates returns unit rates for [from, to). stale is true when the
// rows come from cache entries older than the tariff TTL because the
// upstream API was unavailable.
func (s *Source) TariffRates(ctx context.Context, productCode, tariffCode string, from, to time.Time) (rates []octopus.TariffRate, stale bool, err error) {
	cached, readErr := s.store.QueryTariffRates(ctx, from, to)
	if readErr != nil {
		s.markDegraded(readErr)
		cached = nil
	}

	if len(cached) > 0 && s.allRatesFresh(cached, s.tariffTTL) {
		s.markRecovered()
		metrics.CacheHits.WithLabelValues("tariff_rates").Inc()
		return cached, false, nil
	}
	metrics.CacheMisses.WithLabelValues("tariff_rates").Inc()

	upstream, fetchErr := s.api.TariffRates(ctx, productCode, tariffCode, from, to)
	if fetchErr != nil {
		if len(cached) > 0 {
			logger.Warn().Err(fetchErr).Int("rows", len(cached)).
				Msg("Upstream fetch failed, serving stale tariff rates")
			metrics.StaleServes.WithLabelValues("tariff_rates").Inc()
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("%w: %w", apperrors.ErrDataUnavailable, fetchErr)
	}

	s.storeTariffRates(ctx, upstream)
	return upstream, false, nil
}

// Consumption returns electricity readings for [from, to) with the same
// contract as TariffRates.
func (s *Source) Consumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, bool, error) {
	return s.consumption(ctx, "consumption", meter, from, to,
		s.store.QueryConsumption, s.store.UpsertConsumption, s.api.Consumption)
}

// GasConsumption returns gas readings for [from, to) with the same contract
// as TariffRates.
func (s *Source) GasConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, bool, error) {
	return s.consumption(ctx, "gas_consumption", meter, from, to,
		s.store.QueryGasConsumption, s.store.UpsertGasConsumption, s.api.GasConsumption)
}

type (
	consumptionQuery  func(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error)
	consumptionUpsert func(ctx context.Context, meter octopus.Meter, readings []octopus.ConsumptionReading) error
)

// consumption is the shared electricity/gas read-through path; the two
// datasets differ only in key field name and which store/API methods apply.
func (s *Source) consumption(ctx context.Context, dataset string, meter octopus.Meter, from, to time.Time,
	query consumptionQuery, upsert consumptionUpsert, fetch consumptionQuery) ([]octopus.ConsumptionReading, bool, error) {

	cached, readErr := query(ctx, meter, from, to)
	if readErr != nil {
		s.markDegraded(readErr)
		cached = nil
	}

	if len(cached) > 0 && s.allReadingsFresh(cached, s.consumptionTTL) {
		s.markRecovered()
		metrics.CacheHits.WithLabelValues(dataset).Inc()
		return cached, false, nil
	}
	metrics.CacheMisses.WithLabelValues(dataset).Inc()

	upstream, fetchErr := fetch(ctx, meter, from, to)
	if fetchErr != nil {
		if len(cached) > 0 {
			logger.Warn().Err(fetchErr).Str("dataset", dataset).Int("rows", len(cached)).
				Msg("Upstream fetch failed, serving stale readings")
			metrics.StaleServes.WithLabelValues(dataset).Inc()
			return cached, true, nil
		}
		return nil, false, fmt.Errorf("%w: %w", apperrors.ErrDataUnavailable, fetchErr)
	}

	if len(upstream) > 0 {
		if err := upsert(ctx, meter, upstream); err != nil {
			s.noteWriteFailure(dataset, err)
		} else {
			s.markRecovered()
		}
	}
	return upstream, false, nil
}

// storeTariffRates best-effort writes freshly fetched rates back to the
// store. Failures are logged and alerted, never propagated.
func (s *Source) storeTariffRates(ctx context.Context, rates []octopus.TariffRate) {
	if len(rates) == 0 {
		return
	}
	if err := s.store.UpsertTariffRates(ctx, rates); err != nil {
		s.noteWriteFailure("tariff_rates", err)
		return
	}
	s.markRecovered()
}

func (s *Source) noteWriteFailure(dataset string, err error) {
	logger.Warn().Err(err).Str("dataset", dataset).Msg("Cache write failed, proceeding without caching")
	if apperrors.IsValidationError(err) {
		// Rejected rows are an upstream data problem, not store degradation.
		return
	}
	s.markDegraded(err)
}

// markDegraded records the first store failure and sends a single alert
// until the store recovers.
func (s *Source) markDegraded(err error) {
	s.mu.Lock()
	alreadyDegraded := s.degraded
	s.degraded = true
	s.mu.Unlock()

	if alreadyDegraded {
		return
	}

	logger.Error().Err(err).Msg("Cache store degraded, serving from upstream only")
	if s.notifier != nil && s.notifier.IsEnabled() {
		alertCtx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if notifyErr := s.notifier.SendStoreFailure(alertCtx, err); notifyErr != nil {
			logger.Error().Err(notifyErr).Msg("Failed to send store failure alert")
		}
	}
}

// markRecovered clears the degraded flag after a successful store operation.
func (s *Source) markRecovered() {
	s.mu.Lock()
	wasDegraded := s.degraded
	s.degraded = false
	s.mu.Unlock()

	if !wasDegraded {
		return
	}

	logger.Info().Msg("Cache store recovered")
	if s.notifier != nil && s.notifier.IsEnabled() {
		alertCtx, cancel := context.WithTimeout(context.Background(), alertTimeout)
		defer cancel()
		if notifyErr := s.notifier.SendStoreRecovery(alertCtx); notifyErr != nil {
			logger.Error().Err(notifyErr).Msg("Failed to send store recovery alert")
		}
	}
}

func (s *Source) allRatesFresh(rates []octopus.TariffRate, ttl time.Duration) bool {
	now := s.now()
	for i := range rates {
		if !rates[i].Fresh(now, ttl) {
			return false
		}
	}
	return true
}

func (s *Source) allReadingsFresh(readings []octopus.ConsumptionReading, ttl time.Duration) bool {
	now := s.now()
	for i := range readings {
		if !readings[i].Fresh(now, ttl) {
			return false
		}
	}
	return true
}
