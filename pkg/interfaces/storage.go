// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package interfaces defines abstract interfaces for core system components.
// This package promotes loose coupling and testability by allowing
// dependency injection and easy mocking in tests.
package interfaces

import (
	"context"
	"time"

	"github.com/soothill/octopus-energy-cache/octopus"
)

// CacheStore defines the interface for the durable tariff/consumption cache.
//
// All operations are idempotent on their natural keys: repeating an upsert
// with the same key overwrites the row (last write wins). Implementations
// must reject rows violating the key or interval invariants rather than
// storing partial data, and must surface unavailability as an error the
// caller can treat as a cache miss.
type CacheStore interface {
	// UpsertTariffRates inserts or overwrites one row per valid_from
	UpsertTariffRates(ctx context.Context, rates []octopus.TariffRate) error

	// QueryTariffRates returns cached rates with valid_from in [from, to), ascending
	QueryTariffRates(ctx context.Context, from, to time.Time) ([]octopus.TariffRate, error)

	// UpsertConsumption inserts or overwrites electricity readings for a meter
	UpsertConsumption(ctx context.Context, meter octopus.Meter, readings []octopus.ConsumptionReading) error

	// QueryConsumption returns cached electricity readings, ascending
	QueryConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error)

	// UpsertGasConsumption inserts or overwrites gas readings for a meter
	UpsertGasConsumption(ctx context.Context, meter octopus.Meter, readings []octopus.ConsumptionReading) error

	// QueryGasConsumption returns cached gas readings, ascending
	QueryGasConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error)

	// Health checks if the store is reachable
	Health(ctx context.Context) error

	// Close gracefully shuts down the store
	Close() error
}
