// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package interfaces

import (
	"context"
	"time"

	"github.com/soothill/octopus-energy-cache/octopus"
)

// EnergyDataSource defines the interface for the upstream tariff and
// consumption API. A failing source maps to the "data unavailable"
// condition; it is never retried against the cache.
type EnergyDataSource interface {
	// TariffRates fetches electricity unit rates over [from, to)
	TariffRates(ctx context.Context, productCode, tariffCode string, from, to time.Time) ([]octopus.TariffRate, error)

	// Consumption fetches electricity readings for a meter over [from, to)
	Consumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error)

	// GasConsumption fetches gas readings for a meter over [from, to)
	GasConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error)
}
