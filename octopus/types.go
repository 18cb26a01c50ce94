// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package octopus provides a client for the Octopus Energy REST API.
package octopus

import (
	"time"
)

// TariffRate is a half-hourly priced period from an Agile tariff, or a
// standing charge period. Prices are in pence per kWh.
type TariffRate struct {
	ValidFrom   time.Time `json:"valid_from" validate:"required"`
	ValidTo     time.Time `json:"valid_to"`
	ValueIncVAT float64   `json:"value_inc_vat"`
	ValueExcVAT float64   `json:"value_exc_vat"`
	CachedAt    time.Time `json:"cached_at"`
}

// Fresh reports whether the rate was cached recently enough to be served
// without re-fetching. The boundary now-cached_at == maxAge is fresh.
func (r TariffRate) Fresh(now time.Time, maxAge time.Duration) bool {
	return !r.CachedAt.IsZero() && now.Sub(r.CachedAt) <= maxAge
}

// Covers reports whether the rate's validity interval contains t.
func (r TariffRate) Covers(t time.Time) bool {
	return !r.ValidFrom.After(t) && (r.ValidTo.IsZero() || t.Before(r.ValidTo))
}

// ConsumptionReading is a single half-hourly meter reading in kWh (for
// electricity) or cubic metres (for gas, depending on the meter generation).
type ConsumptionReading struct {
	IntervalStart time.Time `json:"interval_start" validate:"required"`
	IntervalEnd   time.Time `json:"interval_end" validate:"required"`
	Consumption   float64   `json:"consumption" validate:"gte=0"`
	CachedAt      time.Time `json:"cached_at"`
}

// Fresh reports whether the reading was cached recently enough to be served
// without re-fetching. The boundary now-cached_at == maxAge is fresh.
func (r ConsumptionReading) Fresh(now time.Time, maxAge time.Duration) bool {
	return !r.CachedAt.IsZero() && now.Sub(r.CachedAt) <= maxAge
}

// Meter identifies a metering point and the physical meter attached to it.
// PointID holds the MPAN for electricity meters and the MPRN for gas meters.
type Meter struct {
	PointID string `validate:"required"`
	Serial  string `validate:"required"`
}

// Agreement is a tariff agreement attached to a meter point.
type Agreement struct {
	TariffCode string     `json:"tariff_code"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to"`
}

// GasMeterPoint describes a gas meter point and its agreements.
type GasMeterPoint struct {
	Mprn       string      `json:"mprn"`
	Agreements []Agreement `json:"agreements"`
}
