// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package costing derives electricity costs and cheapest-slot rankings from
// half-hourly consumption readings and Agile tariff rates.
package costing

import (
	"sort"
	"time"

	"github.com/soothill/octopus-energy-cache/octopus"
)

const penceToPounds = 100.0

// IntervalCost is one half-hourly consumption interval priced against the
// tariff rate valid at its start. Costs are in GBP.
type IntervalCost struct {
	IntervalStart  time.Time `json:"interval_start"`
	IntervalEnd    time.Time `json:"interval_end"`
	Consumption    float64   `json:"consumption"`
	UnitRate       float64   `json:"unit_rate"`       // p/kWh inc VAT, 0 when no rate matched
	Cost           float64   `json:"cost"`            // usage cost in GBP
	StandingCharge float64   `json:"standing_charge"` // GBP, non-zero on the first interval of each day
}

// Summary aggregates a priced consumption window.
type Summary struct {
	Intervals        []IntervalCost `json:"intervals"`
	TotalConsumption float64        `json:"total_consumption"` // kWh
	UsageCost        float64        `json:"usage_cost"`        // GBP
	StandingCharges  float64        `json:"standing_charges"`  // GBP
	TotalCost        float64        `json:"total_cost"`        // GBP
}

// CalculateCosts prices each consumption interval at the rate whose validity
// interval contains its start (valid_from <= start < valid_to). Intervals
// with no matching rate cost zero. The standing charge (GBP/day) is applied
// once per local day in loc; a nil loc defaults to UTC.
func CalculateCosts(consumption []octopus.ConsumptionReading, rates []octopus.TariffRate, standingCharge float64, loc *time.Location) Summary {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]octopus.TariffRate, len(rates))
	copy(sorted, rates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ValidFrom.Before(sorted[j].ValidFrom)
	})

	var summary Summary
	chargedDays := make(map[string]bool)

	for _, reading := range consumption {
		interval := IntervalCost{
			IntervalStart: reading.IntervalStart,
			IntervalEnd:   reading.IntervalEnd,
			Consumption:   reading.Consumption,
		}

		if rate, ok := rateAt(sorted, reading.IntervalStart); ok {
			interval.UnitRate = rate.ValueIncVAT
			interval.Cost = reading.Consumption * rate.ValueIncVAT / penceToPounds
		}

		day := reading.IntervalStart.In(loc).Format("2006-01-02")
		if !chargedDays[day] {
			chargedDays[day] = true
			interval.StandingCharge = standingCharge
		}

		summary.Intervals = append(summary.Intervals, interval)
		summary.TotalConsumption += reading.Consumption
		summary.UsageCost += interval.Cost
		summary.StandingCharges += interval.StandingCharge
	}

	summary.TotalCost = summary.UsageCost + summary.StandingCharges
	return summary
}

// rateAt finds the rate covering t in a slice sorted by ValidFrom.
func rateAt(sorted []octopus.TariffRate, t time.Time) (octopus.TariffRate, bool) {
	// Index of the first rate starting after t; the candidate is the one
	// before it.
	i := sort.Search(len(sorted), func(i int) bool {
		return sorted[i].ValidFrom.After(t)
	})
	if i == 0 {
		return octopus.TariffRate{}, false
	}

	candidate := sorted[i-1]
	if candidate.Covers(t) {
		return candidate, true
	}
	return octopus.TariffRate{}, false
}

// CheapestSlots returns the n lowest-priced half-hour slots whose valid_from
// falls on the given local day, cheapest first. The midnight slot is
// excluded, matching the dashboard's 00:01-23:59 window. Ties keep their
// chronological order.
func CheapestSlots(rates []octopus.TariffRate, n int, day time.Time, loc *time.Location) []octopus.TariffRate {
	if n <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	target := day.In(loc).Format("2006-01-02")

	var candidates []octopus.TariffRate
	for _, rate := range rates {
		local := rate.ValidFrom.In(loc)
		if local.Format("2006-01-02") != target {
			continue
		}
		if local.Hour() == 0 && local.Minute() == 0 {
			continue
		}
		candidates = append(candidates, rate)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].ValueIncVAT < candidates[j].ValueIncVAT
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}
