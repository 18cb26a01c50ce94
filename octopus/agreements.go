// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package octopus

import (
	"strings"
	"time"
)

// ProductCodeFromTariffCode derives the product code from a tariff code by
// dropping the fuel prefix and the trailing region letter, e.g.
// "E-1R-AGILE-24-10-01-C" becomes "AGILE-24-10-01". It returns an empty
// string when the tariff code does not have the expected shape.
func ProductCodeFromTariffCode(tariffCode string) string {
	if tariffCode == "" {
		return ""
	}

	parts := strings.Split(tariffCode, "-")
	if len(parts) < 4 {
		return ""
	}

	return strings.Join(parts[2:len(parts)-1], "-")
}

// ActiveAgreement picks the agreement covering the given time. An agreement
// with a nil ValidTo is open-ended. When no agreement covers the time, the
// most recent one is returned as a fallback; nil is returned only for an
// empty slice.
func ActiveAgreement(agreements []Agreement, at time.Time) *Agreement {
	if len(agreements) == 0 {
		return nil
	}

	for i := range agreements {
		a := &agreements[i]
		if a.ValidFrom.After(at) {
			continue
		}
		if a.ValidTo == nil || at.Before(*a.ValidTo) {
			return a
		}
	}

	latest := &agreements[0]
	for i := range agreements {
		if agreements[i].ValidFrom.After(latest.ValidFrom) {
			latest = &agreements[i]
		}
	}
	return latest
}
