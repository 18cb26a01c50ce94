// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package storage provides the SQLite-backed cache store for tariff rates
// and consumption readings.
//
// The schema mirrors the original dashboard deployment: three tables keyed
// by their natural timestamps and meter identifiers, with a cached_at column
// recording fetch time for freshness decisions. Rows are written with
// idempotent last-write-wins upserts, so repeated refreshes for the same
// interval converge without coordination.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	_ "modernc.org/sqlite"

	"github.com/soothill/octopus-energy-cache/octopus"
	apperrors "github.com/soothill/octopus-energy-cache/pkg/errors"
	"github.com/soothill/octopus-energy-cache/pkg/logger"
	"github.com/soothill/octopus-energy-cache/pkg/metrics"
)

const (
	// Table names are kept bit-for-bit compatible with the original
	// deployment so an existing database remains readable.
	tariffRatesTable    = "TARIFF_RATES_CACHE"
	consumptionTable    = "CONSUMPTION_CACHE"
	gasConsumptionTable = "GAS_CONSUMPTION_CACHE"

	busyTimeoutMillis = 5000

	// timeFormat keeps timestamps lexicographically ordered in SQLite.
	timeFormat = "2006-01-02T15:04:05Z"
)

var validate = validator.New()

// SQLiteStore is the durable cache store. It is safe for concurrent use;
// SQLite serialises writers and the upserts are idempotent per key.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the cache database at path and ensures the cache
// tables exist.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStoreError("open", "", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStoreError("open", "", fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeoutMillis)); err != nil {
		_ = db.Close()
		return nil, apperrors.NewStoreError("open", "", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.ensureTables(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Cache store opened")
	return s, nil
}

// ensureTables creates the cache tables if they don't exist.
func (s *SQLiteStore) ensureTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tariffRatesTable + ` (
			valid_from    TEXT NOT NULL,
			valid_to      TEXT NOT NULL,
			value_inc_vat REAL NOT NULL,
			value_exc_vat REAL NOT NULL,
			cached_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (valid_from)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + consumptionTable + ` (
			mpan           TEXT NOT NULL,
			meter_serial   TEXT NOT NULL,
			interval_start TEXT NOT NULL,
			interval_end   TEXT NOT NULL,
			consumption    REAL NOT NULL,
			cached_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (mpan, meter_serial, interval_start)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + gasConsumptionTable + ` (
			mprn           TEXT NOT NULL,
			meter_serial   TEXT NOT NULL,
			interval_start TEXT NOT NULL,
			interval_end   TEXT NOT NULL,
			consumption    REAL NOT NULL,
			cached_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (mprn, meter_serial, interval_start)
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return apperrors.NewStoreError("create tables", "", fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
		}
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	logger.Info().Msg("Closing cache store")
	return s.db.Close()
}

// Health checks that the store is reachable.
func (s *SQLiteStore) Health(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewStoreError("ping", "", fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}
	return nil
}

// UpsertTariffRates inserts or overwrites one row per valid_from. The whole
// batch is validated before any row is written; a row failing key or
// interval validation rejects the batch with ErrInvalidRecord.
func (s *SQLiteStore) UpsertTariffRates(ctx context.Context, rates []octopus.TariffRate) error {
	for i := range rates {
		if err := validateTariffRate(rates[i]); err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	err := s.withTx(ctx, "upsert", tariffRatesTable, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO `+tariffRatesTable+` (valid_from, valid_to, value_inc_vat, value_exc_vat, cached_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (valid_from) DO UPDATE SET
				valid_to      = excluded.valid_to,
				value_inc_vat = excluded.value_inc_vat,
				value_exc_vat = excluded.value_exc_vat,
				cached_at     = excluded.cached_at`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i := range rates {
			cachedAt := rates[i].CachedAt
			if cachedAt.IsZero() {
				cachedAt = now
			}
			_, err := stmt.ExecContext(ctx,
				formatTime(rates[i].ValidFrom),
				formatTime(rates[i].ValidTo),
				rates[i].ValueIncVAT,
				rates[i].ValueExcVAT,
				formatTime(cachedAt),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.StoreRowsUpserted.WithLabelValues("tariff_rates").Add(float64(len(rates)))
	return nil
}

// QueryTariffRates returns cached rates with valid_from in [from, to), in
// ascending valid_from order. An empty result is a valid cache miss.
func (s *SQLiteStore) QueryTariffRates(ctx context.Context, from, to time.Time) ([]octopus.TariffRate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT valid_from, valid_to, value_inc_vat, value_exc_vat, cached_at
		FROM `+tariffRatesTable+`
		WHERE valid_from >= ? AND valid_from < ?
		ORDER BY valid_from ASC`,
		formatTime(from), formatTime(to))
	if err != nil {
		return nil, apperrors.NewStoreError("query range", tariffRatesTable, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}
	defer func() { _ = rows.Close() }()

	var rates []octopus.TariffRate
	for rows.Next() {
		var r octopus.TariffRate
		var validFrom, validTo, cachedAt string
		if err := rows.Scan(&validFrom, &validTo, &r.ValueIncVAT, &r.ValueExcVAT, &cachedAt); err != nil {
			return nil, apperrors.NewStoreError("scan", tariffRatesTable, err)
		}
		if r.ValidFrom, err = parseTime(validFrom); err != nil {
			return nil, apperrors.NewStoreError("scan", tariffRatesTable, err)
		}
		if r.ValidTo, err = parseTime(validTo); err != nil {
			return nil, apperrors.NewStoreError("scan", tariffRatesTable, err)
		}
		if r.CachedAt, err = parseTime(cachedAt); err != nil {
			return nil, apperrors.NewStoreError("scan", tariffRatesTable, err)
		}
		rates = append(rates, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("query range", tariffRatesTable, err)
	}
	return rates, nil
}

// UpsertConsumption inserts or overwrites electricity readings keyed by
// (mpan, meter_serial, interval_start).
func (s *SQLiteStore) UpsertConsumption(ctx context.Context, meter octopus.Meter, readings []octopus.ConsumptionReading) error {
	return s.upsertConsumption(ctx, consumptionTable, "consumption", meter, readings)
}

// UpsertGasConsumption inserts or overwrites gas readings keyed by
// (mprn, meter_serial, interval_start).
func (s *SQLiteStore) UpsertGasConsumption(ctx context.Context, meter octopus.Meter, readings []octopus.ConsumptionReading) error {
	return s.upsertConsumption(ctx, gasConsumptionTable, "gas_consumption", meter, readings)
}

// QueryConsumption returns cached electricity readings for a meter with
// interval_start in [from, to), ascending.
func (s *SQLiteStore) QueryConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error) {
	return s.queryConsumption(ctx, consumptionTable, meter, from, to)
}

// QueryGasConsumption returns cached gas readings for a meter with
// interval_start in [from, to), ascending.
func (s *SQLiteStore) QueryGasConsumption(ctx context.Context, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error) {
	return s.queryConsumption(ctx, gasConsumptionTable, meter, from, to)
}

func (s *SQLiteStore) upsertConsumption(ctx context.Context, table, dataset string, meter octopus.Meter, readings []octopus.ConsumptionReading) error {
	if err := validateMeter(meter); err != nil {
		return err
	}
	for i := range readings {
		if err := validateConsumption(readings[i]); err != nil {
			return err
		}
	}

	// The key column is mpan for electricity and mprn for gas; both bind to
	// the first column of the composite key.
	keyColumn := "mpan"
	if table == gasConsumptionTable {
		keyColumn = "mprn"
	}

	now := time.Now().UTC()
	err := s.withTx(ctx, "upsert", table, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO `+table+` (`+keyColumn+`, meter_serial, interval_start, interval_end, consumption, cached_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (`+keyColumn+`, meter_serial, interval_start) DO UPDATE SET
				interval_end = excluded.interval_end,
				consumption  = excluded.consumption,
				cached_at    = excluded.cached_at`)
		if err != nil {
			return err
		}
		defer func() { _ = stmt.Close() }()

		for i := range readings {
			cachedAt := readings[i].CachedAt
			if cachedAt.IsZero() {
				cachedAt = now
			}
			_, err := stmt.ExecContext(ctx,
				meter.PointID,
				meter.Serial,
				formatTime(readings[i].IntervalStart),
				formatTime(readings[i].IntervalEnd),
				readings[i].Consumption,
				formatTime(cachedAt),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.StoreRowsUpserted.WithLabelValues(dataset).Add(float64(len(readings)))
	return nil
}

func (s *SQLiteStore) queryConsumption(ctx context.Context, table string, meter octopus.Meter, from, to time.Time) ([]octopus.ConsumptionReading, error) {
	keyColumn := "mpan"
	if table == gasConsumptionTable {
		keyColumn = "mprn"
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT interval_start, interval_end, consumption, cached_at
		FROM `+table+`
		WHERE `+keyColumn+` = ? AND meter_serial = ?
		  AND interval_start >= ? AND interval_start < ?
		ORDER BY interval_start ASC`,
		meter.PointID, meter.Serial, formatTime(from), formatTime(to))
	if err != nil {
		return nil, apperrors.NewStoreError("query range", table, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}
	defer func() { _ = rows.Close() }()

	var readings []octopus.ConsumptionReading
	for rows.Next() {
		var r octopus.ConsumptionReading
		var start, end, cachedAt string
		if err := rows.Scan(&start, &end, &r.Consumption, &cachedAt); err != nil {
			return nil, apperrors.NewStoreError("scan", table, err)
		}
		if r.IntervalStart, err = parseTime(start); err != nil {
			return nil, apperrors.NewStoreError("scan", table, err)
		}
		if r.IntervalEnd, err = parseTime(end); err != nil {
			return nil, apperrors.NewStoreError("scan", table, err)
		}
		if r.CachedAt, err = parseTime(cachedAt); err != nil {
			return nil, apperrors.NewStoreError("scan", table, err)
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStoreError("query range", table, err)
	}
	return readings, nil
}

// withTx runs f inside a transaction, mapping failures to StoreError.
func (s *SQLiteStore) withTx(ctx context.Context, op, table string, f func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStoreError(op, table, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}

	if err := f(tx); err != nil {
		_ = tx.Rollback()
		metrics.StoreErrors.WithLabelValues(table).Inc()
		return apperrors.NewStoreError(op, table, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}

	if err := tx.Commit(); err != nil {
		metrics.StoreErrors.WithLabelValues(table).Inc()
		return apperrors.NewStoreError(op, table, fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}
	return nil
}

// validateTariffRate enforces the tariff row invariants: a present key
// timestamp and valid_from < valid_to.
func validateTariffRate(r octopus.TariffRate) error {
	if err := validate.Struct(r); err != nil {
		return apperrors.NewInvalidRecordError("valid_from", r.ValidFrom, err.Error())
	}
	if r.ValidTo.IsZero() {
		return apperrors.NewInvalidRecordError("valid_to", r.ValidTo, "missing interval end")
	}
	if !r.ValidFrom.Before(r.ValidTo) {
		return apperrors.NewInvalidRecordError("valid_from", r.ValidFrom, "valid_from must be before valid_to")
	}
	return nil
}

// validateConsumption enforces the consumption row invariants:
// interval_start < interval_end and a non-negative reading.
func validateConsumption(r octopus.ConsumptionReading) error {
	if err := validate.Struct(r); err != nil {
		return apperrors.NewInvalidRecordError("consumption", r.Consumption, err.Error())
	}
	if !r.IntervalStart.Before(r.IntervalEnd) {
		return apperrors.NewInvalidRecordError("interval_start", r.IntervalStart, "interval_start must be before interval_end")
	}
	return nil
}

// validateMeter rejects writes with missing key identifiers rather than
// silently storing a partial row.
func validateMeter(m octopus.Meter) error {
	if err := validate.Struct(m); err != nil {
		return apperrors.NewInvalidRecordError("meter", m.PointID, err.Error())
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeFormat, s)
}
