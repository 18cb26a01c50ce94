// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package octopus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	apperrors "github.com/soothill/octopus-energy-cache/pkg/errors"
	"github.com/soothill/octopus-energy-cache/pkg/logger"
	"github.com/soothill/octopus-energy-cache/pkg/metrics"
)

const (
	// DefaultBaseURL is the production Octopus Energy API endpoint.
	DefaultBaseURL = "https://api.octopus.energy/v1"

	requestTimeout        = 15 * time.Second
	ratesPageSize         = 1500
	consumptionPageSize   = 5000
	defaultRequestsPerSec = 5
	defaultBurst          = 10
	breakerFailureTrip    = 5
	breakerOpenTimeout    = 60 * time.Second
	timestampFormat       = "2006-01-02T15:04:05Z"
)

// Client talks to the Octopus Energy REST API. All requests pass through a
// rate limiter and a circuit breaker so a failing or throttling upstream
// trips fast instead of piling up blocked callers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new API client. baseURL falls back to DefaultBaseURL
// when empty; apiKey may be empty for endpoints that allow anonymous access
// (product unit rates). requestsPerSec and burst fall back to conservative
// defaults when zero.
func NewClient(baseURL, apiKey string, requestsPerSec float64, burst int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerSec <= 0 {
		requestsPerSec = defaultRequestsPerSec
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "octopus-api",
		Timeout: breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSec), burst),
		breaker:    breaker,
	}
}

// tariffPage is one page of a paginated unit-rate or standing-charge response.
type tariffPage struct {
	Count   int          `json:"count"`
	Next    *string      `json:"next"`
	Results []TariffRate `json:"results"`
}

// consumptionPage is one page of a paginated consumption response.
type consumptionPage struct {
	Count   int                  `json:"count"`
	Next    *string              `json:"next"`
	Results []ConsumptionReading `json:"results"`
}

// TariffRates fetches the standard unit rates for an electricity tariff over
// [from, to), following pagination. Rates are returned in ascending
// valid_from order.
func (c *Client) TariffRates(ctx context.Context, productCode, tariffCode string, from, to time.Time) ([]TariffRate, error) {
	endpoint := fmt.Sprintf("%s/products/%s/electricity-tariffs/%s/standard-unit-rates/",
		c.baseURL, url.PathEscape(productCode), url.PathEscape(tariffCode))
	return c.fetchTariffPages(ctx, "unit_rates", endpoint, from, to)
}

// GasTariffRates fetches the standard unit rates for the agreement active on
// a gas meter point.
func (c *Client) GasTariffRates(ctx context.Context, mprn string, from, to time.Time) ([]TariffRate, error) {
	productCode, tariffCode, err := c.activeGasTariff(ctx, mprn)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/products/%s/gas-tariffs/%s/standard-unit-rates/",
		c.baseURL, url.PathEscape(productCode), url.PathEscape(tariffCode))
	return c.fetchTariffPages(ctx, "gas_unit_rates", endpoint, from, to)
}

// GasStandingCharges fetches the standing charges for the agreement active on
// a gas meter point.
func (c *Client) GasStandingCharges(ctx context.Context, mprn string, from, to time.Time) ([]TariffRate, error) {
	productCode, tariffCode, err := c.activeGasTariff(ctx, mprn)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/products/%s/gas-tariffs/%s/standing-charges/",
		c.baseURL, url.PathEscape(productCode), url.PathEscape(tariffCode))
	return c.fetchTariffPages(ctx, "gas_standing_charges", endpoint, from, to)
}

// Consumption fetches half-hourly electricity consumption for a meter over
// [from, to), following pagination. Readings are returned in ascending
// interval_start order.
func (c *Client) Consumption(ctx context.Context, meter Meter, from, to time.Time) ([]ConsumptionReading, error) {
	endpoint := fmt.Sprintf("%s/electricity-meter-points/%s/meters/%s/consumption/",
		c.baseURL, url.PathEscape(meter.PointID), url.PathEscape(meter.Serial))
	return c.fetchConsumptionPages(ctx, "consumption", endpoint, from, to)
}

// GasConsumption fetches half-hourly gas consumption for a meter over
// [from, to), following pagination.
func (c *Client) GasConsumption(ctx context.Context, meter Meter, from, to time.Time) ([]ConsumptionReading, error) {
	endpoint := fmt.Sprintf("%s/gas-meter-points/%s/meters/%s/consumption/",
		c.baseURL, url.PathEscape(meter.PointID), url.PathEscape(meter.Serial))
	return c.fetchConsumptionPages(ctx, "gas_consumption", endpoint, from, to)
}

// GasMeterPoint fetches the meter point details (including agreements) for
// an MPRN.
func (c *Client) GasMeterPoint(ctx context.Context, mprn string) (*GasMeterPoint, error) {
	endpoint := fmt.Sprintf("%s/gas-meter-points/%s/", c.baseURL, url.PathEscape(mprn))

	var point GasMeterPoint
	if err := c.getJSON(ctx, "gas_meter_point", endpoint, &point); err != nil {
		return nil, err
	}
	return &point, nil
}

// activeGasTariff resolves the product and tariff code for the agreement
// currently active on a gas meter point.
func (c *Client) activeGasTariff(ctx context.Context, mprn string) (productCode, tariffCode string, err error) {
	point, err := c.GasMeterPoint(ctx, mprn)
	if err != nil {
		return "", "", err
	}

	agreement := ActiveAgreement(point.Agreements, time.Now())
	if agreement == nil {
		return "", "", apperrors.NewAPIError("resolve gas tariff", 0, apperrors.ErrNoActiveAgreement)
	}

	productCode = ProductCodeFromTariffCode(agreement.TariffCode)
	if productCode == "" {
		return "", "", apperrors.NewAPIError("resolve gas tariff", 0,
			fmt.Errorf("cannot derive product code from tariff code %q", agreement.TariffCode))
	}

	return productCode, agreement.TariffCode, nil
}

// fetchTariffPages fetches all pages of a rate endpoint.
func (c *Client) fetchTariffPages(ctx context.Context, op, endpoint string, from, to time.Time) ([]TariffRate, error) {
	next := pageURL(endpoint, from, to, ratesPageSize)

	var all []TariffRate
	for next != "" {
		var page tariffPage
		if err := c.getJSON(ctx, op, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].ValidFrom.Before(all[j].ValidFrom)
	})

	logger.Debug().Str("op", op).Int("count", len(all)).Msg("Fetched tariff rates")
	return all, nil
}

// fetchConsumptionPages fetches all pages of a consumption endpoint.
func (c *Client) fetchConsumptionPages(ctx context.Context, op, endpoint string, from, to time.Time) ([]ConsumptionReading, error) {
	next := pageURL(endpoint, from, to, consumptionPageSize)

	var all []ConsumptionReading
	for next != "" {
		var page consumptionPage
		if err := c.getJSON(ctx, op, next, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Results...)

		next = ""
		if page.Next != nil {
			next = *page.Next
		}
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].IntervalStart.Before(all[j].IntervalStart)
	})

	logger.Debug().Str("op", op).Int("count", len(all)).Msg("Fetched consumption readings")
	return all, nil
}

// pageURL builds the first-page URL for a period-bounded endpoint.
func pageURL(endpoint string, from, to time.Time, pageSize int) string {
	params := url.Values{}
	params.Set("period_from", from.UTC().Format(timestampFormat))
	params.Set("period_to", to.UTC().Format(timestampFormat))
	params.Set("page_size", fmt.Sprintf("%d", pageSize))
	return endpoint + "?" + params.Encode()
}

// getJSON performs a rate-limited, breaker-protected GET and decodes the
// JSON response body into out.
func (c *Client) getJSON(ctx context.Context, op, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewAPIError(op, 0, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(op).Inc()
	start := time.Now()

	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.doGet(ctx, op, rawURL, out)
	})
	metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.UpstreamRequestErrors.WithLabelValues(op).Inc()
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return apperrors.NewAPIError(op, 0, apperrors.ErrCircuitBreakerOpen)
		}
		return err
	}
	return nil
}

// doGet performs a single HTTP GET with basic auth.
func (c *Client) doGet(ctx context.Context, op, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apperrors.NewAPIError(op, 0, err)
	}
	if c.apiKey != "" {
		req.SetBasicAuth(c.apiKey, "")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewAPIError(op, 0, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewAPIError(op, resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.NewAPIError(op, resp.StatusCode, fmt.Errorf("decode response: %w", err))
	}
	return nil
}
