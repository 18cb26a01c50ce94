// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package octopus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/soothill/octopus-energy-cache/pkg/errors"
)

func TestTariffRates_SinglePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/products/AGILE-24-10-01/electricity-tariffs/E-1R-AGILE-24-10-01-C/standard-unit-rates/"
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if got := r.URL.Query().Get("page_size"); got != "1500" {
			t.Errorf("page_size = %s, want 1500", got)
		}
		if got := r.URL.Query().Get("period_from"); got != "2025-06-01T00:00:00Z" {
			t.Errorf("period_from = %s, want 2025-06-01T00:00:00Z", got)
		}

		writePage(t, w, map[string]any{
			"count": 2,
			"next":  nil,
			"results": []map[string]any{
				{"valid_from": "2025-06-01T00:30:00Z", "valid_to": "2025-06-01T01:00:00Z", "value_inc_vat": 18.2, "value_exc_vat": 17.3},
				{"valid_from": "2025-06-01T00:00:00Z", "valid_to": "2025-06-01T00:30:00Z", "value_inc_vat": 24.5, "value_exc_vat": 23.3},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, 0)
	rates, err := client.TariffRates(context.Background(), "AGILE-24-10-01", "E-1R-AGILE-24-10-01-C",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("TariffRates() error = %v", err)
	}

	if len(rates) != 2 {
		t.Fatalf("got %d rates, want 2", len(rates))
	}
	// The API returns newest first; the client must sort ascending
	if !rates[0].ValidFrom.Before(rates[1].ValidFrom) {
		t.Errorf("rates not in ascending valid_from order: %v, %v", rates[0].ValidFrom, rates[1].ValidFrom)
	}
	if rates[0].ValueIncVAT != 24.5 {
		t.Errorf("first rate value_inc_vat = %v, want 24.5", rates[0].ValueIncVAT)
	}
}

func TestTariffRates_FollowsPagination(t *testing.T) {
	var server *httptest.Server
	requests := 0
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("page") == "2" {
			writePage(t, w, map[string]any{
				"count": 2,
				"next":  nil,
				"results": []map[string]any{
					{"valid_from": "2025-06-01T00:30:00Z", "valid_to": "2025-06-01T01:00:00Z", "value_inc_vat": 18.2, "value_exc_vat": 17.3},
				},
			})
			return
		}
		next := server.URL + r.URL.Path + "?page=2"
		writePage(t, w, map[string]any{
			"count": 2,
			"next":  next,
			"results": []map[string]any{
				{"valid_from": "2025-06-01T00:00:00Z", "valid_to": "2025-06-01T00:30:00Z", "value_inc_vat": 24.5, "value_exc_vat": 23.3},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, 0)
	rates, err := client.TariffRates(context.Background(), "AGILE-24-10-01", "E-1R-AGILE-24-10-01-C",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("TariffRates() error = %v", err)
	}

	if requests != 2 {
		t.Errorf("made %d requests, want 2 (pagination must be followed)", requests)
	}
	if len(rates) != 2 {
		t.Errorf("got %d rates across pages, want 2", len(rates))
	}
}

func TestConsumption_SendsBasicAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			t.Error("request missing basic auth")
		}
		if user != "sk_test_key" || pass != "" {
			t.Errorf("basic auth = %q/%q, want API key with empty password", user, pass)
		}

		wantPath := "/electricity-meter-points/1200000000000/meters/21E1111111/consumption/"
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		if got := r.URL.Query().Get("page_size"); got != "5000" {
			t.Errorf("page_size = %s, want 5000", got)
		}

		writePage(t, w, map[string]any{
			"count": 1,
			"next":  nil,
			"results": []map[string]any{
				{"interval_start": "2025-06-01T00:00:00Z", "interval_end": "2025-06-01T00:30:00Z", "consumption": 0.25},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", 0, 0)
	meter := Meter{PointID: "1200000000000", Serial: "21E1111111"}
	readings, err := client.Consumption(context.Background(), meter,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Consumption() error = %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("got %d readings, want 1", len(readings))
	}
	if readings[0].Consumption != 0.25 {
		t.Errorf("consumption = %v, want 0.25", readings[0].Consumption)
	}
}

func TestGasConsumption_UsesGasEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/gas-meter-points/7500000000/meters/G4A1111111/consumption/"
		if r.URL.Path != wantPath {
			t.Errorf("path = %s, want %s", r.URL.Path, wantPath)
		}
		writePage(t, w, map[string]any{"count": 0, "next": nil, "results": []map[string]any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", 0, 0)
	meter := Meter{PointID: "7500000000", Serial: "G4A1111111"}
	if _, err := client.GasConsumption(context.Background(), meter,
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("GasConsumption() error = %v", err)
	}
}

func TestGasTariffRates_ResolvesActiveAgreement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gas-meter-points/7500000000/":
			writePage(t, w, map[string]any{
				"mprn": "7500000000",
				"agreements": []map[string]any{
					{"tariff_code": "G-1R-VAR-22-11-01-C", "valid_from": "2023-01-01T00:00:00Z", "valid_to": nil},
				},
			})
		case "/products/VAR-22-11-01/gas-tariffs/G-1R-VAR-22-11-01-C/standard-unit-rates/":
			writePage(t, w, map[string]any{
				"count": 1,
				"next":  nil,
				"results": []map[string]any{
					{"valid_from": "2025-06-01T00:00:00Z", "valid_to": "2025-06-02T00:00:00Z", "value_inc_vat": 6.3, "value_exc_vat": 6.0},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", 0, 0)
	rates, err := client.GasTariffRates(context.Background(), "7500000000",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GasTariffRates() error = %v", err)
	}
	if len(rates) != 1 || rates[0].ValueIncVAT != 6.3 {
		t.Errorf("rates = %+v, want the gas unit rate", rates)
	}
}

func TestGasStandingCharges_UsesStandingChargeEndpoint(t *testing.T) {
	sawStandingCharges := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gas-meter-points/7500000000/":
			writePage(t, w, map[string]any{
				"mprn": "7500000000",
				"agreements": []map[string]any{
					{"tariff_code": "G-1R-VAR-22-11-01-C", "valid_from": "2023-01-01T00:00:00Z", "valid_to": nil},
				},
			})
		case "/products/VAR-22-11-01/gas-tariffs/G-1R-VAR-22-11-01-C/standing-charges/":
			sawStandingCharges = true
			writePage(t, w, map[string]any{
				"count": 1,
				"next":  nil,
				"results": []map[string]any{
					{"valid_from": "2025-06-01T00:00:00Z", "valid_to": "2025-06-02T00:00:00Z", "value_inc_vat": 29.6, "value_exc_vat": 28.2},
				},
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", 0, 0)
	charges, err := client.GasStandingCharges(context.Background(), "7500000000",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("GasStandingCharges() error = %v", err)
	}
	if !sawStandingCharges {
		t.Error("standing charges endpoint was never hit")
	}
	if len(charges) != 1 || charges[0].ValueIncVAT != 29.6 {
		t.Errorf("charges = %+v, want the standing charge", charges)
	}
}

func TestGasTariffRates_NoAgreements(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writePage(t, w, map[string]any{"mprn": "7500000000", "agreements": []map[string]any{}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_key", 0, 0)
	_, err := client.GasTariffRates(context.Background(), "7500000000",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if !errors.Is(err, apperrors.ErrNoActiveAgreement) {
		t.Errorf("error = %v, want ErrNoActiveAgreement", err)
	}
}

func TestTariffRates_HTTPErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0, 0)
	_, err := client.TariffRates(context.Background(), "NOPE", "E-1R-NOPE-C",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatal("TariffRates() error = nil, want API error")
	}

	var apiErr *apperrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", apiErr.StatusCode, http.StatusNotFound)
	}
}

func TestCircuitBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "server error", http.StatusInternalServerError)
	}))
	defer server.Close()

	// High rate limit so the breaker, not the limiter, is what we exercise
	client := NewClient(server.URL, "", 1000, 1000)
	ctx := context.Background()
	from := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

	for i := 0; i < breakerFailureTrip; i++ {
		if _, err := client.TariffRates(ctx, "AGILE-24-10-01", "E-1R-AGILE-24-10-01-C", from, to); err == nil {
			t.Fatalf("request %d: error = nil, want failure", i+1)
		}
	}

	// The breaker is now open; the next call must fail fast
	_, err := client.TariffRates(ctx, "AGILE-24-10-01", "E-1R-AGILE-24-10-01-C", from, to)
	if !errors.Is(err, apperrors.ErrCircuitBreakerOpen) {
		t.Errorf("error after trip = %v, want ErrCircuitBreakerOpen", err)
	}
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient("", "", 0, 0)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %s, want %s", client.baseURL, DefaultBaseURL)
	}
}

func writePage(t *testing.T, w http.ResponseWriter, payload map[string]any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func TestPageURL(t *testing.T) {
	got := pageURL("https://example.test/rates/",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), 1500)
	want := fmt.Sprintf("https://example.test/rates/?page_size=1500&period_from=%s&period_to=%s",
		"2025-06-01T00%3A00%3A00Z", "2025-06-02T00%3A00%3A00Z")
	if got != want {
		t.Errorf("pageURL() = %s, want %s", got, want)
	}
}
