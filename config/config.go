// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

// Package config provides configuration management for the Octopus energy cache.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Octopus       OctopusConfig       `yaml:"octopus"`
	Cache         CacheConfig         `yaml:"cache"`
	Refresh       RefreshConfig       `yaml:"refresh"`
	Costing       CostingConfig       `yaml:"costing"`
	Logging       LoggingConfig       `yaml:"logging"`
	Notifications NotificationsConfig `yaml:"notifications"`
}

// OctopusConfig holds Octopus Energy API settings
type OctopusConfig struct {
	BaseURL     string      `yaml:"base_url"`
	APIKey      string      `yaml:"api_key"`
	ProductCode string      `yaml:"product_code"`
	TariffCode  string      `yaml:"tariff_code"`
	Electricity MeterConfig `yaml:"electricity"`
	Gas         MeterConfig `yaml:"gas"`
	RateLimit   float64     `yaml:"rate_limit"`
	Burst       int         `yaml:"burst"`
}

// MeterConfig identifies a single electricity or gas meter
type MeterConfig struct {
	PointID string `yaml:"point_id"` // MPAN for electricity, MPRN for gas
	Serial  string `yaml:"serial"`
}

// CacheConfig holds local SQLite cache settings
type CacheConfig struct {
	Path           string        `yaml:"path"`
	TariffTTL      time.Duration `yaml:"tariff_ttl"`
	ConsumptionTTL time.Duration `yaml:"consumption_ttl"`
}

// RefreshConfig holds background refresh settings
type RefreshConfig struct {
	RatesInterval       time.Duration `yaml:"rates_interval"`
	ConsumptionInterval time.Duration `yaml:"consumption_interval"`
	HistoryDays         int           `yaml:"history_days"`
}

// CostingConfig holds cost calculation settings
type CostingConfig struct {
	StandingCharge float64 `yaml:"standing_charge"` // GBP per day
	Timezone       string  `yaml:"timezone"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NotificationsConfig holds Slack notification settings
type NotificationsConfig struct {
	SlackWebhookURL string `yaml:"slack_webhook_url"`
}

// Load reads configuration from a YAML file and applies environment variable overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides and defaults
	cfg.applyEnvironmentOverrides()
	cfg.setDefaults()

	// Validate configuration
	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// applyEnvironmentOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvironmentOverrides() {
	if key := os.Getenv("OCTOPUS_API_KEY"); key != "" {
		c.Octopus.APIKey = key
	}
	if mpan := os.Getenv("MPAN_KEY"); mpan != "" {
		c.Octopus.Electricity.PointID = mpan
	}
	if serial := os.Getenv("METER_KEY"); serial != "" {
		c.Octopus.Electricity.Serial = serial
	}
	if mprn := os.Getenv("GAS_MPRN"); mprn != "" {
		c.Octopus.Gas.PointID = mprn
	}
	if serial := os.Getenv("GAS_METER_SERIAL"); serial != "" {
		c.Octopus.Gas.Serial = serial
	}
	if path := os.Getenv("OCTOPUS_DB_PATH"); path != "" {
		c.Cache.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if webhook := os.Getenv("SLACK_WEBHOOK_URL"); webhook != "" {
		c.Notifications.SlackWebhookURL = webhook
	}
	if ttl := os.Getenv("TARIFF_CACHE_TTL"); ttl != "" {
		duration, parseErr := time.ParseDuration(ttl)
		if parseErr == nil {
			c.Cache.TariffTTL = duration
		} else {
			fmt.Fprintf(os.Stderr, "Warning: Failed to parse TARIFF_CACHE_TTL '%s': %v\n", ttl, parseErr)
		}
	}
	if ttl := os.Getenv("CONSUMPTION_CACHE_TTL"); ttl != "" {
		duration, parseErr := time.ParseDuration(ttl)
		if parseErr == nil {
			c.Cache.ConsumptionTTL = duration
		} else {
			fmt.Fprintf(os.Stderr, "Warning: Failed to parse CONSUMPTION_CACHE_TTL '%s': %v\n", ttl, parseErr)
		}
	}
}

// setDefaults sets default values for configuration fields if not provided
func (c *Config) setDefaults() {
	if c.Octopus.BaseURL == "" {
		c.Octopus.BaseURL = "https://api.octopus.energy/v1"
	}
	if c.Octopus.ProductCode == "" {
		c.Octopus.ProductCode = "AGILE-24-10-01"
	}
	if c.Octopus.TariffCode == "" {
		c.Octopus.TariffCode = "E-1R-AGILE-24-10-01-C"
	}
	if c.Octopus.RateLimit == 0 {
		c.Octopus.RateLimit = 5
	}
	if c.Octopus.Burst == 0 {
		c.Octopus.Burst = 10
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "octopus_cache.db"
	}
	if c.Cache.TariffTTL == 0 {
		c.Cache.TariffTTL = 30 * time.Minute
	}
	if c.Cache.ConsumptionTTL == 0 {
		c.Cache.ConsumptionTTL = 24 * time.Hour
	}
	if c.Refresh.RatesInterval == 0 {
		c.Refresh.RatesInterval = 30 * time.Minute
	}
	if c.Refresh.ConsumptionInterval == 0 {
		c.Refresh.ConsumptionInterval = 6 * time.Hour
	}
	if c.Refresh.HistoryDays == 0 {
		c.Refresh.HistoryDays = 7
	}
	if c.Costing.StandingCharge == 0 {
		c.Costing.StandingCharge = 0.4786
	}
	if c.Costing.Timezone == "" {
		c.Costing.Timezone = "Europe/London"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if validateErr := c.validateOctopus(); validateErr != nil {
		return validateErr
	}

	if validateErr := c.validateCache(); validateErr != nil {
		return validateErr
	}

	if validateErr := c.validateRefresh(); validateErr != nil {
		return validateErr
	}

	if validateErr := c.validateCosting(); validateErr != nil {
		return validateErr
	}

	if validateErr := c.validateLogging(); validateErr != nil {
		return validateErr
	}

	return nil
}

// validateOctopus validates the Octopus API configuration
func (c *Config) validateOctopus() error {
	if c.Octopus.BaseURL == "" {
		return fmt.Errorf("octopus.base_url is required")
	}

	parsedURL, parseErr := url.Parse(c.Octopus.BaseURL)
	if parseErr != nil {
		return fmt.Errorf("octopus.base_url is not a valid URL: %w", parseErr)
	}

	if securityErr := validateURLSecurity(parsedURL); securityErr != nil {
		return securityErr
	}

	if c.Octopus.APIKey == "" {
		return fmt.Errorf("octopus.api_key is required (set OCTOPUS_API_KEY)")
	}

	if c.Octopus.TariffCode != "" && len(strings.Split(c.Octopus.TariffCode, "-")) < 4 {
		return fmt.Errorf("octopus.tariff_code %q is not a valid tariff code", c.Octopus.TariffCode)
	}

	if c.Octopus.Electricity.PointID == "" {
		return fmt.Errorf("octopus.electricity.point_id is required (set MPAN_KEY)")
	}
	if c.Octopus.Electricity.Serial == "" {
		return fmt.Errorf("octopus.electricity.serial is required (set METER_KEY)")
	}

	// Gas is optional but must be fully specified when present
	if (c.Octopus.Gas.PointID == "") != (c.Octopus.Gas.Serial == "") {
		return fmt.Errorf("octopus.gas.point_id and octopus.gas.serial must be set together")
	}

	if c.Octopus.RateLimit < 0 {
		return fmt.Errorf("octopus.rate_limit must not be negative")
	}

	return nil
}

// validateURLSecurity checks if the URL uses HTTPS for non-local connections
func validateURLSecurity(parsedURL *url.URL) error {
	if parsedURL.Scheme != "http" {
		return nil
	}

	hostname := strings.ToLower(parsedURL.Hostname())
	isLocal := hostname == "localhost" ||
		hostname == "127.0.0.1" ||
		hostname == "::1" ||
		strings.HasPrefix(hostname, "192.168.") ||
		strings.HasPrefix(hostname, "10.") ||
		strings.HasPrefix(hostname, "172.")

	if !isLocal {
		return fmt.Errorf("octopus.base_url must use HTTPS for non-local connections (got %s). Using HTTP transmits credentials in plaintext and is a security risk", parsedURL.Scheme)
	}

	return nil
}

// validateCache validates the cache configuration
func (c *Config) validateCache() error {
	if c.Cache.Path == "" {
		return fmt.Errorf("cache.path is required")
	}
	if c.Cache.TariffTTL < time.Minute {
		return fmt.Errorf("cache.tariff_ttl must be at least 1 minute")
	}
	if c.Cache.ConsumptionTTL < time.Minute {
		return fmt.Errorf("cache.consumption_ttl must be at least 1 minute")
	}

	return nil
}

// validateRefresh validates the refresh configuration
func (c *Config) validateRefresh() error {
	if c.Refresh.RatesInterval < time.Minute {
		return fmt.Errorf("refresh.rates_interval must be at least 1 minute")
	}
	if c.Refresh.RatesInterval > 24*time.Hour {
		return fmt.Errorf("refresh.rates_interval must not exceed 24 hours")
	}
	if c.Refresh.ConsumptionInterval < time.Minute {
		return fmt.Errorf("refresh.consumption_interval must be at least 1 minute")
	}
	if c.Refresh.HistoryDays < 1 || c.Refresh.HistoryDays > 90 {
		return fmt.Errorf("refresh.history_days must be between 1 and 90")
	}

	return nil
}

// validateCosting validates the costing configuration
func (c *Config) validateCosting() error {
	if c.Costing.StandingCharge < 0 {
		return fmt.Errorf("costing.standing_charge must not be negative")
	}
	if _, loadErr := time.LoadLocation(c.Costing.Timezone); loadErr != nil {
		return fmt.Errorf("costing.timezone %q is not a valid timezone: %w", c.Costing.Timezone, loadErr)
	}

	return nil
}

// validateLogging validates the logging configuration
func (c *Config) validateLogging() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true,
		"warning": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error, fatal, panic")
	}

	return nil
}
