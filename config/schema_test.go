// Copyright (c) 2025 Darren Soothill
// Licensed under the MIT License

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateWithSchema_ValidConfig(t *testing.T) {
	// Create a temporary valid config
	validConfig := `{
    "octopus": {
      "base_url": "https://api.octopus.energy/v1",
      "api_key": "sk_test_key",
      "product_code": "AGILE-24-10-01",
      "tariff_code": "E-1R-AGILE-24-10-01-C",
      "electricity": {
        "point_id": "1200000000000",
        "serial": "21E1111111"
      },
      "rate_limit": 5,
      "burst": 10
    },
    "cache": {
      "path": "octopus_cache.db",
      "tariff_ttl": "30m",
      "consumption_ttl": "24h"
    },
    "refresh": {
      "rates_interval": "30m",
      "consumption_interval": "6h",
      "history_days": 7
    },
    "costing": {
      "standing_charge": 0.4786,
      "timezone": "Europe/London"
    },
    "logging": {
      "level": "info"
    },
    "notifications": {
      "slack_webhook_url": "https://hooks.slack.com/services/TEST/WEBHOOK/URL"
    }
}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(validConfig), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Validate should pass
	err = ValidateWithSchema(tmpFile)
	if err != nil {
		t.Errorf("ValidateWithSchema() with valid config failed: %v", err)
	}
}

func TestValidateWithSchema_UnknownSection(t *testing.T) {
	// Config with an unrecognized top-level section
	invalidConfig := `{
  "default": {
    "octopus": {
      "api_key": "sk_test_key"
    }
  }
}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Validate should fail
	err = ValidateWithSchema(tmpFile)
	if err == nil {
		t.Error("ValidateWithSchema() should fail with an unknown top-level section")
	}
}

func TestValidateWithSchema_InvalidDuration(t *testing.T) {
	// Config with a malformed duration
	invalidConfig := `{
  "octopus": {
    "api_key": "sk_test_key",
    "electricity": {
      "point_id": "1200000000000",
      "serial": "21E1111111"
    }
  },
  "cache": {
    "tariff_ttl": "not-a-duration"
  }
}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Validate should fail
	err = ValidateWithSchema(tmpFile)
	if err == nil {
		t.Error("ValidateWithSchema() should fail with invalid duration format")
	}
}

func TestValidateWithSchema_InvalidLogLevel(t *testing.T) {
	// Config with invalid enum value
	invalidConfig := `{
  "octopus": {
    "api_key": "sk_test_key",
    "electricity": {
      "point_id": "1200000000000",
      "serial": "21E1111111"
    }
  },
  "logging": {
    "level": "invalid-level"
  }
}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Validate should fail
	err = ValidateWithSchema(tmpFile)
	if err == nil {
		t.Error("ValidateWithSchema() should fail with invalid log level")
	}
}

func TestValidateWithSchema_NegativeStandingCharge(t *testing.T) {
	// Config with a value below minimum
	invalidConfig := `{
  "octopus": {
    "api_key": "sk_test_key",
    "electricity": {
      "point_id": "1200000000000",
      "serial": "21E1111111"
    }
  },
  "costing": {
    "standing_charge": -1
  }
}`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(invalidConfig), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	// Validate should fail
	err = ValidateWithSchema(tmpFile)
	if err == nil {
		t.Error("ValidateWithSchema() should fail with a negative standing charge")
	}
}

func TestValidateWithSchema_FileNotFound(t *testing.T) {
	err := ValidateWithSchema("nonexistent-file.json")
	if err == nil {
		t.Error("ValidateWithSchema() should fail with nonexistent file")
	}
}

func TestValidateWithSchema_InvalidJSON(t *testing.T) {
	invalidJSON := `{
  "octopus": {
    "api_key": "sk_test_key"
`

	tmpFile := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(tmpFile, []byte(invalidJSON), 0600)
	if err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}

	err = ValidateWithSchema(tmpFile)
	if err == nil {
		t.Error("ValidateWithSchema() should fail with invalid JSON")
	}
}

func TestGetSchemaJSON(t *testing.T) {
	schema := GetSchemaJSON()
	if schema == "" {
		t.Error("GetSchemaJSON() returned an empty schema")
	}
}
