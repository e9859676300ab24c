// Package config loads the calculator configuration: a YAML or JSON file
// for paths and tax settings, and a .env file (or the environment) for the
// Longbridge API credentials.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete calculator configuration.
type Config struct {
	Database DatabaseConfig `json:"database" yaml:"database"`
	Output   OutputConfig   `json:"output" yaml:"output"`
	Tax      TaxConfig      `json:"tax" yaml:"tax"`
	Rates    RatesConfig    `json:"rates" yaml:"rates"`

	// Longbridge credentials come from the environment, never the file.
	Longbridge LongbridgeConfig `json:"-" yaml:"-"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// OutputConfig locates CSV report output.
type OutputConfig struct {
	Dir string `json:"dir" yaml:"dir"`
}

// TaxConfig holds the jurisdiction parameters.
type TaxConfig struct {
	Rate              float64 `json:"rate" yaml:"rate"`
	DefaultYear       int     `json:"default_year" yaml:"default_year"`
	ReportingCurrency string  `json:"reporting_currency" yaml:"reporting_currency"`
}

// RatesConfig configures the exchange-rate provider. Fallback is the
// static approximate table used when neither cache nor API has a rate; it
// maps a source currency to its rate into the reporting currency.
type RatesConfig struct {
	BaseURL  string             `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Fallback map[string]float64 `json:"fallback" yaml:"fallback"`
}

// LongbridgeConfig holds the read-only API credentials.
type LongbridgeConfig struct {
	AppKey      string
	AppSecret   string
	AccessToken string
}

// Default returns the configuration used when no file is given: CNY
// reporting at the 20% individual capital-gains rate, with 2024 average
// fallback rates.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./data/capgains.db"},
		Output:   OutputConfig{Dir: "./output"},
		Tax: TaxConfig{
			Rate:              0.20,
			DefaultYear:       2024,
			ReportingCurrency: "CNY",
		},
		Rates: RatesConfig{
			Fallback: map[string]float64{
				"USD": 7.2,
				"HKD": 0.92,
				"SGD": 5.35,
				"EUR": 7.8,
				"GBP": 9.1,
			},
		},
	}
}

// LoadFromFile reads a YAML or JSON configuration file, falling back to
// JSON when YAML parsing fails. Settings not present in the file keep
// their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadCredentials fills the Longbridge credentials from a .env file in the
// working directory (if present) and the process environment.
func (c *Config) LoadCredentials() {
	_ = godotenv.Load()
	c.Longbridge = LongbridgeConfig{
		AppKey:      os.Getenv("LONGBRIDGE_APP_KEY"),
		AppSecret:   os.Getenv("LONGBRIDGE_APP_SECRET"),
		AccessToken: os.Getenv("LONGBRIDGE_ACCESS_TOKEN"),
	}
}

// Validate checks the file-backed settings.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if c.Tax.Rate < 0 || c.Tax.Rate > 1 {
		return fmt.Errorf("tax.rate must be between 0 and 1")
	}
	if c.Tax.ReportingCurrency == "" {
		return fmt.Errorf("tax.reporting_currency is required")
	}
	for currency, rate := range c.Rates.Fallback {
		if rate <= 0 {
			return fmt.Errorf("rates.fallback[%s] must be positive", currency)
		}
	}
	return nil
}

// ValidateCredentials reports which Longbridge credentials are missing.
func (c *Config) ValidateCredentials() error {
	var missing []string
	if c.Longbridge.AppKey == "" {
		missing = append(missing, "LONGBRIDGE_APP_KEY")
	}
	if c.Longbridge.AppSecret == "" {
		missing = append(missing, "LONGBRIDGE_APP_SECRET")
	}
	if c.Longbridge.AccessToken == "" {
		missing = append(missing, "LONGBRIDGE_ACCESS_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}
