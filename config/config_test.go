package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.InDelta(t, 0.20, cfg.Tax.Rate, 1e-12)
	assert.Equal(t, "CNY", cfg.Tax.ReportingCurrency)
	assert.InDelta(t, 7.2, cfg.Rates.Fallback["USD"], 1e-12)
}

func TestLoadFromYAMLFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  path: /tmp/test.db
tax:
  rate: 0.15
  default_year: 2025
  reporting_currency: EUR
rates:
  fallback:
    USD: 0.93
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.Database.Path)
	assert.InDelta(t, 0.15, cfg.Tax.Rate, 1e-12)
	assert.Equal(t, 2025, cfg.Tax.DefaultYear)
	assert.Equal(t, "EUR", cfg.Tax.ReportingCurrency)
	assert.InDelta(t, 0.93, cfg.Rates.Fallback["USD"], 1e-12)
	// Unset settings keep defaults.
	assert.Equal(t, "./output", cfg.Output.Dir)
}

func TestLoadFromJSONFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"tax": {"rate": 0.25, "reporting_currency": "CNY"}}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, cfg.Tax.Rate, 1e-12)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tax:\n  rate: 2.0\n"), 0o644))

	_, err := LoadFromFile(path)
	assert.ErrorContains(t, err, "tax.rate")
}

func TestValidateCredentials(t *testing.T) {
	cfg := Default()

	t.Setenv("LONGBRIDGE_APP_KEY", "k")
	t.Setenv("LONGBRIDGE_APP_SECRET", "")
	t.Setenv("LONGBRIDGE_ACCESS_TOKEN", "tok")
	cfg.LoadCredentials()

	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LONGBRIDGE_APP_SECRET")
	assert.NotContains(t, err.Error(), "LONGBRIDGE_APP_KEY,")

	t.Setenv("LONGBRIDGE_APP_SECRET", "s")
	cfg.LoadCredentials()
	assert.NoError(t, cfg.ValidateCredentials())
}
