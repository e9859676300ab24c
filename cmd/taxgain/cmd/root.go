package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rychen/capgains/config"
	"github.com/rychen/capgains/rates"
	"github.com/rychen/capgains/store"
)

var rootCmd = &cobra.Command{
	Use:   "taxgain",
	Short: "Capital gains tax calculator for Longbridge trading history",
	Long: `Taxgain computes realized capital gains tax from a multi-year trading
history using the weighted average cost method.

It imports filled orders from the Longbridge OpenAPI into a local SQLite
database, caches the exchange rates needed to settle each trade into the
reporting currency, and replays every instrument's full history to produce
year-scoped taxable transactions, including short positions, option
contract multipliers and transaction fees.

Typical workflow:
  taxgain import --year 2024
  taxgain calculate --year 2024`,
}

var cfgFile string

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (YAML or JSON; defaults apply when omitted)")
}

func loadConfig() (*config.Config, error) {
	if cfgFile == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(cfgFile)
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Database.Path)
}

func newRateProvider(cfg *config.Config, s *store.Store) *rates.Provider {
	p := rates.New(s, cfg.Rates.Fallback, cfg.Tax.ReportingCurrency)
	if cfg.Rates.BaseURL != "" {
		p.BaseURL = cfg.Rates.BaseURL
	}
	return p
}

// yearOrDefault resolves the --year flag against the configured default.
func yearOrDefault(year int, cfg *config.Config) int {
	if year > 0 {
		return year
	}
	return cfg.Tax.DefaultYear
}
