package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rychen/capgains/longbridge"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import filled orders from the Longbridge API",
	Long: `Import fetches the year's filled orders from the Longbridge OpenAPI
(read-only) into the local database and pre-fetches the exchange rates
needed to settle them. Credentials are read from LONGBRIDGE_APP_KEY,
LONGBRIDGE_APP_SECRET and LONGBRIDGE_ACCESS_TOKEN (a .env file in the
working directory is honored).`,
	Args: cobra.NoArgs,
	RunE: runImport,
}

var (
	importYear  int
	importClear bool
)

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().IntVarP(&importYear, "year", "y", 0, "year to import (default from config)")
	importCmd.Flags().BoolVar(&importClear, "clear", false, "clear existing data for the year before import")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.LoadCredentials()
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}
	year := yearOrDefault(importYear, cfg)

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	if importClear {
		fmt.Printf("Clearing existing data for %d...\n", year)
		if err := s.ClearYear(year); err != nil {
			return fmt.Errorf("clear year: %w", err)
		}
	}

	client := longbridge.NewClient(
		cfg.Longbridge.AppKey, cfg.Longbridge.AppSecret, cfg.Longbridge.AccessToken)
	if err := client.TestConnection(cmd.Context()); err != nil {
		return fmt.Errorf("connect to Longbridge: %w", err)
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)
	end := time.Date(year, 12, 31, 23, 59, 59, 0, time.Local)
	fmt.Printf("Fetching orders %s to %s...\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"))

	orders, err := client.FetchOrders(cmd.Context(), start, end)
	if err != nil {
		return fmt.Errorf("fetch orders: %w", err)
	}
	if len(orders) == 0 {
		fmt.Printf("No orders found for %d\n", year)
		return nil
	}

	if err := s.SaveOrders(orders); err != nil {
		return fmt.Errorf("save orders: %w", err)
	}
	fmt.Printf("Imported %d orders\n", len(orders))

	// Pre-warm the rate cache so calculate runs without network access.
	provider := newRateProvider(cfg, s)
	dates := map[string]bool{}
	currencies := map[string]bool{}
	for _, o := range orders {
		dates[o.Date()] = true
		if o.Currency != cfg.Tax.ReportingCurrency {
			currencies[o.Currency] = true
		}
	}
	dateList := make([]string, 0, len(dates))
	for d := range dates {
		dateList = append(dateList, d)
	}
	sort.Strings(dateList)

	for currency := range currencies {
		fmt.Printf("Fetching %s/%s rates for %d dates...\n",
			currency, cfg.Tax.ReportingCurrency, len(dateList))
		provider.BatchFetch(dateList, currency, cfg.Tax.ReportingCurrency)
	}

	fmt.Println("Import completed")
	return nil
}
