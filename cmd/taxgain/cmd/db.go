package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect stored orders and cached exchange rates",
}

var dbOrdersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List recent orders",
	Args:  cobra.NoArgs,
	RunE:  runDBOrders,
}

var dbRatesCmd = &cobra.Command{
	Use:   "rates",
	Short: "List recently cached exchange rates",
	Args:  cobra.NoArgs,
	RunE:  runDBRates,
}

var (
	dbLimit int
	dbYear  int
)

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbOrdersCmd)
	dbCmd.AddCommand(dbRatesCmd)

	dbCmd.PersistentFlags().IntVarP(&dbLimit, "limit", "n", 20, "max rows to show")
	dbOrdersCmd.Flags().IntVarP(&dbYear, "year", "y", 0, "filter by year")
}

func runDBOrders(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	orders, err := s.RecentOrders(dbYear, dbLimit)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("No orders found.")
		return nil
	}

	fmt.Printf("%-24s %-22s %-5s %10s %12s %-5s %s\n",
		"ORDER ID", "SYMBOL", "SIDE", "QTY", "PRICE", "CURR", "DATE")
	for _, o := range orders {
		fmt.Printf("%-24s %-22s %-5s %10.2f %12.4f %-5s %s\n",
			o.ID, o.Symbol, o.Side, o.Quantity, o.Price, o.Currency, o.Date())
	}
	return nil
}

func runDBRates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	cached, err := s.RecentRates(dbLimit)
	if err != nil {
		return err
	}
	if len(cached) == 0 {
		fmt.Println("No exchange rates cached.")
		return nil
	}

	fmt.Printf("%-12s %-5s %-5s %s\n", "DATE", "FROM", "TO", "RATE")
	for _, r := range cached {
		fmt.Printf("%-12s %-5s %-5s %.4f\n", r.Date, r.From, r.To, r.Rate)
	}
	return nil
}
