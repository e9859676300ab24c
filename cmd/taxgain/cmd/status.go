package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rychen/capgains/trade"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var statusYear int

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().IntVarP(&statusYear, "year", "y", 0, "show a single year")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	fmt.Println("DATABASE STATUS")

	if statusYear > 0 {
		orders, err := s.OrdersByYear(statusYear)
		if err != nil {
			return err
		}
		symbols, err := s.SymbolsWithSells(statusYear)
		if err != nil {
			return err
		}
		var buys, sells int
		for _, o := range orders {
			if o.Side == trade.Buy {
				buys++
			} else {
				sells++
			}
		}
		fmt.Printf("Year: %d\n", statusYear)
		fmt.Printf("Orders: %d (buy: %d, sell: %d)\n", len(orders), buys, sells)
		fmt.Printf("Symbols with sells: %s\n", strings.Join(symbols, ", "))
		return nil
	}

	counts, err := s.YearCounts()
	if err != nil {
		return err
	}
	var total int
	for _, yc := range counts {
		total += yc.Orders
	}
	fmt.Printf("Total orders: %d\n", total)
	fmt.Println("By year:")
	for _, yc := range counts {
		fmt.Printf("  %s: %d orders\n", yc.Year, yc.Orders)
	}
	return nil
}
