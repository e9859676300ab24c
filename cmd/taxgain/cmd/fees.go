package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rychen/capgains/longbridge"
)

var feesCmd = &cobra.Command{
	Use:   "fees",
	Short: "Backfill missing fee data from the Longbridge API",
	Long: `Fees finds stored orders without fee data and fetches each order's
charge breakdown. Fees reduce sell proceeds and increase buy cost, so
backfilling them before calculating keeps the tax figure accurate.`,
	Args: cobra.NoArgs,
	RunE: runFees,
}

var feesYear int

func init() {
	rootCmd.AddCommand(feesCmd)
	feesCmd.Flags().IntVarP(&feesYear, "year", "y", 0, "limit to one year (0 = all)")
}

func runFees(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.LoadCredentials()
	if err := cfg.ValidateCredentials(); err != nil {
		return err
	}

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	missing, err := s.OrdersMissingFees(feesYear)
	if err != nil {
		return fmt.Errorf("find orders missing fees: %w", err)
	}
	if len(missing) == 0 {
		fmt.Println("All orders have fee data.")
		return nil
	}
	fmt.Printf("Backfilling fees for %d orders...\n", len(missing))

	client := longbridge.NewClient(
		cfg.Longbridge.AppKey, cfg.Longbridge.AppSecret, cfg.Longbridge.AccessToken)

	var updated, failed int
	for _, o := range missing {
		fees, err := client.OrderFees(cmd.Context(), o.ID)
		if err != nil {
			fmt.Printf("  %s (%s): %v\n", o.ID, o.Symbol, err)
			failed++
			continue
		}
		if fees.TotalAmount == "" {
			continue
		}
		if err := s.UpdateOrderFees(o.ID, fees); err != nil {
			return fmt.Errorf("update fees for %s: %w", o.ID, err)
		}
		updated++
	}

	fmt.Printf("Updated %d orders (%d lookups failed)\n", updated, failed)
	return nil
}
