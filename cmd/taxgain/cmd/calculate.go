package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rychen/capgains/report"
	"github.com/rychen/capgains/settle"
	"github.com/rychen/capgains/tax"
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Calculate capital gains tax for a year",
	Long: `Calculate replays the full order history of every instrument sold in
the target year through a weighted average cost pool and reports the
realized gains, losses and tax owed. Results are exported to CSV unless
--export=false.`,
	Args: cobra.NoArgs,
	RunE: runCalculate,
}

var (
	calculateYear   int
	calculateExport bool
)

func init() {
	rootCmd.AddCommand(calculateCmd)
	calculateCmd.Flags().IntVarP(&calculateYear, "year", "y", 0, "tax year (default from config)")
	calculateCmd.Flags().BoolVar(&calculateExport, "export", true, "export detail and summary CSV files")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	year := yearOrDefault(calculateYear, cfg)

	s, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	settler := settle.New(newRateProvider(cfg, s), cfg.Tax.ReportingCurrency)
	calc := tax.New(s, settler, cfg.Tax.Rate)

	fmt.Printf("Calculating capital gains tax for %d...\n\n", year)
	res, err := calc.Calculate(year)
	if err != nil {
		return fmt.Errorf("calculate %d: %w", year, err)
	}

	fmt.Print(report.Render(res, cfg.Tax.Rate))

	if len(res.Transactions) == 0 {
		fmt.Printf("\nNo taxable transactions for %d\n", year)
		return nil
	}

	if calculateExport {
		summaryPath, err := report.ExportCSV(res, cfg.Output.Dir)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		fmt.Printf("\nExported: %s\n", summaryPath)
	}
	return nil
}
