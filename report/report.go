// Package report renders a calculation result: CSV files for filing and a
// plain-text summary for the terminal. It is write-only; nothing here
// feeds back into the calculation.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rychen/capgains/tax"
)

// ExportCSV writes tax_detail_<year>.csv (one row per taxable transaction,
// skipped when there are none) and tax_summary_<year>.csv (one row per
// symbol plus a TOTAL row) into outputDir, creating it if needed. Returns
// the summary path.
func ExportCSV(res *tax.Result, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	if len(res.Transactions) > 0 {
		detailPath := filepath.Join(outputDir, fmt.Sprintf("tax_detail_%d.csv", res.Year))
		if err := writeDetail(res, detailPath); err != nil {
			return "", fmt.Errorf("write detail: %w", err)
		}
	}

	summaryPath := filepath.Join(outputDir, fmt.Sprintf("tax_summary_%d.csv", res.Year))
	if err := writeSummary(res, summaryPath); err != nil {
		return "", fmt.Errorf("write summary: %w", err)
	}
	return summaryPath, nil
}

func writeDetail(res *tax.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"order_id", "symbol", "date", "quantity", "price", "currency",
		"rate", "proceeds", "cost_basis", "gain_loss", "tax",
	}); err != nil {
		return err
	}

	for _, tx := range res.Transactions {
		if err := w.Write([]string{
			tx.OrderID,
			tx.Symbol,
			tx.Date,
			f6(tx.Quantity),
			f6(tx.Price),
			tx.Currency,
			f6(tx.Rate),
			f2(tx.Proceeds),
			f2(tx.CostBasis),
			f2(tx.GainLoss),
			f2(tx.Tax),
		}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeSummary(res *tax.Result, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		"symbol", "gains", "losses", "open_quantity", "open_cost",
	}); err != nil {
		return err
	}

	for _, symbol := range res.Symbols() {
		s := res.Summary[symbol]
		if err := w.Write([]string{
			symbol, f2(s.Gains), f2(s.Losses), f6(s.OpenQuantity), f2(s.OpenCost),
		}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{
		"TOTAL", f2(res.TotalGains), f2(res.TotalLosses), "", "",
	}); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// Render formats the result as the terminal summary block printed by the
// calculate command.
func Render(res *tax.Result, taxRate float64) string {
	out := fmt.Sprintf("TAX CALCULATION SUMMARY FOR %d\n", res.Year)
	out += fmt.Sprintf("Total Gains:  %14.2f\n", res.TotalGains)
	out += fmt.Sprintf("Total Losses: %14.2f\n", res.TotalLosses)
	out += fmt.Sprintf("Net Gains:    %14.2f\n", res.NetGains)
	out += fmt.Sprintf("Tax Rate:     %13.0f%%\n", taxRate*100)
	out += fmt.Sprintf("Tax Owed:     %14.2f\n", res.TotalTax)

	if len(res.Summary) == 0 {
		return out
	}

	out += "\nBy Symbol:\n"
	for _, symbol := range res.Symbols() {
		s := res.Summary[symbol]
		out += fmt.Sprintf("  %-22s gains %12.2f  losses %12.2f  net %12.2f",
			symbol, s.Gains, s.Losses, s.Gains-s.Losses)
		if s.OpenQuantity != 0 {
			out += fmt.Sprintf("  open %g @ %.2f", s.OpenQuantity, s.OpenCost)
		}
		out += "\n"
	}
	return out
}

func f2(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func f6(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
