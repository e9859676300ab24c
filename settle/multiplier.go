package settle

import "regexp"

// Option codes look like AMD250718C130000.US: underlying ticker, 6-digit
// expiry, C or P, strike, market suffix. The match is anchored on the full
// symbol so leveraged-ETF tickers that merely resemble option codes
// (AMDL.US, SOXL.US) classify as plain instruments.
var optionCode = regexp.MustCompile(`^[A-Z][A-Z.]*\d{6}[CP]\d+\.[A-Z]+$`)

// Multiplier returns the number of underlying units one traded unit of the
// symbol represents: 100 for standard option contracts, 1 otherwise. It is
// a pure function of the symbol string.
func Multiplier(symbol string) float64 {
	if optionCode.MatchString(symbol) {
		return 100
	}
	return 1
}
