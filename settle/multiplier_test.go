package settle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMultiplier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		symbol string
		want   float64
	}{
		{"AAPL.US", 1},
		{"SPY.US", 1},
		{"BRK.B.US", 1},
		{"1378.HK", 1},
		{"9988.HK", 1},
		{"AMD250718C130000.US", 100},
		{"AAPL260116C210000.US", 100},
		{"RKLB260417C70000.US", 100},
		{"SPY250402P535000.US", 100},
		{"NVDA251219P100000.US", 100},
		{"AAPL260116P195000.US", 100},
		// Leveraged ETFs are not options even though they end in L.
		{"AMDL.US", 1},
		{"SOXL.US", 1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.symbol, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Multiplier(tt.symbol))
		})
	}
}
