package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundingModes(t *testing.T) {
	tests := []struct {
		in    string
		mode  RoundingMode
		whole string
		cents string
	}{
		{"20.5", HalfUp, "21", "20.50"},
		{"21.5", HalfEven, "22", "21.50"},
		{"20.5", HalfEven, "20", "20.50"},
		{"-20.5", HalfUp, "-21", "-20.50"},
		{"10.005", HalfUp, "10", "10.01"},
		{"10.005", HalfEven, "10", "10.00"},
		{"0", HalfUp, "0", "0.00"},
		{"99.499", HalfUp, "99", "99.50"},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode)+"_"+tt.in, func(t *testing.T) {
			d := decimal.RequireFromString(tt.in)
			assert.Equal(t, tt.whole, tt.mode.Whole(d))
			assert.Equal(t, tt.cents, tt.mode.Cents(d))
		})
	}
}

func TestParseRoundingMode(t *testing.T) {
	mode, err := ParseRoundingMode("")
	require.NoError(t, err)
	assert.Equal(t, HalfUp, mode)

	mode, err = ParseRoundingMode(" HALF_EVEN ")
	require.NoError(t, err)
	assert.Equal(t, HalfEven, mode)

	_, err = ParseRoundingMode("truncate")
	assert.Error(t, err)
}
