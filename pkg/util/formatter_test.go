package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestFormatPower: the unit prefix follows the magnitude, the sign rides
// along.
func TestFormatPower(t *testing.T) {
	tests := []struct {
		value float64
		unit  string
		want  string
	}{
		{1500, "W", "1.500 GW"},
		{-2500, "VAr", "-2.500 GVAr"},
		{50, "W", "50.000 MW"},
		{0.5, "W", "500.000 kW"},
		{0, "W", "0.000 MW"},
		{1e-5, "W", "1.000e-05 MW"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPower(tt.value, tt.unit))
	}
}

func TestFormatComplexPower(t *testing.T) {
	assert.Equal(t, "   20.000 MW   -10.000 MVAr", FormatComplexPower(20, -10))
}

func TestFormatPerUnit(t *testing.T) {
	assert.Equal(t, "  0.9500", FormatPerUnit(0.95))
}

func TestFormatVoltage(t *testing.T) {
	assert.Equal(t, "  1.0200<  -3.50deg", FormatVoltage(1.02, -3.5))
}

func TestFormatAngle(t *testing.T) {
	assert.Equal(t, " -12.34", FormatAngle(-12.34))
}

func TestFormatLoading(t *testing.T) {
	assert.Equal(t, "  75.0%", FormatLoading(0.75))
	assert.Equal(t, " 150.0%", FormatLoading(1.5))
}
