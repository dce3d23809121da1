package util

import (
	"fmt"
	"math"
)

// FormatPower scales a MW (or MVAr) value into a readable unit.
func FormatPower(value float64, unit string) string {
	absValue := math.Abs(value)
	switch {
	case absValue >= 1000:
		return fmt.Sprintf("%.3f G%s", value/1e3, unit)
	case absValue >= 1:
		return fmt.Sprintf("%.3f M%s", value, unit)
	case absValue >= 1e-3:
		return fmt.Sprintf("%.3f k%s", value*1e3, unit)
	case absValue == 0:
		return fmt.Sprintf("0.000 M%s", unit)
	default:
		return fmt.Sprintf("%.3e M%s", value, unit)
	}
}

// FormatComplexPower prints an apparent power as an active/reactive pair.
func FormatComplexPower(p, q float64) string {
	return fmt.Sprintf("%9.3f MW %9.3f MVAr", p, q)
}

func FormatPerUnit(value float64) string {
	return fmt.Sprintf("%8.4f", value)
}

// FormatVoltage prints a phasor as magnitude and angle, p.u. and degrees.
func FormatVoltage(vm, vaDeg float64) string {
	return fmt.Sprintf("%8.4f<%7.2fdeg", vm, vaDeg)
}

func FormatAngle(deg float64) string {
	return fmt.Sprintf("%7.2f", deg)
}

// FormatLoading prints a loading fraction as a percentage.
func FormatLoading(frac float64) string {
	return fmt.Sprintf("%6.1f%%", frac*100)
}
