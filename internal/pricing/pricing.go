// Package pricing computes print prices from page counts and print options.
package pricing

import "math"

// Layout values.
const (
	SingleSided = "Single-sided"
	DoubleSided = "Double-sided"
)

// Default per-side prices in rupees.
const (
	DefaultColorPerSide = 5.0
	DefaultBWPerSide    = 2.0
)

// Calculator holds the per-side unit prices.
type Calculator struct {
	ColorPerSide float64
	BWPerSide    float64
}

// Default returns a Calculator with the standard shop prices.
func Default() Calculator {
	return Calculator{ColorPerSide: DefaultColorPerSide, BWPerSide: DefaultBWPerSide}
}

// UnitPrice is the per-side price for the chosen mode.
func (c Calculator) UnitPrice(isColor bool) float64 {
	if isColor {
		return c.ColorPerSide
	}
	return c.BWPerSide
}

// LayoutMultiplier halves the per-page price for double-sided prints.
func LayoutMultiplier(layout string) float64 {
	if layout == DoubleSided {
		return 0.5
	}
	return 1.0
}

// Price returns pages * unit * layout multiplier * copies, or 0 when there is nothing to print.
// Page selection and pages per sheet do not take part.
func (c Calculator) Price(pages, copies int, isColor bool, layout string) float64 {
	if pages <= 0 || copies <= 0 {
		return 0
	}
	return float64(pages) * c.UnitPrice(isColor) * LayoutMultiplier(layout) * float64(copies)
}

// Total sums line prices.
func Total(prices ...float64) float64 {
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum
}

// Round2 rounds to paise for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
