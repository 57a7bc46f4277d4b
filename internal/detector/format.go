package detector

import (
	"fmt"
	"math"
	"strconv"
)

// Rounding picks how values below one thousand are rendered. Deployments
// disagreed on this historically, so it stays configurable.
type Rounding string

const (
	// RoundingInteger renders sub-1k values as a rounded integer ("999").
	RoundingInteger Rounding = "integer"
	// RoundingDecimal renders sub-1k values with one decimal ("999.0").
	RoundingDecimal Rounding = "decimal"
)

// ParseRounding maps a config string onto a Rounding, defaulting to integer.
func ParseRounding(s string) Rounding {
	if Rounding(s) == RoundingDecimal {
		return RoundingDecimal
	}
	return RoundingInteger
}

// FormatCompact renders a USD amount with unit suffixes: 2300000000 → "2.3b",
// 1500000 → "1.5m", 42100 → "42.1k". Invalid input clamps to zero.
func FormatCompact(v float64, r Rounding) string {
	if math.IsNaN(v) || v < 0 {
		v = 0
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fb", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fm", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fk", v/1e3)
	}
	if r == RoundingDecimal {
		return fmt.Sprintf("%.1f", v)
	}
	return strconv.Itoa(int(math.Round(v)))
}

func formatMarketCap(v *float64, r Rounding) string {
	if v == nil {
		return "—"
	}
	return FormatCompact(*v, r)
}
