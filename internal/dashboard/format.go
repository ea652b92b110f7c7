// Package dashboard draws projections in the terminal.
package dashboard

import (
	"fmt"

	"stockcast/internal/view"
)

// FormatCompact formats a value with B/M/K suffixes.
func FormatCompact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatDollars formats a price as $X.XX.
func FormatDollars(p float64) string {
	return fmt.Sprintf("$%.2f", p)
}

// FormatTick labels an axis value.
func FormatTick(f view.TickFormat, v float64) string {
	switch f {
	case view.TickDollars:
		return FormatDollars(v)
	case view.TickCompact:
		return FormatCompact(v)
	default:
		return fmt.Sprintf("%.2f", v)
	}
}
