// Package numerator provides domain contracts for document auto-numbering.
package numerator

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Reset periods.
const (
	ResetMonth = "month"
	ResetYear  = "year"
	ResetNever = "never"
)

// SeedSource names the column holding already-issued numbers. When a counter
// row does not exist yet it is seeded from the greatest number found there.
type SeedSource struct {
	Table  string
	Column string
}

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "GRN")
	Prefix string

	// PeriodLayout is a time layout rendered between prefix and counter
	// ("200601" → GRN-202610-0001). Empty omits the period part.
	PeriodLayout string

	// PadWidth is the minimum counter width (default 4)
	PadWidth int

	// ResetPeriod: "month", "year", "never"
	ResetPeriod string

	Seed *SeedSource
}

// GoodsReceiptConfig numbers goods receipts as GRN-YYYYMM-NNNN, restarting monthly.
func GoodsReceiptConfig() Config {
	return Config{
		Prefix:       "GRN",
		PeriodLayout: "200601",
		PadWidth:     4,
		ResetPeriod:  ResetMonth,
		Seed:         &SeedSource{Table: "doc_goods_receipts", Column: "number"},
	}
}

// Key returns the counter key for the period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonth:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYear:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// NumberPrefix is the part shared by every number of the period, separator included.
func (c Config) NumberPrefix(period time.Time) string {
	if c.PeriodLayout == "" {
		return c.Prefix + "-"
	}
	return fmt.Sprintf("%s-%s-", c.Prefix, period.Format(c.PeriodLayout))
}

// Format renders the n-th number of the period.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width == 0 {
		width = 4
	}
	return fmt.Sprintf("%s%0*d", c.NumberPrefix(period), width, n)
}

// Counter extracts the trailing counter of a formatted number.
func Counter(number string) (int64, bool) {
	i := strings.LastIndexByte(number, '-')
	if i < 0 || i == len(number)-1 {
		return 0, false
	}
	n, err := strconv.ParseInt(number[i+1:], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
