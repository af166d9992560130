package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatNumber renders the final number string from a counter value.
// The number is a display artifact; ordering authority stays with the
// ledger's entry numbers.
func FormatNumber(cfg Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// BuildKey creates the counter key suffix based on config and period.
// Only ResetNever suppresses the year; ValidateConfig rejects anything
// other than the two known reset periods before this runs.
func BuildKey(cfg Config, period time.Time) (prefix string, year int) {
	if cfg.ResetPeriod == ResetNever {
		return cfg.Prefix, 0
	}
	return cfg.Prefix, period.Year()
}

// ValidateConfig rejects configurations the counter key cannot express.
// An empty ResetPeriod means yearly.
func ValidateConfig(cfg Config) error {
	switch cfg.ResetPeriod {
	case "", ResetYearly, ResetNever:
		return nil
	}
	return fmt.Errorf("unknown reset period %q", cfg.ResetPeriod)
}

// ParseNumber extracts the counter value from a formatted number.
// Returns -1 if the string does not end in a numeric segment.
func ParseNumber(formatted string) int64 {
	i := strings.LastIndex(formatted, "-")
	if i < 0 {
		return -1
	}

	num, err := strconv.ParseInt(formatted[i+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}
