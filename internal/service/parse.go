package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// parseDecimal coerces a raw snapshot amount. Falls back from decimal to
// float parsing (tolerates scientific notation) and finally to zero, so one
// malformed value never aborts a whole batch.
func parseDecimal(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}

// parseTruthy reports whether a raw flag value is one of the accepted truthy
// tokens. Anything else, including empty, is falsy.
func parseTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "t":
		return true
	}
	return false
}

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
