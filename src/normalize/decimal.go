package normalize

import (
	"strconv"
	"strings"

	"stock-pipeline/src/logger"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Sentinel is the provider's "field not available" token. It is distinct from
// a parse error: the sentinel means the value is legitimately absent.
const Sentinel = "N/A"

var log = logger.NewLogger("WARNING", "Normalize")

// -----------------------------------------------------------------------------

// ToDecimal converts a raw provider value to an exact decimal. Percent signs,
// thousands separators and surrounding whitespace are stripped first. Empty
// strings and the sentinel map to def, as does any unparseable value; the
// function never fails.
func ToDecimal(raw string, def *decimal.Decimal) *decimal.Decimal {
	if raw == "" || raw == Sentinel {
		return def
	}

	clean := strings.TrimSpace(strings.ReplaceAll(strings.ReplaceAll(raw, "%", ""), ",", ""))
	if clean == "" {
		return def
	}

	d, err := decimal.NewFromString(clean)
	if err != nil {
		log.Warning("Could not convert '%s' to decimal", raw)
		return def
	}
	return &d
}

// -----------------------------------------------------------------------------

// ToInt64 converts a raw integer value, with the same sentinel and failure
// semantics as ToDecimal.
func ToInt64(raw string, def *int64) *int64 {
	if raw == "" || raw == Sentinel {
		return def
	}

	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		log.Warning("Could not convert '%s' to integer", raw)
		return def
	}
	return &n
}
