package validator

import (
	"strconv"
	"strings"

	"stock-pipeline/src/logger"
	"stock-pipeline/src/models"
	"stock-pipeline/src/normalize"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------

// Validator is a pure predicate gating whether a fetched payload may proceed
// to storage. It never fails with an error; every rejection is logged.
type Validator struct {
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewValidator(log *logger.Logger) *Validator {
	return &Validator{Logger: log}
}

// -----------------------------------------------------------------------------

// Validate checks the structure and numeric integrity of a quote payload.
func (v *Validator) Validate(data *models.MQuoteResponse) bool {
	if data == nil || data.GlobalQuote == nil {
		v.Logger.Warning("Invalid data structure: missing 'Global Quote'")
		return false
	}

	quote := data.GlobalQuote

	// Mandatory fields must be present and non-empty.
	required := []struct {
		name  string
		value string
	}{
		{"01. symbol", quote.Symbol},
		{"02. open", quote.Open},
		{"03. high", quote.High},
		{"04. low", quote.Low},
		{"05. price", quote.Price},
		{"06. volume", quote.Volume},
		{"07. latest trading day", quote.LatestTradingDay},
	}

	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		v.Logger.Warning("Missing required fields: %s", strings.Join(missing, ", "))
		return false
	}

	// Numeric fields must parse exactly unless absent or the sentinel.
	numeric := []struct {
		name  string
		value string
	}{
		{"02. open", quote.Open},
		{"03. high", quote.High},
		{"04. low", quote.Low},
		{"05. price", quote.Price},
		{"08. previous close", quote.PreviousClose},
		{"09. change", quote.Change},
	}

	for _, f := range numeric {
		if f.value == "" || f.value == normalize.Sentinel {
			continue
		}
		if _, err := decimal.NewFromString(f.value); err != nil {
			v.Logger.Warning("Invalid numeric value for %s: %s", f.name, f.value)
			return false
		}
	}

	if quote.Volume != "" && quote.Volume != normalize.Sentinel {
		if _, err := strconv.ParseInt(quote.Volume, 10, 64); err != nil {
			v.Logger.Warning("Invalid volume value: %s", quote.Volume)
			return false
		}
	}

	v.Logger.Debug("Stock data validation successful for %s", quote.Symbol)
	return true
}
