package storage

import (
	"time"

	"stock-pipeline/src/helpers"
	"stock-pipeline/src/models"
	"stock-pipeline/src/normalize"

	"github.com/shopspring/decimal"
)

// Connection retry policy. Without storage nothing downstream can proceed,
// so exhaustion here is the one fatal storage condition.
const (
	connectAttempts   = 3
	connectRetryDelay = 2 * time.Second
)

// -----------------------------------------------------------------------------

// quoteArgs converts a validated payload into bind arguments, in the column
// order shared by both backends: symbol, open, high, low, price, volume,
// latest_trading_day, previous_close, change_amount, change_percent,
// data_timestamp.
func quoteArgs(quote *models.MGlobalQuote, dataTimestamp time.Time) []interface{} {
	return []interface{}{
		quote.Symbol,
		decArg(normalize.ToDecimal(quote.Open, nil)),
		decArg(normalize.ToDecimal(quote.High, nil)),
		decArg(normalize.ToDecimal(quote.Low, nil)),
		decArg(normalize.ToDecimal(quote.Price, nil)),
		intArg(normalize.ToInt64(quote.Volume, nil)),
		quote.LatestTradingDay,
		decArg(normalize.ToDecimal(quote.PreviousClose, nil)),
		decArg(normalize.ToDecimal(quote.Change, nil)),
		quote.ChangePercent,
		dataTimestamp,
	}
}

// -----------------------------------------------------------------------------

func decArg(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func intArg(n *int64) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

// -----------------------------------------------------------------------------

// checkUpsertInput rejects payloads that must not reach the write path.
func checkUpsertInput(data *models.MQuoteResponse) error {
	if data == nil || data.GlobalQuote == nil {
		return helpers.NewValidationError("no data or invalid data structure to store", nil)
	}
	if data.GlobalQuote.Symbol == "" {
		return helpers.NewValidationError("no symbol found in data", nil)
	}
	return nil
}

// -----------------------------------------------------------------------------

// retentionCutoff computes the prune boundary once, at call time.
func retentionCutoff(now time.Time, retentionDays int) string {
	return now.UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02")
}
