package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a raw OHLCV candlestick as returned by an exchange. Prices stay
// decimal until they are normalized into a PriceSeries.
type Candle struct {
	// OpenTime is the candle open time.
	OpenTime time.Time
	// Open is the opening price.
	Open decimal.Decimal
	// High is the highest price.
	High decimal.Decimal
	// Low is the lowest price.
	Low decimal.Decimal
	// Close is the closing price.
	Close decimal.Decimal
	// Volume is the traded volume.
	Volume decimal.Decimal
	// CloseTime is the candle close time.
	CloseTime time.Time
}
