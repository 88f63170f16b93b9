package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is a single portfolio position: a buy of some coin amount at a fixed
// price. Money fields stay decimal until they reach the analysis engine.
type Trade struct {
	// Coin identifies the traded coin, e.g. "BTC_USDT".
	Coin string `json:"coin"`
	// BuyPrice is the entry price per unit.
	BuyPrice decimal.Decimal `json:"buy_price"`
	// Amount is the purchased quantity.
	Amount decimal.Decimal `json:"amount"`
	// Date is when the trade was made.
	Date time.Time `json:"date,omitempty"`
}

// User is an exchange account with a wallet and trade history.
type User struct {
	Username      string          `json:"username"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	Trades        []Trade         `json:"trades"`
}
