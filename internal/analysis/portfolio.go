package analysis

import (
	"strings"

	"github.com/vadiminshakov/coinlens/internal/domain"
)

// Portfolio P&L. Trade money fields arrive as decimals and are converted to
// float64 here, at the boundary into the engine's numeric domain.

// PortfolioEntry is the per-trade P&L line of a user report.
type PortfolioEntry struct {
	Coin         string  `json:"coin"`
	Amount       float64 `json:"amount"`
	BuyPrice     float64 `json:"buy_price"`
	CurrentPrice float64 `json:"current_price"`
	PnL          float64 `json:"pnl"`
	PnLPercent   float64 `json:"pnl_percent"`
}

// UserPerformance is the portfolio report for one user.
type UserPerformance struct {
	Username      string           `json:"username"`
	WalletBalance float64          `json:"wallet_balance"`
	TotalPnL      float64          `json:"total_pnl"`
	OverallStatus string           `json:"overall_status"`
	Portfolio     []PortfolioEntry `json:"portfolio_details"`
}

// AnalyzeUserPerformance marks every trade to market and aggregates the total
// P&L. A coin missing from the price map falls back to its buy price, so an
// unknown market price contributes zero P&L instead of failing the report.
func AnalyzeUserPerformance(user domain.User, prices map[string]float64) UserPerformance {
	portfolio := make([]PortfolioEntry, 0, len(user.Trades))
	totalPnL := 0.0

	for _, trade := range user.Trades {
		buyPrice := trade.BuyPrice.InexactFloat64()
		amount := trade.Amount.InexactFloat64()

		currentPrice, ok := prices[trade.Coin]
		if !ok {
			currentPrice = buyPrice
		}

		pnl := (currentPrice - buyPrice) * amount
		pnlPercent := (currentPrice - buyPrice) / (buyPrice + epsilon) * 100

		portfolio = append(portfolio, PortfolioEntry{
			Coin:         trade.Coin,
			Amount:       amount,
			BuyPrice:     buyPrice,
			CurrentPrice: currentPrice,
			PnL:          round2(pnl),
			PnLPercent:   round2(pnlPercent),
		})
		totalPnL += pnl
	}

	status := "Loss"
	if totalPnL > 0 {
		status = "Profit"
	}

	return UserPerformance{
		Username:      user.Username,
		WalletBalance: user.WalletBalance.InexactFloat64(),
		TotalPnL:      round2(totalPnL),
		OverallStatus: status,
		Portfolio:     portfolio,
	}
}

// UserRanking is a user's aggregate P&L percentage.
type UserRanking struct {
	Username   string  `json:"username"`
	PnLPercent float64 `json:"pnl_percent"`
}

// ExchangeOverview is the cross-user aggregate view.
type ExchangeOverview struct {
	King            *UserRanking `json:"king"`
	TotalLiquidity  float64      `json:"total_liquidity"`
	MostPopularCoin string       `json:"most_popular_coin"`
	TotalInvestors  int          `json:"total_investors"`
}

// CalculateExchangeOverview aggregates wallet liquidity, finds the top
// performer by value-weighted P&L percentage (total current value against
// total buy value, not a per-trade average) and the most traded coin.
func CalculateExchangeOverview(users []domain.User, prices map[string]float64) ExchangeOverview {
	totalLiquidity := 0.0
	coinCounts := make(map[string]int)
	var king *UserRanking

	for _, user := range users {
		totalLiquidity += user.WalletBalance.InexactFloat64()

		buyValue, currentValue := 0.0, 0.0
		for _, trade := range user.Trades {
			buyPrice := trade.BuyPrice.InexactFloat64()
			amount := trade.Amount.InexactFloat64()
			currentPrice, ok := prices[trade.Coin]
			if !ok {
				currentPrice = buyPrice
			}

			buyValue += buyPrice * amount
			currentValue += currentPrice * amount
			coinCounts[trade.Coin]++
		}

		pnlPercent := round2((currentValue - buyValue) / (buyValue + epsilon) * 100)
		if king == nil || pnlPercent > king.PnLPercent {
			king = &UserRanking{Username: user.Username, PnLPercent: pnlPercent}
		}
	}

	popular := "N/A"
	best := -1
	for coin, count := range coinCounts {
		if count > best || (count == best && coin < popular) {
			popular = coin
			best = count
		}
	}

	return ExchangeOverview{
		King:            king,
		TotalLiquidity:  round2(totalLiquidity),
		MostPopularCoin: strings.ToUpper(popular),
		TotalInvestors:  len(users),
	}
}
