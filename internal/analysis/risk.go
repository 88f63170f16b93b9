package analysis

import (
	"math"

	"github.com/pkg/errors"
)

// Risk layer: metrics derived from the daily-return column.

// ErrInsufficientData is returned when a computation has fewer rows than its
// minimum window. Callers decide whether to reject or degrade.
var ErrInsufficientData = errors.New("insufficient data")

// Volatility is the rolling sample standard deviation of the daily return,
// scaled by sqrt(period) and expressed in percent. The scaling is by window
// length, not calendar year.
func Volatility(prices Column, period int) Column {
	returns := prices.PctChange()
	std := returns.RollingStd(period)
	out := make(Column, len(prices))
	scale := math.Sqrt(float64(period)) * 100
	for i, cell := range std {
		if cell.Valid {
			out[i] = Some(cell.V * scale)
		}
	}
	return out
}

// Drawdown returns the per-row drawdown from the running price maximum and
// the running minimum of that drawdown, both in percent and <= 0. The
// max-drawdown column is monotonically non-increasing.
func Drawdown(prices Column) (drawdown, maxDrawdown Column) {
	runMax := prices.RunningMax()
	drawdown = make(Column, len(prices))
	for i := range prices {
		if prices[i].Valid && runMax[i].Valid && runMax[i].V != 0 {
			drawdown[i] = Some((prices[i].V - runMax[i].V) / runMax[i].V * 100)
		}
	}
	maxDrawdown = drawdown.RunningMin()
	return drawdown, maxDrawdown
}

// SharpeRatio is the rolling mean of the daily excess return over its rolling
// sample standard deviation, annualized by sqrt(365) calendar days.
func SharpeRatio(prices Column, riskFreeRate float64, period int) Column {
	returns := prices.PctChange()
	dailyRf := riskFreeRate / 365

	excess := make(Column, len(returns))
	for i, r := range returns {
		if r.Valid {
			excess[i] = Some(r.V - dailyRf)
		}
	}

	m := excess.RollingMean(period)
	s := excess.RollingStd(period)

	out := make(Column, len(prices))
	annualize := math.Sqrt(365)
	for i := range out {
		if m[i].Valid && s[i].Valid {
			out[i] = Some(m[i].V / (s[i].V + epsilon) * annualize)
		}
	}
	return out
}

// Beta measures the sensitivity of the coin's returns to the benchmark's:
// rolling covariance over rolling benchmark variance (epsilon-guarded). The
// two return series are aligned by truncating to the shorter tail; the result
// is positionally aligned to that common tail.
func Beta(coin, benchmark Column, period int) Column {
	coinReturns := coin.PctChange()
	benchReturns := benchmark.PctChange()

	n := len(coinReturns)
	if len(benchReturns) < n {
		n = len(benchReturns)
	}
	coinReturns = coinReturns[len(coinReturns)-n:]
	benchReturns = benchReturns[len(benchReturns)-n:]

	out := make(Column, n)
	if period <= 0 {
		return out
	}
	cbuf := make([]float64, 0, period)
	bbuf := make([]float64, 0, period)
	for i := period - 1; i < n; i++ {
		cbuf, bbuf = cbuf[:0], bbuf[:0]
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if !coinReturns[j].Valid || !benchReturns[j].Valid {
				ok = false
				break
			}
			cbuf = append(cbuf, coinReturns[j].V)
			bbuf = append(bbuf, benchReturns[j].V)
		}
		if !ok {
			continue
		}
		out[i] = Some(sampleCov(cbuf, bbuf) / (sampleVar(bbuf) + epsilon))
	}
	return out
}

// RiskBlock is the quantile-based risk summary over the full return history.
type RiskBlock struct {
	VaRParametric   Value   `json:"var_parametric_95"`
	VaRHistoric     Value   `json:"var_historic_95"`
	CVaR            Value   `json:"cvar_95"`
	MaxDrawdown     Value   `json:"max_drawdown"`
	ConfidenceLevel float64 `json:"confidence_level"`
}

// RiskAnalysis computes parametric and historic VaR, CVaR (expected
// shortfall) and the max drawdown of cumulative compounded returns, all in
// percent. This drawdown path is intentionally distinct from Drawdown above;
// both are <= 0 by construction.
func RiskAnalysis(prices Column, confidence float64) (RiskBlock, error) {
	returns := prices.PctChange().Defined()
	if len(returns) < 2 {
		return RiskBlock{}, errors.Wrap(ErrInsufficientData, "risk analysis needs at least 2 returns")
	}

	m := mean(returns)
	s := sampleStd(returns)
	z := 1.645
	if confidence != 0.95 {
		z = 2.326
	}

	varHist := quantile(returns, 1-confidence)

	tail := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r <= varHist {
			tail = append(tail, r)
		}
	}
	cvar := None()
	if len(tail) > 0 {
		cvar = Some(mean(tail) * 100)
	}

	// max drawdown from the cumulative compounded return curve
	cum := 1.0
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, r := range returns {
		cum *= 1 + r
		if cum > peak {
			peak = cum
		}
		dd := (cum - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
	}

	return RiskBlock{
		VaRParametric:   Some((m - z*s) * 100),
		VaRHistoric:     Some(varHist * 100),
		CVaR:            cvar,
		MaxDrawdown:     Some(maxDD * 100),
		ConfidenceLevel: confidence * 100,
	}, nil
}
