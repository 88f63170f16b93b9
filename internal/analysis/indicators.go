package analysis

// Indicator layer: pure transforms of the price column. Naming of the derived
// columns (sma_7, rsi, macd_histogram, bb_upper, ...) is a stable contract
// shared with the HTTP and chart consumers.

// SMA is the rolling arithmetic mean over the trailing period observations.
// Cells before the first full window are undefined.
func SMA(prices Column, period int) Column {
	return prices.RollingMean(period)
}

// EMA is exponential smoothing with alpha = 2/(period+1), seeded at the first
// defined value. Unlike SMA it has no warm-up gap: it is defined from the
// first row onward.
func EMA(prices Column, period int) Column {
	out := make(Column, len(prices))
	if period <= 0 {
		return out
	}
	alpha := 2.0 / (float64(period) + 1)
	prev := 0.0
	seeded := false
	for i, cell := range prices {
		if !cell.Valid {
			continue
		}
		if !seeded {
			prev = cell.V
			seeded = true
		} else {
			prev = alpha*cell.V + (1-alpha)*prev
		}
		out[i] = Some(prev)
	}
	return out
}

// RSI is the Relative Strength Index over the given period. Gains and losses
// are split from signed deltas, averaged with a plain rolling mean, and the
// loss average is epsilon-guarded so an all-gain window yields RSI near 100
// instead of a division error. Defined cells always lie in [0, 100].
func RSI(prices Column, period int) Column {
	delta := prices.Diff()
	gain := make(Column, len(delta))
	loss := make(Column, len(delta))
	for i, d := range delta {
		if !d.Valid {
			continue
		}
		if d.V > 0 {
			gain[i] = Some(d.V)
			loss[i] = Some(0)
		} else {
			gain[i] = Some(0)
			loss[i] = Some(-d.V)
		}
	}

	avgGain := gain.RollingMean(period)
	avgLoss := loss.RollingMean(period)

	out := make(Column, len(prices))
	for i := range out {
		if !avgGain[i].Valid || !avgLoss[i].Valid {
			continue
		}
		rs := avgGain[i].V / (avgLoss[i].V + epsilon)
		out[i] = Some(100 - 100/(1+rs))
	}
	return out
}

// MACD returns the MACD line (fast EMA minus slow EMA), its signal line (EMA
// of the MACD line) and the histogram (line minus signal).
func MACD(prices Column, fast, slow, signal int) (line, signalLine, histogram Column) {
	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)

	line = make(Column, len(prices))
	for i := range line {
		if emaFast[i].Valid && emaSlow[i].Valid {
			line[i] = Some(emaFast[i].V - emaSlow[i].V)
		}
	}
	signalLine = EMA(line, signal)

	histogram = make(Column, len(prices))
	for i := range histogram {
		if line[i].Valid && signalLine[i].Valid {
			histogram[i] = Some(line[i].V - signalLine[i].V)
		}
	}
	return line, signalLine, histogram
}

// Bollinger returns the volatility envelope around SMA(period): middle band,
// upper/lower at k rolling standard deviations, and the band width as a
// percentage of the middle band.
func Bollinger(prices Column, period int, k float64) (upper, middle, lower, width Column) {
	middle = prices.RollingMean(period)
	std := prices.RollingStd(period)

	upper = make(Column, len(prices))
	lower = make(Column, len(prices))
	width = make(Column, len(prices))
	for i := range prices {
		if !middle[i].Valid || !std[i].Valid {
			continue
		}
		upper[i] = Some(middle[i].V + k*std[i].V)
		lower[i] = Some(middle[i].V - k*std[i].V)
		if middle[i].V != 0 {
			width[i] = Some((upper[i].V - lower[i].V) / middle[i].V * 100)
		}
	}
	return upper, middle, lower, width
}

// RSISignal classifies an RSI reading: above 70 overbought, below 30 oversold.
func RSISignal(rsi Value) string {
	switch {
	case !rsi.Valid:
		return "neutral"
	case rsi.V > 70:
		return "overbought"
	case rsi.V < 30:
		return "oversold"
	default:
		return "neutral"
	}
}

// MACDTrend classifies the histogram sign: positive is bullish.
func MACDTrend(histogram Value) string {
	if histogram.Valid && histogram.V > 0 {
		return "bullish"
	}
	return "bearish"
}

// BollingerPosition locates the current price relative to the bands.
func BollingerPosition(price float64, upper, middle, lower Value) string {
	switch {
	case upper.Valid && price > upper.V:
		return "above_upper"
	case lower.Valid && price < lower.V:
		return "below_lower"
	case middle.Valid && price > middle.V:
		return "upper_half"
	default:
		return "lower_half"
	}
}
