package analysis

// Trend labels produced by TrendLabels.
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// TrendLabels compares a short and a long SMA per row: bullish when the short
// average exceeds the long by more than 2%, bearish when it trails by more
// than 2%, neutral otherwise or while either average is undefined.
func TrendLabels(prices Column, shortPeriod, longPeriod int) []string {
	smaShort := prices.RollingMean(shortPeriod)
	smaLong := prices.RollingMean(longPeriod)

	out := make([]string, len(prices))
	for i := range prices {
		out[i] = TrendNeutral
		if !smaShort[i].Valid || !smaLong[i].Valid {
			continue
		}
		switch {
		case smaShort[i].V > smaLong[i].V*1.02:
			out[i] = TrendBullish
		case smaShort[i].V < smaLong[i].V*0.98:
			out[i] = TrendBearish
		}
	}
	return out
}

// Levels are classic pivot-point support/resistance levels over a trailing
// window.
type Levels struct {
	Support    Value `json:"support"`
	Resistance Value `json:"resistance"`
	Pivot      Value `json:"pivot"`
	R1         Value `json:"r1"`
	S1         Value `json:"s1"`
}

// SupportResistance computes min/max of the trailing period rows, the pivot
// as the mean of support, resistance and the last price, and the first
// derived levels r1/s1.
func SupportResistance(prices Column, period int) Levels {
	if len(prices) == 0 {
		return Levels{}
	}
	tail := prices
	if len(tail) > period {
		tail = tail[len(tail)-period:]
	}
	vals := tail.Defined()
	last := tail.Last()
	if len(vals) == 0 || !last.Valid {
		return Levels{}
	}

	support, resistance := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < support {
			support = v
		}
		if v > resistance {
			resistance = v
		}
	}
	pivot := (support + resistance + last.V) / 3

	return Levels{
		Support:    Some(support),
		Resistance: Some(resistance),
		Pivot:      Some(pivot),
		R1:         Some(2*pivot - support),
		S1:         Some(2*pivot - resistance),
	}
}
