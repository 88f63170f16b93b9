// Package analysis implements the technical/risk analysis engine: indicator,
// risk, trend and anomaly layers over an in-memory price series, plus the
// report aggregation on top of them.
//
// Cells whose lookback window is not yet full are represented by an invalid
// Value, not by NaN or zero; every derived computation propagates that state.
package analysis

import (
	"encoding/json"
	"math"
	"sort"
)

// epsilon guards every ratio with a potentially-zero denominator. Adding it
// instead of erroring slightly biases results for exactly-zero denominators;
// this is part of the numeric contract.
const epsilon = 1e-10

// Value is an optional float64 cell. The zero value is "undefined".
type Value struct {
	V     float64
	Valid bool
}

// Some wraps a defined float64.
func Some(v float64) Value { return Value{V: v, Valid: true} }

// None is the undefined cell.
func None() Value { return Value{} }

// MarshalJSON encodes undefined or non-finite cells as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid || math.IsNaN(v.V) || math.IsInf(v.V, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v.V)
}

// UnmarshalJSON decodes null as the undefined cell.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	if err := json.Unmarshal(data, &v.V); err != nil {
		return err
	}
	v.Valid = true
	return nil
}

// Column is a derived numeric column positionally aligned to its source series.
type Column []Value

// FromFloats builds a fully defined column.
func FromFloats(vs []float64) Column {
	out := make(Column, len(vs))
	for i, v := range vs {
		out[i] = Some(v)
	}
	return out
}

// Last returns the final cell, or None for an empty column.
func (c Column) Last() Value {
	if len(c) == 0 {
		return None()
	}
	return c[len(c)-1]
}

// Diff returns c[i] - c[i-1]; the first cell is undefined.
func (c Column) Diff() Column {
	out := make(Column, len(c))
	for i := 1; i < len(c); i++ {
		if c[i].Valid && c[i-1].Valid {
			out[i] = Some(c[i].V - c[i-1].V)
		}
	}
	return out
}

// PctChange returns (c[i]-c[i-1])/c[i-1]; the first cell is undefined.
func (c Column) PctChange() Column {
	out := make(Column, len(c))
	for i := 1; i < len(c); i++ {
		if c[i].Valid && c[i-1].Valid && c[i-1].V != 0 {
			out[i] = Some((c[i].V - c[i-1].V) / c[i-1].V)
		}
	}
	return out
}

// window calls fn with each full window of defined cells. Cells whose window
// is incomplete or contains an undefined input stay undefined.
func (c Column) window(size int, fn func(vals []float64) float64) Column {
	out := make(Column, len(c))
	if size <= 0 {
		return out
	}
	buf := make([]float64, 0, size)
	for i := size - 1; i < len(c); i++ {
		buf = buf[:0]
		ok := true
		for j := i - size + 1; j <= i; j++ {
			if !c[j].Valid {
				ok = false
				break
			}
			buf = append(buf, c[j].V)
		}
		if ok {
			out[i] = Some(fn(buf))
		}
	}
	return out
}

// RollingMean is the trailing arithmetic mean over size cells.
func (c Column) RollingMean(size int) Column {
	return c.window(size, mean)
}

// RollingStd is the trailing sample standard deviation over size cells.
func (c Column) RollingStd(size int) Column {
	return c.window(size, sampleStd)
}

// RollingMin is the trailing minimum over size cells.
func (c Column) RollingMin(size int) Column {
	return c.window(size, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			if v < m {
				m = v
			}
		}
		return m
	})
}

// RollingMax is the trailing maximum over size cells.
func (c Column) RollingMax(size int) Column {
	return c.window(size, func(vals []float64) float64 {
		m := vals[0]
		for _, v := range vals[1:] {
			if v > m {
				m = v
			}
		}
		return m
	})
}

// RunningMax is the expanding maximum up to and including each row.
func (c Column) RunningMax() Column {
	out := make(Column, len(c))
	best := math.Inf(-1)
	seen := false
	for i, cell := range c {
		if cell.Valid {
			if cell.V > best {
				best = cell.V
			}
			seen = true
		}
		if seen {
			out[i] = Some(best)
		}
	}
	return out
}

// RunningMin is the expanding minimum up to and including each row.
func (c Column) RunningMin() Column {
	out := make(Column, len(c))
	best := math.Inf(1)
	seen := false
	for i, cell := range c {
		if cell.Valid {
			if cell.V < best {
				best = cell.V
			}
			seen = true
		}
		if seen {
			out[i] = Some(best)
		}
	}
	return out
}

// Defined returns the defined cell values in order.
func (c Column) Defined() []float64 {
	out := make([]float64, 0, len(c))
	for _, cell := range c {
		if cell.Valid {
			out = append(out, cell.V)
		}
	}
	return out
}

func mean(vals []float64) float64 {
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// sampleStd matches the pandas default (ddof=1).
func sampleStd(vals []float64) float64 {
	return math.Sqrt(sampleVar(vals))
}

func sampleVar(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	m := mean(vals)
	sum := 0.0
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(vals)-1)
}

func sampleCov(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return math.NaN()
	}
	mx, my := mean(xs), mean(ys)
	sum := 0.0
	for i := range xs {
		sum += (xs[i] - mx) * (ys[i] - my)
	}
	return sum / float64(len(xs)-1)
}

// quantile uses linear interpolation between order statistics, matching the
// pandas default.
func quantile(vals []float64, q float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
