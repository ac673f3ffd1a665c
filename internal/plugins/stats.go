package plugins

import (
	"math"
	"sort"
)

// welford accumulates streaming mean/variance plus min/max.
type welford struct {
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
}

func newWelford() welford {
	return welford{min: math.Inf(1), max: math.Inf(-1)}
}

func (w *welford) add(x float64) {
	w.n++
	if x < w.min {
		w.min = x
	}
	if x > w.max {
		w.max = x
	}
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

func (w *welford) std() float64 {
	if w.n < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n-1))
}

// pearson computes the correlation of row-aligned series, ignoring pairs with
// a NaN on either side. Returns 0 when fewer than two complete pairs exist.
func pearson(x, y []float64) (r float64, n int) {
	var sx, sy, sxx, syy, sxy, cnt float64
	for i := range x {
		if i >= len(y) {
			break
		}
		a, b := x[i], y[i]
		if math.IsNaN(a) || math.IsNaN(b) {
			continue
		}
		cnt++
		sx += a
		sy += b
		sxx += a * a
		syy += b * b
		sxy += a * b
	}
	if cnt < 2 {
		return 0, int(cnt)
	}
	denom := math.Sqrt((cnt*sxx - sx*sx) * (cnt*syy - sy*sy))
	if denom == 0 {
		return 0, int(cnt)
	}
	r = (cnt*sxy - sx*sy) / denom
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	if math.IsNaN(r) || math.IsInf(r, 0) {
		r = 0
	}
	return r, int(cnt)
}

// medianMAD computes the median and median absolute deviation of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

// quantile interpolates the q-th quantile of an already sorted slice.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
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
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// standardize returns (x - mean) / std per column of a row-major matrix,
// leaving zero-variance columns at 0.
func standardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	ncol := len(rows[0])
	acc := make([]welford, ncol)
	for j := range acc {
		acc[j] = newWelford()
	}
	for _, row := range rows {
		for j, v := range row {
			if !math.IsNaN(v) {
				acc[j].add(v)
			}
		}
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, ncol)
		for j, v := range row {
			std := acc[j].std()
			if math.IsNaN(v) || std == 0 {
				out[i][j] = 0
				continue
			}
			out[i][j] = (v - acc[j].mean) / std
		}
	}
	return out
}

// normalCDF is the standard normal CDF, used for two-sided approximate
// p-values on large-sample test statistics.
func normalCDF(z float64) float64 {
	return 0.5 * math.Erfc(-z/math.Sqrt2)
}

// twoSidedP converts a z statistic to an approximate two-sided p-value.
func twoSidedP(z float64) float64 {
	p := 2 * (1 - normalCDF(math.Abs(z)))
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return p
}
