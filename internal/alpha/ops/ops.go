// Package ops is the rolling-window operator library behind the factor
// catalog. Every operator is a pure transform over []float64 series in
// which NaN marks "undefined" or "insufficient history". Rolling operators
// emit NaN until the trailing window is fully populated and never read
// past the current index, so no factor built from them can look ahead.
package ops

import "math"

// RankLookback is the trailing window used by the time-series Rank
// approximation. RankMinObs is the minimum number of valid observations
// required before Rank emits a value.
const (
	RankLookback = 100
	RankMinObs   = 10
)

func nan() float64 { return math.NaN() }

func valid(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }

// Log returns the natural log; non-positive inputs map to NaN.
func Log(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if !valid(v) || v <= 0 {
			out[i] = nan()
			continue
		}
		out[i] = math.Log(v)
	}
	return out
}

// Abs returns elementwise absolute values.
func Abs(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if !valid(v) {
			out[i] = nan()
			continue
		}
		out[i] = math.Abs(v)
	}
	return out
}

// Sign returns -1, 0, or 1 elementwise.
func Sign(s []float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		switch {
		case !valid(v):
			out[i] = nan()
		case v > 0:
			out[i] = 1
		case v < 0:
			out[i] = -1
		default:
			out[i] = 0
		}
	}
	return out
}

// Delta returns s[i] - s[i-k]; the first k entries are NaN.
func Delta(s []float64, k int) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if i < k || !valid(s[i]) || !valid(s[i-k]) {
			out[i] = nan()
			continue
		}
		out[i] = s[i] - s[i-k]
	}
	return out
}

// Delay shifts the series forward by k periods; the first k entries are NaN.
func Delay(s []float64, k int) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if i < k {
			out[i] = nan()
			continue
		}
		out[i] = s[i-k]
	}
	return out
}

// window returns s[i-w+1 .. i] when the trailing window is fully populated
// and contains only valid values, else nil.
func window(s []float64, i, w int) []float64 {
	if w <= 0 || i < w-1 {
		return nil
	}
	win := s[i-w+1 : i+1]
	for _, v := range win {
		if !valid(v) {
			return nil
		}
	}
	return win
}

// Sum returns the rolling sum over trailing window w.
func Sum(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		total := 0.0
		for _, v := range win {
			total += v
		}
		return total
	})
}

// Mean returns the rolling mean over trailing window w.
func Mean(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		total := 0.0
		for _, v := range win {
			total += v
		}
		return total / float64(len(win))
	})
}

// Std returns the rolling sample standard deviation over trailing window w.
func Std(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		if len(win) < 2 {
			return nan()
		}
		mean := 0.0
		for _, v := range win {
			mean += v
		}
		mean /= float64(len(win))

		ss := 0.0
		for _, v := range win {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(win)-1))
	})
}

// Tsmax returns the rolling maximum over trailing window w.
func Tsmax(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		max := win[0]
		for _, v := range win[1:] {
			if v > max {
				max = v
			}
		}
		return max
	})
}

// Tsmin returns the rolling minimum over trailing window w.
func Tsmin(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		min := win[0]
		for _, v := range win[1:] {
			if v < min {
				min = v
			}
		}
		return min
	})
}

// Prod returns the rolling product over trailing window w.
func Prod(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		p := 1.0
		for _, v := range win {
			p *= v
		}
		return p
	})
}

// Tsrank returns the percentile rank of the current value within the
// trailing window w, in [0,1] by the minimum-rank convention.
func Tsrank(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		return pctRankMin(win, win[len(win)-1])
	})
}

// Rank approximates a cross-sectional percentile rank from single-asset
// history: the percentile of the current value within its own trailing
// lookback of up to RankLookback observations. Emits NaN until RankMinObs
// valid observations are available.
func Rank(s []float64) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if !valid(s[i]) {
			out[i] = nan()
			continue
		}

		lo := i - RankLookback + 1
		if lo < 0 {
			lo = 0
		}

		vals := make([]float64, 0, i-lo+1)
		for j := lo; j <= i; j++ {
			if valid(s[j]) {
				vals = append(vals, s[j])
			}
		}
		if len(vals) < RankMinObs {
			out[i] = nan()
			continue
		}
		out[i] = pctRankMin(vals, s[i])
	}
	return out
}

// pctRankMin computes (1 + count_less) / n: equal values receive the
// equal, lowest-applicable percentile.
func pctRankMin(vals []float64, x float64) float64 {
	less := 0
	for _, v := range vals {
		if v < x {
			less++
		}
	}
	return float64(1+less) / float64(len(vals))
}

// Corr returns the rolling Pearson correlation of x and y over trailing
// window w. Zero variance in either series resolves as NaN, never ±Inf.
func Corr(x, y []float64, w int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		wx := window(x, i, w)
		wy := window(y, i, w)
		if wx == nil || wy == nil {
			out[i] = nan()
			continue
		}
		out[i] = pearson(wx, wy)
	}
	return out
}

// Cov returns the rolling sample covariance of x and y over trailing
// window w.
func Cov(x, y []float64, w int) []float64 {
	out := make([]float64, len(x))
	for i := range x {
		wx := window(x, i, w)
		wy := window(y, i, w)
		if wx == nil || wy == nil || len(wx) < 2 {
			out[i] = nan()
			continue
		}
		out[i] = covariance(wx, wy)
	}
	return out
}

func mean(s []float64) float64 {
	total := 0.0
	for _, v := range s {
		total += v
	}
	return total / float64(len(s))
}

func covariance(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	total := 0.0
	for i := range x {
		total += (x[i] - mx) * (y[i] - my)
	}
	return total / float64(len(x)-1)
}

func pearson(x, y []float64) float64 {
	mx, my := mean(x), mean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nan()
	}
	return sxy / math.Sqrt(sxx*syy)
}

// Decaylinear returns the weighted average over trailing window w with
// linearly increasing weights 1..w (most recent = w), normalized by the
// weight sum.
func Decaylinear(s []float64, w int) []float64 {
	sumW := float64(w*(w+1)) / 2
	return rolling(s, w, func(win []float64) float64 {
		total := 0.0
		for j, v := range win {
			total += float64(j+1) * v
		}
		return total / sumW
	})
}

// Wma returns the weighted average over trailing window w with weights
// 0.9^i for i counting down from w-1 to 0, so the most recent value has
// the largest weight 0.9^0.
func Wma(s []float64, w int) []float64 {
	weights := make([]float64, w)
	sumW := 0.0
	for j := 0; j < w; j++ {
		weights[j] = math.Pow(0.9, float64(w-1-j))
		sumW += weights[j]
	}
	return rolling(s, w, func(win []float64) float64 {
		total := 0.0
		for j, v := range win {
			total += weights[j] * v
		}
		return total / sumW
	})
}

// Sma is exponential smoothing with factor alpha = m/n, no bias
// adjustment: y_t = alpha*x_t + (1-alpha)*y_{t-1}, seeded with the first
// valid observation. NaN inputs emit NaN without disturbing the state.
func Sma(s []float64, n, m int) []float64 {
	out := make([]float64, len(s))
	alpha := float64(m) / float64(n)
	seeded := false
	y := 0.0
	for i, v := range s {
		if !valid(v) {
			out[i] = nan()
			continue
		}
		if !seeded {
			y = v
			seeded = true
		} else {
			y = alpha*v + (1-alpha)*y
		}
		out[i] = y
	}
	return out
}

// Regbeta returns the rolling least-squares slope of s against the fixed
// index sequence x; the window length is len(x).
func Regbeta(s []float64, x []float64) []float64 {
	w := len(x)
	varX := 0.0
	mx := mean(x)
	for _, v := range x {
		varX += (v - mx) * (v - mx)
	}
	return rolling(s, w, func(win []float64) float64 {
		if varX == 0 {
			return nan()
		}
		my := mean(win)
		num := 0.0
		for j := range win {
			num += (x[j] - mx) * (win[j] - my)
		}
		return num / varX
	})
}

// Sequence returns 1..n as float64, the fixed regressor for Regbeta.
func Sequence(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}
	return out
}

// Highday returns, for each index, the distance from the maximum of the
// trailing window: w means the max sits at the oldest slot, 1 at today.
func Highday(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		arg := 0
		for j, v := range win {
			if v > win[arg] {
				arg = j
			}
		}
		return float64(len(win) - arg)
	})
}

// Lowday is Highday for the window minimum.
func Lowday(s []float64, w int) []float64 {
	return rolling(s, w, func(win []float64) float64 {
		arg := 0
		for j, v := range win {
			if v < win[arg] {
				arg = j
			}
		}
		return float64(len(win) - arg)
	})
}

// MaxOf returns the elementwise maximum of two series.
func MaxOf(a, b []float64) []float64 {
	return zip(a, b, math.Max)
}

// MinOf returns the elementwise minimum of two series.
func MinOf(a, b []float64) []float64 {
	return zip(a, b, math.Min)
}

// Count returns the rolling count of true conditions over trailing
// window w.
func Count(cond []bool, w int) []float64 {
	out := make([]float64, len(cond))
	for i := range cond {
		if i < w-1 {
			out[i] = nan()
			continue
		}
		n := 0
		for j := i - w + 1; j <= i; j++ {
			if cond[j] {
				n++
			}
		}
		out[i] = float64(n)
	}
	return out
}

// Sumif returns the rolling sum over trailing window w restricted to
// positions where cond holds; other positions contribute zero.
func Sumif(s []float64, w int, cond []bool) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		if i < w-1 {
			out[i] = nan()
			continue
		}
		total := 0.0
		undefined := false
		for j := i - w + 1; j <= i; j++ {
			if !cond[j] {
				continue
			}
			if !valid(s[j]) {
				undefined = true
				break
			}
			total += s[j]
		}
		if undefined {
			out[i] = nan()
			continue
		}
		out[i] = total
	}
	return out
}

// Add returns a+b elementwise.
func Add(a, b []float64) []float64 {
	return zip(a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a-b elementwise.
func Sub(a, b []float64) []float64 {
	return zip(a, b, func(x, y float64) float64 { return x - y })
}

// Mul returns a*b elementwise.
func Mul(a, b []float64) []float64 {
	return zip(a, b, func(x, y float64) float64 { return x * y })
}

// Div returns a/b elementwise; a zero or undefined denominator resolves
// as NaN, never ±Inf.
func Div(a, b []float64) []float64 {
	return zip(a, b, func(x, y float64) float64 {
		if y == 0 {
			return nan()
		}
		return x / y
	})
}

// Scale returns s*k elementwise.
func Scale(s []float64, k float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if !valid(v) {
			out[i] = nan()
			continue
		}
		out[i] = v * k
	}
	return out
}

// Shift returns s+k elementwise.
func Shift(s []float64, k float64) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		if !valid(v) {
			out[i] = nan()
			continue
		}
		out[i] = v + k
	}
	return out
}

func zip(a, b []float64, f func(x, y float64) float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		if !valid(a[i]) || i >= len(b) || !valid(b[i]) {
			out[i] = nan()
			continue
		}
		out[i] = f(a[i], b[i])
	}
	return out
}

func rolling(s []float64, w int, agg func(win []float64) float64) []float64 {
	out := make([]float64, len(s))
	for i := range s {
		win := window(s, i, w)
		if win == nil {
			out[i] = nan()
			continue
		}
		out[i] = agg(win)
	}
	return out
}
