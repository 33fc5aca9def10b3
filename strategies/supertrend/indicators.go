package supertrend

import "math"

// trueRange treats the first bar's range as high minus low.
func trueRange(high, low, closes []float64) []float64 {
	tr := make([]float64, len(closes))
	for i := range closes {
		tr[i] = high[i] - low[i]
		if i == 0 {
			continue
		}
		tr[i] = math.Max(tr[i], math.Max(math.Abs(high[i]-closes[i-1]), math.Abs(low[i]-closes[i-1])))
	}
	return tr
}

// rollingMean is NaN until period values are available.
func rollingMean(x []float64, period int) []float64 {
	out := make([]float64, len(x))
	sum := 0.0
	for i, v := range x {
		sum += v
		if i >= period {
			sum -= x[i-period]
		}
		if i < period-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sum / float64(period)
	}
	return out
}

// ewm is an exponentially weighted mean with alpha 2/(span+1), seeded with the
// first non-NaN value. A NaN input carries the previous mean forward.
func ewm(x []float64, span int) []float64 {
	alpha := 2 / (float64(span) + 1)
	out := make([]float64, len(x))
	mean := math.NaN()
	for i, v := range x {
		switch {
		case math.IsNaN(v):
		case math.IsNaN(mean):
			mean = v
		default:
			mean = (1-alpha)*mean + alpha*v
		}
		out[i] = mean
	}
	return out
}

// superTrend returns the SuperTrend line and its direction (1 up, -1 down).
// The line follows the lower band in an uptrend and the upper band in a
// downtrend; bands only tighten while price stays on their side.
func superTrend(high, low, closes []float64, period int, multiplier float64) ([]float64, []int) {
	n := len(closes)
	atr := rollingMean(trueRange(high, low, closes), period)

	upper := make([]float64, n)
	lower := make([]float64, n)
	for i := range closes {
		hl2 := (high[i] + low[i]) / 2
		upper[i] = hl2 + multiplier*atr[i]
		lower[i] = hl2 - multiplier*atr[i]
	}

	line := make([]float64, n)
	direction := make([]int, n)
	if n == 0 {
		return line, direction
	}
	line[0] = math.NaN()
	direction[0] = 1

	for i := 1; i < n; i++ {
		if closes[i-1] <= upper[i-1] && upper[i-1] < upper[i] {
			upper[i] = upper[i-1]
		}
		if closes[i-1] >= lower[i-1] && lower[i-1] > lower[i] {
			lower[i] = lower[i-1]
		}

		switch {
		case direction[i-1] == 1 && closes[i] <= lower[i]:
			direction[i] = -1
		case direction[i-1] == -1 && closes[i] >= upper[i]:
			direction[i] = 1
		default:
			direction[i] = direction[i-1]
		}

		if direction[i] == 1 {
			line[i] = lower[i]
		} else {
			line[i] = upper[i]
		}
	}
	return line, direction
}

// averageDirectionalIndex smooths directional movement with ewm over period and
// normalizes it by the rolling-mean ATR.
func averageDirectionalIndex(high, low, closes []float64, period int) []float64 {
	n := len(closes)
	atr := rollingMean(trueRange(high, low, closes), period)

	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := range closes {
		if i == 0 {
			plusDM[i], minusDM[i] = math.NaN(), math.NaN()
			continue
		}
		plusDM[i] = math.Max(high[i]-high[i-1], 0)
		minusDM[i] = math.Max(low[i-1]-low[i], 0)
	}

	plusSmooth := ewm(plusDM, period)
	minusSmooth := ewm(minusDM, period)

	dx := make([]float64, n)
	for i := range closes {
		plusDI := 100 * plusSmooth[i] / atr[i]
		minusDI := 100 * minusSmooth[i] / atr[i]
		sum := math.Abs(plusDI + minusDI)
		if sum == 0 {
			dx[i] = math.NaN()
			continue
		}
		dx[i] = math.Abs(plusDI-minusDI) / sum * 100
	}
	return ewm(dx, period)
}
