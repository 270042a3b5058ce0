package snapshot

import "sort"

// sketch computes exact quantiles of values at the fixed probability points,
// using linear interpolation between order statistics. values must be
// non-empty; it is sorted in place.
func sketch(values []float64) []QuantilePoint {
	sort.Float64s(values)
	out := make([]QuantilePoint, len(quantilePoints))
	for i, p := range quantilePoints {
		out[i] = QuantilePoint{P: p, Value: quantile(values, p)}
	}
	return out
}

// quantile returns the p-quantile of sorted values via linear interpolation.
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 1 {
		return sorted[0]
	}
	pos := p * float64(n-1)
	lo := int(pos)
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}
