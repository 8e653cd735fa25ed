package indicators

// slope computes the least-squares slope over equally spaced observations.
// Periods are treated as unit-spaced: the caller guarantees chronological
// order, and the engine only cares about direction and rough magnitude.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// tail returns the last w elements of xs, or all of xs when shorter.
func tail[T any](xs []T, w int) []T {
	if w <= 0 || len(xs) <= w {
		return xs
	}
	return xs[len(xs)-w:]
}

// rising reports whether the series never decreases and grew overall.
func rising(xs []int) bool {
	if len(xs) < 2 {
		return false
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] < xs[i-1] {
			return false
		}
	}
	return xs[len(xs)-1] > xs[0]
}
