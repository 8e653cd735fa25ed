package normalize

import (
	"math"
	"sort"
)

// Median returns the sample median, 0 for an empty sample.
func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return 0.5 * (cp[mid-1] + cp[mid])
}

// Gini computes the Gini coefficient of the sample, the engine's dispersion
// index. Negative values are floored at 0 first: the inequality measure is
// over earned score mass, and a net-negative score holds none.
func Gini(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}

	floored := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		floored[i] = math.Max(x, 0)
		sum += floored[i]
	}
	if sum == 0 {
		return 0
	}

	sort.Float64s(floored)

	// Gini via the sorted-rank identity: G = (2*sum(i*x_i))/(n*sum(x)) - (n+1)/n.
	n := float64(len(floored))
	var weighted float64
	for i, x := range floored {
		weighted += float64(i+1) * x
	}
	return (2*weighted)/(n*sum) - (n+1)/n
}
