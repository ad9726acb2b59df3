package distance

import "math"

// SquaredL2 calculates the squared L2 (Euclidean) distance between two vectors.
// Assumes vectors are the same length (caller's responsibility).
func SquaredL2(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// Nearest returns the index of the candidate closest to v and its squared
// distance. Candidates are scanned in index order and only a strictly
// smaller distance replaces the incumbent, so ties resolve to the lowest
// index. Returns -1 when there are no candidates.
func Nearest[V ~[]float64](v []float64, candidates []V) (int, float64) {
	best := -1
	bestDist := math.Inf(1)
	for i, c := range candidates {
		d := SquaredL2(v, c)
		if best == -1 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best, bestDist
}
