package mrkmeans

import (
	"github.com/hupe1980/mrkmeans/distance"
	"github.com/hupe1980/mrkmeans/model"
)

// Evaluation compares two consecutive centroid arrays.
type Evaluation struct {
	// Displacements holds the squared distance each centroid moved, by index.
	// Entries of degenerate centroids are not finite.
	Displacements []float64
	// MaxDisplacement is the largest finite displacement.
	MaxDisplacement float64
	// Degenerate lists the indices whose new centroid is not finite.
	Degenerate []int
	// Converged reports that no centroid is degenerate and every
	// displacement is at most the threshold.
	Converged bool
}

// Evaluate compares prev and next index by index.
// Both must hold the same number of centroids ordered by index.
func Evaluate(prev, next []model.Centroid, threshold float64) Evaluation {
	ev := Evaluation{
		Displacements: make([]float64, len(next)),
		Converged:     true,
	}
	for i, c := range next {
		if !c.Point.IsFinite() {
			ev.Degenerate = append(ev.Degenerate, c.Index)
			ev.Displacements[i] = distance.SquaredL2(prev[i].Point, c.Point)
			ev.Converged = false
			continue
		}
		d := distance.SquaredL2(prev[i].Point, c.Point)
		ev.Displacements[i] = d
		if d > ev.MaxDisplacement {
			ev.MaxDisplacement = d
		}
		if d > threshold {
			ev.Converged = false
		}
	}
	return ev
}
