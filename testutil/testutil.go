package testutil

import (
	"bytes"
	"context"
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Int63n returns a non-negative pseudo-random number in [0,n).
// It makes RNG usable as a seeding source.
func (r *RNG) Int63n(n int64) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Int63n(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// NormFloat64 returns a standard normally distributed number.
func (r *RNG) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.NormFloat64()
}

// UniformPoints generates num points with coordinates in [minVal, maxVal).
func (r *RNG) UniformPoints(num, dim int, minVal, maxVal float64) []model.Point {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dim)
	points := make([]model.Point, num)
	for i := range num {
		p := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range p {
			p[j] = minVal + r.rand.Float64()*(maxVal-minVal)
		}
		points[i] = p
	}
	return points
}

// ClusteredPoints generates num points with Gaussian noise of the given
// spread around centers, assigned round-robin. labels[i] is the index of
// the center point i was drawn around.
func (r *RNG) ClusteredPoints(num int, centers []model.Point, spread float64) (points []model.Point, labels []int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	dim := len(centers[0])
	data := make([]float64, num*dim)
	points = make([]model.Point, num)
	labels = make([]int, num)
	for i := range num {
		c := i % len(centers)
		p := data[i*dim : (i+1)*dim : (i+1)*dim]
		for j := range p {
			p[j] = centers[c][j] + r.rand.NormFloat64()*spread
		}
		points[i] = p
		labels[i] = c
	}
	return points, labels
}

// Shuffle permutes points in place.
func (r *RNG) Shuffle(points []model.Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(points), func(i, j int) { points[i], points[j] = points[j], points[i] })
}

// FormatPoints renders points as comma-separated records, one per line.
func FormatPoints(points []model.Point) []byte {
	var buf bytes.Buffer
	for _, p := range points {
		for j, v := range p {
			if j > 0 {
				buf.WriteByte(',')
			}
			buf.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

// WriteDataset stores points as a text dataset under name.
func WriteDataset(ctx context.Context, store blobstore.BlobStore, name string, points []model.Point) error {
	return store.Put(ctx, name, FormatPoints(points))
}
