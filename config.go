package mrkmeans

import (
	"fmt"
	"math"
)

// Config holds the parameters of a run.
type Config struct {
	// K is the number of clusters.
	K int `toml:"k"`
	// D is the dimensionality of every point.
	D int `toml:"d"`
	// N is the declared number of records in the input.
	N int64 `toml:"n"`
	// Threshold bounds the squared displacement of a converged centroid.
	Threshold float64 `toml:"threshold"`
	// MaxIterations caps the number of rounds.
	MaxIterations int `toml:"max_iterations"`
	// Reducers is the number of reduce tasks per round.
	Reducers int `toml:"reducers"`
	// Input names the dataset blob.
	Input string `toml:"input"`
	// Output is the path prefix for round outputs, the centroid file and
	// the run summary.
	Output string `toml:"output"`
}

// Validate checks every parameter and returns an *InvalidArgumentError
// for the first bad one.
func (c Config) Validate() error {
	switch {
	case c.K <= 0:
		return invalid("k", c.K, "must be positive")
	case c.D <= 0:
		return invalid("d", c.D, "must be positive")
	case c.N <= 0:
		return invalid("n", c.N, "must be positive")
	case int64(c.K) > c.N:
		return invalid("k", c.K, fmt.Sprintf("must not exceed n=%d", c.N))
	case math.IsNaN(c.Threshold) || c.Threshold < 0:
		return invalid("threshold", c.Threshold, "must be a non-negative number")
	case c.MaxIterations <= 0:
		return invalid("max_iterations", c.MaxIterations, "must be positive")
	case c.Reducers <= 0:
		return invalid("reducers", c.Reducers, "must be positive")
	case c.Input == "":
		return invalid("input", c.Input, "must not be empty")
	case c.Output == "":
		return invalid("output", c.Output, "must not be empty")
	}
	return nil
}

func invalid(field string, value any, reason string) *InvalidArgumentError {
	return &InvalidArgumentError{Field: field, Value: value, Reason: reason}
}
