package mrkmeans

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hupe1980/mrkmeans/internal/kmeans"
	"github.com/hupe1980/mrkmeans/internal/round"
)

var (
	// ErrInvalidArgument matches every *InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMalformedInput matches every *MalformedInputError.
	ErrMalformedInput = errors.New("malformed input")
	// ErrDegenerateCluster matches every *DegenerateClusterError.
	ErrDegenerateCluster = errors.New("degenerate cluster")
	// ErrRoundFailure matches every *RoundFailureError.
	ErrRoundFailure = errors.New("round failure")
)

// InvalidArgumentError is returned for a bad parameter, before any iteration runs.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type InvalidArgumentError struct {
	Field  string
	Value  any
	Reason string
	cause  error
}

func (e *InvalidArgumentError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid argument %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *InvalidArgumentError) Unwrap() error { return e.cause }

// Is reports whether target is ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// MalformedInputError reports a record that is not a valid point.
// It aborts the round that read it.
type MalformedInputError struct {
	// Iteration is 0 when the record was read during seeding.
	Iteration int
	// Partition is the split index, or -1 when unknown.
	Partition int
	// Offset is the byte offset of the record in the uncompressed input,
	// or -1 when no single record is to blame.
	Offset int64
	Record string
	cause  error
}

func (e *MalformedInputError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed input")
	if e.Iteration > 0 {
		fmt.Fprintf(&sb, " in iteration %d", e.Iteration)
	} else {
		sb.WriteString(" during seeding")
	}
	if e.Partition >= 0 {
		fmt.Fprintf(&sb, ", partition %d", e.Partition)
	}
	if e.Offset >= 0 {
		fmt.Fprintf(&sb, " at offset %d (%q)", e.Offset, e.Record)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, ": %v", e.cause)
	}
	return sb.String()
}

func (e *MalformedInputError) Unwrap() error { return e.cause }

// Is reports whether target is ErrMalformedInput.
func (e *MalformedInputError) Is(target error) bool { return target == ErrMalformedInput }

// DegenerateClusterError reports centroids that received no points.
type DegenerateClusterError struct {
	Iteration int
	Indices   []int
}

func (e *DegenerateClusterError) Error() string {
	return fmt.Sprintf("degenerate cluster in iteration %d: centroids %v received no points; restart with different seeding or a smaller k",
		e.Iteration, e.Indices)
}

// Is reports whether target is ErrDegenerateCluster.
func (e *DegenerateClusterError) Is(target error) bool { return target == ErrDegenerateCluster }

// RoundFailureError reports a round that did not complete.
// Iteration 0 means the input could not be read while seeding.
type RoundFailureError struct {
	Iteration int
	cause     error
}

func (e *RoundFailureError) Error() string {
	if e.Iteration == 0 {
		return fmt.Sprintf("seeding failed: %v", e.cause)
	}
	return fmt.Sprintf("round %d failed: %v", e.Iteration, e.cause)
}

func (e *RoundFailureError) Unwrap() error { return e.cause }

// Is reports whether target is ErrRoundFailure.
func (e *RoundFailureError) Is(target error) bool { return target == ErrRoundFailure }

// translateError maps errors from the lower layers onto the four error
// classes. iteration is 0 for errors raised while seeding.
func translateError(err error, iteration int) error {
	if err == nil {
		return nil
	}

	// Already classified.
	if errors.Is(err, ErrInvalidArgument) || errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrDegenerateCluster) || errors.Is(err, ErrRoundFailure) {
		return err
	}

	var re *kmeans.RecordError
	if errors.As(err, &re) {
		partition := -1
		var te *round.TaskError
		if errors.As(err, &te) && te.Phase == round.PhaseMap {
			partition = te.Task
		}
		return &MalformedInputError{
			Iteration: iteration,
			Partition: partition,
			Offset:    re.Offset,
			Record:    re.Record,
			cause:     re.Err,
		}
	}

	// Partial sums that only overflow once merged across partitions.
	if errors.Is(err, kmeans.ErrSumOverflow) {
		return &MalformedInputError{Iteration: iteration, Partition: -1, Offset: -1, cause: err}
	}

	if iteration > 0 {
		return &RoundFailureError{Iteration: iteration, cause: err}
	}

	switch {
	case errors.Is(err, kmeans.ErrInvalidK):
		return &InvalidArgumentError{Field: "k", Reason: err.Error(), cause: err}
	case errors.Is(err, kmeans.ErrInvalidDimension):
		return &InvalidArgumentError{Field: "d", Reason: err.Error(), cause: err}
	case errors.Is(err, kmeans.ErrShortDataset):
		return &InvalidArgumentError{Field: "n", Reason: err.Error(), cause: err}
	}
	return &RoundFailureError{Iteration: 0, cause: err}
}
