package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedPoint is the sentinel matched by every *ParseError.
var ErrMalformedPoint = errors.New("malformed point")

// ParseError describes why a record could not be parsed as a Point.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ParseError struct {
	// Column is the zero-based coordinate position, or -1 for whole-record errors.
	Column int
	Token  string
	Reason string
	cause  error
}

func (e *ParseError) Error() string {
	if e.Column < 0 {
		return fmt.Sprintf("malformed point: %s", e.Reason)
	}
	return fmt.Sprintf("malformed point: coordinate %d (%q): %s", e.Column, e.Token, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.cause }

// Is reports whether target is ErrMalformedPoint.
func (e *ParseError) Is(target error) bool { return target == ErrMalformedPoint }

// Point is an ordered sequence of coordinates.
// Points are treated as immutable once parsed.
type Point []float64

// Dim returns the dimensionality of p.
func (p Point) Dim() int { return len(p) }

// Clone returns a copy of p that shares no memory with it.
func (p Point) Clone() Point { return slices.Clone(p) }

// IsFinite reports whether every coordinate is a finite number.
func (p Point) IsFinite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// String formats p as comma-separated coordinates.
func (p Point) String() string {
	var sb strings.Builder
	p.appendTo(&sb)
	return sb.String()
}

func (p Point) appendTo(sb *strings.Builder) {
	for i, v := range p {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
}

// ParsePoint parses a comma-separated record into a Point of dimension d.
//
// Tokens beyond the first d are ignored. A record is rejected when it is
// empty, has fewer than d tokens, or any of the first d tokens is not a
// finite number.
func ParsePoint(line string, d int) (Point, error) {
	return parseCoords(line, d, false)
}

func parseCoords(line string, d int, allowNonFinite bool) (Point, error) {
	if d <= 0 {
		return nil, &ParseError{Column: -1, Reason: fmt.Sprintf("invalid dimension %d", d)}
	}
	if strings.TrimSpace(line) == "" {
		return nil, &ParseError{Column: -1, Reason: "empty record"}
	}

	p := make(Point, d)
	rest := line
	for i := 0; i < d; i++ {
		if rest == "" && i > 0 {
			return nil, &ParseError{Column: -1, Reason: fmt.Sprintf("expected %d coordinates, got %d", d, i)}
		}
		var tok string
		tok, rest, _ = strings.Cut(rest, ",")
		tok = strings.TrimSpace(tok)

		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, &ParseError{Column: i, Token: tok, Reason: "not a number", cause: err}
		}
		if !allowNonFinite && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return nil, &ParseError{Column: i, Token: tok, Reason: "not finite"}
		}
		p[i] = v
	}
	return p, nil
}
