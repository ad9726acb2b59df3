package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Centroid is the representative point of the cluster occupying slot Index.
type Centroid struct {
	Index int   `json:"index"`
	Point Point `json:"point"`
}

// String formats c as a centroid line without the trailing newline.
func (c Centroid) String() string {
	return FormatCentroid(c)
}

// FormatCentroid renders c as "index<TAB>c0,c1,...".
// Non-finite coordinates are rendered as NaN, +Inf or -Inf.
func FormatCentroid(c Centroid) string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(c.Index))
	sb.WriteByte('\t')
	c.Point.appendTo(&sb)
	return sb.String()
}

// ParseCentroid parses a line produced by FormatCentroid.
//
// Unlike ParsePoint it admits non-finite coordinates, so an empty-cluster
// result read back from storage is still recognizable as such.
func ParseCentroid(line string, d int) (Centroid, error) {
	idx, coords, ok := strings.Cut(strings.TrimRight(line, "\r\n"), "\t")
	if !ok {
		return Centroid{}, &ParseError{Column: -1, Reason: "missing tab between index and coordinates"}
	}
	i, err := strconv.Atoi(strings.TrimSpace(idx))
	if err != nil {
		return Centroid{}, &ParseError{Column: -1, Token: idx, Reason: "invalid centroid index", cause: err}
	}
	if i < 0 {
		return Centroid{}, &ParseError{Column: -1, Token: idx, Reason: "negative centroid index"}
	}
	p, err := parseCoords(coords, d, true)
	if err != nil {
		return Centroid{}, err
	}
	return Centroid{Index: i, Point: p}, nil
}

// CloneCentroids deep-copies cs.
func CloneCentroids(cs []Centroid) []Centroid {
	out := make([]Centroid, len(cs))
	for i, c := range cs {
		out[i] = Centroid{Index: c.Index, Point: c.Point.Clone()}
	}
	return out
}

// Points returns the coordinates of cs in slice order.
func Points(cs []Centroid) []Point {
	out := make([]Point, len(cs))
	for i, c := range cs {
		out[i] = c.Point
	}
	return out
}

// ValidateCentroids checks that cs holds exactly k centroids of dimension d
// with cs[i].Index == i.
func ValidateCentroids(cs []Centroid, k, d int) error {
	if len(cs) != k {
		return fmt.Errorf("expected %d centroids, got %d", k, len(cs))
	}
	for i, c := range cs {
		if c.Index != i {
			return fmt.Errorf("centroid at position %d has index %d", i, c.Index)
		}
		if len(c.Point) != d {
			return fmt.Errorf("centroid %d has dimension %d, expected %d", i, len(c.Point), d)
		}
	}
	return nil
}
