package round

import (
	"fmt"
	"path"
)

const (
	intermediateDir = "_intermediate"
	partPrefix      = "part-r-"
)

// OutputDir returns the output directory of iteration.
func OutputDir(output string, iteration int) string {
	return fmt.Sprintf("%s_%d", output, iteration)
}

// PartName returns the name of the part file written by reducer.
func PartName(dir string, reducer int) string {
	return path.Join(dir, fmt.Sprintf("%s%05d", partPrefix, reducer))
}

// SpillName returns the name of the spill written by the map task of split.
func SpillName(dir string, split int) string {
	return path.Join(dir, intermediateDir, fmt.Sprintf("map-%05d.zst", split))
}

// Partition routes centroid index to a reducer.
func Partition(index, reducers int) int {
	return index % reducers
}
