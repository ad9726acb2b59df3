// Package distance provides the squared Euclidean distance used to rank
// centroids, and nearest-centroid lookup on top of it.
//
// No square root is ever taken: ranking by squared distance is equivalent
// to ranking by distance.
//
// # Usage
//
//	d2 := distance.SquaredL2(a, b)
//	idx, d2 := distance.Nearest(p, centroids)
package distance
