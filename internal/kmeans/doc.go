// Package kmeans implements the per-task pieces of one k-means iteration:
// seeding the initial centroids, assigning a partition of points to their
// nearest centroid with in-mapper combining, and reducing the partial
// aggregates of one centroid index to its new position.
//
// Everything here is pure with respect to storage and scheduling; the
// round runner decides where records come from and where aggregates go.
package kmeans
