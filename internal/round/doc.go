// Package round runs one k-means iteration as an in-process
// map/shuffle/reduce job.
//
// Map tasks, one per dataset split, assign their points to the published
// centroids and spill k partial aggregates to
// <output>_<iteration>/_intermediate/map-NNNNN.zst. Reduce tasks, one per
// reducer, collect the aggregates of the centroid indices routed to them
// (index % reducers) from every spill and write their new centroids to
// <output>_<iteration>/part-r-NNNNN in the centroid line format. The runner
// then reads all part files back and returns the k centroids by index.
package round
