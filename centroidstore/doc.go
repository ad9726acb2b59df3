// Package centroidstore holds the centroid set shared by every map task of
// an iteration. The driver publishes the set once before each round and
// tasks read it once at setup; a published set is never modified in place.
package centroidstore
