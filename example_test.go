package mrkmeans_test

import (
	"context"
	"fmt"
	"log"

	"github.com/hupe1980/mrkmeans"
	"github.com/hupe1980/mrkmeans/blobstore"
	"github.com/hupe1980/mrkmeans/model"
)

// Example demonstrates clustering four points into two clusters.
func Example() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	if err := store.Put(ctx, "points.txt", []byte("0,0\n0,1\n10,0\n10,1\n")); err != nil {
		log.Fatal(err)
	}

	d, err := mrkmeans.New(mrkmeans.Config{
		K:             2,
		D:             2,
		N:             4,
		Threshold:     1e-4,
		MaxIterations: 10,
		Reducers:      1,
		Input:         "points.txt",
		Output:        "out",
	}, store, mrkmeans.WithInitialCentroids([]model.Centroid{
		{Index: 0, Point: model.Point{0, 0}},
		{Index: 1, Point: model.Point{10, 0}},
	}))
	if err != nil {
		log.Fatal(err)
	}

	res, err := d.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	for _, c := range res.Centroids {
		fmt.Println(c)
	}
	fmt.Println("converged:", res.Converged, "iterations:", res.Iterations)
	// Output:
	// 0	0,0.5
	// 1	10,0.5
	// converged: true iterations: 2
}

// Example_metrics shows how to collect run metrics.
func Example_metrics() {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	if err := store.Put(ctx, "points.txt", []byte("1,1\n2,2\n3,3\n")); err != nil {
		log.Fatal(err)
	}

	metrics := &mrkmeans.BasicMetricsCollector{}
	d, err := mrkmeans.New(mrkmeans.Config{
		K: 1, D: 2, N: 3,
		MaxIterations: 5,
		Reducers:      1,
		Input:         "points.txt",
		Output:        "out",
	}, store,
		mrkmeans.WithInitialCentroids([]model.Centroid{{Index: 0, Point: model.Point{0, 0}}}),
		mrkmeans.WithMetricsCollector(metrics),
	)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := d.Run(ctx); err != nil {
		log.Fatal(err)
	}

	stats := metrics.GetStats()
	fmt.Println("rounds:", stats.RoundCount, "points per round:", stats.PointsAssigned/stats.RoundCount)
	// Output: rounds: 2 points per round: 3
}
