// Command mrkmeans clusters the points of a text dataset with iterative
// k-means.
//
// Usage:
//
//	mrkmeans run <k> <d> <n> <threshold> <max_iterations> <reducers> <input> <output> [flags]
//
// The final centroids are printed to stdout, one "index<TAB>c0,c1,..." line
// each. Any failure exits with status 1.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mrkmeans: %v\n", err)
		os.Exit(1)
	}
}
