// Package group partitions an unordered image pool into mutually stitchable
// groups by clustering a pairwise feature-match graph.
package group

import (
	"fmt"
)

// PairFunc reports the number of good feature matches between images i and j.
type PairFunc func(i, j int) int

// Options configures grouping.
type Options struct {
	// MinGoodMatches is the minimum ratio-test-filtered match count for a
	// graph edge. The default of 12 avoids spurious overlaps from repetitive
	// textures.
	MinGoodMatches int
	// Progress (may be nil) receives one call per completed pair test.
	Progress func(current, total int)
	Debug    bool
}

// DefaultOptions returns the observed working defaults.
func DefaultOptions() Options {
	return Options{MinGoodMatches: 12}
}

// Result is a partition of the input images. Every input id appears in
// exactly one group or in the discarded list.
type Result struct {
	Groups    [][]string // stitchable groups, each preserving input order
	Discarded []string   // images with no stitchable partner
}

// Grouper builds a match graph over an image set and extracts its connected
// components as stitchable groups.
type Grouper struct {
	opts Options
}

// New creates a Grouper.
func New(opts Options) *Grouper {
	if opts.MinGoodMatches <= 0 {
		opts.MinGoodMatches = DefaultOptions().MinGoodMatches
	}
	return &Grouper{opts: opts}
}

// Group tests every unordered pair with score and partitions ids into
// connected components. Pairwise testing is O(n²); progress is reported per
// completed pair so long batches stay observable.
func (g *Grouper) Group(ids []string, score PairFunc) Result {
	n := len(ids)
	graph := newMatchGraph(n)

	total := n * (n - 1) / 2
	done := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			done++
			if g.opts.Progress != nil {
				g.opts.Progress(done, total)
			}

			count := score(i, j)
			if count >= g.opts.MinGoodMatches {
				graph.addEdge(i, j)
			}
			if g.opts.Debug {
				fmt.Printf("[Group] pair (%d,%d): %d good matches\n", i, j, count)
			}
		}
	}

	var result Result
	for _, comp := range graph.components() {
		if len(comp) < 2 {
			result.Discarded = append(result.Discarded, ids[comp[0]])
			continue
		}
		members := make([]string, len(comp))
		for i, idx := range comp {
			members[i] = ids[idx]
		}
		result.Groups = append(result.Groups, members)
	}

	if g.opts.Debug {
		fmt.Printf("[Group] %d images -> %d groups, %d discarded\n",
			n, len(result.Groups), len(result.Discarded))
	}

	return result
}
