// Command grouptest runs pairwise matching and grouping on a set of images
// and prints the resulting partition.
package main

import (
	"flag"
	"fmt"
	"os"

	"imagestitcher/internal/feature"
	"imagestitcher/internal/group"
	"imagestitcher/internal/imageio"
)

func main() {
	minMatches := flag.Int("min-matches", 0, "Minimum good matches for a graph edge (default 12)")
	sift := flag.Bool("sift", false, "Use SIFT features instead of ORB")
	debug := flag.Bool("debug", false, "Print per-pair match counts")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Println("Usage: grouptest [flags] <image> <image> [...]")
		os.Exit(1)
	}

	frames, skipped := imageio.LoadBatch(flag.Args(), nil)
	defer imageio.CloseFrames(frames)
	for _, path := range skipped {
		fmt.Printf("skipped (decode failed): %s\n", path)
	}
	if len(frames) < 2 {
		fmt.Fprintf(os.Stderr, "need at least 2 decodable images, got %d\n", len(frames))
		os.Exit(1)
	}

	fopts := feature.DefaultOptions()
	if *sift {
		fopts.Detector = feature.DetectorSIFT
	}
	matcher := feature.NewMatcher(fopts)
	defer matcher.Close()

	gopts := group.DefaultOptions()
	if *minMatches > 0 {
		gopts.MinGoodMatches = *minMatches
	}
	gopts.Debug = *debug

	ids := make([]string, len(frames))
	for i := range frames {
		ids[i] = frames[i].Path
	}
	result := group.New(gopts).Group(ids, func(i, j int) int {
		return matcher.GoodMatchCount(frames[i].Mat, frames[j].Mat)
	})

	for i, members := range result.Groups {
		fmt.Printf("group %d (%d images):\n", i+1, len(members))
		for _, path := range members {
			fmt.Printf("  %s\n", path)
		}
	}
	for _, path := range result.Discarded {
		fmt.Printf("discarded: %s\n", path)
	}
}
