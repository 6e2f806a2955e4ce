// Command boundarytest runs scroll-boundary detection on a screenshot batch
// and prints the detected crops, optionally writing the cropped images.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"imagestitcher/internal/boundary"
	"imagestitcher/internal/imageio"

	"gocv.io/x/gocv"
)

func main() {
	sensitivity := flag.Float64("sensitivity", 0, "Profile threshold sensitivity (default 1.5)")
	runLength := flag.Int("run-length", 0, "Boundary run length in pixels (default 20)")
	kernel := flag.Int("blur", 0, "Gaussian blur kernel size, odd (default 11)")
	twoAxis := flag.Bool("two-axis", false, "Also detect left/right boundaries")
	outDir := flag.String("out", "", "Write cropped images to this directory")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	if flag.NArg() < 2 {
		fmt.Println("Usage: boundarytest [flags] <image> <image> [...]")
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

	opts := boundary.DefaultOptions()
	if *sensitivity > 0 {
		opts.Sensitivity = *sensitivity
	}
	if *runLength > 0 {
		opts.MinRunLength = *runLength
	}
	if *kernel > 0 {
		opts.BlurKernel = *kernel
	}
	opts.TwoAxis = *twoAxis
	opts.Debug = *debug

	mats := make([]gocv.Mat, len(frames))
	for i := range frames {
		mats[i] = frames[i].Mat
	}

	bounds, err := boundary.Detect(mats, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "detection failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("top=%d bottom=%d left=%d right=%d\n",
		bounds.Top, bounds.Bottom, bounds.Left, bounds.Right)

	if *outDir == "" {
		return
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	encode := imageio.DefaultEncodeOptions()
	for i := range frames {
		cropped := boundary.Crop(frames[i].Mat, bounds)
		out := filepath.Join(*outDir, "cropped-"+filepath.Base(frames[i].Path))
		if err := imageio.Save(cropped, out, encode); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			fmt.Printf("wrote %s\n", out)
		}
		cropped.Close()
	}
}
