// Command imagestitcher stitches overlapping images (screen captures or
// photos) into seamless composites.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"imagestitcher/internal/feature"
	"imagestitcher/internal/imageio"
	"imagestitcher/internal/job"
	"imagestitcher/internal/stitch"
	"imagestitcher/internal/version"
)

const appName = "imagestitcher"

func main() {
	mode := flag.String("mode", "scans", "Stitch mode: scans, panorama, or pairwise")
	out := flag.String("out", ".", "Output directory")
	format := flag.String("format", "png", "Output format: png, jpg, or webp")
	jpegQuality := flag.Int("jpeg-quality", 95, "JPEG quality (1-100)")
	boundaries := flag.Bool("boundaries", false, "Detect and crop fixed scroll boundaries before stitching")
	twoAxis := flag.Bool("two-axis", false, "Also crop left/right boundaries (implies -boundaries)")
	alpha := flag.Bool("alpha", false, "Make near-black composite margins transparent (may also mask dark content)")
	vertical := flag.Bool("vertical", false, "Pairwise mode: merge top-to-bottom instead of left-to-right")
	sift := flag.Bool("sift", false, "Use SIFT features instead of ORB (slower, higher quality)")
	minMatches := flag.Int("min-matches", 0, "Minimum good matches for two images to be grouped (default 12)")
	cachePath := flag.String("cache", "", "SQLite match cache path (optional)")
	manifest := flag.Bool("report", false, "Write a stitch-report.json manifest next to the outputs")
	debug := flag.Bool("debug", false, "Enable debug output")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s (built %s, commit %s)\n", appName, version.Version, version.BuildTime, version.GitCommit)
		return
	}

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("Starting %s v%s", appName, version.Version)

	paths, err := collectInputs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: imagestitcher [flags] <images or directories>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := job.DefaultOptions()
	opts.Paths = paths
	opts.OutputDir = *out
	opts.DetectBoundaries = *boundaries || *twoAxis
	opts.Boundary.TwoAxis = *twoAxis
	opts.AlphaMask = *alpha
	opts.Pairwise.Vertical = *vertical
	opts.CachePath = *cachePath
	opts.Report = *manifest
	opts.Debug = *debug

	m, ok := stitch.ParseMode(*mode)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(1)
	}
	opts.Mode = m

	f, err := imageio.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	opts.Encode.Format = f
	opts.Encode.JPEGQuality = *jpegQuality

	if *sift {
		opts.Feature.Detector = feature.DetectorSIFT
	}
	if *minMatches > 0 {
		opts.Grouping.MinGoodMatches = *minMatches
	}

	j := job.New(opts)
	outcome := j.Go()

	for p := range j.Progress() {
		if p.Total > 0 {
			fmt.Printf("\r%-60s", fmt.Sprintf("%s (%d/%d)", p.Message, p.Current, p.Total))
		} else {
			fmt.Printf("\r%-60s", p.Message)
		}
	}
	fmt.Println()

	o := <-outcome
	report(o.Result)
	if o.Err != nil {
		fmt.Fprintf(os.Stderr, "job failed (%s): %v\n", job.CategoryOf(o.Err), o.Err)
		os.Exit(1)
	}
}

func report(res job.Result) {
	for _, out := range res.Outputs {
		fmt.Printf("wrote %s (%d images)\n", out.Path, len(out.Sources))
	}
	for _, path := range res.Discarded {
		fmt.Printf("discarded %s: no stitchable partner\n", path)
	}
	for _, err := range res.GroupErrors {
		fmt.Printf("group failed (%s): %v\n", job.CategoryOf(err), err)
	}
}

// collectInputs expands directory arguments into their image files,
// sorted by name so capture order is preserved for sequential filenames.
func collectInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", arg, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			switch strings.ToLower(filepath.Ext(e.Name())) {
			case ".png", ".jpg", ".jpeg", ".bmp", ".tif", ".tiff", ".webp":
				found = append(found, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	return paths, nil
}
