package job

import (
	"imagestitcher/internal/boundary"
	"imagestitcher/internal/feature"
	"imagestitcher/internal/group"
	"imagestitcher/internal/imageio"
	"imagestitcher/internal/stitch"
)

// Options is the full configuration for one stitch job, passed in at start.
type Options struct {
	// Paths are the input image files, in capture order where known.
	Paths []string

	// Mode selects the stitching strategy applied to each group.
	Mode stitch.Mode

	// DetectBoundaries runs scroll-boundary detection over the batch and
	// crops static chrome before grouping.
	DetectBoundaries bool

	// AlphaMask converts near-black composite margins to transparency.
	// Opt-in: it can also mask genuinely dark content.
	AlphaMask bool

	// OutputDir receives the composite files.
	OutputDir string

	Encode   imageio.EncodeOptions
	Feature  feature.Options
	Grouping group.Options
	Pairwise stitch.PairwiseOptions
	Boundary boundary.Options

	// CachePath, when set, enables the SQLite pair-match cache.
	CachePath string

	// Report writes a stitch-report.json manifest next to the outputs.
	Report bool

	Debug bool
}

// DefaultOptions returns a job configuration with the observed defaults:
// scans-mode stitching, PNG output, boundary detection off.
func DefaultOptions() Options {
	return Options{
		Mode:     stitch.ModeScans,
		Encode:   imageio.DefaultEncodeOptions(),
		Feature:  feature.DefaultOptions(),
		Grouping: group.DefaultOptions(),
		Pairwise: stitch.DefaultPairwiseOptions(),
		Boundary: boundary.DefaultOptions(),
	}
}
