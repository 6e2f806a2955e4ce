// Package stitch composes groups of overlapping images into composites.
//
// Two strategies implement the same Stitcher interface: the full
// bundle-adjustment panorama pipeline backed by OpenCV's stitching module,
// and a sequential pairwise merge for captures without perspective
// distortion (e.g. continuous scroll screenshots).
package stitch

import (
	"errors"

	"gocv.io/x/gocv"
)

// Categorized stitch failures. Each is a retryable-by-user condition, not a
// fatal process error; callers branch on these with errors.Is.
var (
	ErrNeedMoreImages = errors.New("not enough images to stitch")
	ErrHomography     = errors.New("homography estimation failed: images may not overlap enough")
	ErrCameraParams   = errors.New("camera parameter adjustment failed")
)

// Mode selects the stitching strategy.
type Mode int

const (
	// ModeScans uses the planar/affine-biased panorama pipeline, tuned for
	// scans and screenshots.
	ModeScans Mode = iota
	// ModePanorama uses the full perspective panorama pipeline, tuned for
	// photographed panoramas.
	ModePanorama
	// ModePairwise uses the sequential two-image merge ladder.
	ModePairwise
)

func (m Mode) String() string {
	switch m {
	case ModeScans:
		return "scans"
	case ModePanorama:
		return "panorama"
	case ModePairwise:
		return "pairwise"
	default:
		return "unknown"
	}
}

// ParseMode maps a mode name to a Mode.
func ParseMode(name string) (Mode, bool) {
	switch name {
	case "scans":
		return ModeScans, true
	case "panorama":
		return ModePanorama, true
	case "pairwise":
		return ModePairwise, true
	}
	return ModeScans, false
}

// Stitcher composes an ordered list of images into one composite. The
// returned mat is owned by the caller; inputs are never modified.
type Stitcher interface {
	Stitch(images []gocv.Mat) (gocv.Mat, error)
}

// ForMode returns the stitcher implementing the given mode.
func ForMode(mode Mode, opts PairwiseOptions) Stitcher {
	if mode == ModePairwise {
		return NewPairwise(opts)
	}
	return NewPanorama(mode)
}
