package stitch

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Panorama runs the full multi-image pipeline: feature detection,
// homography estimation, bundle adjustment, and seam blending, delegated to
// OpenCV's stitching module.
type Panorama struct {
	mode gocv.StitcherMode
}

// NewPanorama creates a panorama stitcher. ModeScans selects the
// planar-biased pipeline; anything else selects full perspective.
func NewPanorama(mode Mode) *Panorama {
	sm := gocv.StitcherModePanorama
	if mode == ModeScans {
		sm = gocv.StitcherModeScans
	}
	return &Panorama{mode: sm}
}

// Stitch composes the group into one panorama. A single-image input
// short-circuits and returns a clone unchanged. Failures are mapped to the
// categorized errors so callers can distinguish low-overlap input from
// bundle-adjustment divergence.
func (p *Panorama) Stitch(images []gocv.Mat) (gocv.Mat, error) {
	if len(images) == 0 {
		return gocv.Mat{}, fmt.Errorf("stitch: %w", ErrNeedMoreImages)
	}
	if len(images) == 1 {
		return images[0].Clone(), nil
	}

	stitcher := gocv.NewStitcher(p.mode)
	defer stitcher.Close()

	pano := gocv.NewMat()
	status, err := stitcher.Stitch(images, &pano)
	if err != nil {
		pano.Close()
		return gocv.Mat{}, fmt.Errorf("stitch %d images: %w", len(images), err)
	}
	if status != gocv.CompleteStatusOK {
		pano.Close()
		switch status {
		case gocv.CompleteStatusErrNeedMoreImgs:
			return gocv.Mat{}, fmt.Errorf("stitch %d images: %w", len(images), ErrNeedMoreImages)
		case gocv.CompleteStatusErrHomographyEstFail:
			return gocv.Mat{}, fmt.Errorf("stitch %d images: %w", len(images), ErrHomography)
		case gocv.CompleteStatusErrCameraParamsAdjustFail:
			return gocv.Mat{}, fmt.Errorf("stitch %d images: %w", len(images), ErrCameraParams)
		default:
			return gocv.Mat{}, fmt.Errorf("stitch %d images: unexpected status %d", len(images), status)
		}
	}
	if pano.Empty() {
		pano.Close()
		return gocv.Mat{}, fmt.Errorf("stitch %d images: empty panorama: %w", len(images), ErrHomography)
	}

	return pano, nil
}
