package boundary

import (
	"image"

	"imagestitcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// Crop returns a copy of the image with the crop bounds applied. A taller
// or shorter capture than the batch reference is handled by re-deriving its
// own end offsets while keeping the start offsets clamped valid, so batches
// tolerate minor capture-size jitter. A crop that would leave nothing
// returns an uncropped clone.
func Crop(img gocv.Mat, bounds geometry.CropBounds) gocv.Mat {
	rows := img.Rows()
	cols := img.Cols()

	y0 := clampInt(bounds.Top, 0, rows-1)
	y1 := rows - bounds.Bottom
	x0 := clampInt(bounds.Left, 0, cols-1)
	x1 := cols - bounds.Right

	if y1 <= y0 || x1 <= x0 {
		return img.Clone()
	}

	roi := img.Region(image.Rect(x0, y0, x1, y1))
	defer roi.Close()
	return roi.Clone()
}

// CropBatch applies the same crop bounds to every image, returning new mats.
func CropBatch(images []gocv.Mat, bounds geometry.CropBounds) []gocv.Mat {
	out := make([]gocv.Mat, len(images))
	for i, img := range images {
		out[i] = Crop(img, bounds)
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
