// Package imageio provides image loading, normalization, and output encoding
// for the stitching pipeline. All pipeline stages operate on 8-bit 3-channel
// BGR mats; loading normalizes whatever the decoder produces to that layout.
package imageio

import (
	"fmt"
	"log"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Frame is a decoded image together with its source identifier.
type Frame struct {
	Path string
	Mat  gocv.Mat

	closed bool
}

// Close releases the frame's pixel buffer. Safe to call more than once so
// stages can release frames as soon as they are done with them.
func (f *Frame) Close() {
	if f.closed {
		return
	}
	f.closed = true
	f.Mat.Close()
}

// CloseFrames releases every frame in the slice.
func CloseFrames(frames []Frame) {
	for i := range frames {
		frames[i].Close()
	}
}

// Load decodes an image file into a BGR mat. OpenCV's decoder is tried
// first; formats it cannot read (e.g. WebP builds without libwebp) fall
// back to the pure Go decoders, which also honor EXIF orientation.
func Load(path string) (gocv.Mat, error) {
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if !mat.Empty() {
		return normalizeBGR(mat), nil
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return ImageToMat(img)
}

// LoadBatch decodes a list of image files, skipping files that fail to
// decode. It returns the decoded frames in input order plus the paths that
// were skipped. The progress callback (may be nil) receives one call per
// input file.
func LoadBatch(paths []string, progress func(current, total int, path string)) ([]Frame, []string) {
	frames := make([]Frame, 0, len(paths))
	var skipped []string

	for i, path := range paths {
		if progress != nil {
			progress(i+1, len(paths), path)
		}
		mat, err := Load(path)
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			skipped = append(skipped, path)
			continue
		}
		frames = append(frames, Frame{Path: path, Mat: mat})
	}

	return frames, skipped
}

// normalizeBGR strips an alpha channel or expands grayscale so the result
// is always 3-channel BGR. Takes ownership of the input mat.
func normalizeBGR(mat gocv.Mat) gocv.Mat {
	switch mat.Channels() {
	case 3:
		return mat
	case 4:
		dst := gocv.NewMat()
		gocv.CvtColor(mat, &dst, gocv.ColorBGRAToBGR)
		mat.Close()
		return dst
	case 1:
		dst := gocv.NewMat()
		gocv.CvtColor(mat, &dst, gocv.ColorGrayToBGR)
		mat.Close()
		return dst
	default:
		return mat
	}
}
