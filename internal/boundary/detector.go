// Package boundary detects fixed (non-scrolling) regions across a stack of
// nominally-aligned screenshots by per-pixel variance analysis, yielding
// crop offsets that isolate the true scroll content from static chrome.
package boundary

import (
	"fmt"
	"image"
	"math"

	"imagestitcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// Options configures boundary detection.
type Options struct {
	// Sensitivity scales the mean-based profile threshold.
	Sensitivity float64
	// MinRunLength is the window width (pixels) that must be mostly above
	// threshold for a position to count as a content boundary.
	MinRunLength int
	// BlurKernel is the Gaussian kernel size applied before variance
	// analysis, suppressing small flicker such as blinking status icons.
	// Must be odd.
	BlurKernel int
	// TwoAxis also derives left/right crops from the column profile.
	TwoAxis bool
	Debug   bool
}

// DefaultOptions returns the observed working defaults.
func DefaultOptions() Options {
	return Options{
		Sensitivity:  1.5,
		MinRunLength: 20,
		BlurKernel:   11,
	}
}

const smoothWindow = 11

// Detect computes crop offsets isolating the varying content region across
// the stack. Needs at least two images; with fewer there is no variance to
// measure and zero crops are returned.
func Detect(images []gocv.Mat, opts Options) (geometry.CropBounds, error) {
	if opts.Sensitivity <= 0 {
		opts.Sensitivity = DefaultOptions().Sensitivity
	}
	if opts.MinRunLength <= 0 {
		opts.MinRunLength = DefaultOptions().MinRunLength
	}
	if opts.BlurKernel < 3 {
		opts.BlurKernel = DefaultOptions().BlurKernel
	}
	if opts.BlurKernel%2 == 0 {
		opts.BlurKernel++
	}

	if len(images) < 2 {
		return geometry.CropBounds{}, nil
	}

	// Viewports are nominally identical; analyze the common region so minor
	// capture-size jitter does not skew the statistics.
	width := images[0].Cols()
	height := images[0].Rows()
	for _, img := range images[1:] {
		if img.Cols() < width {
			width = img.Cols()
		}
		if img.Rows() < height {
			height = img.Rows()
		}
	}
	if width == 0 || height == 0 {
		return geometry.CropBounds{}, fmt.Errorf("boundary detect: empty image in stack")
	}

	stddev := varianceMap(images, width, height, opts.BlurKernel)

	// Normalize to [0,1]
	maxStd := 0.0
	for _, v := range stddev {
		if v > maxStd {
			maxStd = v
		}
	}
	if maxStd == 0 {
		// Identical captures: nothing scrolls, nothing to crop
		return geometry.CropBounds{}, nil
	}
	for i := range stddev {
		stddev[i] /= maxStd
	}

	rowProfile := make([]float64, height)
	colProfile := make([]float64, width)
	for y := 0; y < height; y++ {
		row := stddev[y*width : (y+1)*width]
		sum := 0.0
		for x, v := range row {
			sum += v
			colProfile[x] += v
		}
		rowProfile[y] = sum / float64(width)
	}
	for x := range colProfile {
		colProfile[x] /= float64(height)
	}

	var bounds geometry.CropBounds
	smoothedRows := smoothProfile(rowProfile, smoothWindow)
	if first, last, ok := contentRun(smoothedRows, opts.Sensitivity, opts.MinRunLength); ok {
		bounds.Top, bounds.Bottom = cropsFromRun(first, last, height)
	}

	if opts.TwoAxis {
		smoothedCols := smoothProfile(colProfile, smoothWindow)
		if first, last, ok := contentRun(smoothedCols, opts.Sensitivity, opts.MinRunLength); ok {
			bounds.Left, bounds.Right = cropsFromRun(first, last, width)
		}
	}

	if opts.Debug {
		fmt.Printf("[Boundary] stack of %d (%dx%d common): top=%d bottom=%d left=%d right=%d\n",
			len(images), width, height, bounds.Top, bounds.Bottom, bounds.Left, bounds.Right)
	}

	return bounds, nil
}

// varianceMap computes the per-pixel standard deviation of blurred
// grayscale intensity across the stack, row-major over the common region.
func varianceMap(images []gocv.Mat, width, height, kernel int) []float64 {
	n := width * height
	sum := make([]float64, n)
	sumSq := make([]float64, n)

	for _, img := range images {
		gray := gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		blurred := gocv.NewMat()
		gocv.GaussianBlur(gray, &blurred, image.Point{X: kernel, Y: kernel}, 0, 0, gocv.BorderDefault)
		gray.Close()

		stride := blurred.Cols()
		bytes := blurred.ToBytes()
		for y := 0; y < height; y++ {
			rowOff := y * stride
			for x := 0; x < width; x++ {
				v := float64(bytes[rowOff+x])
				idx := y*width + x
				sum[idx] += v
				sumSq[idx] += v * v
			}
		}
		blurred.Close()
	}

	count := float64(len(images))
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		mean := sum[i] / count
		variance := sumSq[i]/count - mean*mean
		if variance < 0 {
			variance = 0
		}
		out[i] = math.Sqrt(variance)
	}
	return out
}
