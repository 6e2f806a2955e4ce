// Package feature wraps keypoint detection and descriptor matching for the
// grouping and stitching pipelines.
package feature

import (
	"sort"

	"imagestitcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// DetectorKind selects the keypoint detector.
type DetectorKind int

const (
	// DetectorORB is the default binary-descriptor detector.
	DetectorORB DetectorKind = iota
	// DetectorSIFT is the opt-in float-descriptor detector, higher quality
	// at proportionally higher cost.
	DetectorSIFT
)

func (k DetectorKind) String() string {
	if k == DetectorSIFT {
		return "SIFT"
	}
	return "ORB"
}

// Options configures feature detection and matching.
type Options struct {
	Detector     DetectorKind
	MaxFeatures  int     // ORB feature budget
	Ratio        float64 // Lowe's ratio test threshold
	MinKeypoints int     // inputs with fewer keypoints report no matches
}

// DefaultOptions returns the observed working defaults.
func DefaultOptions() Options {
	return Options{
		Detector:     DetectorORB,
		MaxFeatures:  4000,
		Ratio:        0.75,
		MinKeypoints: 10,
	}
}

// MatchPoint is a matched keypoint pair: A in the first image, B in the second.
type MatchPoint struct {
	A geometry.Point2D
	B geometry.Point2D
}

// Matcher detects keypoints and matches descriptors with ratio-test filtering.
// Not safe for concurrent use; the pipeline runs on a single worker.
type Matcher struct {
	opts Options
	orb  gocv.ORB
	sift gocv.SIFT
	bf   gocv.BFMatcher
}

// NewMatcher creates a matcher for the configured detector. Call Close when done.
func NewMatcher(opts Options) *Matcher {
	m := &Matcher{opts: opts}
	if opts.Detector == DetectorSIFT {
		m.sift = gocv.NewSIFT()
		m.bf = gocv.NewBFMatcherWithParams(gocv.NormL2, false)
	} else {
		m.orb = gocv.NewORBWithParams(opts.MaxFeatures, 1.2, 8, 31, 0, 2,
			gocv.ORBScoreTypeHarris, 31, 20)
		m.bf = gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	}
	return m
}

// Close releases the detector and matcher resources.
func (m *Matcher) Close() {
	if m.opts.Detector == DetectorSIFT {
		m.sift.Close()
	} else {
		m.orb.Close()
	}
	m.bf.Close()
}

// Detect finds keypoints and descriptors. A color input is converted to
// grayscale first. The returned descriptor mat must be closed by the caller.
func (m *Matcher) Detect(img gocv.Mat) ([]gocv.KeyPoint, gocv.Mat) {
	gray := img
	owned := false
	if img.Channels() != 1 {
		gray = gocv.NewMat()
		gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
		owned = true
	}
	if owned {
		defer gray.Close()
	}

	mask := gocv.NewMat()
	defer mask.Close()

	if m.opts.Detector == DetectorSIFT {
		return m.sift.DetectAndCompute(gray, mask)
	}
	return m.orb.DetectAndCompute(gray, mask)
}

// Match runs k-nearest-neighbor matching (k=2) and keeps only matches
// passing Lowe's ratio test. Degenerate descriptor sets yield no matches
// rather than an error.
func (m *Matcher) Match(descA, descB gocv.Mat) []gocv.DMatch {
	if descA.Empty() || descB.Empty() || descA.Rows() < 2 || descB.Rows() < 2 {
		return nil
	}

	knn := m.bf.KnnMatch(descA, descB, 2)

	var good []gocv.DMatch
	for _, pair := range knn {
		if len(pair) < 2 {
			continue
		}
		if pair[0].Distance < m.opts.Ratio*pair[1].Distance {
			good = append(good, pair[0])
		}
	}
	return good
}

// MatchImages runs the full detect+match pipeline on two images and returns
// the matched keypoint locations. Inputs with too few keypoints report no
// matches.
func (m *Matcher) MatchImages(imgA, imgB gocv.Mat) []MatchPoint {
	kpsA, descA := m.Detect(imgA)
	defer descA.Close()
	kpsB, descB := m.Detect(imgB)
	defer descB.Close()

	if len(kpsA) < m.opts.MinKeypoints || len(kpsB) < m.opts.MinKeypoints {
		return nil
	}

	matches := m.Match(descA, descB)
	points := make([]MatchPoint, 0, len(matches))
	for _, dm := range matches {
		if dm.QueryIdx >= len(kpsA) || dm.TrainIdx >= len(kpsB) {
			continue
		}
		points = append(points, MatchPoint{
			A: geometry.NewPoint2D(kpsA[dm.QueryIdx].X, kpsA[dm.QueryIdx].Y),
			B: geometry.NewPoint2D(kpsB[dm.TrainIdx].X, kpsB[dm.TrainIdx].Y),
		})
	}
	return points
}

// GoodMatchCount returns the number of ratio-test-filtered matches between
// two images. This is the pair test used to build the match graph.
func (m *Matcher) GoodMatchCount(imgA, imgB gocv.Mat) int {
	return len(m.MatchImages(imgA, imgB))
}

// MedianShift returns the per-axis median of (A - B) over the matched pairs.
// The median rejects outlier matches without needing a full RANSAC pass.
func MedianShift(points []MatchPoint) geometry.Point2D {
	if len(points) == 0 {
		return geometry.Point2D{}
	}

	dxs := make([]float64, len(points))
	dys := make([]float64, len(points))
	for i, p := range points {
		d := p.A.Sub(p.B)
		dxs[i] = d.X
		dys[i] = d.Y
	}
	sort.Float64s(dxs)
	sort.Float64s(dys)

	return geometry.Point2D{X: median(dxs), Y: median(dys)}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
