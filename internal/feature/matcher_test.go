package feature

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"imagestitcher/pkg/geometry"

	"gocv.io/x/gocv"
)

func noiseMat(t *testing.T, w, h int, seed int64) gocv.Mat {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	data := make([]byte, w*h*3)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}
	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	return m
}

func TestMedianShift(t *testing.T) {
	mp := func(ax, ay, bx, by float64) MatchPoint {
		return MatchPoint{A: geometry.Point2D{X: ax, Y: ay}, B: geometry.Point2D{X: bx, Y: by}}
	}

	tests := []struct {
		name   string
		points []MatchPoint
		want   geometry.Point2D
	}{
		{"empty", nil, geometry.Point2D{}},
		{"single", []MatchPoint{mp(10, 5, 3, 1)}, geometry.Point2D{X: 7, Y: 4}},
		{
			"odd count takes middle",
			[]MatchPoint{mp(10, 0, 0, 0), mp(12, 0, 0, 0), mp(100, 0, 0, 0)},
			geometry.Point2D{X: 12, Y: 0},
		},
		{
			"even count averages middle pair",
			[]MatchPoint{mp(10, 2, 0, 0), mp(14, 4, 0, 0)},
			geometry.Point2D{X: 12, Y: 3},
		},
		{
			"outlier rejected",
			[]MatchPoint{mp(50, 0, 0, 0), mp(51, 0, 0, 0), mp(49, 0, 0, 0), mp(50, 0, 0, 0), mp(500, 0, 0, 0)},
			geometry.Point2D{X: 50, Y: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MedianShift(tt.points)
			if math.Abs(got.X-tt.want.X) > 1e-9 || math.Abs(got.Y-tt.want.Y) > 1e-9 {
				t.Errorf("MedianShift = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMatchSolidImages(t *testing.T) {
	m := NewMatcher(DefaultOptions())
	defer m.Close()

	data := make([]byte, 200*150*3)
	for i := range data {
		data[i] = 128
	}
	solid, err := gocv.NewMatFromBytes(150, 200, gocv.MatTypeCV8UC3, data)
	if err != nil {
		t.Fatalf("NewMatFromBytes: %v", err)
	}
	defer solid.Close()

	// A featureless image yields no keypoints, which must come back as
	// zero matches rather than an error or a crash.
	if got := m.GoodMatchCount(solid, solid); got != 0 {
		t.Errorf("GoodMatchCount on solid images = %d, want 0", got)
	}
}

func TestMatchShiftedImages(t *testing.T) {
	const shift = 80

	base := noiseMat(t, 400, 200, 7)
	defer base.Close()

	// Second image is the first with the leftmost 80 columns removed, so
	// every surviving keypoint moves left by exactly 80.
	shifted := base.Region(image.Rect(shift, 0, 400, 200))
	defer shifted.Close()
	shiftedOwned := shifted.Clone()
	defer shiftedOwned.Close()

	m := NewMatcher(DefaultOptions())
	defer m.Close()

	points := m.MatchImages(base, shiftedOwned)
	if len(points) < 12 {
		t.Fatalf("got %d matches, want at least 12", len(points))
	}

	med := MedianShift(points)
	if math.Abs(med.X-shift) > 2 {
		t.Errorf("median X shift = %.2f, want %d±2", med.X, shift)
	}
	if math.Abs(med.Y) > 2 {
		t.Errorf("median Y shift = %.2f, want 0±2", med.Y)
	}
}

func TestMatchDegenerateDescriptors(t *testing.T) {
	m := NewMatcher(DefaultOptions())
	defer m.Close()

	empty := gocv.NewMat()
	defer empty.Close()

	if got := m.Match(empty, empty); got != nil {
		t.Errorf("Match on empty descriptors = %v, want nil", got)
	}
}

func TestDetectorKindString(t *testing.T) {
	if DetectorORB.String() != "ORB" || DetectorSIFT.String() != "SIFT" {
		t.Errorf("DetectorKind strings = %q, %q", DetectorORB.String(), DetectorSIFT.String())
	}
}
