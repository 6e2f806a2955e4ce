package stitch

import (
	"fmt"
	"image"

	"imagestitcher/internal/feature"

	"gocv.io/x/gocv"
)

// PairwiseOptions configures the sequential merge ladder.
type PairwiseOptions struct {
	Matcher feature.Options
	// MinFeatureMatches is the minimum good-match count for the
	// feature-based offset to be trusted.
	MinFeatureMatches int
	// MSECeiling is the acceptance ceiling for the MSE offset scan.
	// Empirical value carried from observed behavior; configurable on
	// purpose.
	MSECeiling float64
	// MaxOverlapFrac bounds the MSE search range as a fraction of the
	// narrower image's width.
	MaxOverlapFrac float64
	// Vertical merges a top-to-bottom scroll sequence by rotating the
	// inputs a quarter turn, merging left-to-right, and rotating back.
	Vertical bool
	Debug    bool
}

// DefaultPairwiseOptions returns the observed working defaults.
func DefaultPairwiseOptions() PairwiseOptions {
	return PairwiseOptions{
		Matcher:           feature.DefaultOptions(),
		MinFeatureMatches: 5,
		MSECeiling:        10000,
		MaxOverlapFrac:    0.2,
	}
}

// Pairwise merges an ordered sequence two images at a time, accumulating a
// running composite. Used when the perspective-aware panorama pipeline is
// unsuitable, e.g. continuous scroll captures without perspective
// distortion. Offset estimation degrades from feature matching to an MSE
// scan to plain concatenation, so a bad pair never aborts the sequence.
type Pairwise struct {
	opts PairwiseOptions
}

// NewPairwise creates a pairwise stitcher.
func NewPairwise(opts PairwiseOptions) *Pairwise {
	if opts.MinFeatureMatches <= 0 {
		opts.MinFeatureMatches = DefaultPairwiseOptions().MinFeatureMatches
	}
	if opts.MSECeiling <= 0 {
		opts.MSECeiling = DefaultPairwiseOptions().MSECeiling
	}
	if opts.MaxOverlapFrac <= 0 {
		opts.MaxOverlapFrac = DefaultPairwiseOptions().MaxOverlapFrac
	}
	return &Pairwise{opts: opts}
}

// Stitch merges the images left to right. The composite's height is the max
// of the two inputs' heights at every step; width grows monotonically.
func (p *Pairwise) Stitch(images []gocv.Mat) (gocv.Mat, error) {
	if len(images) == 0 {
		return gocv.Mat{}, fmt.Errorf("pairwise stitch: %w", ErrNeedMoreImages)
	}

	work := images
	if p.opts.Vertical {
		work = make([]gocv.Mat, len(images))
		for i, img := range images {
			rot := gocv.NewMat()
			gocv.Rotate(img, &rot, gocv.Rotate90CounterClockwise)
			work[i] = rot
		}
		defer func() {
			for _, m := range work {
				m.Close()
			}
		}()
	}

	matcher := feature.NewMatcher(p.opts.Matcher)
	defer matcher.Close()

	composite := work[0].Clone()
	for i := 1; i < len(work); i++ {
		if work[i].Empty() {
			fmt.Printf("[Pairwise] step %d: empty input, skipped\n", i)
			continue
		}
		merged := p.mergePair(matcher, composite, work[i], i)
		composite.Close()
		composite = merged
	}

	if p.opts.Vertical {
		rot := gocv.NewMat()
		gocv.Rotate(composite, &rot, gocv.Rotate90Clockwise)
		composite.Close()
		composite = rot
	}

	return composite, nil
}

// mergePair merges one image onto the running composite. Never fails: every
// estimation or composition error degrades to side-by-side concatenation
// for this step only.
func (p *Pairwise) mergePair(matcher *feature.Matcher, r, next gocv.Mat, step int) gocv.Mat {
	// Height normalization: rescale the incoming image to the composite's
	// height. Area interpolation keeps downscales clean.
	scaled := next
	owned := false
	if next.Rows() != r.Rows() {
		newW := next.Cols() * r.Rows() / next.Rows()
		if newW < 1 {
			newW = 1
		}
		scaled = gocv.NewMat()
		gocv.Resize(next, &scaled, image.Point{X: newW, Y: r.Rows()}, 0, 0, gocv.InterpolationArea)
		owned = true
	}
	if owned {
		defer scaled.Close()
	}

	if pos, ok := p.featureOffset(matcher, r, scaled); ok {
		if out, err := composeWithOverlap(r, scaled, pos); err == nil {
			if p.opts.Debug {
				fmt.Printf("[Pairwise] step %d: feature offset pos=%d\n", step, pos)
			}
			return out
		} else if p.opts.Debug {
			fmt.Printf("[Pairwise] step %d: feature compose failed: %v\n", step, err)
		}
	}

	if overlap, ok := mseOffset(r, scaled, p.opts.MaxOverlapFrac, p.opts.MSECeiling); ok {
		pos := r.Cols() - overlap
		if out, err := composeWithOverlap(r, scaled, pos); err == nil {
			if p.opts.Debug {
				fmt.Printf("[Pairwise] step %d: MSE offset overlap=%d\n", step, overlap)
			}
			return out
		} else if p.opts.Debug {
			fmt.Printf("[Pairwise] step %d: MSE compose failed: %v\n", step, err)
		}
	}

	if p.opts.Debug {
		fmt.Printf("[Pairwise] step %d: no reliable offset, concatenating\n", step)
	}
	return concat(r, scaled)
}

// featureOffset estimates where next's left edge lands on the composite
// from the median coordinate difference of matched keypoint pairs.
func (p *Pairwise) featureOffset(matcher *feature.Matcher, r, next gocv.Mat) (int, bool) {
	points := matcher.MatchImages(r, next)
	if len(points) < p.opts.MinFeatureMatches {
		return 0, false
	}

	shift := feature.MedianShift(points)
	pos := int(shift.X + 0.5)
	if pos < 1 || pos >= r.Cols() {
		return 0, false
	}
	if overlap := r.Cols() - pos; overlap > next.Cols() {
		return 0, false
	}
	return pos, true
}
