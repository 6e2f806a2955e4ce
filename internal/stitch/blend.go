package stitch

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"
)

// composeWithOverlap places next onto the running composite r so that
// next's left edge lands at column pos, alpha-blending the overlap band
// [pos, r.Cols()). Alpha ramps linearly from 0 (all r) at the near edge to
// 1 (all next) at the far edge, so the seam is continuous at both ends.
// Non-overlapping regions are copied verbatim.
func composeWithOverlap(r, next gocv.Mat, pos int) (gocv.Mat, error) {
	rCols := r.Cols()
	nCols := next.Cols()
	overlap := rCols - pos

	if pos < 1 || overlap < 0 || overlap > nCols {
		return gocv.Mat{}, fmt.Errorf("invalid overlap: pos=%d rCols=%d nextCols=%d", pos, rCols, nCols)
	}
	if r.Channels() != 3 || next.Channels() != 3 {
		return gocv.Mat{}, fmt.Errorf("compose requires BGR inputs")
	}

	height := r.Rows()
	if next.Rows() > height {
		height = next.Rows()
	}
	width := pos + nCols

	rBytes := r.ToBytes()
	nBytes := next.ToBytes()
	rRows := r.Rows()
	nRows := next.Rows()

	out := make([]byte, height*width*3)
	for y := 0; y < height; y++ {
		outRow := y * width * 3
		rRow := y * rCols * 3
		nRow := y * nCols * 3

		for x := 0; x < width; x++ {
			var b, g, rr byte

			nx := x - pos
			hasR := y < rRows && x < rCols
			hasN := y < nRows && nx >= 0 && nx < nCols

			switch {
			case hasR && hasN:
				alpha := 1.0
				if overlap > 1 {
					alpha = float64(x-pos) / float64(overlap-1)
				}
				ro := rRow + x*3
				no := nRow + nx*3
				b = blendByte(rBytes[ro+0], nBytes[no+0], alpha)
				g = blendByte(rBytes[ro+1], nBytes[no+1], alpha)
				rr = blendByte(rBytes[ro+2], nBytes[no+2], alpha)
			case hasR:
				ro := rRow + x*3
				b, g, rr = rBytes[ro+0], rBytes[ro+1], rBytes[ro+2]
			case hasN:
				no := nRow + nx*3
				b, g, rr = nBytes[no+0], nBytes[no+1], nBytes[no+2]
			}

			oo := outRow + x*3
			out[oo+0] = b
			out[oo+1] = g
			out[oo+2] = rr
		}
	}

	return gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC3, out)
}

func blendByte(a, b byte, alpha float64) byte {
	v := float64(a)*(1-alpha) + float64(b)*alpha
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return byte(v + 0.5)
}

// concat places two images side by side with no blending, padding the
// shorter one with black. A deliberately visible degraded result rather
// than a silent failure.
func concat(r, next gocv.Mat) gocv.Mat {
	if r.Rows() == next.Rows() {
		dst := gocv.NewMat()
		gocv.Hconcat(r, next, &dst)
		return dst
	}

	height := r.Rows()
	if next.Rows() > height {
		height = next.Rows()
	}
	dst := gocv.NewMatWithSize(height, r.Cols()+next.Cols(), gocv.MatTypeCV8UC3)
	copyInto(&dst, r, 0)
	copyInto(&dst, next, r.Cols())
	return dst
}

func copyInto(dst *gocv.Mat, src gocv.Mat, xOff int) {
	roi := dst.Region(image.Rect(xOff, 0, xOff+src.Cols(), src.Rows()))
	src.CopyTo(&roi)
	roi.Close()
}

// mseOffset slides candidate overlap widths and returns the one minimizing
// the mean squared pixel difference between r's right edge and next's left
// edge. The search range is bounded to maxFrac of the narrower image; the
// best candidate is accepted only below the error ceiling.
func mseOffset(r, next gocv.Mat, maxFrac, ceiling float64) (int, bool) {
	rCols := r.Cols()
	nCols := next.Cols()
	rows := r.Rows()
	if rows != next.Rows() || rows == 0 {
		return 0, false
	}

	narrow := rCols
	if nCols < narrow {
		narrow = nCols
	}
	maxOverlap := int(float64(narrow) * maxFrac)
	if maxOverlap < 1 {
		return 0, false
	}

	rBytes := r.ToBytes()
	nBytes := next.ToBytes()

	bestOverlap := 0
	bestMSE := math.Inf(1)
	for w := 1; w <= maxOverlap; w++ {
		var sum float64
		for y := 0; y < rows; y++ {
			rOff := (y*rCols + (rCols - w)) * 3
			nOff := y * nCols * 3
			for i := 0; i < w*3; i++ {
				d := float64(rBytes[rOff+i]) - float64(nBytes[nOff+i])
				sum += d * d
			}
		}
		mse := sum / float64(rows*w*3)
		if mse < bestMSE {
			bestMSE = mse
			bestOverlap = w
		}
	}

	if bestMSE > ceiling {
		return 0, false
	}
	return bestOverlap, true
}
