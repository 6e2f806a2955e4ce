package imageio

import (
	"gocv.io/x/gocv"
)

// ApplyAlphaMask converts near-black pixels (all BGR components <= 1) to
// fully transparent and returns a new BGRA mat. Used to turn the unstitched
// canvas margin left by the panorama compositor into a clean alpha-masked
// result.
//
// Known limitation: genuinely near-black content pixels are also masked.
// Callers must treat this as an opt-in post-filter, never a default.
func ApplyAlphaMask(mat gocv.Mat) gocv.Mat {
	dst := gocv.NewMat()
	gocv.CvtColor(mat, &dst, gocv.ColorBGRToBGRA)

	rows := dst.Rows()
	cols := dst.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			b := dst.GetUCharAt(y, x*4+0)
			g := dst.GetUCharAt(y, x*4+1)
			r := dst.GetUCharAt(y, x*4+2)
			if b <= 1 && g <= 1 && r <= 1 {
				dst.SetUCharAt(y, x*4+3, 0)
			}
		}
	}

	return dst
}
