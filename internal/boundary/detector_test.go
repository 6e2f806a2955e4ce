package boundary

import (
	"testing"

	"imagestitcher/pkg/geometry"

	"gocv.io/x/gocv"
)

// scrollFrame builds a w x h BGR mat with uniform top/bottom bands and a
// uniform middle region whose value differs per frame, mimicking static
// chrome around scrolling content.
func scrollFrame(t *testing.T, w, h, top, bottom int, topVal, bottomVal, midVal byte) gocv.Mat {
	t.Helper()
	data := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		val := midVal
		if y < top {
			val = topVal
		} else if y >= h-bottom {
			val = bottomVal
		}
		for x := 0; x < w; x++ {
			off := (y*w + x) * 3
			data[off+0] = val
			data[off+1] = val
			data[off+2] = val
		}
	}
	mat, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	return mat
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}

func TestDetectScrollStack(t *testing.T) {
	// Five captures sharing identical top 100px and bottom 80px, with the
	// middle region changing between captures.
	midVals := []byte{10, 240, 60, 180, 120}
	var stack []gocv.Mat
	for _, v := range midVals {
		stack = append(stack, scrollFrame(t, 400, 500, 100, 80, 60, 200, v))
	}
	defer closeAll(stack)

	bounds, err := Detect(stack, DefaultOptions())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if bounds.Top < 95 || bounds.Top > 105 {
		t.Errorf("Top = %d, want 100±5", bounds.Top)
	}
	if bounds.Bottom < 75 || bounds.Bottom > 85 {
		t.Errorf("Bottom = %d, want 80±5", bounds.Bottom)
	}
	if bounds.Left != 0 || bounds.Right != 0 {
		t.Errorf("single-axis detection set Left=%d Right=%d, want 0", bounds.Left, bounds.Right)
	}
}

func TestDetectIdempotentAfterCrop(t *testing.T) {
	midVals := []byte{10, 240, 60, 180, 120}
	var stack []gocv.Mat
	for _, v := range midVals {
		stack = append(stack, scrollFrame(t, 400, 500, 100, 80, 60, 200, v))
	}
	defer closeAll(stack)

	bounds, err := Detect(stack, DefaultOptions())
	if err != nil {
		t.Fatalf("first Detect: %v", err)
	}

	cropped := CropBatch(stack, bounds)
	defer closeAll(cropped)

	again, err := Detect(cropped, DefaultOptions())
	if err != nil {
		t.Fatalf("second Detect: %v", err)
	}
	if !again.IsZero() {
		t.Errorf("second pass crops = %+v, want zero (no further content lost)", again)
	}
}

func TestDetectIdenticalStack(t *testing.T) {
	// Identical captures: nothing scrolls, so nothing is cropped.
	var stack []gocv.Mat
	for i := 0; i < 4; i++ {
		stack = append(stack, scrollFrame(t, 200, 300, 50, 40, 60, 200, 130))
	}
	defer closeAll(stack)

	bounds, err := Detect(stack, DefaultOptions())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !bounds.IsZero() {
		t.Errorf("identical stack crops = %+v, want zero", bounds)
	}
}

func TestDetectSingleImage(t *testing.T) {
	img := scrollFrame(t, 100, 100, 10, 10, 0, 0, 128)
	defer img.Close()

	bounds, err := Detect([]gocv.Mat{img}, DefaultOptions())
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if !bounds.IsZero() {
		t.Errorf("single image crops = %+v, want zero", bounds)
	}
}

func TestCropDimensions(t *testing.T) {
	img := scrollFrame(t, 400, 500, 0, 0, 0, 0, 90)
	defer img.Close()

	bounds := geometry.CropBounds{Top: 100, Bottom: 80, Left: 20, Right: 30}
	out := Crop(img, bounds)
	defer out.Close()

	if out.Rows() != 320 || out.Cols() != 350 {
		t.Errorf("cropped to %dx%d, want 350x320", out.Cols(), out.Rows())
	}
}

func TestCropHeightMismatch(t *testing.T) {
	// A capture 30px taller than the batch reference keeps its own bottom
	// offset; the crop must stay valid.
	tall := scrollFrame(t, 400, 530, 0, 0, 0, 0, 90)
	defer tall.Close()

	out := Crop(tall, geometry.CropBounds{Top: 100, Bottom: 80})
	defer out.Close()

	if out.Rows() != 350 {
		t.Errorf("cropped rows = %d, want 350", out.Rows())
	}
}

func TestCropDegenerate(t *testing.T) {
	img := scrollFrame(t, 100, 100, 0, 0, 0, 0, 90)
	defer img.Close()

	// Crops that would consume the whole image leave it untouched.
	out := Crop(img, geometry.CropBounds{Top: 60, Bottom: 60})
	defer out.Close()

	if out.Rows() != 100 || out.Cols() != 100 {
		t.Errorf("degenerate crop produced %dx%d, want 100x100", out.Cols(), out.Rows())
	}
}
