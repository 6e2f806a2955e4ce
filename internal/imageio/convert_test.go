package imageio

import (
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

func TestImageToMatRoundTrip(t *testing.T) {
	src := gradientImage(64, 48)

	mat, err := ImageToMat(src)
	if err != nil {
		t.Fatalf("ImageToMat: %v", err)
	}
	defer mat.Close()

	if mat.Rows() != 48 || mat.Cols() != 64 {
		t.Fatalf("mat is %dx%d, want 64x48", mat.Cols(), mat.Rows())
	}
	if mat.Channels() != 3 {
		t.Fatalf("mat has %d channels, want 3", mat.Channels())
	}

	back, err := MatToImage(mat)
	if err != nil {
		t.Fatalf("MatToImage: %v", err)
	}

	for _, p := range []image.Point{{0, 0}, {63, 0}, {0, 47}, {32, 24}, {63, 47}} {
		wr, wg, wb, _ := src.At(p.X, p.Y).RGBA()
		gr, gg, gb, _ := back.At(p.X, p.Y).RGBA()
		if wr != gr || wg != gg || wb != gb {
			t.Errorf("pixel %v: got (%d,%d,%d), want (%d,%d,%d)",
				p, gr>>8, gg>>8, gb>>8, wr>>8, wg>>8, wb>>8)
		}
	}
}

func TestImageToMatNil(t *testing.T) {
	if _, err := ImageToMat(nil); err == nil {
		t.Error("expected error for nil image")
	}
	if _, err := ImageToMat(image.NewRGBA(image.Rect(0, 0, 0, 0))); err == nil {
		t.Error("expected error for empty image")
	}
}

func TestMatToImageBGRA(t *testing.T) {
	mat := gocv.NewMatWithSize(10, 10, gocv.MatTypeCV8UC4)
	defer mat.Close()
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			mat.SetUCharAt(y, x*4+0, 20)  // B
			mat.SetUCharAt(y, x*4+1, 40)  // G
			mat.SetUCharAt(y, x*4+2, 60)  // R
			mat.SetUCharAt(y, x*4+3, 128) // A
		}
	}

	img, err := MatToImage(mat)
	if err != nil {
		t.Fatalf("MatToImage: %v", err)
	}
	rgba, ok := img.(*image.RGBA)
	if !ok {
		t.Fatalf("got %T, want *image.RGBA", img)
	}
	if got := rgba.Pix[0:4]; got[0] != 60 || got[1] != 40 || got[2] != 20 || got[3] != 128 {
		t.Errorf("first pixel RGBA = %v, want [60 40 20 128]", got)
	}
}

func TestMatToImageUnsupported(t *testing.T) {
	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := MatToImage(empty); err == nil {
		t.Error("expected error for empty mat")
	}

	gray := gocv.NewMatWithSize(5, 5, gocv.MatTypeCV8UC1)
	defer gray.Close()
	if _, err := MatToImage(gray); err == nil {
		t.Error("expected error for single-channel mat")
	}
}
