package imageio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gocv.io/x/gocv"
)

// Format selects the output image codec.
type Format int

const (
	FormatPNG Format = iota
	FormatJPEG
	FormatWebP
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpg"
	case FormatWebP:
		return "webp"
	default:
		return "png"
	}
}

// ParseFormat maps a format name or file extension to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return FormatPNG, fmt.Errorf("unknown output format %q", name)
	}
}

// EncodeOptions controls output encoding.
type EncodeOptions struct {
	Format         Format
	PNGCompression int // 0-9
	JPEGQuality    int // 1-100
	WebPLossless   bool
}

// DefaultEncodeOptions returns lossless PNG output settings.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{
		Format:         FormatPNG,
		PNGCompression: 3,
		JPEGQuality:    95,
		WebPLossless:   true,
	}
}

// Save encodes a mat to the given path using the encode options. JPEG
// cannot carry alpha, so a 4-channel mat is flattened to BGR first.
func Save(mat gocv.Mat, path string, opts EncodeOptions) error {
	if mat.Empty() {
		return fmt.Errorf("write %s: empty image", path)
	}

	img := mat
	owned := false
	if opts.Format == FormatJPEG && mat.Channels() == 4 {
		flat := gocv.NewMat()
		gocv.CvtColor(mat, &flat, gocv.ColorBGRAToBGR)
		img = flat
		owned = true
	}
	if owned {
		defer img.Close()
	}

	var params []int
	switch opts.Format {
	case FormatPNG:
		params = []int{gocv.IMWritePngCompression, opts.PNGCompression}
	case FormatJPEG:
		params = []int{gocv.IMWriteJpegQuality, opts.JPEGQuality}
	case FormatWebP:
		// Quality > 100 selects lossless WebP encoding
		quality := 90
		if opts.WebPLossless {
			quality = 101
		}
		params = []int{gocv.IMWriteWebpQuality, quality}
	}

	if ok := gocv.IMWriteWithParams(path, img, params); !ok {
		return fmt.Errorf("write %s: encoder failed", path)
	}
	return nil
}

// OutputName builds a timestamped output filename. The sequence index is
// appended when a job produces more than one composite.
func OutputName(dir string, t time.Time, seq, total int, format Format) string {
	stamp := t.Format("20060102-150405")
	name := fmt.Sprintf("stitched-%s.%s", stamp, format)
	if total > 1 {
		name = fmt.Sprintf("stitched-%s-%02d.%s", stamp, seq+1, format)
	}
	return filepath.Join(dir, name)
}
