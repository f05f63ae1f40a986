// Package thumbnail derives a bounded WebP rendition from validated
// upload bytes: decode, pixel-bound, resample, re-encode. Native pixel
// frames are released on every exit path.
package thumbnail

import (
	"bytes"
	"fmt"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels is the decode ceiling: anything past 16 megapixels
// is treated as a decompression bomb.
const DefaultMaxPixels = 16_000_000

// encodeQuality is the encoder's fixed setting. Options.Quality does
// not feed into it; see Options.
const encodeQuality = 90

// Options configures one Generate call.
type Options struct {
	// TargetSize caps the longer edge of the output.
	TargetSize int
	// Quality is reserved. The encoder currently runs a fixed internal
	// setting; the value is accepted and ignored, so passing it today
	// does not change the output.
	Quality int
}

// Result is the finished thumbnail. The caller owns Data.
type Result struct {
	Data   []byte
	Width  int
	Height int
	Format string
}

type Generator struct {
	maxPixels int64
}

// NewGenerator returns a Generator with the given pixel ceiling;
// non-positive means DefaultMaxPixels.
func NewGenerator(maxPixels int64) *Generator {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Generator{maxPixels: maxPixels}
}

// Generate runs the staged pipeline on one image. Failures come back as
// *GenerateError with the stage's code; an unexpected panic anywhere is
// recovered and wrapped as CodeMemoryError rather than escaping. Both
// pixel frames are released before return on every path, including the
// decode-succeeded-but-resize-failed branch.
func (g *Generator) Generate(data []byte, opts Options) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = newError(CodeMemoryError, fmt.Errorf("%v", r), map[string]any{
				"inputSize": len(data),
			})
		}
	}()

	// header-only pass: pixel-bound before committing to a full decode
	cfg, _, derr := image.DecodeConfig(bytes.NewReader(data))
	if derr != nil {
		return nil, newError(CodeInvalidImage, derr, map[string]any{"inputSize": len(data)})
	}
	pixels := int64(cfg.Width) * int64(cfg.Height)
	if pixels > g.maxPixels {
		return nil, newError(CodePixelCountExceeded, nil, map[string]any{
			"width":      cfg.Width,
			"height":     cfg.Height,
			"pixelCount": pixels,
		})
	}

	src, _, derr := image.Decode(bytes.NewReader(data))
	if derr != nil {
		return nil, newError(CodeInvalidImage, derr, map[string]any{"inputSize": len(data)})
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	srcFrame, ferr := acquireFrame(w, h)
	if ferr != nil {
		return nil, newError(CodeMemoryError, ferr, map[string]any{"width": w, "height": h})
	}
	defer srcFrame.Release()
	draw.Draw(srcFrame.Image(), srcFrame.Image().Bounds(), src, b.Min, draw.Src)

	tw, th := FitDimensions(w, h, opts.TargetSize)

	out := srcFrame
	if tw != w || th != h {
		dstFrame, ferr := acquireFrame(tw, th)
		if ferr != nil {
			return nil, newError(CodeResizeFailed, ferr, map[string]any{
				"targetWidth":  tw,
				"targetHeight": th,
			})
		}
		defer dstFrame.Release()
		lanczos3.Scale(dstFrame.Image(), dstFrame.Image().Bounds(), srcFrame.Image(), srcFrame.Image().Bounds(), draw.Src, nil)
		out = dstFrame
	}

	var buf bytes.Buffer
	if eerr := webp.Encode(&buf, out.Image(), &webp.Options{Quality: encodeQuality}); eerr != nil {
		return nil, newError(CodeEncodeFailed, eerr, map[string]any{"width": tw, "height": th})
	}

	return &Result{Data: buf.Bytes(), Width: tw, Height: th, Format: "webp"}, nil
}

// FitDimensions fits (w, h) inside target on the longer edge, keeping
// aspect ratio. It never upscales and never returns a zero dimension:
// extreme aspect ratios clamp to 1.
func FitDimensions(w, h, target int) (int, int) {
	if target <= 0 || (w <= target && h <= target) {
		return w, h
	}
	scale := math.Min(float64(target)/float64(w), float64(target)/float64(h))
	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
