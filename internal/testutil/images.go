// Package testutil builds small real images for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
)

// gradient fills a w x h image with non-uniform pixels so resampling
// and re-encoding have real content to work on.
func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(w, 1)),
				G: uint8(y * 255 / max(h, 1)),
				B: uint8((x + y) % 256),
				A: 255,
			})
		}
	}
	return img
}

// SamplePNG returns a PNG-encoded w x h gradient.
func SamplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient(w, h)); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// SampleJPEG returns a JPEG-encoded w x h gradient.
func SampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(w, h), nil); err != nil {
		t.Fatalf("jpeg.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// SampleWebP returns a WebP-encoded w x h gradient.
func SampleWebP(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := webp.Encode(&buf, gradient(w, h), &webp.Options{Quality: 80}); err != nil {
		t.Fatalf("webp.Encode() error = %v", err)
	}
	return buf.Bytes()
}

// FakePNGHeader returns a valid PNG signature plus an IHDR declaring
// the given dimensions, with no pixel data behind it. Useful for
// exercising header checks without building a real oversized image.
func FakePNGHeader(w, h uint32) []byte {
	data := make([]byte, 64)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	binary.BigEndian.PutUint32(data[8:], 13)
	copy(data[12:], "IHDR")
	binary.BigEndian.PutUint32(data[16:], w)
	binary.BigEndian.PutUint32(data[20:], h)
	return data
}
