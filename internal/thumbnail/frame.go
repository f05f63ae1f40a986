package thumbnail

import (
	"fmt"
	"image"
	"sync"
)

// maxFrameBytes bounds a single pixel buffer. It sits well above the
// pixel-count ceiling, so it only trips when that check was bypassed.
const maxFrameBytes = 256 << 20

// framePool recycles pixel buffers between calls. Frames themselves are
// call-scoped; only the raw backing memory is reused.
var framePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 512*1024)
		return &b
	},
}

// Frame wraps one decoded or resampled pixel buffer. Each frame must be
// released exactly once, on every exit path; Release is idempotent so a
// deferred call can never return the buffer to the pool twice.
type Frame struct {
	img      *image.NRGBA
	buf      *[]byte
	released bool
}

func acquireFrame(w, h int) (*Frame, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}
	need := int64(w) * int64(h) * 4
	if need > maxFrameBytes {
		return nil, fmt.Errorf("frame %dx%d exceeds buffer limit", w, h)
	}

	bp := framePool.Get().(*[]byte)
	if int64(cap(*bp)) < need {
		*bp = make([]byte, need)
	}
	*bp = (*bp)[:need]

	return &Frame{
		img: &image.NRGBA{
			Pix:    *bp,
			Stride: 4 * w,
			Rect:   image.Rect(0, 0, w, h),
		},
		buf: bp,
	}, nil
}

// Image exposes the frame's pixels. Invalid after Release.
func (f *Frame) Image() *image.NRGBA {
	return f.img
}

// Release returns the backing buffer to the pool. Safe to call more
// than once and on nil; only the first call does anything. It cannot
// fail, so it never masks an error already being propagated.
func (f *Frame) Release() {
	if f == nil || f.released {
		return
	}
	f.released = true
	f.img = nil
	framePool.Put(f.buf)
	f.buf = nil
}
