package image

import (
	"encoding/binary"
	"testing"
)

// pngHeader builds a minimal PNG header carrying the given dimensions:
// signature, IHDR chunk length/type, then width and height.
func pngHeader(w, h uint32) []byte {
	data := make([]byte, 24)
	copy(data, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A})
	binary.BigEndian.PutUint32(data[8:12], 13)
	copy(data[12:16], "IHDR")
	binary.BigEndian.PutUint32(data[16:20], w)
	binary.BigEndian.PutUint32(data[20:24], h)
	return data
}

// jpegHeader builds SOI + APP0 + SOF0 with the given dimensions.
func jpegHeader(w, h uint16) []byte {
	data := []byte{0xFF, 0xD8}
	app0 := []byte{
		0xFF, 0xE0, 0x00, 0x10, // APP0, segment length 16
		0x4A, 0x46, 0x49, 0x46, 0x00, // JFIF
		0x01, 0x01, 0x00,
		0x00, 0x01, 0x00, 0x01,
		0x00, 0x00,
	}
	data = append(data, app0...)
	sof := []byte{
		0xFF, 0xC0, 0x00, 0x11, // SOF0, segment length 17
		0x08,       // precision
		0x00, 0x00, // height
		0x00, 0x00, // width
		0x03,
	}
	binary.BigEndian.PutUint16(sof[5:7], h)
	binary.BigEndian.PutUint16(sof[7:9], w)
	return append(data, sof...)
}

// webpVP8Header builds a lossy WebP header: the 14-bit dimension fields
// sit at offsets 26 and 28, after the frame tag and start code.
func webpVP8Header(w, h uint16) []byte {
	data := make([]byte, 30)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WEBP")
	copy(data[12:16], "VP8 ")
	binary.LittleEndian.PutUint32(data[16:20], 22)
	copy(data[23:26], []byte{0x9D, 0x01, 0x2A}) // start code
	binary.LittleEndian.PutUint16(data[26:28], w)
	binary.LittleEndian.PutUint16(data[28:30], h)
	return data
}

// webpVP8LHeader builds a lossless WebP header: both dimensions packed
// minus-one into the 32-bit field at offset 21.
func webpVP8LHeader(w, h uint32) []byte {
	data := make([]byte, 25)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WEBP")
	copy(data[12:16], "VP8L")
	binary.LittleEndian.PutUint32(data[16:20], 9)
	data[20] = 0x2F // lossless signature
	bits := (w - 1) | (h-1)<<14
	binary.LittleEndian.PutUint32(data[21:25], bits)
	return data
}

// webpVP8XHeader builds an extended WebP header: 24-bit minus-one
// dimension fields at offsets 24 and 27.
func webpVP8XHeader(w, h uint32) []byte {
	data := make([]byte, 30)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WEBP")
	copy(data[12:16], "VP8X")
	binary.LittleEndian.PutUint32(data[16:20], 10)
	wm, hm := w-1, h-1
	data[24] = byte(wm)
	data[25] = byte(wm >> 8)
	data[26] = byte(wm >> 16)
	data[27] = byte(hm)
	data[28] = byte(hm >> 8)
	data[29] = byte(hm >> 16)
	return data
}

func TestExtractDimensions_PNG(t *testing.T) {
	tests := []struct {
		w, h uint32
	}{
		{1, 1},
		{100, 100},
		{1920, 1080},
		{4000, 4000},
		{5000, 5000},
	}

	for _, tt := range tests {
		dims, ok := ExtractDimensions(pngHeader(tt.w, tt.h), FormatPNG)
		if !ok {
			t.Fatalf("ExtractDimensions(%dx%d PNG) not ok", tt.w, tt.h)
		}
		if dims.Width != int(tt.w) || dims.Height != int(tt.h) {
			t.Errorf("dims = %dx%d, want %dx%d", dims.Width, dims.Height, tt.w, tt.h)
		}
	}
}

func TestExtractDimensions_JPEG(t *testing.T) {
	tests := []struct {
		w, h uint16
	}{
		{1, 1},
		{100, 100},
		{1920, 1080},
		{4000, 4000},
	}

	for _, tt := range tests {
		dims, ok := ExtractDimensions(jpegHeader(tt.w, tt.h), FormatJPEG)
		if !ok {
			t.Fatalf("ExtractDimensions(%dx%d JPEG) not ok", tt.w, tt.h)
		}
		if dims.Width != int(tt.w) || dims.Height != int(tt.h) {
			t.Errorf("dims = %dx%d, want %dx%d", dims.Width, dims.Height, tt.w, tt.h)
		}
	}
}

func TestExtractDimensions_WebP(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		w, h int
	}{
		{"VP8 lossy", webpVP8Header(640, 480), 640, 480},
		{"VP8L lossless", webpVP8LHeader(800, 600), 800, 600},
		{"VP8X extended", webpVP8XHeader(1920, 1080), 1920, 1080},
		{"VP8L 1x1", webpVP8LHeader(1, 1), 1, 1},
		{"VP8X 16383x16383", webpVP8XHeader(16383, 16383), 16383, 16383},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dims, ok := ExtractDimensions(tt.data, FormatWebP)
			if !ok {
				t.Fatal("ExtractDimensions() not ok")
			}
			if dims.Width != tt.w || dims.Height != tt.h {
				t.Errorf("dims = %dx%d, want %dx%d", dims.Width, dims.Height, tt.w, tt.h)
			}
		})
	}
}

func TestExtractDimensions_Truncated(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		format Format
	}{
		{"PNG cut before height", pngHeader(100, 100)[:20], FormatPNG},
		{"PNG signature only", pngHeader(100, 100)[:8], FormatPNG},
		{"JPEG cut inside SOF", jpegHeader(100, 100)[:24], FormatJPEG},
		{"JPEG SOI only", []byte{0xFF, 0xD8}, FormatJPEG},
		{"VP8 cut before dimensions", webpVP8Header(640, 480)[:26], FormatWebP},
		{"VP8L cut inside bits", webpVP8LHeader(800, 600)[:23], FormatWebP},
		{"VP8X cut before height", webpVP8XHeader(10, 10)[:27], FormatWebP},
		{"WebP without chunk tag", []byte("RIFF\x00\x00\x00\x00WEBP"), FormatWebP},
		{"empty", nil, FormatPNG},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ExtractDimensions(tt.data, tt.format); ok {
				t.Error("ExtractDimensions() ok on truncated input, want failure")
			}
		})
	}
}

func TestExtractDimensions_JPEGWithoutSOF(t *testing.T) {
	// SOI + APP0 only, then padding: scan reaches end of buffer
	data := jpegHeader(100, 100)[:20]
	data = append(data, make([]byte, 64)...)

	if _, ok := ExtractDimensions(data, FormatJPEG); ok {
		t.Error("ExtractDimensions() ok without SOF marker, want failure")
	}
}

func TestExtractDimensions_JPEGZeroLengthSegment(t *testing.T) {
	// a segment declaring length 0 cannot advance the scan; the parser
	// must bail out instead of spinning
	data := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x00}
	data = append(data, make([]byte, 64)...)

	if _, ok := ExtractDimensions(data, FormatJPEG); ok {
		t.Error("ExtractDimensions() ok on zero-length segment, want failure")
	}
}

func TestExtractDimensions_WebPUnknownChunk(t *testing.T) {
	data := make([]byte, 30)
	copy(data[0:4], "RIFF")
	copy(data[8:12], "WEBP")
	copy(data[12:16], "ALPH")

	if _, ok := ExtractDimensions(data, FormatWebP); ok {
		t.Error("ExtractDimensions() ok on unknown chunk tag, want failure")
	}
}

func TestExtractDimensions_PNGZeroDimension(t *testing.T) {
	if _, ok := ExtractDimensions(pngHeader(0, 100), FormatPNG); ok {
		t.Error("ExtractDimensions() ok on zero width, want failure")
	}
	if _, ok := ExtractDimensions(pngHeader(100, 0), FormatPNG); ok {
		t.Error("ExtractDimensions() ok on zero height, want failure")
	}
}

func TestExtractDimensions_UnknownFormat(t *testing.T) {
	if _, ok := ExtractDimensions(pngHeader(100, 100), FormatUnknown); ok {
		t.Error("ExtractDimensions() ok for FormatUnknown, want failure")
	}
}
