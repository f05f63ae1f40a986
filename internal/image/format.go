package image

import "bytes"

// Format identifies one of the supported image container formats.
// The zero value means the bytes matched no known signature.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatJPEG
	FormatPNG
	FormatWebP
)

// sniffLen is how many leading bytes detection needs. Shorter buffers
// are never a valid image here.
const sniffLen = 12

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// jpegMarkers are the accepted 4th signature bytes after FF D8 FF:
// JFIF, EXIF, ICC, Adobe and raw-quantization variants.
var jpegMarkers = []byte{0xE0, 0xE1, 0xE2, 0xE3, 0xE8, 0xDB, 0xEE}

func (f Format) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatPNG:
		return "png"
	case FormatWebP:
		return "webp"
	}
	return "unknown"
}

// MIME returns the canonical media type, or "" for FormatUnknown.
func (f Format) MIME() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	}
	return ""
}

// Ext returns the canonical file extension, or "" for FormatUnknown.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	}
	return ""
}

// FormatFromMIME maps a stored media type back to its Format.
func FormatFromMIME(mime string) Format {
	switch mime {
	case "image/jpeg":
		return FormatJPEG
	case "image/png":
		return FormatPNG
	case "image/webp":
		return FormatWebP
	}
	return FormatUnknown
}

// DetectFormat identifies the format from magic bytes alone. It inspects
// at most the first 12 bytes; anything shorter is FormatUnknown.
func DetectFormat(data []byte) Format {
	if len(data) < sniffLen {
		return FormatUnknown
	}

	// JPEG: FF D8 FF + a known marker byte
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		for _, m := range jpegMarkers {
			if data[3] == m {
				return FormatJPEG
			}
		}
	}

	// PNG
	if bytes.HasPrefix(data, pngSignature) {
		return FormatPNG
	}

	// WebP: RIFF....WEBP (the chunk size in between is ignored)
	if bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return FormatWebP
	}

	return FormatUnknown
}
