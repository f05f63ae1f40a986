package image

import (
	"fmt"
	"path/filepath"
	"strings"
)

// UploadedFile is an untrusted upload as handed over by the API layer.
// Filename, ContentType and Size all come from the client; only Data is
// what actually arrived on the wire.
type UploadedFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// Rules holds the validation limits. The ceilings come from
// configuration; the validator itself carries no magic numbers.
type Rules struct {
	MaxFileSize       int64
	MaxDimension      int
	AllowedExtensions map[string]bool
	AllowedMIMETypes  map[string]bool
}

// DefaultRules returns the standard limits: 10 MiB files, 4000 px per
// axis, and the three supported formats.
func DefaultRules() Rules {
	return Rules{
		MaxFileSize:  10 * 1024 * 1024,
		MaxDimension: 4000,
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
		},
		AllowedMIMETypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
		},
	}
}

// Outcome is the result of validating one upload: either accepted with
// the detected format, or rejected with a reason. Rejections are routine
// for a public upload endpoint, so they are values, not errors.
type Outcome struct {
	Valid  bool
	Format Format
	Reason string
}

func accept(f Format) Outcome {
	return Outcome{Valid: true, Format: f}
}

func reject(reason string) Outcome {
	return Outcome{Reason: reason}
}

// Validate runs the ordered upload checks. The first failing check
// short-circuits and supplies the rejection reason. On success the
// outcome carries the format detected from magic bytes; the declared
// content type only ever gates, it never decides.
func Validate(f UploadedFile, rules Rules) Outcome {
	// 1. size, before any byte is inspected
	if f.Size <= 0 {
		return reject("File is empty")
	}
	if f.Size > rules.MaxFileSize {
		return reject(fmt.Sprintf("File size exceeds maximum allowed size of %d bytes", rules.MaxFileSize))
	}

	// 2. extension: only the final suffix counts
	ext := strings.ToLower(filepath.Ext(f.Filename))
	if !rules.AllowedExtensions[ext] {
		return reject(fmt.Sprintf("File extension %q is not allowed", ext))
	}

	// 3. declared content type
	declared := normalizeContentType(f.ContentType)
	if !rules.AllowedMIMETypes[declared] {
		return reject(fmt.Sprintf("Content type %q is not allowed", f.ContentType))
	}

	// 4. magic bytes
	format := DetectFormat(f.Data)
	if format == FormatUnknown {
		return reject("Invalid file format: contents do not match any supported image format")
	}

	// 5. declared type must agree with what the bytes say
	if declared != format.MIME() {
		return reject(fmt.Sprintf("Content type mismatch: declared %q but contents are %q", declared, format.MIME()))
	}

	// 6. dimensions; a failed extraction is its own rejection, distinct
	// from dimensions that are simply too large
	dims, ok := ExtractDimensions(f.Data, format)
	if !ok {
		return reject("Failed to extract image dimensions")
	}
	if dims.Width > rules.MaxDimension || dims.Height > rules.MaxDimension {
		return reject(fmt.Sprintf("Image dimensions %dx%d exceed maximum allowed dimension of %d pixels",
			dims.Width, dims.Height, rules.MaxDimension))
	}
	maxPixels := int64(rules.MaxDimension) * int64(rules.MaxDimension)
	if int64(dims.Width)*int64(dims.Height) > maxPixels {
		return reject(fmt.Sprintf("Image pixel count exceeds maximum of %d pixels", maxPixels))
	}

	return accept(format)
}

// normalizeContentType lowercases the media type and strips any
// parameter such as "; charset=utf-8".
func normalizeContentType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
