package image

import "encoding/binary"

// Dimensions holds pixel dimensions read from an image header.
// Both fields are > 0 whenever extraction reports ok.
type Dimensions struct {
	Width  int
	Height int
}

// ExtractDimensions reads width/height from format-specific header fields
// without decoding any pixel data. Truncated or corrupt input yields
// ok=false, never a panic; malformed uploads are the expected case here.
func ExtractDimensions(data []byte, f Format) (Dimensions, bool) {
	switch f {
	case FormatPNG:
		return pngDimensions(data)
	case FormatJPEG:
		return jpegDimensions(data)
	case FormatWebP:
		return webpDimensions(data)
	}
	return Dimensions{}, false
}

// pngDimensions reads the IHDR width/height: big-endian u32 at offsets
// 16 and 20, right after the 8-byte signature and 8-byte chunk header.
func pngDimensions(data []byte) (Dimensions, bool) {
	if len(data) < 24 {
		return Dimensions{}, false
	}
	w := binary.BigEndian.Uint32(data[16:20])
	h := binary.BigEndian.Uint32(data[20:24])
	if w == 0 || h == 0 {
		return Dimensions{}, false
	}
	return Dimensions{Width: int(w), Height: int(h)}, true
}

// jpegDimensions scans segments for a Start-Of-Frame marker and reads the
// dimensions it carries. Baseline, extended-sequential and progressive
// frames (C0/C1/C2) all store height at marker+5 and width at marker+7.
func jpegDimensions(data []byte) (Dimensions, bool) {
	offset := 2 // past SOI
	for offset+1 < len(data) {
		if data[offset] != 0xFF {
			offset++
			continue
		}
		marker := data[offset+1]
		// FF fill bytes and stuffed zero bytes are not markers
		if marker == 0xFF || marker == 0x00 {
			offset++
			continue
		}

		if marker == 0xC0 || marker == 0xC1 || marker == 0xC2 {
			if offset+9 > len(data) {
				return Dimensions{}, false
			}
			h := binary.BigEndian.Uint16(data[offset+5 : offset+7])
			w := binary.BigEndian.Uint16(data[offset+7 : offset+9])
			if w == 0 || h == 0 {
				return Dimensions{}, false
			}
			return Dimensions{Width: int(w), Height: int(h)}, true
		}

		if offset+4 > len(data) {
			return Dimensions{}, false
		}
		segLen := int(binary.BigEndian.Uint16(data[offset+2 : offset+4]))
		// a declared length under 2 cannot advance the scan; treat the
		// stream as corrupt instead of crawling byte by byte
		if segLen < 2 {
			return Dimensions{}, false
		}
		offset += 2 + segLen
	}
	return Dimensions{}, false
}

// webpDimensions branches on the chunk tag at offset 12: lossy VP8,
// lossless VP8L, or extended VP8X, each with its own header layout.
func webpDimensions(data []byte) (Dimensions, bool) {
	if len(data) < 16 {
		return Dimensions{}, false
	}

	switch string(data[12:16]) {
	case "VP8 ":
		if len(data) < 30 {
			return Dimensions{}, false
		}
		w := int(binary.LittleEndian.Uint16(data[26:28]) & 0x3FFF)
		h := int(binary.LittleEndian.Uint16(data[28:30]) & 0x3FFF)
		if w == 0 || h == 0 {
			return Dimensions{}, false
		}
		return Dimensions{Width: w, Height: h}, true

	case "VP8L":
		if len(data) < 25 {
			return Dimensions{}, false
		}
		bits := binary.LittleEndian.Uint32(data[21:25])
		w := int(bits&0x3FFF) + 1
		h := int((bits>>14)&0x3FFF) + 1
		return Dimensions{Width: w, Height: h}, true

	case "VP8X":
		if len(data) < 30 {
			return Dimensions{}, false
		}
		w := int(uint32(data[24]) | uint32(data[25])<<8 | uint32(data[26])<<16)
		h := int(uint32(data[27]) | uint32(data[28])<<8 | uint32(data[29])<<16)
		return Dimensions{Width: w + 1, Height: h + 1}, true
	}

	return Dimensions{}, false
}
