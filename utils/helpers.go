package utils

import (
	"bytes"
	"net/http"
)

// DetectFormat sniffs the leading bytes of data and returns a loader name
// ("jpeg", "png", "webp", "gif", "tiff", "bmp", "svg", "pdf", "heif") or
// "unknown". The names line up with the loader classification table.
func DetectFormat(data []byte) string {
	if len(data) < 4 {
		return "unknown"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "jpeg"
	}
	// PNG: 89 50 4E 47
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "png"
	}
	// WebP: RIFF....WEBP
	if len(data) >= 12 &&
		data[0] == 'R' && data[1] == 'I' && data[2] == 'F' && data[3] == 'F' &&
		data[8] == 'W' && data[9] == 'E' && data[10] == 'B' && data[11] == 'P' {
		return "webp"
	}
	// GIF: GIF87a / GIF89a
	if bytes.HasPrefix(data, []byte("GIF8")) {
		return "gif"
	}
	// TIFF: II*\0 or MM\0*
	if (data[0] == 'I' && data[1] == 'I' && data[2] == 0x2A && data[3] == 0) ||
		(data[0] == 'M' && data[1] == 'M' && data[2] == 0 && data[3] == 0x2A) {
		return "tiff"
	}
	// BMP: BM
	if data[0] == 'B' && data[1] == 'M' {
		return "bmp"
	}
	// PDF: %PDF
	if bytes.HasPrefix(data, []byte("%PDF")) {
		return "pdf"
	}
	// HEIF/AVIF: ....ftyp{heic,heix,hevc,mif1,avif}
	if len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) {
		switch string(data[8:12]) {
		case "heic", "heix", "hevc", "mif1", "avif":
			return "heif"
		}
	}
	// SVG is text; look for the root element in the first chunk.
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<svg")) || bytes.Contains(head, []byte("<?xml")) && bytes.Contains(data, []byte("<svg")) {
		return "svg"
	}
	// Fallback to net/http sniffing.
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return "jpeg"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	case "image/bmp":
		return "bmp"
	case "image/svg+xml":
		return "svg"
	}
	return "unknown"
}

// CloneBytes returns a copy of b (safe for use after the source buffer is released).
func CloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// BytesReader creates an io.Reader backed by b without allocation.
func BytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}
