package core

import "sync"

// FormatCaps records what a recognized format supports on the save side.
type FormatCaps struct {
	Alpha     bool // format accepts an alpha channel
	MultiPage bool // loader supports multiple pages
	Saveable  bool // the pipeline can emit this format
	Extension string
	MIME      string
}

// FormatRegistry maps Format values to their capabilities. It is seeded with
// the built-in table and is safe for concurrent use; engines with extra
// codecs can register more at startup.
type FormatRegistry struct {
	mu   sync.RWMutex
	caps map[Format]FormatCaps
}

// NewFormatRegistry returns a registry seeded with the built-in formats.
func NewFormatRegistry() *FormatRegistry {
	r := &FormatRegistry{caps: make(map[Format]FormatCaps)}
	for f, c := range builtinCaps {
		r.caps[f] = c
	}
	return r
}

var builtinCaps = map[Format]FormatCaps{
	FormatJPEG:   {Saveable: true, Extension: ".jpg", MIME: "image/jpeg"},
	FormatPNG:    {Alpha: true, Saveable: true, Extension: ".png", MIME: "image/png"},
	FormatWebP:   {Alpha: true, MultiPage: true, Saveable: true, Extension: ".webp", MIME: "image/webp"},
	FormatTIFF:   {Alpha: true, MultiPage: true, Saveable: true, Extension: ".tiff", MIME: "image/tiff"},
	FormatGIF:    {Alpha: true, MultiPage: true, Saveable: true, Extension: ".gif", MIME: "image/gif"},
	FormatSVG:    {Alpha: true, Extension: ".svg", MIME: "image/svg+xml"},
	FormatPDF:    {MultiPage: true, Extension: ".pdf", MIME: "application/pdf"},
	FormatHEIF:   {MultiPage: true, Extension: ".heif", MIME: "image/heif"},
	FormatMagick: {MultiPage: true, Extension: "", MIME: "application/octet-stream"},
}

// Register adds or replaces the capabilities of a format.
func (r *FormatRegistry) Register(f Format, c FormatCaps) {
	r.mu.Lock()
	r.caps[f] = c
	r.mu.Unlock()
}

// Caps returns the capabilities of f. Unknown formats report all-false.
func (r *FormatRegistry) Caps(f Format) (FormatCaps, bool) {
	r.mu.RLock()
	c, ok := r.caps[f]
	r.mu.RUnlock()
	return c, ok
}

// SupportsAlpha reports whether f accepts an alpha channel.
func (r *FormatRegistry) SupportsAlpha(f Format) bool {
	c, _ := r.Caps(f)
	return c.Alpha
}

// SupportsMultiPage reports whether f's loader handles multiple pages.
func (r *FormatRegistry) SupportsMultiPage(f Format) bool {
	c, _ := r.Caps(f)
	return c.MultiPage
}

// Saveable reports whether the pipeline can emit f.
func (r *FormatRegistry) Saveable(f Format) bool {
	c, _ := r.Caps(f)
	return c.Saveable
}

// Extension returns the file extension for f, ".png" for unknown formats
// (the safe default output).
func (r *FormatRegistry) Extension(f Format) string {
	c, ok := r.Caps(f)
	if !ok {
		return ".png"
	}
	return c.Extension
}
