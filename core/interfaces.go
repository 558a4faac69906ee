package core

import (
	"context"
	"time"
)

// Image is an opaque handle to a not-yet-materialized pixel computation
// graph owned by the engine. Stages consume one handle and produce a new
// one; no pixels are realized until Engine.Save forces evaluation. Callers
// must treat a consumed handle as spent.
type Image interface {
	Width() int
	Height() int
	Bands() int
	HasAlpha() bool

	// Loader returns the engine's loader identity for the source, e.g.
	// "VipsForeignLoadJpegBuffer". DetermineFormat classifies it.
	Loader() string
	Space() string // colorspace nickname
	Depth() string // band format nickname
	HasProfile() bool
	XRes() float64    // horizontal resolution in pixels/mm; 0 when unknown
	Orientation() int // EXIF orientation code, 0 when absent
	Pages() int       // declared page count, 0 when absent
	PageHeight() int  // declared page height, 0 when absent

	// Generic metadata access for optional codec fields. The bool result
	// mirrors field presence so callers never see placeholder values.
	HasField(name string) bool
	IntField(name string) (int, bool)
	IntArrayField(name string) ([]int, bool)
	StringField(name string) (string, bool)

	// Close releases the handle. Safe to call more than once.
	Close()
}

// Capabilities describes what an Engine implementation can do. The compiler
// consults it to silently omit stages whose preconditions fail.
type Capabilities struct {
	// VectorMask reports whether the engine can rasterize SVG path data
	// for shape masks.
	VectorMask bool
	// MultiPage reports whether the engine can load and save multi-page
	// (animated) images.
	MultiPage bool
	// SaveFormats lists the formats Save accepts.
	SaveFormats map[Format]bool
}

// CanSave reports whether the engine saves the given format.
func (c Capabilities) CanSave(f Format) bool { return c.SaveFormats[f] }

// Engine is the external image-processing boundary. All operations are
// fallible and lazy: they extend the computation graph without realizing
// pixels, except Save (the sole suspension point) and FindTrim (a bounds
// scan, an intentional documented exception).
//
// Implementations must be safe for concurrent use across requests; the only
// shared state is the engine's own internal pool.
type Engine interface {
	Name() string
	Capabilities() Capabilities

	Load(buf []byte, opts LoadOptions) (Image, error)
	Save(img Image, opts SaveOptions) ([]byte, error)

	// ClearThreadState releases per-thread engine caches. The executor
	// calls it on every exit path.
	ClearThreadState()

	// Orientation / geometry.
	AutoRotate(img Image) (Image, error)
	FindTrim(img Image, threshold float64, bg Color) (Rect, error)
	ExtractArea(img Image, r Rect) (Image, error)
	Resize(img Image, hscale, vscale float64, kernel Kernel) (Image, error)
	Rotate(img Image, angle int) (Image, error) // 90, 180 or 270
	Flip(img Image, horizontal bool) (Image, error)
	Embed(img Image, left, top, width, height int, bg Color, transparent bool) (Image, error)

	// Alpha and background.
	EnsureAlpha(img Image) (Image, error)
	Flatten(img Image, bg Color) (Image, error)
	ApplyMask(img Image, svg []byte) (Image, error)

	// Pixel-level filters.
	Blur(img Image, sigma float64) (Image, error)
	Sharpen(img Image, sigma float64) (Image, error)
	Gamma(img Image, exponent float64) (Image, error)
	Brightness(img Image, delta int) (Image, error) // -100..100
	Contrast(img Image, delta int) (Image, error)   // -100..100
	Saturate(img Image, multiplier float64) (Image, error)
	HueRotate(img Image, degrees int) (Image, error)
	Tint(img Image, c Color) (Image, error)
	Grayscale(img Image) (Image, error)
	Invert(img Image) (Image, error)
}

// Logger is a minimal structured logging interface.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// MetricsCollector receives performance observations from the executor.
type MetricsCollector interface {
	RecordStageTime(stage string, d time.Duration)
	RecordOutputBytes(n int64)
	RecordError(stage string, kind string)
}

// Hook is an optional observer invoked around pipeline stages.
type Hook interface {
	BeforeStage(ctx context.Context, stage string, img Image)
	AfterStage(ctx context.Context, stage string, img Image, d time.Duration, err error)
}
