// Package vips adapts libvips (through govips) to the core.Engine boundary.
// All operations stay lazy: they extend libvips' demand-driven pipeline and
// no pixels are computed until Save.
package vips

import (
	"fmt"
	"runtime"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
)

// Config configures the libvips engine.
type Config struct {
	MaxCacheSize     int
	ConcurrencyLevel int
	ReportLeaks      bool
}

// Engine is the libvips-backed core.Engine. Safe for concurrent use across
// goroutines; libvips manages its own worker pool internally.
type Engine struct {
	cfg Config
}

// NewEngine initialises libvips and returns a ready Engine.
// Call Shutdown() once when the process exits.
func NewEngine(cfg Config) *Engine {
	if cfg.ConcurrencyLevel <= 0 {
		cfg.ConcurrencyLevel = runtime.NumCPU()
	}
	govips.Startup(&govips.Config{
		ConcurrencyLevel: cfg.ConcurrencyLevel,
		MaxCacheSize:     cfg.MaxCacheSize,
		ReportLeaks:      cfg.ReportLeaks,
	})
	return &Engine{cfg: cfg}
}

// Shutdown releases all libvips resources. Call once at process exit.
func (e *Engine) Shutdown() { govips.Shutdown() }

func (e *Engine) Name() string { return "vips" }

func (e *Engine) Capabilities() core.Capabilities {
	return core.Capabilities{
		VectorMask: true,
		MultiPage:  true,
		SaveFormats: map[core.Format]bool{
			core.FormatJPEG: true,
			core.FormatPNG:  true,
			core.FormatWebP: true,
			core.FormatTIFF: true,
			core.FormatGIF:  true,
		},
	}
}

// ClearThreadState drops libvips' per-thread caches after a request, the
// scoped-cleanup contract of the executor.
func (e *Engine) ClearThreadState() { govips.ShutdownThread() }

func (e *Engine) Load(buf []byte, opts core.LoadOptions) (core.Image, error) {
	if len(buf) == 0 {
		return nil, errors.ErrEmptyInput
	}
	params := govips.NewImportParams()
	if opts.Page > 0 {
		params.Page.Set(opts.Page)
	}
	if opts.Pages != 0 && opts.Pages != 1 {
		params.NumPages.Set(opts.Pages)
	}
	ref, err := govips.LoadImageFromBuffer(buf, params)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	return wrap(ref), nil
}

func (e *Engine) Save(img core.Image, opts core.SaveOptions) ([]byte, error) {
	vi, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	if opts.PageHeight > 0 {
		if err := vi.ref.SetPageHeight(opts.PageHeight); err != nil {
			return nil, fmt.Errorf("vips set page height: %w", err)
		}
	}
	return export(vi.ref, opts)
}

// ── orientation / geometry ───────────────────────────────────────────────────

func (e *Engine) AutoRotate(img core.Image) (core.Image, error) {
	return mutate(img, "autorotate", func(r *govips.ImageRef) error {
		return r.AutoRotate()
	})
}

func (e *Engine) FindTrim(img core.Image, threshold float64, bg core.Color) (core.Rect, error) {
	vi, err := unwrap(img)
	if err != nil {
		return core.Rect{}, err
	}
	var background *govips.Color
	if !bg.IsZero() {
		background = &govips.Color{R: bg.R, G: bg.G, B: bg.B}
	}
	left, top, width, height, err := vi.ref.FindTrim(threshold, background)
	if err != nil {
		return core.Rect{}, fmt.Errorf("vips find_trim: %w", err)
	}
	return core.Rect{Left: left, Top: top, Width: width, Height: height}, nil
}

func (e *Engine) ExtractArea(img core.Image, r core.Rect) (core.Image, error) {
	return mutate(img, "extract_area", func(ref *govips.ImageRef) error {
		return ref.ExtractArea(r.Left, r.Top, r.Width, r.Height)
	})
}

func (e *Engine) Resize(img core.Image, hscale, vscale float64, kernel core.Kernel) (core.Image, error) {
	return mutate(img, "resize", func(r *govips.ImageRef) error {
		return r.ResizeWithVScale(hscale, vscale, vipsKernel(kernel))
	})
}

func (e *Engine) Rotate(img core.Image, angle int) (core.Image, error) {
	return mutate(img, "rotate", func(r *govips.ImageRef) error {
		return r.Rotate(vipsAngle(angle))
	})
}

func (e *Engine) Flip(img core.Image, horizontal bool) (core.Image, error) {
	direction := govips.DirectionVertical
	if horizontal {
		direction = govips.DirectionHorizontal
	}
	return mutate(img, "flip", func(r *govips.ImageRef) error {
		return r.Flip(direction)
	})
}

func (e *Engine) Embed(img core.Image, left, top, width, height int, bg core.Color, transparent bool) (core.Image, error) {
	return mutate(img, "embed", func(r *govips.ImageRef) error {
		if transparent {
			return r.EmbedBackgroundRGBA(left, top, width, height,
				&govips.ColorRGBA{R: bg.R, G: bg.G, B: bg.B, A: bg.A})
		}
		return r.EmbedBackground(left, top, width, height,
			&govips.Color{R: bg.R, G: bg.G, B: bg.B})
	})
}

// ── alpha / background / mask ────────────────────────────────────────────────

func (e *Engine) EnsureAlpha(img core.Image) (core.Image, error) {
	return mutate(img, "add_alpha", func(r *govips.ImageRef) error {
		if r.HasAlpha() {
			return nil
		}
		return r.AddAlpha()
	})
}

// Flatten composites the image over a bg-colored layer. An opaque bg uses
// libvips' flatten and drops the alpha band; a semi-transparent bg keeps
// alpha by compositing over a constant layer built from the image geometry.
func (e *Engine) Flatten(img core.Image, bg core.Color) (core.Image, error) {
	return mutate(img, "flatten", func(r *govips.ImageRef) error {
		if !r.HasAlpha() {
			return nil
		}
		if !bg.IsTransparent() {
			return r.Flatten(&govips.Color{R: bg.R, G: bg.G, B: bg.B})
		}
		layer, err := r.Copy()
		if err != nil {
			return err
		}
		defer layer.Close()
		vals := []float64{float64(bg.R), float64(bg.G), float64(bg.B), float64(bg.A)}
		if layer.Bands() == 2 {
			luma := 0.2126*float64(bg.R) + 0.7152*float64(bg.G) + 0.0722*float64(bg.B)
			vals = []float64{luma, float64(bg.A)}
		}
		if err := layer.Linear(make([]float64, len(vals)), vals); err != nil {
			return err
		}
		if err := layer.Cast(govips.BandFormatUchar); err != nil {
			return err
		}
		return r.Composite(layer, govips.BlendModeDestOver, 0, 0)
	})
}

// ApplyMask rasterizes the SVG document, rescales it onto the image grid and
// keeps only the pixels under the shape (dest-in composite).
func (e *Engine) ApplyMask(img core.Image, svg []byte) (core.Image, error) {
	vi, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	mask, err := govips.LoadImageFromBuffer(svg, govips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips svg load: %w", err)
	}
	defer mask.Close()
	if mask.Width() != vi.ref.Width() || mask.Height() != vi.ref.Height() {
		hscale := float64(vi.ref.Width()) / float64(mask.Width())
		vscale := float64(vi.ref.Height()) / float64(mask.Height())
		if err := mask.ResizeWithVScale(hscale, vscale, govips.KernelLanczos3); err != nil {
			return nil, fmt.Errorf("vips mask resize: %w", err)
		}
	}
	if err := vi.ref.Composite(mask, govips.BlendModeDestIn, 0, 0); err != nil {
		return nil, fmt.Errorf("vips mask composite: %w", err)
	}
	return vi, nil
}

// ── pixel-level filters ──────────────────────────────────────────────────────

func (e *Engine) Blur(img core.Image, sigma float64) (core.Image, error) {
	return mutate(img, "gaussblur", func(r *govips.ImageRef) error {
		return r.GaussianBlur(sigma)
	})
}

func (e *Engine) Sharpen(img core.Image, sigma float64) (core.Image, error) {
	// x1/m2 follow the flat/jagged defaults used for web output.
	return mutate(img, "sharpen", func(r *govips.ImageRef) error {
		return r.Sharpen(sigma, 1.0, 2.0)
	})
}

func (e *Engine) Gamma(img core.Image, exponent float64) (core.Image, error) {
	return mutate(img, "gamma", func(r *govips.ImageRef) error {
		return r.Gamma(exponent)
	})
}

func (e *Engine) Brightness(img core.Image, delta int) (core.Image, error) {
	// Additive shift scaled onto the 8-bit range.
	return mutate(img, "brightness", func(r *govips.ImageRef) error {
		return r.Linear1(1, float64(delta)*2.55)
	})
}

func (e *Engine) Contrast(img core.Image, delta int) (core.Image, error) {
	// Standard linear contrast around the mid-gray point.
	c := float64(delta) * 2.55
	factor := (259 * (c + 255)) / (255 * (259 - c))
	return mutate(img, "contrast", func(r *govips.ImageRef) error {
		return r.Linear1(factor, 128*(1-factor))
	})
}

func (e *Engine) Saturate(img core.Image, multiplier float64) (core.Image, error) {
	return mutate(img, "saturate", func(r *govips.ImageRef) error {
		return r.Modulate(1, multiplier, 0)
	})
}

func (e *Engine) HueRotate(img core.Image, degrees int) (core.Image, error) {
	return mutate(img, "hue", func(r *govips.ImageRef) error {
		return r.Modulate(1, 1, float64(degrees))
	})
}

// Tint desaturates to luminance and multiplies each band toward the target
// color, preserving any alpha band untouched.
func (e *Engine) Tint(img core.Image, c core.Color) (core.Image, error) {
	return mutate(img, "tint", func(r *govips.ImageRef) error {
		if err := r.Modulate(1, 0, 0); err != nil {
			return err
		}
		a := []float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}
		b := []float64{0, 0, 0}
		if r.HasAlpha() {
			a = append(a, 1)
			b = append(b, 0)
		}
		return r.Linear(a, b)
	})
}

func (e *Engine) Grayscale(img core.Image) (core.Image, error) {
	return mutate(img, "greyscale", func(r *govips.ImageRef) error {
		return r.ToColorSpace(govips.InterpretationBW)
	})
}

func (e *Engine) Invert(img core.Image) (core.Image, error) {
	return mutate(img, "invert", func(r *govips.ImageRef) error {
		return r.Invert()
	})
}

// ── handle plumbing ──────────────────────────────────────────────────────────

// mutate applies op to the underlying ref and hands back the handle,
// preserving the linear consume/produce chain at the interface level.
func mutate(img core.Image, op string, fn func(*govips.ImageRef) error) (core.Image, error) {
	vi, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	if err := fn(vi.ref); err != nil {
		return nil, fmt.Errorf("vips %s: %w", op, err)
	}
	return vi, nil
}

func unwrap(img core.Image) (*vipsImage, error) {
	vi, ok := img.(*vipsImage)
	if !ok || vi == nil {
		return nil, fmt.Errorf("image handle was not produced by the vips engine")
	}
	return vi, nil
}

func wrap(ref *govips.ImageRef) *vipsImage {
	vi := &vipsImage{ref: ref}
	runtime.SetFinalizer(ref, func(r *govips.ImageRef) { r.Close() })
	return vi
}

var _ core.Engine = (*Engine)(nil)
