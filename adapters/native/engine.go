// Package native is a pure-Go core.Engine built on disintegration/imaging
// and the x/image codecs. It avoids the CGO dependency on libvips for easier
// deployment and for tests; it trades laziness for simplicity, so every
// operation materializes eagerly. No vector masks, no multi-page sources.
package native

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/utils"
)

// Engine is the stdlib/imaging-backed core.Engine.
type Engine struct{}

// NewEngine returns a ready native engine. No global state to initialise.
func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Name() string { return "native" }

func (e *Engine) Capabilities() core.Capabilities {
	return core.Capabilities{
		VectorMask: false,
		MultiPage:  false,
		SaveFormats: map[core.Format]bool{
			core.FormatJPEG: true,
			core.FormatPNG:  true,
			core.FormatGIF:  true,
		},
	}
}

// ClearThreadState is a no-op: the native engine keeps no thread caches.
func (e *Engine) ClearThreadState() {}

func (e *Engine) Load(buf []byte, _ core.LoadOptions) (core.Image, error) {
	if len(buf) == 0 {
		return nil, errors.ErrEmptyInput
	}
	loader := utils.DetectFormat(buf)
	r := bytes.NewReader(buf)

	var (
		img image.Image
		err error
	)
	switch loader {
	case "jpeg":
		img, err = jpeg.Decode(r)
	case "png":
		img, err = png.Decode(r)
	case "webp":
		img, err = webp.Decode(r)
	case "gif":
		img, err = gif.Decode(r)
	case "tiff":
		img, err = tiff.Decode(r)
	case "bmp":
		img, err = bmp.Decode(r)
	default:
		return nil, fmt.Errorf("native load: unrecognized input")
	}
	if err != nil {
		return nil, fmt.Errorf("native load: %w", err)
	}
	return &nativeImage{img: img, loader: loader, hasAlpha: modelHasAlpha(img)}, nil
}

func (e *Engine) Save(img core.Image, opts core.SaveOptions) ([]byte, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	switch opts.Format {
	case core.FormatJPEG:
		err = jpeg.Encode(&buf, ni.img, &jpeg.Options{Quality: opts.Quality})
	case core.FormatPNG:
		enc := png.Encoder{CompressionLevel: pngLevel(opts.ZlibLevel)}
		err = enc.Encode(&buf, ni.img)
	case core.FormatGIF:
		err = gif.Encode(&buf, ni.img, nil)
	default:
		return nil, fmt.Errorf("%w: %s", errors.ErrUnsupportedSaver, opts.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("native save: %w", err)
	}
	return buf.Bytes(), nil
}

// ── orientation / geometry ───────────────────────────────────────────────────

// AutoRotate is a pass-through: the stdlib decoders do not surface EXIF, so
// the handle never reports an orientation that needs fixing.
func (e *Engine) AutoRotate(img core.Image) (core.Image, error) { return img, nil }

// FindTrim scans inward from each border for the first row/column deviating
// from the reference color by more than the threshold.
func (e *Engine) FindTrim(img core.Image, threshold float64, bg core.Color) (core.Rect, error) {
	ni, err := unwrap(img)
	if err != nil {
		return core.Rect{}, err
	}
	return findTrim(ni.img, threshold, bg), nil
}

func (e *Engine) ExtractArea(img core.Image, r core.Rect) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.Crop(src, image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height))
	})
}

func (e *Engine) Resize(img core.Image, hscale, vscale float64, kernel core.Kernel) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		b := src.Bounds()
		w := maxInt(1, int(float64(b.Dx())*hscale+0.5))
		h := maxInt(1, int(float64(b.Dy())*vscale+0.5))
		return imaging.Resize(src, w, h, resampleFilter(kernel))
	})
}

func (e *Engine) Rotate(img core.Image, angle int) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		// imaging rotates counter-clockwise; the pipeline's angles are
		// clockwise.
		switch angle {
		case 90:
			return imaging.Rotate270(src)
		case 180:
			return imaging.Rotate180(src)
		case 270:
			return imaging.Rotate90(src)
		}
		return src
	})
}

func (e *Engine) Flip(img core.Image, horizontal bool) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		if horizontal {
			return imaging.FlipH(src)
		}
		return imaging.FlipV(src)
	})
}

func (e *Engine) Embed(img core.Image, left, top, width, height int, bg core.Color, transparent bool) (core.Image, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	fill := color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: bg.A}
	canvas := imaging.New(width, height, fill)
	out := imaging.Paste(canvas, ni.img, image.Pt(left, top))
	return &nativeImage{img: out, loader: ni.loader, hasAlpha: ni.hasAlpha || transparent}, nil
}

// ── alpha / background / mask ────────────────────────────────────────────────

func (e *Engine) EnsureAlpha(img core.Image) (core.Image, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	// imaging.Clone always yields NRGBA, which carries an alpha band.
	return &nativeImage{img: imaging.Clone(ni.img), loader: ni.loader, hasAlpha: true}, nil
}

// Flatten composites the image over a bg-colored layer. An opaque bg
// removes the alpha band; a semi-transparent bg keeps it, with the layer's
// own alpha showing through wherever the image is transparent.
func (e *Engine) Flatten(img core.Image, bg core.Color) (core.Image, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	b := ni.img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: bg.A}}, image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), ni.img, b.Min, draw.Over)
	return &nativeImage{img: dst, loader: ni.loader, hasAlpha: bg.IsTransparent()}, nil
}

// ApplyMask is unsupported: the engine advertises VectorMask=false, so the
// compiler never schedules the stage. A direct call is a contract violation.
func (e *Engine) ApplyMask(core.Image, []byte) (core.Image, error) {
	return nil, fmt.Errorf("native engine cannot rasterize vector masks")
}

// ── pixel-level filters ──────────────────────────────────────────────────────

func (e *Engine) Blur(img core.Image, sigma float64) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.Blur(src, sigma)
	})
}

func (e *Engine) Sharpen(img core.Image, sigma float64) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.Sharpen(src, sigma)
	})
}

func (e *Engine) Gamma(img core.Image, exponent float64) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.AdjustGamma(src, exponent)
	})
}

func (e *Engine) Brightness(img core.Image, delta int) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.AdjustBrightness(src, float64(delta))
	})
}

func (e *Engine) Contrast(img core.Image, delta int) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.AdjustContrast(src, float64(delta))
	})
}

func (e *Engine) Saturate(img core.Image, multiplier float64) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.AdjustSaturation(src, (multiplier-1)*100)
	})
}

// HueRotate shifts the hue of every pixel in HSL space.
func (e *Engine) HueRotate(img core.Image, degrees int) (core.Image, error) {
	shift := float64(degrees)
	return e.apply(img, func(src image.Image) image.Image {
		return mapPixels(src, func(c colorful.Color) colorful.Color {
			h, s, l := c.Hsl()
			h += shift
			for h >= 360 {
				h -= 360
			}
			return colorful.Hsl(h, s, l)
		})
	})
}

// Tint desaturates to luminance then scales each channel toward the target.
func (e *Engine) Tint(img core.Image, c core.Color) (core.Image, error) {
	fr := float64(c.R) / 255
	fg := float64(c.G) / 255
	fb := float64(c.B) / 255
	return e.apply(img, func(src image.Image) image.Image {
		gray := imaging.Grayscale(src)
		return mapPixels(gray, func(p colorful.Color) colorful.Color {
			return colorful.Color{R: p.R * fr, G: p.G * fg, B: p.B * fb}
		})
	})
}

func (e *Engine) Grayscale(img core.Image) (core.Image, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	return &nativeImage{img: imaging.Grayscale(ni.img), loader: ni.loader, hasAlpha: ni.hasAlpha, gray: true}, nil
}

func (e *Engine) Invert(img core.Image) (core.Image, error) {
	return e.apply(img, func(src image.Image) image.Image {
		return imaging.Invert(src)
	})
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (e *Engine) apply(img core.Image, fn func(image.Image) image.Image) (core.Image, error) {
	ni, err := unwrap(img)
	if err != nil {
		return nil, err
	}
	return &nativeImage{img: fn(ni.img), loader: ni.loader, hasAlpha: ni.hasAlpha, gray: ni.gray}, nil
}

func unwrap(img core.Image) (*nativeImage, error) {
	ni, ok := img.(*nativeImage)
	if !ok || ni == nil {
		return nil, fmt.Errorf("image handle was not produced by the native engine")
	}
	return ni, nil
}

// mapPixels applies fn to every pixel, preserving alpha.
func mapPixels(src image.Image, fn func(colorful.Color) colorful.Color) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			mapped := fn(colorful.Color{
				R: float64(c.R) / 255,
				G: float64(c.G) / 255,
				B: float64(c.B) / 255,
			}).Clamped()
			r, g, bb := mapped.RGB255()
			dst.SetNRGBA(x-b.Min.X, y-b.Min.Y, color.NRGBA{R: r, G: g, B: bb, A: c.A})
		}
	}
	return dst
}

func findTrim(src image.Image, threshold float64, bg core.Color) core.Rect {
	b := src.Bounds()
	ref := color.NRGBAModel.Convert(src.At(b.Min.X, b.Min.Y)).(color.NRGBA)
	if !bg.IsZero() {
		ref = color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}
	}

	differs := func(x, y int) bool {
		c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
		d := absInt(int(c.R)-int(ref.R)) + absInt(int(c.G)-int(ref.G)) + absInt(int(c.B)-int(ref.B))
		return float64(d)/3 > threshold
	}
	rowDiffers := func(y int) bool {
		for x := b.Min.X; x < b.Max.X; x++ {
			if differs(x, y) {
				return true
			}
		}
		return false
	}
	colDiffers := func(x int) bool {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if differs(x, y) {
				return true
			}
		}
		return false
	}

	top := b.Min.Y
	for top < b.Max.Y && !rowDiffers(top) {
		top++
	}
	if top == b.Max.Y {
		// Uniform image; nothing left after a trim, keep it whole.
		return core.Rect{Left: 0, Top: 0, Width: b.Dx(), Height: b.Dy()}
	}
	bottom := b.Max.Y - 1
	for bottom > top && !rowDiffers(bottom) {
		bottom--
	}
	left := b.Min.X
	for left < b.Max.X && !colDiffers(left) {
		left++
	}
	right := b.Max.X - 1
	for right > left && !colDiffers(right) {
		right--
	}
	return core.Rect{
		Left:   left - b.Min.X,
		Top:    top - b.Min.Y,
		Width:  right - left + 1,
		Height: bottom - top + 1,
	}
}

func modelHasAlpha(img image.Image) bool {
	switch img.ColorModel() {
	case color.NRGBAModel, color.RGBAModel, color.NRGBA64Model, color.RGBA64Model:
		return true
	}
	return false
}

func resampleFilter(k core.Kernel) imaging.ResampleFilter {
	switch k {
	case core.KernelNearest:
		return imaging.NearestNeighbor
	case core.KernelLinear:
		return imaging.Linear
	case core.KernelCubic:
		return imaging.CatmullRom
	case core.KernelMitchell:
		return imaging.MitchellNetravali
	case core.KernelLanczos2, core.KernelLanczos3:
		return imaging.Lanczos
	default:
		return imaging.Lanczos
	}
}

func pngLevel(zlib int) png.CompressionLevel {
	switch {
	case zlib <= 0:
		return png.NoCompression
	case zlib <= 3:
		return png.BestSpeed
	case zlib <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

var _ core.Engine = (*Engine)(nil)
