package native

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/pixelgate/imagepipe/core"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func load(t *testing.T, e *Engine, buf []byte) core.Image {
	t.Helper()
	img, err := e.Load(buf, core.LoadOptions{})
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func TestLoadIdentifiesLoader(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(8, 8, color.NRGBA{A: 255})))
	if img.Loader() != "png" {
		t.Fatalf("loader %q, want png", img.Loader())
	}
	if img.Width() != 8 || img.Height() != 8 {
		t.Fatalf("got %dx%d, want 8x8", img.Width(), img.Height())
	}
}

func TestLoadEmptyInput(t *testing.T) {
	if _, err := NewEngine().Load(nil, core.LoadOptions{}); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestResize(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(100, 40, color.NRGBA{R: 10, A: 255})))

	out, err := e.Resize(img, 0.5, 0.5, core.KernelLanczos3)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 50 || out.Height() != 20 {
		t.Fatalf("got %dx%d, want 50x20", out.Width(), out.Height())
	}
}

func TestResizeNeverCollapsesToZero(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(10, 10, color.NRGBA{A: 255})))

	out, err := e.Resize(img, 0.001, 0.001, core.KernelNearest)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() < 1 || out.Height() < 1 {
		t.Fatalf("degenerate size %dx%d", out.Width(), out.Height())
	}
}

func TestExtractArea(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(100, 100, color.NRGBA{B: 255, A: 255})))

	out, err := e.ExtractArea(img, core.Rect{Left: 10, Top: 20, Width: 30, Height: 40})
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 30 || out.Height() != 40 {
		t.Fatalf("got %dx%d, want 30x40", out.Width(), out.Height())
	}
}

func TestRotateSwapsAxes(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(60, 20, color.NRGBA{G: 255, A: 255})))

	for _, angle := range []int{90, 270} {
		out, err := e.Rotate(img, angle)
		if err != nil {
			t.Fatal(err)
		}
		if out.Width() != 20 || out.Height() != 60 {
			t.Fatalf("rotate %d: got %dx%d, want 20x60", angle, out.Width(), out.Height())
		}
	}
	out, err := e.Rotate(img, 180)
	if err != nil {
		t.Fatal(err)
	}
	if out.Width() != 60 || out.Height() != 20 {
		t.Fatalf("rotate 180 changed the size: %dx%d", out.Width(), out.Height())
	}
}

func TestRotateDirection(t *testing.T) {
	e := NewEngine()
	// Top-left quadrant red, everything else black.
	src := solid(20, 20, color.NRGBA{A: 255})
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	img := load(t, e, encodePNG(t, src))

	// Clockwise 90: the red quadrant moves to the top-right.
	out, err := e.Rotate(img, 90)
	if err != nil {
		t.Fatal(err)
	}
	ni := out.(*nativeImage)
	r, _, _, _ := ni.img.At(15, 4).RGBA()
	if r>>8 != 255 {
		t.Fatal("clockwise rotation did not move the marker to the top-right")
	}
}

func TestFindTrimUniformBorder(t *testing.T) {
	e := NewEngine()
	// White canvas with a black block at (20,10)-(40,30).
	src := solid(100, 50, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	for y := 10; y < 30; y++ {
		for x := 20; x < 40; x++ {
			src.SetNRGBA(x, y, color.NRGBA{A: 255})
		}
	}
	img := load(t, e, encodePNG(t, src))

	r, err := e.FindTrim(img, 10, core.Color{})
	if err != nil {
		t.Fatal(err)
	}
	want := core.Rect{Left: 20, Top: 10, Width: 20, Height: 20}
	if r != want {
		t.Fatalf("trim box %+v, want %+v", r, want)
	}
}

func TestFindTrimUniformImage(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(30, 30, color.NRGBA{R: 128, G: 128, B: 128, A: 255})))

	r, err := e.FindTrim(img, 10, core.Color{})
	if err != nil {
		t.Fatal(err)
	}
	if r.Width != 30 || r.Height != 30 {
		t.Fatalf("uniform image must stay whole, got %+v", r)
	}
}

func TestFlattenRemovesAlpha(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(10, 10, color.NRGBA{R: 255, A: 128})))
	if !img.HasAlpha() {
		t.Fatal("source should carry alpha")
	}
	out, err := e.Flatten(img, core.ColorWhite)
	if err != nil {
		t.Fatal(err)
	}
	if out.HasAlpha() {
		t.Fatal("flatten must drop the alpha flag")
	}
}

func TestFlattenSemiTransparentBackgroundKeepsAlpha(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(10, 10, color.NRGBA{A: 0})))
	out, err := e.Flatten(img, core.Color{R: 255, A: 128})
	if err != nil {
		t.Fatal(err)
	}
	if !out.HasAlpha() {
		t.Fatal("semi-transparent background must keep the alpha flag")
	}
	ni, err := unwrap(out)
	if err != nil {
		t.Fatal(err)
	}
	// A fully transparent source pixel shows the background layer as-is.
	c := color.NRGBAModel.Convert(ni.img.At(5, 5)).(color.NRGBA)
	if c.A != 128 {
		t.Fatalf("background alpha %d, want 128", c.A)
	}
}

func TestGrayscaleReportsSingleBand(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(10, 10, color.NRGBA{R: 50, G: 180, B: 30, A: 255})))
	out, err := e.Grayscale(img)
	if err != nil {
		t.Fatal(err)
	}
	if out.Space() != "b-w" {
		t.Fatalf("space %q, want b-w", out.Space())
	}
}

func TestSaveRoundTrip(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(12, 8, color.NRGBA{R: 9, G: 8, B: 7, A: 255})))

	for _, f := range []core.Format{core.FormatPNG, core.FormatJPEG, core.FormatGIF} {
		buf, err := e.Save(img, core.SaveOptions{Format: f, Quality: 85, ZlibLevel: 6})
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		back, err := e.Load(buf, core.LoadOptions{})
		if err != nil {
			t.Fatalf("%s: reload: %v", f, err)
		}
		if back.Width() != 12 || back.Height() != 8 {
			t.Fatalf("%s: got %dx%d, want 12x8", f, back.Width(), back.Height())
		}
	}
}

func TestSaveUnsupportedFormat(t *testing.T) {
	e := NewEngine()
	img := load(t, e, encodePNG(t, solid(4, 4, color.NRGBA{A: 255})))
	if _, err := e.Save(img, core.SaveOptions{Format: core.FormatWebP, Quality: 80}); err == nil {
		t.Fatal("webp save must fail on the native engine")
	}
}
