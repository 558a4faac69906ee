package core

import (
	"strings"
	"testing"
)

// fakeImage is a scriptable Image for descriptor tests.
type fakeImage struct {
	width, height, bands int
	loader, space, depth string
	hasAlpha, hasProfile bool
	xres                 float64
	orientation          int
	pages, pageHeight    int
	intFields            map[string]int
	intArrayFields       map[string][]int
	stringFields         map[string]string
	flagFields           map[string]bool
}

func (f *fakeImage) Width() int { return f.width }
func (f *fakeImage) Height() int { return f.height }
func (f *fakeImage) Bands() int { return f.bands }
func (f *fakeImage) HasAlpha() bool { return f.hasAlpha }
func (f *fakeImage) Loader() string { return f.loader }
func (f *fakeImage) Space() string { return f.space }
func (f *fakeImage) Depth() string { return f.depth }
func (f *fakeImage) HasProfile() bool { return f.hasProfile }
func (f *fakeImage) XRes() float64 { return f.xres }
func (f *fakeImage) Orientation() int { return f.orientation }
func (f *fakeImage) Pages() int { return f.pages }
func (f *fakeImage) PageHeight() int { return f.pageHeight }

func (f *fakeImage) HasField(name string) bool {
	if f.flagFields[name] {
		return true
	}
	_, a := f.intFields[name]
	_, b := f.stringFields[name]
	_, c := f.intArrayFields[name]
	return a || b || c
}

func (f *fakeImage) IntField(name string) (int, bool) {
	v, ok := f.intFields[name]
	return v, ok
}

func (f *fakeImage) IntArrayField(name string) ([]int, bool) {
	v, ok := f.intArrayFields[name]
	return v, ok
}

func (f *fakeImage) StringField(name string) (string, bool) {
	v, ok := f.stringFields[name]
	return v, ok
}

func (f *fakeImage) Close() {}

func TestDetermineFormat(t *testing.T) {
	cases := map[string]Format{
		"VipsForeignLoadJpegBuffer":  FormatJPEG,
		"VipsForeignLoadJpegFile":    FormatJPEG,
		"VipsForeignLoadPngBuffer":   FormatPNG,
		"VipsForeignLoadNsgifBuffer": FormatGIF,
		"VipsForeignLoadSvgBuffer":   FormatSVG,
		"VipsForeignLoadPdfBuffer":   FormatPDF,
		"VipsForeignLoadHeifBuffer":  FormatHEIF,
		"VipsForeignLoadMagick7":     FormatMagick,
		"jpeg":                       FormatJPEG,
		"png":                        FormatPNG,
		"webp":                       FormatWebP,
		"mystery-loader":             FormatUnknown,
		"":                           FormatUnknown,
	}
	for loader, want := range cases {
		if got := DetermineFormat(loader); got != want {
			t.Errorf("DetermineFormat(%q) = %s, want %s", loader, got, want)
		}
	}
}

func TestDescribeDensity(t *testing.T) {
	img := &fakeImage{width: 10, height: 10, loader: "png", space: "srgb", xres: 2.0}
	d := Describe(img)
	// 2 px/mm * 25.4 = 50.8, rounded to 51 dpi.
	if d.Density != 51 {
		t.Fatalf("density %d, want 51", d.Density)
	}

	// The libvips default of 1 px/mm carries no real information.
	img.xres = 1.0
	if d := Describe(img); d.Density != 0 {
		t.Fatalf("density %d for default resolution, want 0", d.Density)
	}
}

func TestDescribeOptionalFields(t *testing.T) {
	loop := 3
	img := &fakeImage{
		width: 10, height: 30, bands: 4,
		loader: "VipsForeignLoadGifBuffer", space: "srgb", depth: "uchar",
		hasAlpha: true, pages: 3, pageHeight: 10,
		intFields:      map[string]int{FieldLoop: loop, FieldPaletteBitDepth: 8},
		intArrayFields: map[string][]int{FieldDelay: {100, 100, 100}},
	}
	d := Describe(img)
	if d.Loop == nil || *d.Loop != 3 {
		t.Fatalf("loop not captured: %v", d.Loop)
	}
	if d.PaletteBitDepth == nil || *d.PaletteBitDepth != 8 {
		t.Fatalf("palette bit depth not captured: %v", d.PaletteBitDepth)
	}
	if len(d.DelayMs) != 3 {
		t.Fatalf("delay not captured: %v", d.DelayMs)
	}
	if d.Format != FormatGIF {
		t.Fatalf("format %s, want gif", d.Format)
	}
}

func TestReportOmitsAbsentFields(t *testing.T) {
	img := &fakeImage{width: 10, height: 10, bands: 3, loader: "jpeg", space: "srgb", depth: "uchar"}
	buf, err := Describe(img).MarshalReport()
	if err != nil {
		t.Fatal(err)
	}
	s := string(buf)

	for _, absent := range []string{"paletteBitDepth", "loop", "delay", "pagePrimary", "density", "pages", "pageHeight", "chromaSubsampling"} {
		if strings.Contains(s, absent) {
			t.Errorf("report emitted absent field %q: %s", absent, s)
		}
	}
	// Presence-stable fields always appear, even at their zero values.
	for _, present := range []string{`"format"`, `"width"`, `"height"`, `"hasAlpha"`, `"orientation"`, `"isProgressive"`} {
		if !strings.Contains(s, present) {
			t.Errorf("report missing stable field %s: %s", present, s)
		}
	}
}

func TestReportMirrorsPresence(t *testing.T) {
	img := &fakeImage{
		width: 10, height: 10, bands: 3, loader: "jpeg", space: "srgb", depth: "uchar",
		stringFields: map[string]string{FieldChromaSubsample: "4:2:0"},
		flagFields:   map[string]bool{FieldInterlaced: true},
	}
	buf, err := Describe(img).MarshalReport()
	if err != nil {
		t.Fatal(err)
	}
	s := string(buf)
	if !strings.Contains(s, `"chromaSubsampling":"4:2:0"`) {
		t.Errorf("chroma subsampling missing: %s", s)
	}
	if !strings.Contains(s, `"isProgressive":true`) {
		t.Errorf("interlace flag missing: %s", s)
	}
}

func TestMaxAlpha(t *testing.T) {
	if got := (Descriptor{}).MaxAlpha(); got != 255 {
		t.Fatalf("8-bit max alpha %d, want 255", got)
	}
	if got := (Descriptor{Is16Bit: true}).MaxAlpha(); got != 65535 {
		t.Fatalf("16-bit max alpha %d, want 65535", got)
	}
}

func TestIs16BitSpace(t *testing.T) {
	for space, want := range map[string]bool{
		"rgb16": true, "grey16": true, "srgb": false, "b-w": false,
	} {
		if got := Is16BitSpace(space); got != want {
			t.Errorf("Is16BitSpace(%q) = %v, want %v", space, got, want)
		}
	}
}
