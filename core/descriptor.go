package core

import (
	"math"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loaderPrefixes classifies engine loader identities into the closed Format
// set. Unknown loaders map to FormatUnknown rather than failing.
var loaderPrefixes = []struct {
	prefix string
	format Format
}{
	{"VipsForeignLoadJpeg", FormatJPEG},
	{"VipsForeignLoadPng", FormatPNG},
	{"VipsForeignLoadWebp", FormatWebP},
	{"VipsForeignLoadTiff", FormatTIFF},
	{"VipsForeignLoadGif", FormatGIF},
	{"VipsForeignLoadNsgif", FormatGIF},
	{"VipsForeignLoadSvg", FormatSVG},
	{"VipsForeignLoadPdf", FormatPDF},
	{"VipsForeignLoadHeif", FormatHEIF},
	{"VipsForeignLoadMagick", FormatMagick},
	// Native engine loader identities.
	{"jpeg", FormatJPEG},
	{"png", FormatPNG},
	{"webp", FormatWebP},
	{"tiff", FormatTIFF},
	{"gif", FormatGIF},
	{"bmp", FormatMagick},
}

// DetermineFormat classifies a loader identity into a recognized Format.
func DetermineFormat(loader string) Format {
	for _, e := range loaderPrefixes {
		if strings.HasPrefix(loader, e.prefix) {
			return e.format
		}
	}
	return FormatUnknown
}

// Metadata field names shared by the engines.
const (
	FieldChromaSubsample = "jpeg-chroma-subsample"
	FieldInterlaced      = "interlaced"
	FieldPaletteBitDepth = "palette-bit-depth"
	FieldLoop            = "loop"
	FieldDelay           = "delay"
	FieldPagePrimary     = "heif-primary"
	FieldNPages          = "n-pages"
	FieldPageHeight      = "page-height"
)

// Describe derives a Descriptor from the live handle. It re-reads every
// field so the result reflects the handle's current geometry; call it again
// after stages that change dimensions.
func Describe(img Image) Descriptor {
	space := img.Space()
	d := Descriptor{
		Width:       img.Width(),
		Height:      img.Height(),
		Bands:       img.Bands(),
		Space:       space,
		Depth:       img.Depth(),
		Format:      DetermineFormat(img.Loader()),
		Is16Bit:     Is16BitSpace(space),
		HasAlpha:    img.HasAlpha(),
		HasProfile:  img.HasProfile(),
		Orientation: img.Orientation(),
		Pages:       img.Pages(),
		PageHeight:  img.PageHeight(),
	}

	// Density is meaningful only above the 1 px/mm default.
	if xres := img.XRes(); xres > 1.0 {
		d.Density = int(math.Round(xres * 25.4))
	}
	if v, ok := img.StringField(FieldChromaSubsample); ok {
		d.ChromaSubsampling = v
	}
	d.Interlaced = img.HasField(FieldInterlaced)
	if v, ok := img.IntField(FieldPaletteBitDepth); ok {
		d.PaletteBitDepth = &v
	}
	if v, ok := img.IntField(FieldLoop); ok {
		d.Loop = &v
	}
	if v, ok := img.IntArrayField(FieldDelay); ok {
		d.DelayMs = v
	}
	if v, ok := img.IntField(FieldPagePrimary); ok {
		d.PagePrimary = &v
	}
	return d
}

// Report is the structured metadata record emitted for output=json.
// Optional-field presence mirrors descriptor field presence exactly; absent
// fields are omitted, never emitted as placeholders.
type Report struct {
	Format            string `json:"format"`
	Width             int    `json:"width"`
	Height            int    `json:"height"`
	Space             string `json:"space"`
	Channels          int    `json:"channels"`
	Depth             string `json:"depth"`
	Density           int    `json:"density,omitempty"`
	ChromaSubsampling string `json:"chromaSubsampling,omitempty"`
	IsProgressive     bool   `json:"isProgressive"`
	PaletteBitDepth   *int   `json:"paletteBitDepth,omitempty"`
	Pages             int    `json:"pages,omitempty"`
	PageHeight        int    `json:"pageHeight,omitempty"`
	Loop              *int   `json:"loop,omitempty"`
	DelayMs           []int  `json:"delay,omitempty"`
	PagePrimary       *int   `json:"pagePrimary,omitempty"`
	HasProfile        bool   `json:"hasProfile"`
	HasAlpha          bool   `json:"hasAlpha"`
	Orientation       int    `json:"orientation"`
}

// Report builds the metadata record for the descriptor.
func (d Descriptor) Report() Report {
	return Report{
		Format:            string(d.Format),
		Width:             d.Width,
		Height:            d.Height,
		Space:             d.Space,
		Channels:          d.Bands,
		Depth:             d.Depth,
		Density:           d.Density,
		ChromaSubsampling: d.ChromaSubsampling,
		IsProgressive:     d.Interlaced,
		PaletteBitDepth:   d.PaletteBitDepth,
		Pages:             d.Pages,
		PageHeight:        d.PageHeight,
		Loop:              d.Loop,
		DelayMs:           d.DelayMs,
		PagePrimary:       d.PagePrimary,
		HasProfile:        d.HasProfile,
		HasAlpha:          d.HasAlpha,
		Orientation:       d.Orientation,
	}
}

// MarshalReport serializes the descriptor's metadata record.
func (d Descriptor) MarshalReport() ([]byte, error) {
	return json.Marshal(d.Report())
}
