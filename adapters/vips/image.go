package vips

import (
	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/pixelgate/imagepipe/core"
)

// vipsImage wraps a *govips.ImageRef as the opaque core.Image handle.
type vipsImage struct {
	ref *govips.ImageRef
}

func (v *vipsImage) Width() int { return v.ref.Width() }
func (v *vipsImage) Height() int { return v.ref.Height() }
func (v *vipsImage) Bands() int { return v.ref.Bands() }
func (v *vipsImage) HasAlpha() bool { return v.ref.HasAlpha() }

// Loader synthesizes the loader identity from the detected source type so
// format classification sees the canonical operation names.
func (v *vipsImage) Loader() string {
	if name, ok := loaderNames[v.ref.Format()]; ok {
		return name
	}
	return ""
}

var loaderNames = map[govips.ImageType]string{
	govips.ImageTypeJPEG:   "VipsForeignLoadJpegBuffer",
	govips.ImageTypePNG:    "VipsForeignLoadPngBuffer",
	govips.ImageTypeWEBP:   "VipsForeignLoadWebpBuffer",
	govips.ImageTypeTIFF:   "VipsForeignLoadTiffBuffer",
	govips.ImageTypeGIF:    "VipsForeignLoadGifBuffer",
	govips.ImageTypeSVG:    "VipsForeignLoadSvgBuffer",
	govips.ImageTypePDF:    "VipsForeignLoadPdfBuffer",
	govips.ImageTypeHEIF:   "VipsForeignLoadHeifBuffer",
	govips.ImageTypeAVIF:   "VipsForeignLoadHeifBuffer",
	govips.ImageTypeMagick: "VipsForeignLoadMagickBuffer",
}

func (v *vipsImage) Space() string {
	if nick, ok := interpretationNicks[v.ref.Interpretation()]; ok {
		return nick
	}
	return "srgb"
}

var interpretationNicks = map[govips.Interpretation]string{
	govips.InterpretationBW:     "b-w",
	govips.InterpretationCMYK:   "cmyk",
	govips.InterpretationLab:    "lab",
	govips.InterpretationRGB:    "rgb",
	govips.InterpretationRGB16:  "rgb16",
	govips.InterpretationGrey16: "grey16",
	govips.InterpretationSRGB:   "srgb",
	govips.InterpretationScRGB:  "scrgb",
	govips.InterpretationHSV:    "hsv",
}

func (v *vipsImage) Depth() string {
	if nick, ok := bandFormatNicks[v.ref.BandFormat()]; ok {
		return nick
	}
	return "uchar"
}

var bandFormatNicks = map[govips.BandFormat]string{
	govips.BandFormatUchar:  "uchar",
	govips.BandFormatChar:   "char",
	govips.BandFormatUshort: "ushort",
	govips.BandFormatShort:  "short",
	govips.BandFormatUint:   "uint",
	govips.BandFormatInt:    "int",
	govips.BandFormatFloat:  "float",
	govips.BandFormatDouble: "double",
}

func (v *vipsImage) HasProfile() bool { return v.ref.HasICCProfile() }
func (v *vipsImage) XRes() float64 { return v.ref.ResX() }
func (v *vipsImage) Orientation() int { return v.ref.Orientation() }

// Pages and PageHeight report 0 unless the source header actually declares
// the field; libvips defaults both for single-frame sources.
func (v *vipsImage) Pages() int {
	if !v.HasField(core.FieldNPages) {
		return 0
	}
	return v.ref.Pages()
}

func (v *vipsImage) PageHeight() int {
	if !v.HasField(core.FieldPageHeight) {
		return 0
	}
	return v.ref.PageHeight()
}

func (v *vipsImage) HasField(name string) bool {
	for _, f := range v.ref.GetFields() {
		if f == name {
			return true
		}
	}
	return false
}

func (v *vipsImage) IntField(name string) (int, bool) {
	if !v.HasField(name) {
		return 0, false
	}
	n, err := v.ref.GetInt(name)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (v *vipsImage) IntArrayField(name string) ([]int, bool) {
	if !v.HasField(name) {
		return nil, false
	}
	arr, err := v.ref.GetIntSlice(name)
	if err != nil || len(arr) == 0 {
		return nil, false
	}
	return arr, true
}

func (v *vipsImage) StringField(name string) (string, bool) {
	if !v.HasField(name) {
		return "", false
	}
	s, err := v.ref.GetString(name)
	if err != nil {
		return "", false
	}
	return s, true
}

func (v *vipsImage) Close() { v.ref.Close() }

var _ core.Image = (*vipsImage)(nil)
