package core

// Format identifies an image codec or pseudo output.
type Format string

const (
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatTIFF    Format = "tiff"
	FormatGIF     Format = "gif"
	FormatSVG     Format = "svg"
	FormatPDF     Format = "pdf"
	FormatHEIF    Format = "heif"
	FormatMagick  Format = "magick"
	FormatUnknown Format = "unknown"

	// FormatJSON is the metadata-report pseudo output: the request returns
	// the introspection record instead of pixels.
	FormatJSON Format = "json"
)

// Kernel selects the resampling kernel for resize operations.
type Kernel string

const (
	KernelNearest  Kernel = "nearest"
	KernelLinear   Kernel = "linear"
	KernelCubic    Kernel = "cubic"
	KernelMitchell Kernel = "mitchell"
	KernelLanczos2 Kernel = "lanczos2"
	KernelLanczos3 Kernel = "lanczos3"
)

// Color is an sRGB color with alpha. The zero value is fully transparent
// black; use ColorBlack / ColorWhite for the opaque variants.
type Color struct {
	R, G, B, A uint8
}

var (
	ColorBlack = Color{0, 0, 0, 255}
	ColorWhite = Color{255, 255, 255, 255}
)

// IsTransparent reports whether the color has any transparency.
func (c Color) IsTransparent() bool { return c.A < 255 }

// IsZero reports whether the color is the unset zero value.
func (c Color) IsZero() bool { return c == Color{} }

// Rect is a pixel rectangle anchored at (Left, Top).
type Rect struct {
	Left, Top, Width, Height int
}

// Descriptor holds read-only facts derived from a loaded image handle.
// It is a view, not a store: recompute it with Describe after any stage
// that changes geometry. Zero values on Density, Pages and PageHeight mean
// the source did not declare them.
type Descriptor struct {
	Width       int
	Height      int
	Bands       int
	Space       string // colorspace nickname, e.g. "srgb", "b-w", "rgb16"
	Depth       string // band format nickname, e.g. "uchar", "ushort"
	Format      Format
	Is16Bit     bool
	HasAlpha    bool
	HasProfile  bool
	Density     int // pixels/inch; 0 when the source has no meaningful density
	Interlaced  bool
	Orientation int // EXIF orientation code, 0 when absent

	// Multi-page / animation facts.
	Pages      int // page count, 0 when not declared
	PageHeight int // declared page height, 0 when not declared

	// Optional codec-specific facts. Nil pointers mean absent.
	ChromaSubsampling string
	PaletteBitDepth   *int
	Loop              *int
	DelayMs           []int
	PagePrimary       *int
}

// MaxAlpha returns the alpha channel maximum for the descriptor's bit depth:
// 255 for 8-bit encodings, 65535 for 16-bit encodings.
func (d Descriptor) MaxAlpha() int {
	if d.Is16Bit {
		return 65535
	}
	return 255
}

// Is16BitSpace reports whether pixel values in the given colorspace are
// 16-bit integers.
func Is16BitSpace(space string) bool {
	return space == "rgb16" || space == "grey16"
}

// StageKind identifies one processor stage. The set is closed; the executor
// dispatches on it with a single switch.
type StageKind string

const (
	StageOrientation StageKind = "orientation"
	StageTrim        StageKind = "trim"
	StagePreCrop     StageKind = "precrop"
	StageThumbnail   StageKind = "thumbnail"
	StagePostCrop    StageKind = "postcrop"
	StageRotation    StageKind = "rotation"
	StageFlip        StageKind = "flip"
	StageFlatten     StageKind = "flatten"
	StageMask        StageKind = "mask"
	StageEmbed       StageKind = "embed"
	StageBlur        StageKind = "blur"
	StageSharpen     StageKind = "sharpen"
	StageGamma       StageKind = "gamma"
	StageBrightness  StageKind = "brightness"
	StageContrast    StageKind = "contrast"
	StageSaturate    StageKind = "saturate"
	StageTint        StageKind = "tint"
	StageFilter      StageKind = "filter"
)

// Plan is the ordered sequence of stage invocations for one request plus the
// geometry and format decisions resolved at compile time. Built once by the
// compiler, consumed once by the executor.
type Plan struct {
	Stages []StageKind

	// Thumbnail geometry resolved against the descriptor.
	TargetWidth  int
	TargetHeight int
	CropNeeded   bool
	CropWidth    int // post-crop target, set when CropNeeded
	CropHeight   int
	PadWidth     int // embed target, set when the plan contains StageEmbed
	PadHeight    int

	// Format finalization.
	Output     Format
	NeedsAlpha bool

	// Multi-page decisions. SinglePage is forced once a geometry stage
	// invalidates page-height assumptions (crop, trim, mask).
	SinglePage bool
	PageHeight int
}

// Contains reports whether the plan includes the given stage.
func (p Plan) Contains(kind StageKind) bool {
	for _, s := range p.Stages {
		if s == kind {
			return true
		}
	}
	return false
}

// LoadOptions controls how the engine materializes the lazy handle from
// source bytes.
type LoadOptions struct {
	Page  int // zero-based page to start at
	Pages int // number of pages to load; -1 means all, 0/1 means one
}

// SaveOptions controls the final realization and encode.
type SaveOptions struct {
	Format         Format
	Quality        int // 1-100
	Interlace      bool
	StripMetadata  bool
	ZlibLevel      int  // png compression level 0-9
	AdaptiveFilter bool // png adaptive row filtering
	PageHeight     int  // multi-page output; 0 for single page
}
