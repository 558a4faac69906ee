// Package params translates an untrusted flat query string into a typed,
// validated ParameterSet. Translation is pure: clamp-policy fields snap to
// the nearest boundary, reject-policy fields fail with a validation error
// naming the key, unknown keys are ignored for forward compatibility.
package params

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/geometry"
)

// Bounds of the documented field policy table.
const (
	MaxDimension  = math.MaxInt32 / 8
	MaxDPR        = 8.0
	MinTrim       = 1
	MaxTrim       = 254
	DefaultTrim   = 10
	MinBlur       = 0.3
	MaxBlur       = 1000
	MinSharpen    = 1e-6
	MaxSharpen    = 10
	DefaultSharp  = 1.0
	MinGamma      = 1.0
	MaxGamma      = 3.0
	DefaultGamma  = 2.2
	MaxAdjust     = 100 // |brightness|, |contrast|
	MaxSaturation = 100
	MinQuality    = 1
	MaxQuality    = 100
	DefQuality    = 85
	MaxZlibLevel  = 9
	DefZlibLevel  = 6
	MaxPages      = 100000
)

// MaskShape selects the vector shape applied by the mask stage.
type MaskShape string

const (
	MaskNone        MaskShape = ""
	MaskCircle      MaskShape = "circle"
	MaskEllipse     MaskShape = "ellipse"
	MaskTriangle    MaskShape = "triangle"
	MaskTriangle180 MaskShape = "triangle-180"
	MaskPentagon    MaskShape = "pentagon"
	MaskPentagon180 MaskShape = "pentagon-180"
	MaskHexagon     MaskShape = "hexagon"
	MaskSquare      MaskShape = "square"
	MaskStar        MaskShape = "star"
	MaskHeart       MaskShape = "heart"
)

// Filter selects a whole-image color filter.
type Filter string

const (
	FilterNone      Filter = ""
	FilterGreyscale Filter = "greyscale"
	FilterSepia     Filter = "sepia"
	FilterNegate    Filter = "negate"
)

// ParameterSet is the typed, validated projection of one request's query
// string. It is created once by Validate and never mutated afterwards.
type ParameterSet struct {
	// Geometry.
	Width  int // 0 = not requested; DPR already folded in
	Height int
	Fit    geometry.Fit
	Anchor geometry.Anchor

	// Explicit region extraction.
	CropX, CropY int
	CropW, CropH int
	PreCrop      bool

	// Border trim; 0 means not requested.
	Trim int

	// Manual rotation / mirror. Angle is normalized to {0,90,180,270}.
	Angle int
	Flip  bool // vertical mirror
	Flop  bool // horizontal mirror

	// Pixel-level filters; zero values mean not requested except
	// Saturation, whose neutral value is 1.
	Blur       float64
	Sharpen    float64
	Gamma      float64
	Brightness int
	Contrast   int
	Saturation float64
	HasSat     bool
	Hue        int
	Tint       *core.Color
	Filter     Filter

	// Background / mask / embed.
	Background      *core.Color
	EmbedBackground *core.Color
	Mask            MaskShape
	MaskTrim        bool
	MaskBackground  *core.Color

	// Output finalization.
	Output         core.Format // "" = derive from source
	Quality        int
	Interlace      bool
	ZlibLevel      int
	AdaptiveFilter bool
	Strip          bool

	// Paging.
	Page  int
	Pages int // -1 = all pages

	Kernel     core.Kernel
	AutoOrient bool
}

// defaults returns a ParameterSet with every field at its documented default.
func defaults() *ParameterSet {
	return &ParameterSet{
		Fit:        geometry.FitContain,
		Anchor:     geometry.AnchorCenter,
		Saturation: 1,
		Quality:    DefQuality,
		ZlibLevel:  DefZlibLevel,
		Pages:      1,
		Kernel:     core.KernelLanczos3,
		AutoOrient: true,
	}
}

var fitAliases = map[string]geometry.Fit{
	"contain":    geometry.FitContain,
	"clip":       geometry.FitContain,
	"cover":      geometry.FitCover,
	"crop":       geometry.FitCover,
	"fill":       geometry.FitFill,
	"inside":     geometry.FitInside,
	"scale-down": geometry.FitInside,
	"outside":    geometry.FitOutside,
}

var anchorAliases = map[string]geometry.Anchor{
	"center":       geometry.AnchorCenter,
	"centre":       geometry.AnchorCenter,
	"top":          geometry.AnchorTop,
	"right":        geometry.AnchorRight,
	"bottom":       geometry.AnchorBottom,
	"left":         geometry.AnchorLeft,
	"top-left":     geometry.AnchorTopLeft,
	"top-right":    geometry.AnchorTopRight,
	"bottom-left":  geometry.AnchorBottomLeft,
	"bottom-right": geometry.AnchorBottomRight,
}

var outputAliases = map[string]core.Format{
	"jpg":  core.FormatJPEG,
	"jpeg": core.FormatJPEG,
	"png":  core.FormatPNG,
	"gif":  core.FormatGIF,
	"tiff": core.FormatTIFF,
	"webp": core.FormatWebP,
	"json": core.FormatJSON,
}

var maskShapes = map[string]MaskShape{
	"circle":       MaskCircle,
	"ellipse":      MaskEllipse,
	"triangle":     MaskTriangle,
	"triangle-180": MaskTriangle180,
	"pentagon":     MaskPentagon,
	"pentagon-180": MaskPentagon180,
	"hexagon":      MaskHexagon,
	"square":       MaskSquare,
	"star":         MaskStar,
	"heart":        MaskHeart,
}

var filterAliases = map[string]Filter{
	"greyscale": FilterGreyscale,
	"grayscale": FilterGreyscale,
	"sepia":     FilterSepia,
	"negate":    FilterNegate,
}

var kernelAliases = map[string]core.Kernel{
	"nearest":  core.KernelNearest,
	"linear":   core.KernelLinear,
	"cubic":    core.KernelCubic,
	"mitchell": core.KernelMitchell,
	"lanczos2": core.KernelLanczos2,
	"lanczos3": core.KernelLanczos3,
}

// Validate parses and validates a raw query string into a ParameterSet.
// It is idempotent: Validate(ps.Query()) reproduces an identical set.
func Validate(query string) (*ParameterSet, error) {
	ps := defaults()
	q := parseQuery(query)

	var dpr float64 = 1
	if v, ok := q["dpr"]; ok {
		dpr = clampFloat(parseFloat(v, 1), 0, MaxDPR)
		if dpr == 0 {
			dpr = 1
		}
	}
	ps.Width = scaleByDPR(clampInt(parseInt(q["w"], 0), 0, MaxDimension), dpr)
	ps.Height = scaleByDPR(clampInt(parseInt(q["h"], 0), 0, MaxDimension), dpr)

	if v, ok := q["fit"]; ok {
		if f, known := fitAliases[strings.ToLower(v)]; known {
			ps.Fit = f
		}
	}
	if _, ok := q["we"]; ok {
		// Legacy "without enlargement" flag.
		ps.Fit = geometry.FitInside
	}
	if v, ok := q["a"]; ok {
		if a, known := anchorAliases[strings.ToLower(v)]; known {
			ps.Anchor = a
		}
	}

	ps.CropX = clampInt(parseInt(q["cx"], 0), 0, MaxDimension)
	ps.CropY = clampInt(parseInt(q["cy"], 0), 0, MaxDimension)
	ps.CropW = clampInt(parseInt(q["cw"], 0), 0, MaxDimension)
	ps.CropH = clampInt(parseInt(q["ch"], 0), 0, MaxDimension)
	if v, ok := q["precrop"]; ok {
		ps.PreCrop = parseBool(v)
	}

	if v, ok := q["trim"]; ok {
		if v == "" {
			ps.Trim = DefaultTrim
		} else {
			ps.Trim = clampInt(parseInt(v, DefaultTrim), MinTrim, MaxTrim)
		}
	}

	if v, ok := q["ro"]; ok {
		ps.Angle = NormalizeAngle(parseInt(v, 0))
	}
	if v, ok := q["flip"]; ok {
		ps.Flip = parseBool(v)
	}
	if v, ok := q["flop"]; ok {
		ps.Flop = parseBool(v)
	}

	if v, ok := q["blur"]; ok {
		if f := parseFloat(v, 0); f > 0 {
			ps.Blur = clampFloat(f, MinBlur, MaxBlur)
		}
	}
	if v, ok := q["sharp"]; ok {
		if v == "" {
			ps.Sharpen = DefaultSharp
		} else if f := parseFloat(v, 0); f > 0 {
			ps.Sharpen = clampFloat(f, MinSharpen, MaxSharpen)
		}
	}
	if v, ok := q["gam"]; ok {
		if v == "" {
			ps.Gamma = DefaultGamma
		} else if f := parseFloat(v, 0); f > 0 {
			ps.Gamma = clampFloat(f, MinGamma, MaxGamma)
		}
	}
	ps.Brightness = clampInt(parseInt(q["bri"], 0), -MaxAdjust, MaxAdjust)
	ps.Contrast = clampInt(parseInt(q["con"], 0), -MaxAdjust, MaxAdjust)
	if v, ok := q["sat"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			ps.Saturation = clampFloat(f, 0, MaxSaturation)
			ps.HasSat = true
		}
	}
	if v, ok := q["hue"]; ok {
		ps.Hue = ((parseInt(v, 0) % 360) + 360) % 360
	}
	if c, ok := ParseColor(q["tint"]); ok {
		ps.Tint = &c
	}
	if v, ok := q["filt"]; ok {
		if f, known := filterAliases[strings.ToLower(v)]; known {
			ps.Filter = f
		}
	}

	if c, ok := ParseColor(q["bg"]); ok {
		ps.Background = &c
	}
	if c, ok := ParseColor(q["cbg"]); ok {
		ps.EmbedBackground = &c
	}
	if v, ok := q["mask"]; ok {
		if m, known := maskShapes[strings.ToLower(v)]; known {
			ps.Mask = m
		}
	}
	if v, ok := q["mtrim"]; ok {
		ps.MaskTrim = parseBool(v)
	}
	if c, ok := ParseColor(q["mbg"]); ok {
		ps.MaskBackground = &c
	}

	// output is a reject-policy field: an unrecognized value fails the
	// whole request rather than silently producing a surprise format.
	if v, ok := q["output"]; ok && v != "" {
		f, known := outputAliases[strings.ToLower(v)]
		if !known {
			return nil, errors.Newf(errors.KindValidation, "output", "unrecognized output format %q", v)
		}
		ps.Output = f
	}
	ps.Quality = clampInt(parseInt(q["q"], DefQuality), MinQuality, MaxQuality)
	if v, ok := q["il"]; ok {
		ps.Interlace = parseBool(v)
	}
	ps.ZlibLevel = clampInt(parseInt(q["l"], DefZlibLevel), 0, MaxZlibLevel)
	if v, ok := q["af"]; ok {
		ps.AdaptiveFilter = parseBool(v)
	}
	if v, ok := q["strip"]; ok {
		ps.Strip = parseBool(v)
	}

	// page is a reject-policy field: garbage indexes are an unambiguous
	// caller bug, not something to clamp.
	if v, ok := q["page"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Newf(errors.KindValidation, "page", "cannot parse page index %q", v)
		}
		if n < 0 {
			n = 0
		}
		ps.Page = n
	}
	if v, ok := q["n"]; ok {
		ps.Pages = clampInt(parseInt(v, 1), -1, MaxPages)
		if ps.Pages == 0 {
			ps.Pages = 1
		}
	}

	if v, ok := q["kernel"]; ok {
		if k, known := kernelAliases[strings.ToLower(v)]; known {
			ps.Kernel = k
		}
	}
	if v, ok := q["orient"]; ok && strings.EqualFold(v, "none") {
		ps.AutoOrient = false
	}

	return ps, nil
}

// CropRequested reports whether an explicit region extraction was asked for.
func (ps *ParameterSet) CropRequested() bool { return ps.CropW > 0 && ps.CropH > 0 }

// ResizeRequested reports whether any thumbnail target was asked for.
func (ps *ParameterSet) ResizeRequested() bool { return ps.Width > 0 || ps.Height > 0 }

// NormalizeAngle reduces any angle to a non-negative value below 360 and
// snaps it to the nearest multiple of 90.
func NormalizeAngle(angle int) int {
	a := ((angle % 360) + 360) % 360
	snapped := int(math.Round(float64(a)/90)) * 90
	return snapped % 360
}

// parseQuery splits a flat key=value query string. Keys are lowercased,
// first occurrence wins, malformed escapes make the pair absent rather than
// fatal.
func parseQuery(query string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			continue
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, dup := out[k]; !dup {
			out[k] = v
		}
	}
	return out
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "0", "false", "no":
		return false
	}
	return true
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func clampFloat(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func scaleByDPR(dim int, dpr float64) int {
	if dpr == 1 || dim == 0 {
		return dim
	}
	scaled := int(math.Round(float64(dim) * dpr))
	return clampInt(scaled, 0, MaxDimension)
}
