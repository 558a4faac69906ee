// Package geometry contains the pure arithmetic of the pipeline: anchored
// positioning, thumbnail target sizing under fit strategies, page-height
// sanity checks and overflow-guarded multiplication. No I/O, no engine.
package geometry

import (
	"math"

	"github.com/pixelgate/imagepipe/errors"
)

// Anchor is one of nine reference points on a 3x3 grid used to place a
// smaller region within a larger one or vice versa.
type Anchor string

const (
	AnchorCenter      Anchor = "center"
	AnchorTop         Anchor = "top"
	AnchorRight       Anchor = "right"
	AnchorBottom      Anchor = "bottom"
	AnchorLeft        Anchor = "left"
	AnchorTopLeft     Anchor = "top-left"
	AnchorTopRight    Anchor = "top-right"
	AnchorBottomLeft  Anchor = "bottom-left"
	AnchorBottomRight Anchor = "bottom-right"
)

// Fit is the policy governing how a source maps to a requested target size.
type Fit string

const (
	// FitContain fits inside the request, preserving aspect ratio; one
	// dimension may fall short of the request.
	FitContain Fit = "contain"
	// FitCover fills the request and overflows, then crops to exact size.
	FitCover Fit = "cover"
	// FitFill matches the request exactly, not preserving aspect ratio.
	FitFill Fit = "fill"
	// FitInside behaves like contain but never upscales.
	FitInside Fit = "inside"
	// FitOutside behaves like cover but never downscales.
	FitOutside Fit = "outside"
)

// maxDimension bounds any computed pixel dimension. Anything larger cannot
// be addressed with 32-bit pixel arithmetic.
const maxDimension = math.MaxInt32

// MulOverflow multiplies a and b, reporting whether the product leaves the
// signed 32-bit range.
func MulOverflow(a, b int) (int, bool) {
	t := int64(a) * int64(b)
	if t > math.MaxInt32 || t < math.MinInt32 {
		return int(t), true
	}
	return int(t), false
}

// AnchoredPosition computes the (left, top) coordinates that place a region
// of innerW x innerH within an outer box of outerW x outerH according to the
// anchor. The formulas distribute the surplus (outer-inner) and hold
// identically for negative surplus, which is how crop offsets are derived.
func AnchoredPosition(innerW, innerH, outerW, outerH int, anchor Anchor) (left, top int) {
	switch anchor {
	case AnchorTop:
		left = (outerW - innerW) / 2
	case AnchorRight:
		left = outerW - innerW
		top = (outerH - innerH) / 2
	case AnchorBottom:
		left = (outerW - innerW) / 2
		top = outerH - innerH
	case AnchorLeft:
		top = (outerH - innerH) / 2
	case AnchorTopLeft:
		// (0, 0)
	case AnchorTopRight:
		left = outerW - innerW
	case AnchorBottomLeft:
		top = outerH - innerH
	case AnchorBottomRight:
		left = outerW - innerW
		top = outerH - innerH
	default:
		left = (outerW - innerW) / 2
		top = (outerH - innerH) / 2
	}
	return left, top
}

// ThumbnailSize is the resolved target geometry for the thumbnail stage.
// ReqWidth and ReqHeight echo the request with any zero axis derived from
// the source aspect ratio; post-crop and embed targets are based on them.
type ThumbnailSize struct {
	Width      int
	Height     int
	ReqWidth   int
	ReqHeight  int
	CropNeeded bool // a post-crop must trim the overflow to the request
}

// ResolveThumbnailSize computes the resize target for the requested bounds
// under the given fit strategy. A zero request on one axis derives it from
// the source aspect ratio; a zero request on both axes keeps the source
// size. All scaled dimensions are overflow-checked and the resolver fails
// with a geometry error rather than wrapping.
func ResolveThumbnailSize(srcW, srcH, reqW, reqH int, fit Fit) (ThumbnailSize, error) {
	if srcW <= 0 || srcH <= 0 {
		return ThumbnailSize{}, errors.New(errors.KindGeometry, "thumbnail", errors.ErrInvalidDimensions)
	}
	if reqW == 0 && reqH == 0 {
		return ThumbnailSize{Width: srcW, Height: srcH, ReqWidth: srcW, ReqHeight: srcH}, nil
	}

	// Derive the missing axis from the source aspect ratio.
	if reqW == 0 {
		w, err := scaleDim(srcW, reqH, srcH)
		if err != nil {
			return ThumbnailSize{}, err
		}
		reqW = w
	} else if reqH == 0 {
		h, err := scaleDim(srcH, reqW, srcW)
		if err != nil {
			return ThumbnailSize{}, err
		}
		reqH = h
	}

	if fit == FitFill {
		return ThumbnailSize{Width: reqW, Height: reqH, ReqWidth: reqW, ReqHeight: reqH}, nil
	}

	hscale := float64(reqW) / float64(srcW)
	vscale := float64(reqH) / float64(srcH)

	var scale float64
	crop := false
	switch fit {
	case FitCover:
		scale = math.Max(hscale, vscale)
		crop = true
	case FitOutside:
		scale = math.Max(hscale, vscale)
		if scale < 1 {
			scale = 1
		}
		crop = false
	case FitInside:
		scale = math.Min(hscale, vscale)
		if scale > 1 {
			scale = 1
		}
	default: // contain
		scale = math.Min(hscale, vscale)
	}

	w, err := roundDim(float64(srcW) * scale)
	if err != nil {
		return ThumbnailSize{}, err
	}
	h, err := roundDim(float64(srcH) * scale)
	if err != nil {
		return ThumbnailSize{}, err
	}
	// Cover only needs the post-crop when the scaled image actually
	// overflows the request on some axis.
	crop = crop && (w > reqW || h > reqH)
	return ThumbnailSize{Width: w, Height: h, ReqWidth: reqW, ReqHeight: reqH, CropNeeded: crop}, nil
}

// scaleDim computes dim * num / den with overflow detection.
func scaleDim(dim, num, den int) (int, error) {
	p, overflow := MulOverflow(dim, num)
	if overflow {
		return 0, errors.Newf(errors.KindGeometry, "thumbnail", "%d * %d: %v", dim, num, errors.ErrOverflow)
	}
	v := int(math.Round(float64(p) / float64(den)))
	if v < 1 {
		v = 1
	}
	return v, nil
}

// roundDim rounds a scaled dimension, clamping at 1 and failing above the
// 32-bit addressable range.
func roundDim(f float64) (int, error) {
	v := math.Round(f)
	if v > maxDimension {
		return 0, errors.New(errors.KindGeometry, "thumbnail", errors.ErrOverflow)
	}
	if v < 1 {
		v = 1
	}
	return int(v), nil
}

// PageAwareHeight returns the declared page height when it is plausible
// (positive and no larger than the full image height), else the full image
// height. Guards malformed multi-page metadata from driving out-of-bounds
// slicing downstream.
func PageAwareHeight(pageHeight, imageHeight int) int {
	if pageHeight > 0 && pageHeight <= imageHeight {
		return pageHeight
	}
	return imageHeight
}

// RotationForAngle maps a pre-normalized angle to one of the four supported
// rotations. Any other input is a precondition violation and yields the
// defensive default of 0; callers log it, never crash.
func RotationForAngle(angle int) int {
	switch angle {
	case 90, 180, 270:
		return angle
	default:
		return 0
	}
}
