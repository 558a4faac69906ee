package pipeline

import (
	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/geometry"
	"github.com/pixelgate/imagepipe/params"
)

// sepiaTone is the tint applied by filt=sepia after desaturation.
var sepiaTone = core.Color{R: 112, G: 66, B: 20, A: 255}

// applyStage runs a single stage against the current handle and returns the
// next handle in the chain. Engine failures surface as stage errors carrying
// the stage identifier; nothing is caught or suppressed here.
//
// Descriptor dependencies per stage:
//   - trim reads current dimensions, invalidates them;
//   - precrop/postcrop read dimensions, invalidate page-height assumptions;
//   - thumbnail reads dimensions and page height, invalidates both;
//   - rotation swaps the width/height order for odd quarter-turns;
//   - the color stages read and invalidate nothing geometric.
func applyStage(eng core.Engine, kind core.StageKind, img core.Image, ps *params.ParameterSet, plan core.Plan) (core.Image, error) {
	var (
		next core.Image
		err  error
	)

	switch kind {
	case core.StageOrientation:
		next, err = eng.AutoRotate(img)

	case core.StageTrim:
		next, err = applyTrim(eng, img, ps)

	case core.StagePreCrop:
		next, err = applyPreCrop(eng, img, ps)

	case core.StageThumbnail:
		next, err = applyThumbnail(eng, img, plan, ps.Kernel)

	case core.StagePostCrop:
		left, top := geometry.AnchoredPosition(plan.CropWidth, plan.CropHeight, img.Width(), img.Height(), ps.Anchor)
		next, err = eng.ExtractArea(img, core.Rect{
			Left: maxInt(left, 0), Top: maxInt(top, 0),
			Width: plan.CropWidth, Height: plan.CropHeight,
		})

	case core.StageRotation:
		next, err = eng.Rotate(img, geometry.RotationForAngle(ps.Angle))

	case core.StageFlip:
		next = img
		if ps.Flip {
			next, err = eng.Flip(next, false)
		}
		if err == nil && ps.Flop {
			next, err = eng.Flip(next, true)
		}

	case core.StageFlatten:
		next, err = eng.Flatten(img, *ps.Background)

	case core.StageMask:
		next, err = applyMask(eng, img, ps)

	case core.StageEmbed:
		next, err = applyEmbed(eng, img, ps, plan)

	case core.StageBlur:
		next, err = eng.Blur(img, ps.Blur)

	case core.StageSharpen:
		next, err = eng.Sharpen(img, ps.Sharpen)

	case core.StageGamma:
		next, err = eng.Gamma(img, ps.Gamma)

	case core.StageBrightness:
		next, err = eng.Brightness(img, ps.Brightness)

	case core.StageContrast:
		next, err = eng.Contrast(img, ps.Contrast)

	case core.StageSaturate:
		next = img
		if ps.HasSat && ps.Saturation != 1 {
			next, err = eng.Saturate(next, ps.Saturation)
		}
		if err == nil && ps.Hue != 0 {
			next, err = eng.HueRotate(next, ps.Hue)
		}

	case core.StageTint:
		next, err = eng.Tint(img, *ps.Tint)

	case core.StageFilter:
		next, err = applyFilter(eng, img, ps.Filter)

	default:
		return img, nil
	}

	if err != nil {
		return nil, errors.Wrap(errors.KindStage, string(kind), err)
	}
	return next, nil
}

// applyTrim scans for uniform-color borders and extracts the remainder.
// This is the one stage that intentionally forces a partial evaluation of
// the pixel graph: the bounds scan needs sampled statistics.
func applyTrim(eng core.Engine, img core.Image, ps *params.ParameterSet) (core.Image, error) {
	var bg core.Color
	if ps.Background != nil {
		bg = *ps.Background
	}
	r, err := eng.FindTrim(img, float64(ps.Trim), bg)
	if err != nil {
		return nil, err
	}
	// An empty or full-frame result means there is nothing to remove.
	if r.Width <= 0 || r.Height <= 0 ||
		(r.Left == 0 && r.Top == 0 && r.Width == img.Width() && r.Height == img.Height()) {
		return img, nil
	}
	return eng.ExtractArea(img, r)
}

// applyPreCrop extracts the explicitly requested rectangle, clamped to the
// image bounds so adversarial offsets can never read past them.
func applyPreCrop(eng core.Engine, img core.Image, ps *params.ParameterSet) (core.Image, error) {
	w, h := img.Width(), img.Height()
	left := minInt(ps.CropX, w-1)
	top := minInt(ps.CropY, h-1)
	cw := minInt(ps.CropW, w-left)
	ch := minInt(ps.CropH, h-top)
	if cw <= 0 || ch <= 0 {
		return img, nil
	}
	return eng.ExtractArea(img, core.Rect{Left: left, Top: top, Width: cw, Height: ch})
}

// applyThumbnail rescales to the plan's resolved target. For multi-page
// sources the vertical scale is computed against the sanity-checked page
// height so every frame lands on the same grid.
func applyThumbnail(eng core.Engine, img core.Image, plan core.Plan, kernel core.Kernel) (core.Image, error) {
	srcW := img.Width()
	srcH := img.Height()
	targetH := plan.TargetHeight
	if !plan.SinglePage {
		srcH = geometry.PageAwareHeight(img.PageHeight(), srcH)
		targetH = plan.PageHeight
	}
	if srcW <= 0 || srcH <= 0 {
		return nil, errors.ErrInvalidDimensions
	}
	hscale := float64(plan.TargetWidth) / float64(srcW)
	vscale := float64(targetH) / float64(srcH)
	return eng.Resize(img, hscale, vscale, kernel)
}

// applyMask cuts the image to a vector shape. The shape is rasterized from
// generated SVG path data; an opaque mask background fills the corners.
func applyMask(eng core.Engine, img core.Image, ps *params.ParameterSet) (core.Image, error) {
	withAlpha, err := eng.EnsureAlpha(img)
	if err != nil {
		return nil, err
	}
	svg, bounds := maskSVG(ps.Mask, withAlpha.Width(), withAlpha.Height())
	masked, err := eng.ApplyMask(withAlpha, svg)
	if err != nil {
		return nil, err
	}
	if ps.MaskTrim && bounds.Width > 0 && bounds.Height > 0 &&
		(bounds.Width < masked.Width() || bounds.Height < masked.Height()) {
		masked, err = eng.ExtractArea(masked, bounds)
		if err != nil {
			return nil, err
		}
	}
	if ps.MaskBackground != nil {
		return eng.Flatten(masked, *ps.MaskBackground)
	}
	return masked, nil
}

// applyEmbed pads the image out to the derived request, placing it by the
// anchor. Transparent padding forces an alpha channel first.
func applyEmbed(eng core.Engine, img core.Image, ps *params.ParameterSet, plan core.Plan) (core.Image, error) {
	bg := *ps.EmbedBackground
	current := img
	var err error
	if bg.IsTransparent() {
		current, err = eng.EnsureAlpha(current)
		if err != nil {
			return nil, err
		}
	}
	left, top := geometry.AnchoredPosition(current.Width(), current.Height(), plan.PadWidth, plan.PadHeight, ps.Anchor)
	return eng.Embed(current, maxInt(left, 0), maxInt(top, 0), plan.PadWidth, plan.PadHeight, bg, bg.IsTransparent())
}

func applyFilter(eng core.Engine, img core.Image, f params.Filter) (core.Image, error) {
	switch f {
	case params.FilterGreyscale:
		return eng.Grayscale(img)
	case params.FilterNegate:
		return eng.Invert(img)
	case params.FilterSepia:
		gray, err := eng.Grayscale(img)
		if err != nil {
			return nil, err
		}
		return eng.Tint(gray, sepiaTone)
	}
	return img, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
