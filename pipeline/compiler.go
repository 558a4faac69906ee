// Package pipeline compiles validated parameters into an ordered processing
// plan and executes it against the engine.
package pipeline

import (
	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/geometry"
	"github.com/pixelgate/imagepipe/params"
)

// Compiler maps a ParameterSet onto an ordered stage list. Stage order is
// fixed by policy: geometry stages run on orientation-corrected, trimmed
// pixels; color stages run after geometry stabilizes so no work is spent on
// pixels that a crop would discard.
type Compiler struct {
	Formats *core.FormatRegistry
}

// NewCompiler returns a Compiler backed by the given format registry.
func NewCompiler(formats *core.FormatRegistry) *Compiler {
	if formats == nil {
		formats = core.NewFormatRegistry()
	}
	return &Compiler{Formats: formats}
}

// Compile builds the plan for one request. A stage whose parameters are
// absent or whose precondition fails is omitted silently; geometry overflow
// and incompatible explicit format requests fail the compile.
func (c *Compiler) Compile(ps *params.ParameterSet, desc core.Descriptor, caps core.Capabilities) (core.Plan, error) {
	plan := core.Plan{SinglePage: true}
	stage := func(k core.StageKind) { plan.Stages = append(plan.Stages, k) }

	// Multi-page processing survives only when nothing below invalidates
	// the page-height assumption.
	multiPage := caps.MultiPage && ps.Pages != 1 && desc.Pages > 1 &&
		c.Formats.SupportsMultiPage(desc.Format)

	// 1. Orientation normalization. EXIF codes 5-8 transpose the axes, so
	// geometry below must be resolved against the corrected dimensions.
	srcW, srcH := desc.Width, desc.Height
	if ps.AutoOrient && desc.Orientation > 1 {
		stage(core.StageOrientation)
		if desc.Orientation >= 5 {
			srcW, srcH = srcH, srcW
		}
	}

	// 2. Trim. A bounds scan cannot span page boundaries.
	if ps.Trim > 0 {
		if desc.Pages > 1 {
			multiPage = false
		}
		stage(core.StageTrim)
	}

	// 3. Region extraction. Invalidates page-height assumptions.
	if ps.CropRequested() {
		stage(core.StagePreCrop)
		multiPage = false
		if w := clampDim(ps.CropW, srcW-clampDim(ps.CropX, srcW-1)); w > 0 {
			srcW = w
		}
		if h := clampDim(ps.CropH, srcH-clampDim(ps.CropY, srcH-1)); h > 0 {
			srcH = h
		}
	}

	// 4/5. Thumbnail resize and fit-driven post-crop.
	if ps.ResizeRequested() {
		geomH := srcH
		if multiPage {
			geomH = geometry.PageAwareHeight(desc.PageHeight, srcH)
		}
		ts, err := geometry.ResolveThumbnailSize(srcW, geomH, ps.Width, ps.Height, ps.Fit)
		if err != nil {
			return core.Plan{}, err
		}
		if ts.Width != srcW || ts.Height != geomH {
			stage(core.StageThumbnail)
		}
		plan.TargetWidth = ts.Width
		plan.TargetHeight = ts.Height
		if ts.CropNeeded {
			stage(core.StagePostCrop)
			plan.CropNeeded = true
			plan.CropWidth = minDim(ts.ReqWidth, ts.Width)
			plan.CropHeight = minDim(ts.ReqHeight, ts.Height)
			multiPage = false
		}
		if multiPage {
			plan.PageHeight = ts.Height
		}

		// Contain leaves one axis short of the request; an embed
		// background turns the deficit into padding.
		if ps.EmbedBackground != nil && !ts.CropNeeded &&
			(ts.Width < ts.ReqWidth || ts.Height < ts.ReqHeight) {
			plan.PadWidth = ts.ReqWidth
			plan.PadHeight = ts.ReqHeight
		}
	}

	// 6. Manual rotation / mirror. Odd quarter-turns swap the page axes.
	if ps.Angle != 0 {
		stage(core.StageRotation)
		if ps.Angle == 90 || ps.Angle == 270 {
			multiPage = false
		}
	}
	if ps.Flip || ps.Flop {
		stage(core.StageFlip)
	}

	// 7. Background fill, mask, embed padding.
	needsAlpha := false
	if ps.Background != nil && desc.HasAlpha {
		stage(core.StageFlatten)
		// A semi-transparent background composites under the image
		// instead of flattening it, so the alpha band must survive
		// through to the output.
		if ps.Background.IsTransparent() {
			needsAlpha = true
		}
	}
	if ps.Mask != params.MaskNone {
		// Shape masks need vector rasterization; engines without it
		// simply skip the stage.
		if caps.VectorMask {
			stage(core.StageMask)
			needsAlpha = true
			multiPage = false
		}
	}
	if plan.PadWidth > 0 || plan.PadHeight > 0 {
		stage(core.StageEmbed)
		if ps.EmbedBackground.IsTransparent() {
			needsAlpha = true
		}
	}

	// 8. Pixel-level filters, fixed relative order.
	if ps.Blur > 0 {
		stage(core.StageBlur)
	}
	if ps.Sharpen > 0 {
		stage(core.StageSharpen)
	}
	if ps.Gamma > 0 {
		stage(core.StageGamma)
	}
	if ps.Brightness != 0 {
		stage(core.StageBrightness)
	}
	if ps.Contrast != 0 {
		stage(core.StageContrast)
	}
	if (ps.HasSat && ps.Saturation != 1) || ps.Hue != 0 {
		stage(core.StageSaturate)
	}
	if ps.Tint != nil {
		stage(core.StageTint)
	}
	if ps.Filter != params.FilterNone {
		stage(core.StageFilter)
	}

	// 9. Format finalization.
	out, err := c.resolveOutput(ps, desc, caps, needsAlpha)
	if err != nil {
		return core.Plan{}, err
	}
	plan.Output = out
	plan.NeedsAlpha = needsAlpha
	plan.SinglePage = !multiPage
	if plan.SinglePage {
		plan.PageHeight = 0
	} else if !c.Formats.SupportsMultiPage(out) {
		plan.SinglePage = true
		plan.PageHeight = 0
	}
	return plan, nil
}

// resolveOutput selects a safe output format. An explicitly requested format
// that the engine cannot save, or that cannot carry a required alpha
// channel, is an error naming the format; a defaulted choice switches to png
// instead.
func (c *Compiler) resolveOutput(ps *params.ParameterSet, desc core.Descriptor, caps core.Capabilities, needsAlpha bool) (core.Format, error) {
	if ps.Output == core.FormatJSON {
		return core.FormatJSON, nil
	}

	if ps.Output != "" {
		if !caps.CanSave(ps.Output) || !c.Formats.Saveable(ps.Output) {
			return "", errors.Newf(errors.KindUnsupportedFormat, "output",
				"engine cannot save %s", ps.Output)
		}
		if needsAlpha && !c.Formats.SupportsAlpha(ps.Output) {
			return "", errors.Newf(errors.KindUnsupportedFormat, "output",
				"alpha channel requested but %s does not support alpha", ps.Output)
		}
		return ps.Output, nil
	}

	out := desc.Format
	if !c.Formats.Saveable(out) || !caps.CanSave(out) {
		out = core.FormatPNG
		if !desc.HasAlpha && !needsAlpha {
			out = core.FormatJPEG
		}
	}
	if needsAlpha && !c.Formats.SupportsAlpha(out) {
		out = core.FormatPNG
	}
	if !caps.CanSave(out) {
		return "", errors.New(errors.KindUnsupportedFormat, "output", errors.ErrUnsupportedSaver)
	}
	return out, nil
}

func clampDim(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func minDim(a, b int) int {
	if a < b {
		return a
	}
	return b
}
