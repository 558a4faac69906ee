package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/errors"
	"github.com/pixelgate/imagepipe/params"
)

func fullCaps() core.Capabilities {
	return core.Capabilities{
		VectorMask: true,
		MultiPage:  true,
		SaveFormats: map[core.Format]bool{
			core.FormatJPEG: true,
			core.FormatPNG:  true,
			core.FormatWebP: true,
			core.FormatTIFF: true,
			core.FormatGIF:  true,
		},
	}
}

func nativeCaps() core.Capabilities {
	return core.Capabilities{
		SaveFormats: map[core.Format]bool{
			core.FormatJPEG: true,
			core.FormatPNG:  true,
			core.FormatGIF:  true,
		},
	}
}

func mustParams(t *testing.T, query string) *params.ParameterSet {
	t.Helper()
	ps, err := params.Validate(query)
	require.NoError(t, err)
	return ps
}

func TestCompileStageOrder(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "trim=10&cx=5&cy=5&cw=150&ch=40&w=50&h=50&fit=cover&ro=90&flip=1&blur=2&sharp=1&gam=2.2&bri=5&con=5&sat=2&tint=ff0000&filt=negate")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)

	want := []core.StageKind{
		core.StageTrim,
		core.StagePreCrop,
		core.StageThumbnail,
		core.StagePostCrop,
		core.StageRotation,
		core.StageFlip,
		core.StageBlur,
		core.StageSharpen,
		core.StageGamma,
		core.StageBrightness,
		core.StageContrast,
		core.StageSaturate,
		core.StageTint,
		core.StageFilter,
	}
	assert.Equal(t, want, plan.Stages)
}

func TestCompileOrientationFirst(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "w=100")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG, Orientation: 6}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	require.NotEmpty(t, plan.Stages)
	assert.Equal(t, core.StageOrientation, plan.Stages[0])

	// EXIF 6 transposes the axes: geometry must be resolved against 50x200.
	assert.Equal(t, 100, plan.TargetWidth)
	assert.Equal(t, 400, plan.TargetHeight)
}

func TestCompileOrientationDisabled(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "orient=none")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG, Orientation: 6}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.NotContains(t, plan.Stages, core.StageOrientation)
}

func TestCompileCoverPlan(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "w=100&h=100&fit=cover")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatPNG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)

	assert.Equal(t, []core.StageKind{core.StageThumbnail, core.StagePostCrop}, plan.Stages)
	assert.Equal(t, 400, plan.TargetWidth)
	assert.Equal(t, 100, plan.TargetHeight)
	assert.True(t, plan.CropNeeded)
	assert.Equal(t, 100, plan.CropWidth)
	assert.Equal(t, 100, plan.CropHeight)
	assert.Equal(t, core.FormatPNG, plan.Output)
}

func TestCompileNoResizeNoThumbnail(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "blur=3")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.Equal(t, []core.StageKind{core.StageBlur}, plan.Stages)
	assert.Zero(t, plan.TargetWidth)
}

func TestCompileThumbnailSkippedAtSourceSize(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "w=200&h=50&fit=fill")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.NotContains(t, plan.Stages, core.StageThumbnail)
}

func TestCompileEmbedOnContainDeficit(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "w=100&h=100&cbg=ffffff")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.Contains(t, plan.Stages, core.StageEmbed)
	assert.Equal(t, 100, plan.PadWidth)
	assert.Equal(t, 100, plan.PadHeight)
	assert.False(t, plan.NeedsAlpha)
}

func TestCompileTransparentEmbedNeedsAlpha(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "w=100&h=100&cbg=80ffffff")
	desc := core.Descriptor{Width: 200, Height: 50, Format: core.FormatJPEG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.True(t, plan.NeedsAlpha)
	// jpeg cannot carry the alpha, so the defaulted output flips to png.
	assert.Equal(t, core.FormatPNG, plan.Output)
}

func TestCompileFlattenRequiresSourceAlpha(t *testing.T) {
	c := NewCompiler(nil)

	ps := mustParams(t, "bg=ffffff")
	opaque := core.Descriptor{Width: 10, Height: 10, Format: core.FormatJPEG}
	plan, err := c.Compile(ps, opaque, fullCaps())
	require.NoError(t, err)
	assert.NotContains(t, plan.Stages, core.StageFlatten)

	withAlpha := core.Descriptor{Width: 10, Height: 10, Format: core.FormatPNG, HasAlpha: true}
	plan, err = c.Compile(ps, withAlpha, fullCaps())
	require.NoError(t, err)
	assert.Contains(t, plan.Stages, core.StageFlatten)
}

func TestCompileSemiTransparentBackgroundNeedsAlpha(t *testing.T) {
	c := NewCompiler(nil)
	withAlpha := core.Descriptor{Width: 10, Height: 10, Format: core.FormatPNG, HasAlpha: true}

	// The background's own alpha must survive to the output, so an
	// explicitly requested alpha-less format is an error.
	ps := mustParams(t, "bg=80ff0000&output=jpg")
	_, err := c.Compile(ps, withAlpha, fullCaps())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupportedFormat))
	assert.Contains(t, err.Error(), "jpeg")

	// Without an explicit format the plan keeps the alpha band instead.
	ps = mustParams(t, "bg=80ff0000")
	plan, err := c.Compile(ps, withAlpha, fullCaps())
	require.NoError(t, err)
	assert.Contains(t, plan.Stages, core.StageFlatten)
	assert.True(t, plan.NeedsAlpha)
	assert.Equal(t, core.FormatPNG, plan.Output)

	// A fully opaque background still flattens the alpha away.
	ps = mustParams(t, "bg=ff0000")
	plan, err = c.Compile(ps, withAlpha, fullCaps())
	require.NoError(t, err)
	assert.Contains(t, plan.Stages, core.StageFlatten)
	assert.False(t, plan.NeedsAlpha)
}

func TestCompileMaskNeedsVectorSupport(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "mask=circle")
	desc := core.Descriptor{Width: 10, Height: 10, Format: core.FormatPNG}

	plan, err := c.Compile(ps, desc, fullCaps())
	require.NoError(t, err)
	assert.Contains(t, plan.Stages, core.StageMask)
	assert.True(t, plan.NeedsAlpha)

	// An engine without vector rasterization skips the stage silently.
	plan, err = c.Compile(ps, desc, nativeCaps())
	require.NoError(t, err)
	assert.NotContains(t, plan.Stages, core.StageMask)
	assert.False(t, plan.NeedsAlpha)
}

func TestCompileExplicitOutputUnsupported(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "output=webp")
	desc := core.Descriptor{Width: 10, Height: 10, Format: core.FormatJPEG}

	_, err := c.Compile(ps, desc, nativeCaps())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupportedFormat))
	assert.Contains(t, err.Error(), "webp")
}

func TestCompileExplicitOutputAlphaConflict(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "mask=circle&output=jpg")
	desc := core.Descriptor{Width: 10, Height: 10, Format: core.FormatPNG}

	_, err := c.Compile(ps, desc, fullCaps())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnsupportedFormat))
	assert.Contains(t, err.Error(), "jpeg")
}

func TestCompileDefaultOutputAutoSwitch(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "")

	// A non-saveable source without alpha lands on jpeg.
	svg := core.Descriptor{Width: 10, Height: 10, Format: core.FormatSVG}
	plan, err := c.Compile(ps, svg, fullCaps())
	require.NoError(t, err)
	assert.Equal(t, core.FormatJPEG, plan.Output)

	// With alpha it lands on png instead.
	svg.HasAlpha = true
	plan, err = c.Compile(ps, svg, fullCaps())
	require.NoError(t, err)
	assert.Equal(t, core.FormatPNG, plan.Output)
}

func TestCompileMultiPage(t *testing.T) {
	c := NewCompiler(nil)
	desc := core.Descriptor{
		Width: 100, Height: 300, Format: core.FormatGIF,
		Pages: 3, PageHeight: 100,
	}

	t.Run("all pages survive a plain resize", func(t *testing.T) {
		ps := mustParams(t, "w=50&n=-1")
		plan, err := c.Compile(ps, desc, fullCaps())
		require.NoError(t, err)
		assert.False(t, plan.SinglePage)
		assert.Equal(t, 50, plan.PageHeight)
	})

	t.Run("default page window is single", func(t *testing.T) {
		ps := mustParams(t, "w=50")
		plan, err := c.Compile(ps, desc, fullCaps())
		require.NoError(t, err)
		assert.True(t, plan.SinglePage)
		assert.Zero(t, plan.PageHeight)
	})

	t.Run("odd quarter-turn forces single page", func(t *testing.T) {
		ps := mustParams(t, "n=-1&ro=90")
		plan, err := c.Compile(ps, desc, fullCaps())
		require.NoError(t, err)
		assert.True(t, plan.SinglePage)
	})

	t.Run("trim forces single page", func(t *testing.T) {
		ps := mustParams(t, "n=-1&trim=10")
		plan, err := c.Compile(ps, desc, fullCaps())
		require.NoError(t, err)
		assert.True(t, plan.SinglePage)
	})

	t.Run("single-page output format forces single page", func(t *testing.T) {
		ps := mustParams(t, "n=-1&output=jpg")
		plan, err := c.Compile(ps, desc, fullCaps())
		require.NoError(t, err)
		assert.True(t, plan.SinglePage)
		assert.Zero(t, plan.PageHeight)
	})
}

func TestCompileGeometryOverflow(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "h=1048576")
	desc := core.Descriptor{Width: 1 << 30, Height: 1, Format: core.FormatJPEG}

	_, err := c.Compile(ps, desc, fullCaps())
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindGeometry))
}

func TestCompileJSONOutputBypassesSaveChecks(t *testing.T) {
	c := NewCompiler(nil)
	ps := mustParams(t, "output=json")
	desc := core.Descriptor{Width: 10, Height: 10, Format: core.FormatPDF}

	plan, err := c.Compile(ps, desc, nativeCaps())
	require.NoError(t, err)
	assert.Equal(t, core.FormatJSON, plan.Output)
}
