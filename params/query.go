package params

import (
	"strconv"
	"strings"

	"github.com/pixelgate/imagepipe/core"
	"github.com/pixelgate/imagepipe/geometry"
)

// Query serializes the set back to canonical query form: fixed key order,
// defaults omitted, flags as key=1. Validate(ps.Query()) yields a set
// identical to ps.
func (ps *ParameterSet) Query() string {
	var b strings.Builder

	add := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
	}
	addInt := func(key string, v int) { add(key, strconv.Itoa(v)) }
	addFloat := func(key string, v float64) { add(key, strconv.FormatFloat(v, 'g', -1, 64)) }
	addFlag := func(key string) { add(key, "1") }

	if ps.Width > 0 {
		addInt("w", ps.Width)
	}
	if ps.Height > 0 {
		addInt("h", ps.Height)
	}
	if ps.Fit != geometry.FitContain {
		add("fit", string(ps.Fit))
	}
	if ps.Anchor != geometry.AnchorCenter {
		add("a", string(ps.Anchor))
	}
	if ps.CropX != 0 {
		addInt("cx", ps.CropX)
	}
	if ps.CropY != 0 {
		addInt("cy", ps.CropY)
	}
	if ps.CropW != 0 {
		addInt("cw", ps.CropW)
	}
	if ps.CropH != 0 {
		addInt("ch", ps.CropH)
	}
	if ps.PreCrop {
		addFlag("precrop")
	}
	if ps.Trim != 0 {
		addInt("trim", ps.Trim)
	}
	if ps.Angle != 0 {
		addInt("ro", ps.Angle)
	}
	if ps.Flip {
		addFlag("flip")
	}
	if ps.Flop {
		addFlag("flop")
	}
	if ps.Blur > 0 {
		addFloat("blur", ps.Blur)
	}
	if ps.Sharpen > 0 {
		addFloat("sharp", ps.Sharpen)
	}
	if ps.Gamma > 0 {
		addFloat("gam", ps.Gamma)
	}
	if ps.Brightness != 0 {
		addInt("bri", ps.Brightness)
	}
	if ps.Contrast != 0 {
		addInt("con", ps.Contrast)
	}
	if ps.HasSat {
		addFloat("sat", ps.Saturation)
	}
	if ps.Hue != 0 {
		addInt("hue", ps.Hue)
	}
	if ps.Tint != nil {
		add("tint", HexColor(*ps.Tint))
	}
	if ps.Filter != FilterNone {
		add("filt", string(ps.Filter))
	}
	if ps.Background != nil {
		add("bg", HexColor(*ps.Background))
	}
	if ps.EmbedBackground != nil {
		add("cbg", HexColor(*ps.EmbedBackground))
	}
	if ps.Mask != MaskNone {
		add("mask", string(ps.Mask))
	}
	if ps.MaskTrim {
		addFlag("mtrim")
	}
	if ps.MaskBackground != nil {
		add("mbg", HexColor(*ps.MaskBackground))
	}
	if ps.Output != "" {
		add("output", string(ps.Output))
	}
	if ps.Quality != DefQuality {
		addInt("q", ps.Quality)
	}
	if ps.Interlace {
		addFlag("il")
	}
	if ps.ZlibLevel != DefZlibLevel {
		addInt("l", ps.ZlibLevel)
	}
	if ps.AdaptiveFilter {
		addFlag("af")
	}
	if ps.Strip {
		addFlag("strip")
	}
	if ps.Page != 0 {
		addInt("page", ps.Page)
	}
	if ps.Pages != 1 {
		addInt("n", ps.Pages)
	}
	if ps.Kernel != core.KernelLanczos3 {
		add("kernel", string(ps.Kernel))
	}
	if !ps.AutoOrient {
		add("orient", "none")
	}

	return b.String()
}
