package params

import (
	"fmt"
	"strconv"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/pixelgate/imagepipe/core"
)

// Named colors accepted by the color-typed fields (bg, cbg, mbg, tint).
// A subset of the CSS keyword table; values are RRGGBB hex.
var namedColors = map[string]string{
	"black":   "000000",
	"silver":  "c0c0c0",
	"gray":    "808080",
	"grey":    "808080",
	"white":   "ffffff",
	"maroon":  "800000",
	"red":     "ff0000",
	"purple":  "800080",
	"fuchsia": "ff00ff",
	"magenta": "ff00ff",
	"green":   "008000",
	"lime":    "00ff00",
	"olive":   "808000",
	"yellow":  "ffff00",
	"navy":    "000080",
	"blue":    "0000ff",
	"teal":    "008080",
	"aqua":    "00ffff",
	"cyan":    "00ffff",
	"orange":  "ffa500",
	"pink":    "ffc0cb",
	"brown":   "a52a2a",
	"gold":    "ffd700",
	"indigo":  "4b0082",
	"violet":  "ee82ee",
}

// ParseColor parses a color-typed query value: 3/6-digit RGB hex, 4/8-digit
// ARGB hex (alpha first, matching the documented parameter list), or a named
// color. Malformed values report !ok and the field is treated as absent.
func ParseColor(s string) (core.Color, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(strings.ToLower(s)), "#")
	if s == "" {
		return core.Color{}, false
	}
	if s == "transparent" {
		return core.Color{}, true
	}
	if hex, ok := namedColors[s]; ok {
		s = hex
	}

	alpha := uint8(255)
	switch len(s) {
	case 3:
		s = expandShorthand(s)
	case 4:
		a, err := strconv.ParseUint(strings.Repeat(string(s[0]), 2), 16, 8)
		if err != nil {
			return core.Color{}, false
		}
		alpha = uint8(a)
		s = expandShorthand(s[1:])
	case 6:
		// already rrggbb
	case 8:
		a, err := strconv.ParseUint(s[:2], 16, 8)
		if err != nil {
			return core.Color{}, false
		}
		alpha = uint8(a)
		s = s[2:]
	default:
		return core.Color{}, false
	}

	c, err := colorful.Hex("#" + s)
	if err != nil {
		return core.Color{}, false
	}
	r, g, b := c.RGB255()
	return core.Color{R: r, G: g, B: b, A: alpha}, true
}

// expandShorthand turns "abc" into "aabbcc".
func expandShorthand(s string) string {
	var b strings.Builder
	for _, ch := range s {
		b.WriteRune(ch)
		b.WriteRune(ch)
	}
	return b.String()
}

// HexColor renders c in canonical query form: rrggbb, or aarrggbb when the
// color carries transparency.
func HexColor(c core.Color) string {
	if c.IsTransparent() {
		return fmt.Sprintf("%02x%02x%02x%02x", c.A, c.R, c.G, c.B)
	}
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}
